package main

import "github.com/kozaktomas/stock-metadata/cmd"

func main() {
	cmd.Execute()
}
