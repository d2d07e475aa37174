package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/stock-metadata/internal/category"
	"github.com/kozaktomas/stock-metadata/internal/constants"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the stock categories",
	Long: `List the stock agency categories accepted by --category.
A category may be given as the full label, the numeric id or the name.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, label := range category.Labels() {
			marker := ""
			if label == constants.DefaultCategory {
				marker = " (default)"
			}
			fmt.Printf("%s%s\n", label, marker)
		}
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
