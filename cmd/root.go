package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "stock-metadata",
	Short: "Generate stock photo metadata CSV files",
	Long: `Stock Metadata generates upload metadata for stock photo agencies.
From a subject and a keyword pool it builds up to 100 rows of filename,
title, keywords and category, rotating keywords and varying titles with
templates, keyword stuffing or an AI model (OpenAI, Gemini, Ollama, llama.cpp).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json (default from LOG_FORMAT)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the command logger, letting flags override the environment.
func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	format := cfg.Log.Format
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		format = v
	}
	return logging.New(os.Stderr, level, format)
}
