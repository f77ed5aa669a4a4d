package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "codechat",
	Short: "Codechat - cost-governed LLM gateway for coding agents",
	Long: `Codechat routes coding tasks to the cheapest capable model and keeps
spend under control.

It provides:
  - Complexity-based routing across Anthropic, OpenAI, and local Ollama models
  - Persistent per-identity and global rate limits backed by SQLite
  - Daily cost budgets with spend tracking and alerts
  - Agent roles with output constraints (reviewer, coder, tester, ...)
  - An HTTP gateway and a one-shot CLI`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Credentials commonly live in a .env next to the binary; a
		// missing file is not an error.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (empty uses built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
