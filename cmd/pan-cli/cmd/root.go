package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pan-cli",
	Short: "pan CLI tool",
	Long: `pan-cli is a command-line interface for the pan message bus.

Available commands:
  topics     Inspect and validate topics declared on the bus

Use "pan-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
