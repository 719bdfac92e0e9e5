package cmd

import (
	"github.com/spf13/cobra"

	// Pull in the framework topic declarations (bus.error and friends).
	_ "github.com/cdr2/pan/internal/bus"
)

// topicsCmd is the parent for topic inspection subcommands.
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Inspect topics declared on the bus",
	Long: `Inspect and validate the topics declared in the default topics
registry. Typed events declared by feature modules register here at init
time, so every topic linked into this binary is discoverable.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
