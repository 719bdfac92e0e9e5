package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cdr2/pan/internal/topics"
)

var (
	listOutputFormat string
	listModuleFilter string
)

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all declared topics",
	Long: `List all topics declared in the default topics registry.

Examples:
  pan-cli topics list                  # List all topics in table format
  pan-cli topics list --format json    # List all topics in JSON format
  pan-cli topics list --module chat    # Show only topics from the chat module`,
	Run: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) {
	registry := topics.Default()

	var topicList []topics.Topic
	if listModuleFilter != "" {
		topicList = registry.ListByModule(listModuleFilter)
	} else {
		topicList = registry.List()
	}

	if len(topicList) == 0 {
		if listModuleFilter != "" {
			fmt.Printf("No topics found for module '%s'\n", listModuleFilter)
		} else {
			fmt.Println("No topics declared")
		}
		return
	}

	switch listOutputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(topicList); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCOPE\tMODULE\tDESCRIPTION")
		for _, topic := range topicList {
			module := topic.Module
			if module == "" {
				module = "(framework)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", topic.Name, topic.Scope, module, topic.Description)
		}
		w.Flush()
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported output format '%s'. Use 'table' or 'json'\n", listOutputFormat)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
}
