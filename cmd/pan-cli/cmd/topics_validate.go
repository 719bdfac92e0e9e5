package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdr2/pan/internal/topics"
)

var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic name",
	Long: `Validate a topic name against the naming convention and, when the
topic is declared in the registry, show its declaration.

Examples:
  pan-cli topics validate chat.message.new
  pan-cli topics validate Invalid.Topic     # shows the name format error`,
	Args: cobra.ExactArgs(1),
	Run:  topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) {
	name := args[0]

	if err := topics.NewValidator().ValidateName(name); err != nil {
		fmt.Printf("❌ Topic name validation failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nTopic names are lowercase dot-separated segments, e.g. chat.message.new")
		os.Exit(1)
	}

	topic, found := topics.Get(name)
	if !found {
		fmt.Printf("✅ Topic name '%s' is valid (not declared in the registry)\n", name)
		fmt.Fprintln(os.Stderr, "\nUse 'pan-cli topics list' to see all declared topics.")
		return
	}

	fmt.Printf("✅ Topic '%s' is valid\n", topic.Name)
	fmt.Printf("   Scope: %s\n", topic.Scope)
	if topic.Module != "" {
		fmt.Printf("   Module: %s\n", topic.Module)
	} else {
		fmt.Printf("   Module: (framework)\n")
	}
	fmt.Printf("   Description: %s\n", topic.Description)
	fmt.Printf("   Pattern: %s\n", topic.Pattern)
	if topic.Example != "" {
		fmt.Printf("   Example: %s\n", topic.Example)
	}
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
