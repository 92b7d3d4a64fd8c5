// Command wordagent is the backend for the Word editing add-in. It runs the
// model conversation, streams events to the add-in, and collects the results
// of the edits the add-in performs.
//
// Start the server:
//
//	wordagent serve --config wordagent.yaml
//
// List the tool catalogue the add-in must implement:
//
//	wordagent tools
//
// Configuration comes from the optional YAML file, then ANTHROPIC_API_KEY
// and the AGT_* environment variables.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "wordagent",
		Short:        "Agent bridge between the Word add-in and the model provider",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		buildServeCmd(),
		buildToolsCmd(),
	)
	return rootCmd
}
