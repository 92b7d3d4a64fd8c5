package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/benreeve-ow/isaac-word-agent-sub001/tools"
)

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Endpoints:
  POST /api/agent/stream       start a session (Server-Sent Events)
  POST /api/agent/tool-result  deliver a tool result
  GET  /api/tools              tool catalogue
  GET  /healthz                liveness
  GET  /metrics                Prometheus metrics

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		Example: `  wordagent serve
  wordagent serve --config /etc/wordagent.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildToolsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := tools.Registry()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTERMINAL\tDESCRIPTION")
			for _, d := range defs {
				fmt.Fprintf(tw, "%s\t%t\t%s\n", d.Name, d.Terminal, d.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print full definitions with input schemas as JSON")
	return cmd
}
