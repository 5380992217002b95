package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/cmd/essctl/commands"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect protocol log files written with --protocol-log",
}

var (
	viewLayer     string
	viewDirection string
	viewCategory  string
	viewEndpoint  string

	exportFormat string
	exportOutput string

	filterOpts commands.FilterOptions
)

var logViewCmd = &cobra.Command{
	Use:   "view <file.elog>",
	Short: "View a log file in human-readable format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter commands.ViewFilter
		if viewLayer != "" {
			l, err := commands.ParseLayer(viewLayer)
			if err != nil {
				return err
			}
			filter.Layer = &l
		}
		if viewDirection != "" {
			d, err := commands.ParseDirection(viewDirection)
			if err != nil {
				return err
			}
			filter.Direction = &d
		}
		if viewCategory != "" {
			c, err := commands.ParseCategory(viewCategory)
			if err != nil {
				return err
			}
			filter.Category = &c
		}
		filter.Endpoint = viewEndpoint
		return commands.RunView(args[0], filter, cmd.OutOrStdout())
	},
}

var logExportCmd = &cobra.Command{
	Use:   "export <file.elog>",
	Short: "Export a log file to JSON lines or CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return commands.RunExport(args[0], exportFormat, w)
	},
}

var logFilterCmd = &cobra.Command{
	Use:   "filter <file.elog>",
	Short: "Filter a log file and write the matching events to a new file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunFilter(args[0], filterOpts, cmd.OutOrStdout())
	},
}

var logStatsCmd = &cobra.Command{
	Use:   "stats <file.elog>",
	Short: "Show statistics about a log file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunStats(args[0], cmd.OutOrStdout())
	},
}

func init() {
	vf := logViewCmd.Flags()
	vf.StringVar(&viewLayer, "layer", "", "Filter by layer (discovery, http, session)")
	vf.StringVar(&viewDirection, "direction", "", "Filter by direction (in, out)")
	vf.StringVar(&viewCategory, "category", "", "Filter by category (message, state, discovery, error)")
	vf.StringVar(&viewEndpoint, "endpoint", "", "Filter by request path")

	ef := logExportCmd.Flags()
	ef.StringVar(&exportFormat, "format", "jsonl", "Output format (jsonl, csv)")
	ef.StringVar(&exportOutput, "out", "", "Output file (default: stdout)")

	ff := logFilterCmd.Flags()
	ff.StringVar(&filterOpts.Output, "out", "", "Output file (required)")
	ff.StringVar(&filterOpts.SessionID, "session-id", "", "Filter by session ID")
	ff.StringVar(&filterOpts.DeviceName, "device", "", "Filter by appliance name")
	ff.StringVar(&filterOpts.Endpoint, "endpoint", "", "Filter by request path")
	ff.StringVar(&filterOpts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	ff.StringVar(&filterOpts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	ff.StringVar(&filterOpts.Layer, "layer", "", "Filter by layer (discovery, http, session)")
	ff.StringVar(&filterOpts.Direction, "direction", "", "Filter by direction (in, out)")
	ff.StringVar(&filterOpts.Category, "category", "", "Filter by category (message, state, discovery, error)")
	_ = logFilterCmd.MarkFlagRequired("out")

	logCmd.AddCommand(logViewCmd, logExportCmd, logFilterCmd, logStatsCmd)
}
