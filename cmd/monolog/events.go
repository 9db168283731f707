package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/events"
)

var eventsOpts struct {
	format string
	limit  int
	widget string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the daemon's lifecycle event journal",
	Long: `Print the lifecycle events monologd has written to its journal
(~/.local/share/monolog/events.jsonl).

Output formats:
  plain  Widget, event and relative time (default: [events] format)
  json   One JSON object per line
  yaml   A YAML list`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVarP(&eventsOpts.format, "format", "f", "",
		"Output format (plain, json, yaml)")
	eventsCmd.Flags().IntVarP(&eventsOpts.limit, "limit", "n", 0,
		"Only print the last n events (0 = all)")
	eventsCmd.Flags().StringVar(&eventsOpts.widget, "widget", "",
		"Only print events for this widget")
}

func runEvents(cmd *cobra.Command, args []string) error {
	all, err := events.ReadJournal(config.JournalPath())
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	selected := all[:0]
	for _, e := range all {
		if eventsOpts.widget == "" || e.Widget == eventsOpts.widget {
			selected = append(selected, e)
		}
	}
	if eventsOpts.limit > 0 && len(selected) > eventsOpts.limit {
		selected = selected[len(selected)-eventsOpts.limit:]
	}

	format := eventsOpts.format
	if format == "" {
		format = getConfig().Events.Format
	}
	return events.NewFormatter(events.FormatType(format)).Format(os.Stdout, selected)
}
