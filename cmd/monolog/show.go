package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/monolog/internal/audio"
	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/overlay"
	"github.com/jmylchreest/monolog/internal/tui"
	"github.com/jmylchreest/monolog/internal/watch"
)

var showOpts struct {
	content     string
	contentFile string
	duration    time.Duration
	loader      bool
	noClose     bool
	open        bool
	events      string
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Run the terminal host with one overlay widget",
	Long: `Run the terminal host with one overlay widget.

The widget starts hidden unless --open is given. Flags override the
[widget] and [fade] sections of the config file.

Key bindings:
  s           Show (fade in)
  h           Hide (fade out)
  c           Close (fade out with the last show duration)
  x           Activate the dismiss control
  +/-         Adjust fade duration
  y           Copy content to clipboard
  ?           Show help
  q           Quit`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	flags := showCmd.Flags()
	flags.StringVar(&showOpts.content, "content", "", "Panel content (default: [widget] content)")
	flags.StringVar(&showOpts.contentFile, "content-file", "",
		"Read panel content from a file and follow changes to it")
	flags.DurationVar(&showOpts.duration, "duration", 0, "Fade duration (default: [fade] duration)")
	flags.BoolVar(&showOpts.loader, "loader", false, "Show a loader instead of content")
	flags.BoolVar(&showOpts.noClose, "no-close", false, "Omit the dismiss control")
	flags.BoolVar(&showOpts.open, "open", false, "Fade the widget in on start")
	flags.StringVar(&showOpts.events, "events", "",
		"Print the lifecycle event log on exit (plain, json, yaml)")
}

func runShow(cmd *cobra.Command, args []string) error {
	c := *getConfig()
	flags := cmd.Flags()
	if flags.Changed("duration") {
		c.Fade.Duration = config.Duration(showOpts.duration)
	}
	if flags.Changed("loader") {
		c.Widget.Loader = showOpts.loader
	}
	if flags.Changed("no-close") {
		c.Widget.Close = !showOpts.noClose
	}

	content := c.Widget.Content
	if flags.Changed("content") {
		content = showOpts.content
	}
	if showOpts.contentFile != "" {
		data, err := os.ReadFile(showOpts.contentFile)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		content = strings.TrimRight(string(data), "\n")
	}

	host := tui.NewHost()
	recorder := events.NewRecorder(clock.Real(), 0)

	opts := &overlay.Options{
		Content: content,
		Loader:  c.Widget.Loader,
		NoClose: !c.Widget.Close,
		Surface: host,
		Logger:  logger,
	}

	chime := audio.NewChime(audio.NewPlayer(logger), &c, logger)
	if chime.Enabled() {
		opts.OnOpening = chime.Play
		if err := chime.Start(); err != nil {
			logger.Warn("failed to start chime", "error", err)
		}
		defer chime.Stop()
	}

	recorder.Instrument(opts, "show")
	widget := overlay.New(opts)

	if showOpts.contentFile != "" {
		w, err := watch.NewFileWatcher(showOpts.contentFile, func(data []byte) {
			widget.SetContent(strings.TrimRight(string(data), "\n"))
		}, logger)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
	}

	if showOpts.open {
		widget.Show(c.Fade.Duration.Duration())
	}

	err := tui.Run(tui.Options{
		Config:   &c,
		Host:     host,
		Widget:   widget,
		Recorder: recorder,
		Title:    "show",
	})
	widget.Close()
	if err != nil {
		return err
	}

	return printEvents(recorder, showOpts.events)
}

// printEvents writes the recorded lifecycle events to stdout.
func printEvents(recorder *events.Recorder, format string) error {
	if format == "" {
		return nil
	}
	return events.NewFormatter(events.FormatType(format)).Format(os.Stdout, recorder.Events())
}
