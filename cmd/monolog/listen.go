package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/monolog/internal/audio"
	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/daemon"
	"github.com/jmylchreest/monolog/internal/dbus"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/tui"
)

var listenOpts struct {
	events string
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Show desktop notifications as overlay panels in the terminal",
	Long: `Watch the session bus for desktop notifications and show each one in the
overlay panel.

monolog listens passively, so it works alongside the running notification
daemon. Each notice replaces the previous one and closes after its expire
timeout, or the [display] linger if the sender left it to the server.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVar(&listenOpts.events, "events", "",
		"Print the lifecycle event log on exit (plain, json, yaml)")
}

func runListen(cmd *cobra.Command, args []string) error {
	c := getConfig()
	host := tui.NewHost()
	recorder := events.NewRecorder(clock.Real(), 0)

	chime := audio.NewChime(audio.NewPlayer(logger), c, logger)
	if err := chime.Start(); err != nil {
		logger.Warn("failed to start chime", "error", err)
	}
	defer chime.Stop()

	presenter := daemon.NewPresenter(daemon.PresenterOptions{
		Config:   c,
		Surface:  host,
		Logger:   logger,
		Recorder: recorder,
		Chime:    chime,
		OnClosed: func(id uint32, reason dbus.CloseReason) {
			logger.Debug("notice closed", "id", id, "reason", reason)
		},
	})

	monitor := dbus.NewMonitor(logger)
	monitor.SetNoticeHandler(presenter.Notify)
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("failed to start D-Bus monitor: %w", err)
	}
	defer func() { _ = monitor.Stop() }()

	err := tui.Run(tui.Options{
		Config:   c,
		Host:     host,
		Widget:   presenter.Widget(),
		Recorder: recorder,
		Dismiss:  presenter.Dismiss,
		Title:    "listen",
	})
	presenter.Widget().Close()
	if err != nil {
		return err
	}

	return printEvents(recorder, listenOpts.events)
}
