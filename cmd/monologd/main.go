// Package main is the entry point for the monologd overlay daemon.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/monolog/internal/audio"
	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/daemon"
	"github.com/jmylchreest/monolog/internal/dbus"
	"github.com/jmylchreest/monolog/internal/display"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/theme"
)

const appID = "io.github.jmylchreest.monologd"

var (
	// Build-time variables
	version = "dev"
)

// noticeSource is the D-Bus side of the daemon: the notification server,
// or the passive monitor in --monitor mode.
type noticeSource interface {
	SetNoticeHandler(handler dbus.NoticeHandler)
	Start() error
	Stop() error
}

func main() {
	monitorMode := flag.Bool("monitor", false, "Observe notifications without owning the notification service (works alongside another daemon)")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/monolog/config.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("monologd version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	os.Exit(run(*configPath, *monitorMode, logger))
}

func run(configPath string, monitorMode bool, logger *slog.Logger) int {
	logger.Info("starting monologd", "version", version, "monitor", monitorMode)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	app := adw.NewApplication(appID, 0)

	// Owned by the GTK main loop once activated.
	var (
		themeLoader *theme.Loader
		host        *display.Host
		chime       *audio.Chime
		presenter   *daemon.Presenter
		source      noticeSource
		reloader    *daemon.Reloader
		journal     *events.Journal
		running     atomic.Bool
		stopOnce    sync.Once
	)

	stop := func() {
		stopOnce.Do(func() {
			if reloader != nil {
				if err := reloader.Stop(); err != nil {
					logger.Warn("error stopping config watcher", "error", err)
				}
			}
			if source != nil {
				if err := source.Stop(); err != nil {
					logger.Warn("error stopping D-Bus", "error", err)
				}
			}
			if presenter != nil {
				presenter.Widget().Close()
			}
			if chime != nil {
				chime.Stop()
			}
			if themeLoader != nil {
				themeLoader.StopHotReload()
			}
			if host != nil {
				host.Stop()
			}
			if journal != nil {
				_ = journal.Close()
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		glib.IdleAdd(func() {
			stop()
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.Load(cfg.Display.Theme); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		if err := themeLoader.StartHotReload(); err != nil {
			logger.Warn("failed to watch theme", "error", err)
		}

		host = display.NewHost(&app.Application, cfg, themeLoader, logger)

		notifier := daemon.NewInternalNotifier(clock.Real(), logger)

		chime = audio.NewChime(audio.NewPlayer(logger), cfg, logger)
		if err := chime.Start(); err != nil {
			logger.Warn("failed to start chime", "error", err)
			notifier.NotifyAudioError(err)
		}

		recorder := events.NewRecorder(clock.Real(), 0)
		recorder.SetNotify(func(e events.Event) {
			logger.Debug("overlay event", "widget", e.Widget, "kind", e.Kind)
		})
		if cfg.Events.Journal {
			j, err := events.OpenJournal(config.JournalPath())
			if err != nil {
				logger.Warn("failed to open event journal", "error", err)
			} else {
				journal = j
				record := journal.Record(func(err error) {
					logger.Warn("failed to write event journal", "error", err)
				})
				recorder.SetNotify(func(e events.Event) {
					logger.Debug("overlay event", "widget", e.Widget, "kind", e.Kind)
					record(e)
				})
			}
		}

		var server *dbus.NotificationServer
		presenter = daemon.NewPresenter(daemon.PresenterOptions{
			Config:   cfg,
			Surface:  host,
			Logger:   logger,
			Recorder: recorder,
			Chime:    chime,
			OnClosed: func(id uint32, reason dbus.CloseReason) {
				if server != nil {
					server.Closed(id, reason)
				}
			},
		})

		if monitorMode {
			source = dbus.NewMonitor(logger)
		} else {
			server = dbus.NewNotificationServer(logger)
			server.SetCloseHandler(presenter.CloseNotice)
			source = server
		}
		source.SetNoticeHandler(presenter.Notify)
		notifier.SetHandler(presenter.Notify)

		if err := source.Start(); err != nil {
			logger.Error("failed to start D-Bus", "error", err)
			stop()
			app.Quit()
			return
		}

		watcher, err := config.NewWatcher(configPath, cfg, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			reloader = daemon.NewReloader(watcher, notifier, logger)
			reloader.Subscribe(presenter)
			reloader.Subscribe(chime)
			reloader.Subscribe(host)
			reloader.Subscribe(themeLoader)
			if err := reloader.Start(); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		// GTK applications quit when their last window closes.
		keepAlive := gtk.NewWindow()
		keepAlive.SetApplication(&app.Application)
		keepAlive.SetDefaultSize(1, 1)
		keepAlive.SetDecorated(false)
		keepAlive.SetVisible(false)

		logger.Info("monologd ready", "dbus_interface", dbus.DBusInterface)
		notifier.NotifyStartup(version)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		stop()
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("monologd stopped")
	return 0
}
