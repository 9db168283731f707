package daemon

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/monolog/internal/config"
)

// ConfigSubscriber receives validated configuration reloads.
type ConfigSubscriber interface {
	UpdateConfig(cfg *config.Config)
}

// ConfigSource publishes configuration reloads. *config.Watcher implements it.
type ConfigSource interface {
	SetReloadCallback(func(cfg *config.Config))
	SetErrorCallback(func(err error))
	Start() error
	Stop() error
}

// Reloader fans configuration reloads out to the daemon's components and
// reports the outcome through the internal notifier.
type Reloader struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	source      ConfigSource
	notifier    *InternalNotifier
	subscribers []ConfigSubscriber
	running     bool
}

// NewReloader creates a Reloader fed by source. notifier may be nil.
func NewReloader(source ConfigSource, notifier *InternalNotifier, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reloader{
		logger:   logger,
		source:   source,
		notifier: notifier,
	}
	source.SetReloadCallback(r.reload)
	source.SetErrorCallback(r.failed)
	return r
}

// Subscribe adds a component to receive reloads.
func (r *Reloader) Subscribe(sub ConfigSubscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, sub)
}

// Start begins watching for changes.
func (r *Reloader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	if err := r.source.Start(); err != nil {
		return err
	}
	r.running = true
	r.logger.Debug("config hot-reload started")
	return nil
}

// Stop stops watching for changes.
func (r *Reloader) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.running = false
	return r.source.Stop()
}

func (r *Reloader) reload(cfg *config.Config) {
	r.mu.RLock()
	subs := append([]ConfigSubscriber(nil), r.subscribers...)
	r.mu.RUnlock()

	for _, sub := range subs {
		sub.UpdateConfig(cfg)
	}
	r.logger.Info("configuration applied", "subscribers", len(subs))
	if r.notifier != nil {
		r.notifier.NotifyConfigReloaded()
	}
}

func (r *Reloader) failed(err error) {
	r.logger.Warn("configuration reload rejected", "error", err)
	if r.notifier != nil {
		r.notifier.NotifyConfigError(err)
	}
}
