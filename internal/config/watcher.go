package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/monolog/internal/watch"
)

// Watcher reloads the config file on change and publishes only valid configs.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	file   *watch.FileWatcher

	current *Config

	onReload func(cfg *Config)
	onError  func(err error)
}

// NewWatcher creates a Watcher for path (default path if empty), starting from initial.
func NewWatcher(path string, initial *Config, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		path = ConfigPath()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if initial == nil {
		initial = DefaultConfig()
	}

	w := &Watcher{
		logger:  logger,
		current: initial,
	}

	file, err := watch.NewFileWatcher(path, w.apply, logger)
	if err != nil {
		return nil, err
	}
	w.file = file
	return w, nil
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *Watcher) SetReloadCallback(callback func(cfg *Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback to invoke when a changed config fails validation.
func (w *Watcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Start begins watching the config file.
func (w *Watcher) Start() error {
	return w.file.Start()
}

// Stop stops watching the config file.
func (w *Watcher) Stop() error {
	return w.file.Stop()
}

// Current returns the last valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// apply parses and validates new file contents.
func (w *Watcher) apply(data []byte) {
	w.mu.RLock()
	reloadCallback := w.onReload
	errorCallback := w.onError
	w.mu.RUnlock()

	cfg, err := Parse(data)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded successfully")
	if reloadCallback != nil {
		reloadCallback(cfg)
	}
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
