package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/watch"
)

// Sounder plays sound files. *Player implements it.
type Sounder interface {
	Play(path string) error
	Preload(path string) error
	SetVolume(volume float64)
	Invalidate(path string)
	Close()
}

// Chime plays the configured sound when an overlay starts opening.
type Chime struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  Sounder
	enabled bool
	path    string

	// watchMu serializes watcher replacement.
	watchMu sync.Mutex
	started bool
	watcher *watch.FileWatcher
}

// NewChime creates a chime from the audio section of cfg.
func NewChime(player Sounder, cfg *config.Config, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chime{
		logger: logger,
		player: player,
	}
	c.apply(cfg)
	return c
}

func (c *Chime) apply(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c.mu.Lock()
	c.enabled = cfg.Audio.Enabled && cfg.Audio.Sound != ""
	c.path = cfg.SoundPath()
	c.mu.Unlock()

	c.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)
}

// Enabled reports whether the chime will play.
func (c *Chime) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Start preloads the sound and watches it so edits are picked up.
// UpdateConfig keeps the watcher on the configured sound afterwards.
func (c *Chime) Start() error {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	c.started = true
	return c.watchSound()
}

// watchSound replaces the sound watcher with one for the current path.
// Caller holds watchMu.
func (c *Chime) watchSound() error {
	c.mu.Lock()
	old := c.watcher
	c.watcher = nil
	enabled, path := c.enabled, c.path
	c.mu.Unlock()

	if old != nil {
		_ = old.Stop()
	}
	if !enabled {
		return nil
	}

	if err := c.player.Preload(path); err != nil {
		c.logger.Warn("failed to preload chime", "path", path, "error", err)
	}

	w, err := watch.NewFileWatcher(path, func([]byte) {
		c.player.Invalidate(path)
		c.logger.Debug("chime changed on disk", "path", path)
	}, c.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return nil
}

// watchedPath returns the sound file being watched, or "" if none is.
func (c *Chime) watchedPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.watcher == nil {
		return ""
	}
	return c.watcher.Path()
}

// Ring plays the chime synchronously.
func (c *Chime) Ring() error {
	c.mu.RLock()
	enabled, path := c.enabled, c.path
	c.mu.RUnlock()

	if !enabled {
		return nil
	}
	return c.player.Play(path)
}

// Play rings the chime without blocking the caller. It is meant to be used
// as an OnOpening callback.
func (c *Chime) Play() {
	go func() {
		if err := c.Ring(); err != nil {
			c.logger.Warn("failed to play chime", "error", err)
		}
	}()
}

// UpdateConfig applies a reloaded configuration.
func (c *Chime) UpdateConfig(cfg *config.Config) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	c.mu.RLock()
	wasEnabled, old := c.enabled, c.path
	c.mu.RUnlock()

	c.apply(cfg)
	c.player.Invalidate(old)

	c.mu.RLock()
	enabled, path := c.enabled, c.path
	c.mu.RUnlock()

	if c.started && (enabled != wasEnabled || path != old) {
		if err := c.watchSound(); err != nil {
			c.logger.Warn("failed to watch chime", "path", path, "error", err)
		}
	}
	c.logger.Debug("chime config updated", "enabled", enabled, "path", path)
}

// Stop stops watching the sound and releases the player.
func (c *Chime) Stop() {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	c.started = false
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		_ = w.Stop()
	}
	c.player.Close()
}
