package display

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/overlay"
)

// Host is the GTK surface for overlay panels. Its Surface methods may be
// called from any goroutine; the work is marshalled onto the GTK main loop.
type Host struct {
	app       *gtk.Application
	logger    *slog.Logger
	durations DurationClasser

	mu      sync.RWMutex
	display config.DisplayConfig

	// Only touched on the GTK main loop.
	windows map[string]*panelWindow
}

// NewHost creates a host that opens windows for app.
func NewHost(app *gtk.Application, cfg *config.Config, durations DurationClasser, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Host{
		app:       app,
		logger:    logger,
		durations: durations,
		display:   cfg.Display,
		windows:   make(map[string]*panelWindow),
	}
}

// Append opens a window for p.
func (h *Host) Append(p *overlay.Panel) {
	glib.IdleAdd(func() {
		if _, ok := h.windows[p.ID()]; ok {
			return
		}

		w := newPanelWindow(h.app, p, h.displayConfig(), h.logger)
		w.update(p.Snapshot(), h.durations)
		h.windows[p.ID()] = w
		w.show()
		h.logger.Debug("panel attached", "panel", p.ID())
	})
}

// Remove closes p's window.
func (h *Host) Remove(p *overlay.Panel) {
	glib.IdleAdd(func() {
		w, ok := h.windows[p.ID()]
		if !ok {
			return
		}
		delete(h.windows, p.ID())
		w.close()
		h.logger.Debug("panel detached", "panel", p.ID())
	})
}

// Refresh applies p's latest state to its window.
func (h *Host) Refresh(p *overlay.Panel) {
	glib.IdleAdd(func() {
		if w, ok := h.windows[p.ID()]; ok {
			w.update(p.Snapshot(), h.durations)
		}
	})
}

// UpdateConfig repositions open windows for new display settings.
func (h *Host) UpdateConfig(cfg *config.Config) {
	h.mu.Lock()
	h.display = cfg.Display
	h.mu.Unlock()

	glib.IdleAdd(func() {
		display := h.displayConfig()
		for _, w := range h.windows {
			w.reposition(display)
		}
	})
}

// Stop closes every window. Must be called on the GTK main loop.
func (h *Host) Stop() {
	for id, w := range h.windows {
		w.close()
		delete(h.windows, id)
	}
	h.logger.Info("display host stopped")
}

func (h *Host) displayConfig() config.DisplayConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.display
}
