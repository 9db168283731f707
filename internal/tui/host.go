package tui

import (
	"sync"

	"github.com/jmylchreest/monolog/internal/overlay"
)

// Host is the terminal surface widgets attach their panels to.
// Changes are signalled on a coalescing channel the model waits on, so
// widget calls never block on the program loop.
type Host struct {
	mu      sync.RWMutex
	panels  []*overlay.Panel
	changed chan struct{}
}

// NewHost creates an empty terminal surface.
func NewHost() *Host {
	return &Host{
		changed: make(chan struct{}, 1),
	}
}

// Append attaches a panel. Attaching an attached panel is a no-op.
func (h *Host) Append(p *overlay.Panel) {
	h.mu.Lock()
	for _, existing := range h.panels {
		if existing == p {
			h.mu.Unlock()
			return
		}
	}
	h.panels = append(h.panels, p)
	h.mu.Unlock()

	h.Poke()
}

// Remove detaches a panel.
func (h *Host) Remove(p *overlay.Panel) {
	h.mu.Lock()
	for i, existing := range h.panels {
		if existing == p {
			h.panels = append(h.panels[:i], h.panels[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	h.Poke()
}

// Refresh redraws after an attached panel changed.
func (h *Host) Refresh(*overlay.Panel) {
	h.Poke()
}

// Poke requests a redraw.
func (h *Host) Poke() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Changes returns the redraw signal channel.
func (h *Host) Changes() <-chan struct{} {
	return h.changed
}

// Panels returns the attached panels in attach order.
func (h *Host) Panels() []*overlay.Panel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*overlay.Panel(nil), h.panels...)
}

// Snapshots returns the state of every attached panel.
func (h *Host) Snapshots() []overlay.PanelState {
	panels := h.Panels()
	states := make([]overlay.PanelState, len(panels))
	for i, p := range panels {
		states[i] = p.Snapshot()
	}
	return states
}
