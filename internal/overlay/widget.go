package overlay

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/monolog/internal/clock"
)

// DefaultDuration is the fade duration used when none is given.
const DefaultDuration = 300 * time.Millisecond

// Options configures a widget. The zero value is a dismissible,
// empty widget on the Discard surface driven by the real clock.
type Options struct {
	Content string
	Loader  bool // Show a loader indicator instead of Content
	NoClose bool // Omit the built-in dismiss control

	OnOpening func()
	OnOpened  func()
	OnClosing func()
	OnClosed  func()

	Surface Surface
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Widget is a floating panel that fades in and out over a host surface.
//
// A Widget moves Hidden → Opening → Visible → Closing → Hidden. Show is
// accepted only while the panel is heading towards hidden, Hide only while
// it is heading towards visible. Accepting a call mid-transition cancels the
// transition in flight, so its completion callback never fires.
type Widget struct {
	mu     sync.Mutex
	inert  bool
	panel  *Panel
	logger *slog.Logger

	surface Surface
	clock   clock.Clock

	state    State
	attached bool
	pending  clock.Timer
	seq      uint64

	lastDuration time.Duration
	hasLoader    bool
	dismissible  bool

	onOpening func()
	onOpened  func()
	onClosing func()
	onClosed  func()
}

// New builds a widget. The panel starts transparent and is not attached to
// the surface until Show. A nil opts yields an inert widget on which every
// operation is a no-op.
func New(opts *Options) *Widget {
	if opts == nil {
		return &Widget{inert: true}
	}

	w := &Widget{
		panel:        newPanel(opts.Content, opts.Loader),
		logger:       opts.Logger,
		surface:      opts.Surface,
		clock:        opts.Clock,
		lastDuration: DefaultDuration,
		hasLoader:    opts.Loader,
		dismissible:  !opts.NoClose,
		onOpening:    orNop(opts.OnOpening),
		onOpened:     orNop(opts.OnOpened),
		onClosing:    orNop(opts.OnClosing),
		onClosed:     orNop(opts.OnClosed),
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.surface == nil {
		w.surface = Discard
	}
	if w.clock == nil {
		w.clock = clock.Real()
	}

	if w.dismissible {
		w.panel.attachDismiss(w.Close)
	}

	return w
}

func orNop(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return fn
}

// normalizeDuration clamps non-positive durations to the default.
func normalizeDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDuration
	}
	return d
}

// Show fades the panel in over d and attaches it to the surface.
// A non-positive d uses DefaultDuration.
func (w *Widget) Show(d time.Duration) {
	if w == nil || w.inert {
		return
	}
	d = normalizeDuration(d)

	w.mu.Lock()
	if w.state.Opacity() == OpacityVisible {
		w.mu.Unlock()
		return
	}
	seq := w.begin(StateOpening)
	w.lastDuration = d
	w.mu.Unlock()

	w.onOpening()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq != seq {
		// Superseded from within OnOpening.
		return
	}

	w.panel.setTransition(ClassFadeIn, d, OpacityVisible, w.clock.Now())
	if w.attached {
		w.refresh()
	} else {
		w.surface.Append(w.panel)
		w.attached = true
	}

	w.pending = w.clock.AfterFunc(d, func() { w.finishShow(seq) })
	w.logger.Debug("overlay opening", "panel", w.panel.id, "duration", d)
}

// Hide fades the panel out over d and detaches it once the fade completes.
// A non-positive d uses DefaultDuration.
func (w *Widget) Hide(d time.Duration) {
	if w == nil || w.inert {
		return
	}
	d = normalizeDuration(d)

	w.mu.Lock()
	if w.state.Opacity() != OpacityVisible {
		w.mu.Unlock()
		return
	}
	seq := w.begin(StateClosing)
	w.mu.Unlock()

	w.onClosing()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq != seq {
		return
	}

	w.panel.setTransition(ClassFadeOut, d, OpacityHidden, w.clock.Now())
	w.refresh()

	w.pending = w.clock.AfterFunc(d, func() { w.finishHide(seq) })
	w.logger.Debug("overlay closing", "panel", w.panel.id, "duration", d)
}

// Close hides the panel using the duration of the most recent Show.
func (w *Widget) Close() {
	if w == nil || w.inert {
		return
	}
	w.mu.Lock()
	d := w.lastDuration
	w.mu.Unlock()

	w.Hide(d)
}

// SetContent replaces the content slot with the trimmed string form of content.
// It never triggers a transition or a callback.
func (w *Widget) SetContent(content any) {
	if w == nil || w.inert {
		return
	}
	text := strings.TrimSpace(fmt.Sprint(content))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.panel.setContent(text)
	if w.attached {
		w.refresh()
	}
}

// begin enters a transient state, cancelling any transition in flight.
// Caller holds mu.
func (w *Widget) begin(state State) uint64 {
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.seq++
	w.state = state
	return w.seq
}

func (w *Widget) finishShow(seq uint64) {
	w.mu.Lock()
	if w.seq != seq || w.state != StateOpening {
		w.mu.Unlock()
		return
	}
	w.pending = nil
	w.state = StateVisible
	w.mu.Unlock()

	w.logger.Debug("overlay opened", "panel", w.panel.id)
	w.onOpened()
}

func (w *Widget) finishHide(seq uint64) {
	w.mu.Lock()
	if w.seq != seq || w.state != StateClosing {
		w.mu.Unlock()
		return
	}
	w.pending = nil
	w.state = StateHidden
	if w.attached {
		w.surface.Remove(w.panel)
		w.attached = false
	}
	w.mu.Unlock()

	w.logger.Debug("overlay closed", "panel", w.panel.id)
	w.onClosed()
}

// refresh tells the surface an attached panel changed. Caller holds mu.
func (w *Widget) refresh() {
	if r, ok := w.surface.(Refresher); ok {
		r.Refresh(w.panel)
	}
}

// State returns the current visibility state.
func (w *Widget) State() State {
	if w == nil || w.inert {
		return StateHidden
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Opacity returns the opacity extreme the panel is at or fading towards.
func (w *Widget) Opacity() float64 {
	return w.State().Opacity()
}

// Attached reports whether the panel is currently on the surface.
func (w *Widget) Attached() bool {
	if w == nil || w.inert {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attached
}

// Content returns the content slot's text.
func (w *Widget) Content() string {
	if w == nil || w.inert {
		return ""
	}
	return w.panel.content()
}

// LastDuration returns the duration Close will replay.
func (w *Widget) LastDuration() time.Duration {
	if w == nil || w.inert {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastDuration
}

// Panel returns the widget's outer panel, or nil for an inert widget.
func (w *Widget) Panel() *Panel {
	if w == nil || w.inert {
		return nil
	}
	return w.panel
}

// Inert reports whether the widget was built without options.
func (w *Widget) Inert() bool {
	return w == nil || w.inert
}

// Dismissible reports whether the panel carries a dismiss control.
func (w *Widget) Dismissible() bool {
	return !w.Inert() && w.dismissible
}

// HasLoader reports whether the widget was built with a loader indicator.
func (w *Widget) HasLoader() bool {
	return !w.Inert() && w.hasLoader
}
