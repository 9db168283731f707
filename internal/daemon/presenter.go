package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/dbus"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/overlay"
)

// WidgetName is the name the presenter's widget is recorded under.
const WidgetName = "presenter"

// Ringer plays a sound when the overlay starts opening. *audio.Chime implements it.
type Ringer interface {
	Play()
}

// ClosedHandler is told which notice the overlay closed and why.
type ClosedHandler func(id uint32, reason dbus.CloseReason)

// PresenterOptions configures a Presenter.
type PresenterOptions struct {
	Config   *config.Config
	Surface  overlay.Surface
	Clock    clock.Clock
	Logger   *slog.Logger
	Recorder *events.Recorder
	Chime    Ringer
	OnClosed ClosedHandler
}

// closingNotice is the notice a fade-out started for, tagged with the
// notice sequence it belongs to.
type closingNotice struct {
	id     uint32
	reason dbus.CloseReason
	seq    uint64
}

// Presenter reuses one widget for every notice it receives.
type Presenter struct {
	// opMu serializes Notify, CloseNotice, Dismiss and linger expiry.
	// Widget callbacks only take mu.
	opMu   sync.Mutex
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock
	widget *overlay.Widget

	fade   time.Duration
	linger time.Duration

	current    uint32
	noticeSeq  uint64
	open       bool
	reason     dbus.CloseReason
	closing    closingNotice
	lingering  clock.Timer
	lingerSeq  uint64
	onClosed   ClosedHandler
	chime      Ringer
	chimeMu    sync.RWMutex
	noticeSeen int
}

// NewPresenter builds the presenter and its widget.
func NewPresenter(opts PresenterOptions) *Presenter {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	p := &Presenter{
		logger:   logger,
		clock:    clk,
		fade:     cfg.Fade.Duration.Duration(),
		linger:   cfg.Display.Linger.Duration(),
		reason:   dbus.CloseReasonDismissed,
		onClosed: opts.OnClosed,
		chime:    opts.Chime,
	}

	wopts := &overlay.Options{
		Content:   cfg.Widget.Content,
		Loader:    cfg.Widget.Loader,
		NoClose:   !cfg.Widget.Close,
		OnOpening: p.opening,
		OnClosing: p.disarm,
		OnClosed:  p.closed,
		Surface:   opts.Surface,
		Clock:     clk,
		Logger:    logger,
	}
	if opts.Recorder != nil {
		opts.Recorder.Instrument(wopts, WidgetName)
	}
	p.widget = overlay.New(wopts)

	return p
}

// Widget returns the presenter's widget.
func (p *Presenter) Widget() *overlay.Widget {
	return p.widget
}

// Notify displays n, fading the overlay in if it is not already showing,
// and restarts the linger countdown. A different notice still on screen is
// reported closed with CloseReasonUndefined.
func (p *Presenter) Notify(n dbus.Notice) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	prev, showing := p.current, p.open
	p.current = n.ID
	p.noticeSeq++
	p.open = true
	p.reason = dbus.CloseReasonDismissed
	p.noticeSeen++
	fade := p.fade
	linger := n.Linger(p.linger)
	p.mu.Unlock()

	if showing && prev != n.ID && p.onClosed != nil {
		p.onClosed(prev, dbus.CloseReasonUndefined)
	}

	p.logger.Debug("presenting notice", "id", n.ID, "app", n.AppName, "linger", linger)

	p.widget.SetContent(n.Content())
	p.widget.Show(fade)
	p.arm(linger)
}

// CloseNotice closes the overlay if it is displaying notice id.
func (p *Presenter) CloseNotice(id uint32) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.current != id || !p.open {
		p.mu.Unlock()
		return
	}
	p.reason = dbus.CloseReasonClosed
	p.mu.Unlock()

	p.widget.Close()
}

// Dismiss closes the overlay as if the user dismissed it.
func (p *Presenter) Dismiss() {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	p.reason = dbus.CloseReasonDismissed
	p.mu.Unlock()

	p.widget.Close()
}

// UpdateConfig applies reloaded fade and linger durations to later notices.
func (p *Presenter) UpdateConfig(cfg *config.Config) {
	p.mu.Lock()
	p.fade = cfg.Fade.Duration.Duration()
	p.linger = cfg.Display.Linger.Duration()
	p.mu.Unlock()

	p.logger.Debug("presenter config updated", "fade", cfg.Fade.Duration.Duration(), "linger", cfg.Display.Linger.Duration())
}

// SetChime replaces the opening chime. A nil chime disables it.
func (p *Presenter) SetChime(chime Ringer) {
	p.chimeMu.Lock()
	defer p.chimeMu.Unlock()
	p.chime = chime
}

// Current returns the ID of the notice most recently presented.
func (p *Presenter) Current() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Seen returns how many notices have been presented.
func (p *Presenter) Seen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noticeSeen
}

// arm restarts the linger countdown. Zero lingers until dismissed.
func (p *Presenter) arm(linger time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLinger()
	if linger <= 0 {
		return
	}
	seq := p.lingerSeq
	p.lingering = p.clock.AfterFunc(linger, func() { p.expire(seq) })
}

func (p *Presenter) expire(seq uint64) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if seq != p.lingerSeq {
		p.mu.Unlock()
		return
	}
	p.lingering = nil
	p.reason = dbus.CloseReasonExpired
	p.mu.Unlock()

	p.widget.Close()
}

// stopLinger cancels a pending linger timer. Caller holds mu.
func (p *Presenter) stopLinger() {
	if p.lingering != nil {
		p.lingering.Stop()
		p.lingering = nil
	}
	p.lingerSeq++
}

func (p *Presenter) opening() {
	p.chimeMu.RLock()
	chime := p.chime
	p.chimeMu.RUnlock()

	if chime != nil {
		chime.Play()
	}
}

// disarm runs when a fade-out starts and records which notice it closes.
func (p *Presenter) disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLinger()
	p.closing = closingNotice{id: p.current, reason: p.reason, seq: p.noticeSeq}
	p.reason = dbus.CloseReasonDismissed
}

// closed reports the notice whose fade-out finished. A notice presented
// since the fade-out started has already reported it.
func (p *Presenter) closed() {
	p.mu.Lock()
	c := p.closing
	report := p.open && c.seq == p.noticeSeq
	if report {
		p.open = false
	}
	p.mu.Unlock()

	if !report {
		p.logger.Debug("dropping superseded close", "id", c.id)
		return
	}

	p.logger.Debug("notice closed", "id", c.id, "reason", c.reason.String())
	if p.onClosed != nil {
		p.onClosed(c.id, c.reason)
	}
}
