// Package events records widget lifecycle transitions.
package events

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/overlay"
)

// DefaultLimit is the number of events a Recorder keeps.
const DefaultLimit = 100

// Kind identifies a lifecycle callback.
type Kind string

const (
	KindOpening Kind = "opening"
	KindOpened  Kind = "opened"
	KindClosing Kind = "closing"
	KindClosed  Kind = "closed"
)

// Event is one fired lifecycle callback.
type Event struct {
	ID     string    `json:"id" yaml:"id"`
	Widget string    `json:"widget" yaml:"widget"`
	Kind   Kind      `json:"kind" yaml:"kind"`
	At     time.Time `json:"at" yaml:"at"`
}

// Recorder keeps a bounded history of lifecycle events.
type Recorder struct {
	mu     sync.RWMutex
	clock  clock.Clock
	limit  int
	events []Event
	notify func(Event)
}

// NewRecorder creates a Recorder. A nil clock uses real time, a
// non-positive limit uses DefaultLimit.
func NewRecorder(clk clock.Clock, limit int) *Recorder {
	if clk == nil {
		clk = clock.Real()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{
		clock: clk,
		limit: limit,
	}
}

// SetNotify registers a function called after each recorded event.
func (r *Recorder) SetNotify(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = fn
}

// Instrument wraps the lifecycle callbacks in opts so each one is recorded
// under widget before the original callback runs.
func (r *Recorder) Instrument(opts *overlay.Options, widget string) {
	opts.OnOpening = r.wrap(widget, KindOpening, opts.OnOpening)
	opts.OnOpened = r.wrap(widget, KindOpened, opts.OnOpened)
	opts.OnClosing = r.wrap(widget, KindClosing, opts.OnClosing)
	opts.OnClosed = r.wrap(widget, KindClosed, opts.OnClosed)
}

func (r *Recorder) wrap(widget string, kind Kind, next func()) func() {
	return func() {
		r.Record(widget, kind)
		if next != nil {
			next()
		}
	}
}

// Record appends an event, evicting the oldest beyond the limit.
func (r *Recorder) Record(widget string, kind Kind) Event {
	e := Event{
		ID:     ulid.Make().String(),
		Widget: widget,
		Kind:   kind,
		At:     r.clock.Now(),
	}

	r.mu.Lock()
	r.events = append(r.events, e)
	if len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
	notify := r.notify
	r.mu.Unlock()

	if notify != nil {
		notify(e)
	}
	return e
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}

// Count returns the number of recorded events of kind.
func (r *Recorder) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.events {
		if e.Kind == kind {
			count++
		}
	}
	return count
}
