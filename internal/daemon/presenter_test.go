package daemon

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/dbus"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/overlay"
)

type fakeSurface struct {
	mu       sync.Mutex
	attached []*overlay.Panel
}

func (s *fakeSurface) Append(p *overlay.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = append(s.attached, p)
}

func (s *fakeSurface) Remove(p *overlay.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.attached {
		if a == p {
			s.attached = append(s.attached[:i], s.attached[i+1:]...)
			return
		}
	}
}

func (s *fakeSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

type countingRinger struct{ rings int }

func (r *countingRinger) Play() { r.rings++ }

type closure struct {
	id     uint32
	reason dbus.CloseReason
}

type presenterFixture struct {
	clock    *clock.Fake
	surface  *fakeSurface
	chime    *countingRinger
	recorder *events.Recorder
	closed   []closure
	p        *Presenter
}

func newFixture(t *testing.T, cfg *config.Config) *presenterFixture {
	t.Helper()
	return newFixtureWithLogger(t, cfg, nil)
}

func newFixtureWithLogger(t *testing.T, cfg *config.Config, logger *slog.Logger) *presenterFixture {
	t.Helper()
	f := &presenterFixture{
		clock:   clock.NewFake(time.Unix(1700000000, 0)),
		surface: &fakeSurface{},
		chime:   &countingRinger{},
	}
	f.recorder = events.NewRecorder(f.clock, 0)
	f.p = NewPresenter(PresenterOptions{
		Config:   cfg,
		Surface:  f.surface,
		Clock:    f.clock,
		Logger:   logger,
		Recorder: f.recorder,
		Chime:    f.chime,
		OnClosed: func(id uint32, reason dbus.CloseReason) {
			f.closed = append(f.closed, closure{id, reason})
		},
	})
	return f
}

func notice(id uint32, timeout int32) dbus.Notice {
	return dbus.Notice{ID: id, AppName: "test", Summary: "Build", Body: "passed", ExpireTimeout: timeout}
}

func TestPresenter_NoticeLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	w := f.p.Widget()

	f.p.Notify(notice(1, -1))
	assert.Equal(t, overlay.StateOpening, w.State())
	assert.Equal(t, "Build\npassed", w.Content())
	assert.Equal(t, 1, f.surface.count())
	assert.Equal(t, 1, f.chime.rings)

	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, overlay.StateVisible, w.State())

	f.clock.Advance(config.DefaultLinger - 300*time.Millisecond)
	assert.Equal(t, overlay.StateClosing, w.State())

	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, overlay.StateHidden, w.State())
	assert.Equal(t, 0, f.surface.count())
	assert.Equal(t, []closure{{1, dbus.CloseReasonExpired}}, f.closed)
	assert.Equal(t, 0, f.clock.Pending())

	assert.Equal(t, 1, f.recorder.Count(events.KindOpening))
	assert.Equal(t, 1, f.recorder.Count(events.KindClosed))
}

func TestPresenter_ZeroTimeoutStaysUntilDismissed(t *testing.T) {
	f := newFixture(t, nil)
	w := f.p.Widget()

	f.p.Notify(notice(2, 0))
	f.clock.Advance(time.Hour)
	assert.Equal(t, overlay.StateVisible, w.State())

	f.p.Dismiss()
	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, overlay.StateHidden, w.State())
	assert.Equal(t, []closure{{2, dbus.CloseReasonDismissed}}, f.closed)
}

func TestPresenter_NewNoticeRestartsLinger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.Linger = config.Duration(2 * time.Second)
	f := newFixture(t, cfg)
	w := f.p.Widget()

	f.p.Notify(notice(1, -1))
	f.clock.Advance(1500 * time.Millisecond)

	f.p.Notify(dbus.Notice{ID: 2, Summary: "Second", ExpireTimeout: -1})
	assert.Equal(t, "Second", w.Content())
	assert.Equal(t, 1, f.chime.rings, "already visible overlays do not reopen")

	f.clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, overlay.StateVisible, w.State())

	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, overlay.StateClosing, w.State())
	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, []closure{{1, dbus.CloseReasonUndefined}, {2, dbus.CloseReasonExpired}}, f.closed)
	assert.Equal(t, uint32(2), f.p.Current())
	assert.Equal(t, 2, f.p.Seen())
}

func TestPresenter_NoticeDuringClosingReopens(t *testing.T) {
	f := newFixture(t, nil)
	w := f.p.Widget()

	f.p.Notify(notice(1, 0))
	f.clock.Advance(300 * time.Millisecond)
	f.p.Dismiss()
	f.clock.Advance(100 * time.Millisecond)
	require.Equal(t, overlay.StateClosing, w.State())

	f.p.Notify(notice(3, 0))
	assert.Equal(t, overlay.StateOpening, w.State())
	assert.Equal(t, 2, f.chime.rings)

	f.clock.Advance(time.Second)
	assert.Equal(t, overlay.StateVisible, w.State())
	assert.Equal(t, []closure{{1, dbus.CloseReasonUndefined}}, f.closed,
		"the replaced notice is reported once; its fade-out never completes")
}

func TestPresenter_ReplacingSameIDIsNotAClose(t *testing.T) {
	f := newFixture(t, nil)

	f.p.Notify(notice(7, 0))
	f.clock.Advance(300 * time.Millisecond)
	f.p.Notify(dbus.Notice{ID: 7, Summary: "Updated", ExpireTimeout: 0})
	assert.Empty(t, f.closed)

	f.p.Dismiss()
	f.clock.Advance(300 * time.Millisecond)
	f.p.Notify(notice(8, 0))
	assert.Equal(t, []closure{{7, dbus.CloseReasonDismissed}}, f.closed, "hidden overlays report nothing on the next notice")
}

func TestPresenter_CloseNotice(t *testing.T) {
	f := newFixture(t, nil)
	w := f.p.Widget()

	f.p.Notify(notice(5, 0))
	f.clock.Advance(300 * time.Millisecond)

	f.p.CloseNotice(4)
	assert.Equal(t, overlay.StateVisible, w.State())

	f.p.CloseNotice(5)
	assert.Equal(t, overlay.StateClosing, w.State())
	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, []closure{{5, dbus.CloseReasonClosed}}, f.closed)
}

func TestPresenter_DismissControlDisarmsLinger(t *testing.T) {
	f := newFixture(t, nil)
	w := f.p.Widget()

	f.p.Notify(notice(6, -1))
	f.clock.Advance(300 * time.Millisecond)
	require.Equal(t, 1, f.clock.Pending())

	w.Panel().Dismiss()
	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, overlay.StateHidden, w.State())
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, []closure{{6, dbus.CloseReasonDismissed}}, f.closed)
}

func TestPresenter_UpdateConfig(t *testing.T) {
	f := newFixture(t, nil)
	w := f.p.Widget()

	cfg := config.DefaultConfig()
	cfg.Fade.Duration = config.Duration(800 * time.Millisecond)
	cfg.Display.Linger = config.Duration(time.Second)
	f.p.UpdateConfig(cfg)

	f.p.Notify(notice(7, -1))
	assert.Equal(t, 800*time.Millisecond, w.LastDuration())

	f.clock.Advance(800 * time.Millisecond)
	f.clock.Advance(200 * time.Millisecond)
	assert.Equal(t, overlay.StateClosing, w.State())
}

func TestPresenter_WidgetDefaultsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Widget.Close = false
	cfg.Widget.Content = "idle"
	f := newFixture(t, cfg)

	assert.False(t, f.p.Widget().Dismissible())
	assert.Equal(t, "idle", f.p.Widget().Content())
}

func TestPresenter_SetChime(t *testing.T) {
	f := newFixture(t, nil)
	f.p.SetChime(nil)

	f.p.Notify(notice(1, 0))
	assert.Equal(t, 0, f.chime.rings)
}

// hookHandler runs fn when the nth record with message msg is logged.
type hookHandler struct {
	msg  string
	nth  int
	seen int
	fn   func()
}

func (h *hookHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *hookHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message != h.msg {
		return nil
	}
	h.seen++
	if h.seen == h.nth {
		h.fn()
	}
	return nil
}

func (h *hookHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *hookHandler) WithGroup(string) slog.Handler      { return h }

func TestPresenter_FadeOutFinishingDuringNotify(t *testing.T) {
	tests := []struct {
		name        string
		first       uint32
		second      uint32
		wantOnEntry []closure
	}{
		{
			name:        "different notice",
			first:       1,
			second:      2,
			wantOnEntry: []closure{{1, dbus.CloseReasonUndefined}},
		},
		{
			name:   "same notice replaced",
			first:  3,
			second: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Display.Linger = config.Duration(time.Second)

			var f *presenterFixture
			hook := &hookHandler{msg: "presenting notice", nth: 2, fn: func() {
				// The first notice's fade-out completes after the second
				// notice is recorded but before it is shown.
				f.clock.Advance(300 * time.Millisecond)
			}}
			f = newFixtureWithLogger(t, cfg, slog.New(hook))
			w := f.p.Widget()

			f.p.Notify(notice(tt.first, -1))
			f.clock.Advance(300 * time.Millisecond)
			f.clock.Advance(700 * time.Millisecond)
			require.Equal(t, overlay.StateClosing, w.State())

			f.p.Notify(notice(tt.second, -1))
			require.Equal(t, 2, hook.seen)
			assert.Equal(t, overlay.StateOpening, w.State())
			assert.Equal(t, tt.second, f.p.Current())
			assert.Equal(t, 1, f.surface.count())
			assert.Equal(t, tt.wantOnEntry, f.closed)

			f.clock.Advance(300 * time.Millisecond)
			f.clock.Advance(700 * time.Millisecond)
			f.clock.Advance(300 * time.Millisecond)
			assert.Equal(t, overlay.StateHidden, w.State())
			want := append(tt.wantOnEntry, closure{tt.second, dbus.CloseReasonExpired})
			assert.Equal(t, want, f.closed)
		})
	}
}

func TestPresenter_CloseAfterCloseIsReportedOnce(t *testing.T) {
	f := newFixture(t, nil)

	f.p.Notify(notice(8, 0))
	f.clock.Advance(300 * time.Millisecond)
	f.p.CloseNotice(8)
	f.clock.Advance(300 * time.Millisecond)

	f.p.CloseNotice(8)
	f.p.Dismiss()
	f.clock.Advance(time.Second)
	assert.Equal(t, []closure{{8, dbus.CloseReasonClosed}}, f.closed)
}
