package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/monolog/internal/clock"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/overlay"
)

type fixture struct {
	clock    *clock.Fake
	host     *Host
	recorder *events.Recorder
	widget   *overlay.Widget
	model    Model
}

func newFixture(t *testing.T, noClose bool) *fixture {
	t.Helper()
	f := &fixture{
		clock: clock.NewFake(time.Unix(1700000000, 0)),
		host:  NewHost(),
	}
	f.recorder = events.NewRecorder(f.clock, 0)

	opts := &overlay.Options{
		Content: "Hello",
		NoClose: noClose,
		Surface: f.host,
		Clock:   f.clock,
	}
	f.recorder.Instrument(opts, "demo")
	f.widget = overlay.New(opts)

	f.model = New(Options{
		Host:     f.host,
		Widget:   f.widget,
		Recorder: f.recorder,
		Now:      f.clock.Now,
	})
	return f
}

func (f *fixture) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	f.model = m
	return cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ShowHideKeys(t *testing.T) {
	f := newFixture(t, false)

	f.update(t, keyMsg("s"))
	assert.Equal(t, overlay.StateOpening, f.widget.State())
	assert.Len(t, f.host.Panels(), 1)

	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, overlay.StateVisible, f.widget.State())

	f.update(t, keyMsg("h"))
	assert.Equal(t, overlay.StateClosing, f.widget.State())

	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, overlay.StateHidden, f.widget.State())
	assert.Empty(t, f.host.Panels())
}

func TestModel_CloseAndDismissKeys(t *testing.T) {
	f := newFixture(t, false)

	f.update(t, keyMsg("s"))
	f.clock.Advance(300 * time.Millisecond)
	f.update(t, keyMsg("c"))
	assert.Equal(t, overlay.StateClosing, f.widget.State())
	f.clock.Advance(300 * time.Millisecond)

	f.update(t, keyMsg("s"))
	f.clock.Advance(300 * time.Millisecond)
	f.update(t, keyMsg("x"))
	assert.Equal(t, overlay.StateClosing, f.widget.State())

	assert.Equal(t, 2, f.recorder.Count(events.KindClosing))
}

func TestModel_DismissWithoutControl(t *testing.T) {
	f := newFixture(t, true)

	f.update(t, keyMsg("s"))
	f.clock.Advance(300 * time.Millisecond)

	cmd := f.update(t, keyMsg("x"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.True(t, msg.isErr)
	assert.Equal(t, overlay.StateVisible, f.widget.State())
}

func TestModel_CustomDismiss(t *testing.T) {
	f := newFixture(t, true)
	called := 0
	f.model.dismiss = func() { called++ }

	f.update(t, keyMsg("x"))
	assert.Equal(t, 1, called)
}

func TestModel_DurationKeys(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, 300*time.Millisecond, f.model.Duration())

	f.update(t, keyMsg("+"))
	f.update(t, keyMsg("+"))
	assert.Equal(t, 500*time.Millisecond, f.model.Duration())

	f.update(t, keyMsg("s"))
	assert.Equal(t, 500*time.Millisecond, f.widget.LastDuration())

	for i := 0; i < 10; i++ {
		f.update(t, keyMsg("-"))
	}
	assert.Equal(t, durationStep, f.model.Duration())

	for i := 0; i < 100; i++ {
		f.update(t, keyMsg("+"))
	}
	assert.Equal(t, maxDuration, f.model.Duration())
}

func TestModel_FrameTicking(t *testing.T) {
	f := newFixture(t, false)

	f.update(t, keyMsg("s"))
	cmd := f.update(t, changedMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, f.model.ticking)

	f.clock.Advance(100 * time.Millisecond)
	assert.NotNil(t, f.update(t, frameMsg(f.clock.Now())))
	assert.True(t, f.model.ticking)

	f.clock.Advance(200 * time.Millisecond)
	assert.Nil(t, f.update(t, frameMsg(f.clock.Now())))
	assert.False(t, f.model.ticking)
}

func TestModel_View(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, "Initializing...", f.model.View())

	f.update(t, tea.WindowSizeMsg{Width: 100, Height: 30})
	f.update(t, keyMsg("s"))
	f.clock.Advance(300 * time.Millisecond)

	view := f.model.View()
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "visible")
	assert.Contains(t, view, "monolog monolog-fade-in")
	assert.Contains(t, view, "demo")
	assert.Contains(t, view, "opened")
}

func TestModel_HelpToggle(t *testing.T) {
	f := newFixture(t, false)
	f.update(t, tea.WindowSizeMsg{Width: 100, Height: 30})

	f.update(t, keyMsg("?"))
	assert.Equal(t, ModeHelp, f.model.mode)
	assert.Contains(t, f.model.View(), "Keyboard Shortcuts")

	// Widget keys are ignored while help is open
	f.update(t, keyMsg("s"))
	assert.Equal(t, overlay.StateHidden, f.widget.State())

	f.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeSurface, f.model.mode)
}

func TestModel_Quit(t *testing.T) {
	f := newFixture(t, false)
	cmd := f.update(t, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_StatusClears(t *testing.T) {
	f := newFixture(t, false)
	f.update(t, statusMsg{text: "Fade 400ms"})
	assert.Equal(t, "Fade 400ms", f.model.statusMsg)

	f.update(t, clearStatusMsg{})
	assert.Empty(t, f.model.statusMsg)
}

func TestModel_NilWidget(t *testing.T) {
	m := New(Options{})
	next, _ := m.Update(keyMsg("s"))
	next, _ = next.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	assert.Contains(t, next.View(), "hidden")
}
