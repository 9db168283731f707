// Package tui provides the BubbleTea terminal host for overlay widgets.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/events"
	"github.com/jmylchreest/monolog/internal/overlay"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeSurface Mode = iota
	ModeHelp
)

const (
	frameInterval = time.Second / 30
	durationStep  = 100 * time.Millisecond
	maxDuration   = 5 * time.Second
	eventLines    = 4
)

// Options configures the TUI model.
type Options struct {
	Config   *config.Config
	Host     *Host
	Widget   *overlay.Widget
	Recorder *events.Recorder
	Palette  *Palette

	// Dismiss replaces the default dismiss action, which activates the
	// widget's dismiss control.
	Dismiss func()
	// Now is used to interpolate fades. Defaults to time.Now.
	Now   func() time.Time
	Title string
}

// Model is the main TUI model.
type Model struct {
	cfg      *config.Config
	host     *Host
	widget   *overlay.Widget
	recorder *events.Recorder
	dismiss  func()
	now      func() time.Time
	title    string

	mode     Mode
	keys     KeyMap
	help     help.Model
	renderer renderer

	duration time.Duration
	width    int
	height   int
	ready    bool
	ticking  bool

	statusMsg string
	statusErr bool
}

// New creates a new TUI model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	host := opts.Host
	if host == nil {
		host = NewHost()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	palette := DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	title := opts.Title
	if title == "" {
		title = "monolog"
	}

	duration := cfg.Fade.Duration.Duration()
	if duration <= 0 {
		duration = overlay.DefaultDuration
	}

	return Model{
		cfg:      cfg,
		host:     host,
		widget:   opts.Widget,
		recorder: opts.Recorder,
		dismiss:  opts.Dismiss,
		now:      now,
		title:    title,
		mode:     ModeSurface,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		renderer: newRenderer(palette),
		duration: duration,
	}
}

type changedMsg struct{}

type frameMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.watchForChanges
}

// watchForChanges waits for the host to signal a change.
func (m Model) watchForChanges() tea.Msg {
	<-m.host.Changes()
	return changedMsg{}
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// animating reports whether any attached panel needs redrawing per frame.
func (m Model) animating() bool {
	now := m.now()
	for _, s := range m.host.Snapshots() {
		if s.Loading || s.Animating(now) {
			return true
		}
	}
	return false
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case changedMsg:
		cmds := []tea.Cmd{m.watchForChanges}
		if !m.ticking && m.animating() {
			m.ticking = true
			cmds = append(cmds, frame())
		}
		return m, tea.Batch(cmds...)

	case frameMsg:
		if m.animating() {
			return m, frame()
		}
		m.ticking = false
		return m, nil

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	return m, nil
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeSurface
		} else {
			m.mode = ModeHelp
		}
		m.help.ShowAll = m.mode == ModeHelp
		return m, nil
	}

	if m.mode == ModeHelp {
		if msg.Type == tea.KeyEsc {
			m.mode = ModeSurface
			m.help.ShowAll = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Show):
		m.widget.Show(m.duration)
	case key.Matches(msg, m.keys.Hide):
		m.widget.Hide(m.duration)
	case key.Matches(msg, m.keys.Close):
		m.widget.Close()
	case key.Matches(msg, m.keys.Dismiss):
		switch {
		case m.dismiss != nil:
			m.dismiss()
		case m.widget.Dismissible():
			m.widget.Panel().Dismiss()
		default:
			return m, status("Widget has no dismiss control", true)
		}
	case key.Matches(msg, m.keys.Longer):
		m.duration = min(m.duration+durationStep, maxDuration)
		return m, status("Fade "+overlay.FormatDuration(m.duration), false)
	case key.Matches(msg, m.keys.Shorter):
		m.duration = max(m.duration-durationStep, durationStep)
		return m, status("Fade "+overlay.FormatDuration(m.duration), false)
	case key.Matches(msg, m.keys.Copy):
		return m, copyCmd(m.widget.Content())
	}

	return m, nil
}

// Duration returns the fade duration used by the show and hide keys.
func (m Model) Duration() time.Duration {
	return m.duration
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := m.viewFooter()
	areaHeight := m.height - lipgloss.Height(footer)
	if m.mode == ModeHelp {
		helpView := lipgloss.NewStyle().Padding(1, 2).Render(m.viewHelp())
		return lipgloss.Place(m.width, areaHeight, lipgloss.Left, lipgloss.Top, helpView) + "\n" + footer
	}

	surface := m.renderer.surface(m.host.Snapshots(), m.now(), m.cfg.Display, m.width, areaHeight)
	return surface + "\n" + footer
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	return titleStyle.Render("Keyboard Shortcuts") + "\n" +
		m.help.View(m.keys) + "\n\n" +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Press ? or esc to return")
}

func (m Model) viewFooter() string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	var lines []string

	for _, line := range m.eventLines() {
		lines = append(lines, dim.Render(line))
	}

	lines = append(lines, m.viewState())

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		lines = append(lines, statusStyle.Render(m.statusMsg))
	} else if m.mode != ModeHelp {
		lines = append(lines, m.help.View(m.keys))
	}

	return strings.Join(lines, "\n")
}

// viewState summarizes the widget: state, panel classes and fade duration.
func (m Model) viewState() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	class := overlay.ClassPanel
	if p := m.widget.Panel(); p != nil {
		class = p.Snapshot().Class()
	}
	return headerStyle.Render(m.title) + " " + fmt.Sprintf("%s · %s · fade %s",
		m.widget.State(), class, overlay.FormatDuration(m.duration))
}

func (m Model) eventLines() []string {
	if m.recorder == nil {
		return nil
	}
	evs := m.recorder.Events()
	if len(evs) > eventLines {
		evs = evs[len(evs)-eventLines:]
	}

	formatter := events.PlainFormatter{Now: m.now}
	lines := make([]string, len(evs))
	for i, e := range evs {
		lines[i] = formatter.Line(e)
	}
	return lines
}

// Run starts the TUI and blocks until it exits.
func Run(opts Options) error {
	if opts.Host == nil {
		opts.Host = NewHost()
	}
	if opts.Recorder != nil {
		host := opts.Host
		opts.Recorder.SetNotify(func(events.Event) { host.Poke() })
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
