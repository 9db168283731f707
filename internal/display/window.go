package display

import (
	"log/slog"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/overlay"
)

// DurationClasser returns the CSS class that animates over d. *theme.Loader implements it.
type DurationClasser interface {
	Require(d time.Duration) string
}

// panelWindow is the layer-shell window showing one panel.
type panelWindow struct {
	panel  *overlay.Panel
	logger *slog.Logger
	window *gtk.Window

	root    *gtk.Box
	label   *gtk.Label
	spinner *gtk.Spinner

	transition    string
	durationClass string
	changedAt     time.Time
}

// newPanelWindow builds the window for p from its node tree.
func newPanelWindow(app *gtk.Application, p *overlay.Panel, display config.DisplayConfig, logger *slog.Logger) *panelWindow {
	w := &panelWindow{
		panel:  p,
		logger: logger,
		window: gtk.NewWindow(),
	}

	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.AddCSSClass("monolog-window")
	w.window.SetDefaultSize(display.PixelWidth, -1)

	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(w.window, 0)
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(w.window, "monolog")
	anchor(w.window, display)

	state := p.Snapshot()
	if root, ok := w.build(state.Tree).(*gtk.Box); ok {
		w.root = root
		w.window.SetChild(root)
	}

	return w
}

// build creates the GTK widget for a node and its children.
func (w *panelWindow) build(n *overlay.Node) gtk.Widgetter {
	switch n.Class {
	case overlay.ClassClose:
		btn := gtk.NewButtonWithLabel(n.Text)
		btn.AddCSSClass(n.Class)
		btn.SetVAlign(gtk.AlignStart)
		btn.ConnectClicked(w.panel.Dismiss)
		return btn

	case overlay.ClassLoader:
		// The content slot owns the spinner.
		return nil

	case overlay.ClassContent:
		box := gtk.NewBox(gtk.OrientationVertical, 0)
		box.AddCSSClass(n.Class)

		w.label = gtk.NewLabel(n.Text)
		w.label.SetWrap(true)
		w.label.SetXAlign(0)
		box.Append(w.label)

		w.spinner = gtk.NewSpinner()
		w.spinner.AddCSSClass(overlay.ClassLoader)
		w.spinner.SetHAlign(gtk.AlignStart)
		box.Append(w.spinner)
		return box

	case overlay.ClassPanel:
		box := gtk.NewBox(gtk.OrientationHorizontal, 6)
		box.AddCSSClass(n.Class)
		w.appendChildren(box, n)
		return box

	default:
		box := gtk.NewBox(gtk.OrientationVertical, 4)
		box.AddCSSClass(n.Class)
		box.SetHExpand(true)
		w.appendChildren(box, n)
		return box
	}
}

func (w *panelWindow) appendChildren(box *gtk.Box, n *overlay.Node) {
	for _, child := range n.Children {
		if widget := w.build(child); widget != nil {
			box.Append(widget)
		}
	}
}

// update applies a snapshot: content, loader and fade classes.
func (w *panelWindow) update(state overlay.PanelState, durations DurationClasser) {
	if w.label != nil {
		w.label.SetText(state.Content)
		w.label.SetVisible(!state.Loading)
	}
	if w.spinner != nil {
		w.spinner.SetVisible(state.Loading)
		w.spinner.SetSpinning(state.Loading)
	}

	if w.root == nil || state.Transition == "" {
		return
	}
	if state.Transition == w.transition && state.ChangedAt.Equal(w.changedAt) {
		return
	}

	w.root.RemoveCSSClass(overlay.ClassFadeIn)
	w.root.RemoveCSSClass(overlay.ClassFadeOut)
	if w.durationClass != "" {
		w.root.RemoveCSSClass(w.durationClass)
		w.durationClass = ""
	}

	w.root.AddCSSClass(state.Transition)
	if durations != nil {
		w.durationClass = durations.Require(state.Duration)
		w.root.AddCSSClass(w.durationClass)
	}
	w.transition = state.Transition
	w.changedAt = state.ChangedAt

	w.logger.Debug("panel transition", "panel", state.ID, "class", state.Class(), "duration", state.AnimationDuration())
}

func (w *panelWindow) show() {
	w.window.Present()
}

func (w *panelWindow) reposition(display config.DisplayConfig) {
	w.window.SetDefaultSize(display.PixelWidth, -1)
	anchor(w.window, display)
}

func (w *panelWindow) close() {
	w.window.Close()
}
