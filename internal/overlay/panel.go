package overlay

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Class names shared with rendering substrates.
const (
	ClassPanel   = "monolog"
	ClassMain    = "monolog-main-container"
	ClassContent = "monolog-sub-container"
	ClassClose   = "monolog-close"
	ClassLoader  = "monolog-loader"
	ClassFadeIn  = "monolog-fade-in"
	ClassFadeOut = "monolog-fade-out"
)

// DismissLabel is the text of the built-in dismiss control.
const DismissLabel = "×"

// Node is one surface in a panel's tree.
type Node struct {
	Class    string
	Text     string
	Children []*Node
}

// Find returns the first node in the subtree carrying class, or nil.
func (n *Node) Find(class string) *Node {
	if n == nil {
		return nil
	}
	if n.Class == class {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(class); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Class: n.Class, Text: n.Text}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return c
}

// Panel is the outer surface of a widget: the unit a host attaches and detaches.
type Panel struct {
	id string

	mu         sync.RWMutex
	root       *Node
	slot       *Node
	opacity    float64
	transition string
	duration   time.Duration
	changedAt  time.Time
	dismiss    func()
}

// PanelState is a point-in-time copy of a panel, safe to read without locking.
type PanelState struct {
	ID          string
	Tree        *Node
	Transition  string // ClassFadeIn, ClassFadeOut or empty before the first show
	Opacity     float64
	Duration    time.Duration
	ChangedAt   time.Time // when Transition was applied
	Content     string
	Loading     bool
	Dismissible bool
}

// newPanel builds the outer panel → main wrapper → content slot tree.
func newPanel(content string, loader bool) *Panel {
	slot := &Node{Class: ClassContent}
	if loader {
		slot.Children = []*Node{{Class: ClassLoader}}
	} else {
		slot.Text = content
	}

	main := &Node{Class: ClassMain, Children: []*Node{slot}}
	root := &Node{Class: ClassPanel, Children: []*Node{main}}

	return &Panel{
		id:      ulid.Make().String(),
		root:    root,
		slot:    slot,
		opacity: OpacityHidden,
	}
}

// attachDismiss appends the dismiss control to the outer panel.
func (p *Panel) attachDismiss(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root.Children = append(p.root.Children, &Node{Class: ClassClose, Text: DismissLabel})
	p.dismiss = fn
}

// ID returns the panel's unique identifier.
func (p *Panel) ID() string {
	return p.id
}

// Dismiss activates the dismiss control, if the panel has one.
func (p *Panel) Dismiss() {
	p.mu.RLock()
	fn := p.dismiss
	p.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// Snapshot returns a copy of the panel's current state.
func (p *Panel) Snapshot() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PanelState{
		ID:          p.id,
		Tree:        p.root.clone(),
		Transition:  p.transition,
		Opacity:     p.opacity,
		Duration:    p.duration,
		ChangedAt:   p.changedAt,
		Content:     p.slot.Text,
		Loading:     len(p.slot.Children) > 0,
		Dismissible: p.dismiss != nil,
	}
}

func (p *Panel) setTransition(class string, d time.Duration, opacity float64, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transition = class
	p.duration = d
	p.opacity = opacity
	p.changedAt = at
}

func (p *Panel) setContent(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slot.Children = nil
	p.slot.Text = content
}

func (p *Panel) content() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.slot.Text
}

// Class returns the outer panel's class attribute, e.g. "monolog monolog-fade-in".
func (s PanelState) Class() string {
	if s.Transition == "" {
		return ClassPanel
	}
	return ClassPanel + " " + s.Transition
}

// AnimationDuration returns the duration as a CSS-style "<n>ms" value.
func (s PanelState) AnimationDuration() string {
	return FormatDuration(s.Duration)
}

// RenderedOpacity interpolates the opacity a substrate should draw at now.
// The fade is linear over Duration starting at ChangedAt.
func (s PanelState) RenderedOpacity(now time.Time) float64 {
	if s.Duration <= 0 || s.Transition == "" {
		return s.Opacity
	}
	progress := float64(now.Sub(s.ChangedAt)) / float64(s.Duration)
	if progress <= 0 {
		progress = 0
	}
	if progress >= 1 {
		return s.Opacity
	}
	if s.Transition == ClassFadeOut {
		return OpacityVisible - progress
	}
	return progress
}

// Animating reports whether the fade is still in progress at now.
func (s PanelState) Animating(now time.Time) bool {
	return s.Transition != "" && now.Sub(s.ChangedAt) < s.Duration
}

// FormatDuration renders d as whole milliseconds with an "ms" unit.
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// Markup renders the tree as HTML-like markup, for hosts that take markup.
func (n *Node) Markup() string {
	var b strings.Builder
	n.writeMarkup(&b)
	return b.String()
}

func (n *Node) writeMarkup(b *strings.Builder) {
	if n == nil {
		return
	}
	fmt.Fprintf(b, `<div class="%s">`, n.Class)
	b.WriteString(n.Text)
	for _, child := range n.Children {
		child.writeMarkup(b)
	}
	b.WriteString("</div>")
}
