package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/monolog/internal/config"
	"github.com/jmylchreest/monolog/internal/overlay"
)

// Palette holds the hex colors panels are drawn with at full opacity.
type Palette struct {
	Background string
	Foreground string
	Border     string
	Accent     string
}

// DefaultPalette returns a dark palette.
func DefaultPalette() Palette {
	return Palette{
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",
		Border:     "#89b4fa",
		Accent:     "#f38ba8",
	}
}

// loader is the frame set used for the loader indicator.
var loader = spinner.MiniDot

// renderer draws panel snapshots. Terminals have no alpha channel, so
// opacity is drawn by blending each color towards the background.
type renderer struct {
	bg     colorful.Color
	fg     colorful.Color
	border colorful.Color
	accent colorful.Color
}

func newRenderer(p Palette) renderer {
	return renderer{
		bg:     parseHex(p.Background, colorful.Color{}),
		fg:     parseHex(p.Foreground, colorful.Color{R: 1, G: 1, B: 1}),
		border: parseHex(p.Border, colorful.Color{R: 0.5, G: 0.5, B: 0.5}),
		accent: parseHex(p.Accent, colorful.Color{R: 1}),
	}
}

func parseHex(s string, fallback colorful.Color) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	return c
}

// blend returns c drawn at opacity over the background.
func (r renderer) blend(c colorful.Color, opacity float64) lipgloss.Color {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return lipgloss.Color(r.bg.BlendLab(c, opacity).Clamped().Hex())
}

// panel renders one panel width cells wide as it looks at now.
func (r renderer) panel(s overlay.PanelState, now time.Time, width int) string {
	opacity := s.RenderedOpacity(now)
	fg := r.blend(r.fg, opacity)

	body := s.Content
	if s.Loading {
		body = loaderFrame(now) + " loading"
	}
	if body == "" {
		body = " "
	}

	inner := width - 4
	if inner < 1 {
		inner = 1
	}

	var content string
	if s.Dismissible && inner > 2 {
		text := lipgloss.NewStyle().Width(inner - 2).Foreground(fg).Render(body)
		button := lipgloss.NewStyle().Foreground(r.blend(r.accent, opacity)).Bold(true).Render(overlay.DismissLabel)
		content = lipgloss.JoinHorizontal(lipgloss.Top, text, " ", button)
	} else {
		content = lipgloss.NewStyle().Width(inner).Foreground(fg).Render(body)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(r.blend(r.border, opacity)).
		Padding(0, 1).
		Render(content)
}

// loaderFrame picks the loader frame for now.
func loaderFrame(now time.Time) string {
	fps := loader.FPS
	if fps <= 0 {
		fps = time.Second / 10
	}
	i := int(now.UnixNano()/int64(fps)) % len(loader.Frames)
	return loader.Frames[i]
}

// placement maps a configured position onto lipgloss alignment.
func placement(position string) (lipgloss.Position, lipgloss.Position) {
	var h, v lipgloss.Position
	switch {
	case strings.HasSuffix(position, "-left"):
		h = lipgloss.Left
	case strings.HasSuffix(position, "-center"):
		h = lipgloss.Center
	default:
		h = lipgloss.Right
	}
	if strings.HasPrefix(position, "bottom-") {
		v = lipgloss.Bottom
	} else {
		v = lipgloss.Top
	}
	return h, v
}

// surface lays out the rendered panels inside a width x height area.
func (r renderer) surface(states []overlay.PanelState, now time.Time, display config.DisplayConfig, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	h, v := placement(display.Position)
	blocks := make([]string, 0, len(states))
	for _, s := range states {
		blocks = append(blocks, r.panel(s, now, display.Width))
	}
	stack := lipgloss.JoinVertical(h, blocks...)
	if len(blocks) > 0 {
		stack = lipgloss.NewStyle().
			Margin(display.OffsetY, display.OffsetX).
			Render(stack)
	}

	return lipgloss.Place(width, height, h, v, stack)
}
