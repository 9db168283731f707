package display

import (
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/monolog/internal/config"
)

var allEdges = []layershell.LayerShellEdge{
	layershell.LayerShellEdgeTop,
	layershell.LayerShellEdgeBottom,
	layershell.LayerShellEdgeLeft,
	layershell.LayerShellEdgeRight,
}

// anchorEdges returns the vertical edge and, unless centred, the horizontal
// edge a position pins a window to.
func anchorEdges(pos config.Position) (vertical layershell.LayerShellEdge, horizontal layershell.LayerShellEdge, centered bool) {
	vertical = layershell.LayerShellEdgeTop
	switch pos {
	case config.PositionBottomLeft, config.PositionBottomRight, config.PositionBottomCenter:
		vertical = layershell.LayerShellEdgeBottom
	}

	switch pos {
	case config.PositionTopLeft, config.PositionBottomLeft:
		horizontal = layershell.LayerShellEdgeLeft
	case config.PositionTopCenter, config.PositionBottomCenter:
		centered = true
	default:
		horizontal = layershell.LayerShellEdgeRight
	}
	return vertical, horizontal, centered
}

// anchor sets the layer-shell anchors and margins for the configured position.
func anchor(window *gtk.Window, display config.DisplayConfig) {
	for _, edge := range allEdges {
		layershell.SetAnchor(window, edge, false)
	}

	vertical, horizontal, centered := anchorEdges(config.Position(display.Position))
	layershell.SetAnchor(window, vertical, true)
	layershell.SetMargin(window, vertical, display.OffsetY)
	if !centered {
		layershell.SetAnchor(window, horizontal, true)
		layershell.SetMargin(window, horizontal, display.OffsetX)
	}
}
