package overlay

// Surface is the host container a widget attaches its outer panel to.
// Implementations must not call back into the widget synchronously.
type Surface interface {
	Append(p *Panel)
	Remove(p *Panel)
}

// Refresher is implemented by surfaces that redraw when an attached
// panel changes its fade directive or content.
type Refresher interface {
	Refresh(p *Panel)
}

// Discard is a Surface that accepts and ignores panels.
var Discard Surface = discard{}

type discard struct{}

func (discard) Append(*Panel) {}
func (discard) Remove(*Panel) {}
