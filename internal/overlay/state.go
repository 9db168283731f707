package overlay

// State is the visibility state of a widget.
type State int

const (
	// StateHidden means the panel is transparent and detached.
	StateHidden State = iota
	// StateOpening means a fade-in is in flight.
	StateOpening
	// StateVisible means the panel is opaque and attached.
	StateVisible
	// StateClosing means a fade-out is in flight.
	StateClosing
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateOpening:
		return "opening"
	case StateVisible:
		return "visible"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Opacity returns the opacity extreme the panel holds in this state.
// Transient states report the target of their fade.
func (s State) Opacity() float64 {
	if s == StateOpening || s == StateVisible {
		return OpacityVisible
	}
	return OpacityHidden
}

// Opacity extremes.
const (
	OpacityHidden  = 0.0
	OpacityVisible = 1.0
)
