package domain

// NodeStatus classifies a concept node within a session.
type NodeStatus string

const (
	// StatusUnexplored indicates a concept the user has not clicked yet.
	StatusUnexplored NodeStatus = "unexplored"
	// StatusKnown indicates a concept the user asserted they understand.
	StatusKnown NodeStatus = "known"
	// StatusUnknown indicates a concept the user asserted they do not understand.
	StatusUnknown NodeStatus = "unknown"
	// StatusCurrent marks the most recently selected node. It is derived
	// at render time from Session.CurrentID and never stored on a node.
	StatusCurrent NodeStatus = "current"
)

// ExplanationMode selects the length of generated explanations.
type ExplanationMode string

const (
	// ModeShort requests a compact three-sentence explanation.
	ModeShort ExplanationMode = "short"
	// ModeLong requests a detailed multi-paragraph explanation.
	ModeLong ExplanationMode = "long"
)

// Valid reports whether m is a recognized explanation mode.
func (m ExplanationMode) Valid() bool {
	return m == ModeShort || m == ModeLong
}
