package graph

import "github.com/elieapp/elie/pkg/domain"

// Figure is the renderable description of a concept map: positioned
// nodes, parent edges, and viewport bounds. The frontend draws it
// as-is; all layout and sizing decisions happen here.
type Figure struct {
	Nodes      []FigureNode `json:"nodes"`
	Edges      []FigureEdge `json:"edges"`
	XRange     [2]float64   `json:"x_range"`
	YRange     [2]float64   `json:"y_range"`
	Autorange  bool         `json:"autorange,omitempty"`
	DimOpacity float64      `json:"dim_opacity"`
}

// FigureNode is one positioned, styled node.
type FigureNode struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Size      float64           `json:"size"`
	Status    domain.NodeStatus `json:"status"`
	Clickable bool              `json:"clickable"`
	Flash     bool              `json:"flash,omitempty"`
}

// FigureEdge joins a node to its parent. Explored tracks whether the
// child has been marked known or unknown, which drives edge styling.
type FigureEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Explored bool   `json:"explored"`
}

// FigureParams carries per-render options.
type FigureParams struct {
	// FlashID briefly enlarges one node, used right after it is added
	// or clicked.
	FlashID string
	// Autorange lets the client fit the viewport itself instead of
	// using the computed ranges.
	Autorange bool
}

// Figure runs the full layout pipeline over a session and assembles
// the renderable result.
func (e *Engine) Figure(s *domain.Session, params FigureParams) *Figure {
	positions := e.BuildPositions(s.Nodes)
	e.Refine(positions, s.Nodes)

	rootID := ""
	if root := s.Root(); root != nil {
		rootID = root.ID
	}
	e.Rescale(positions, rootID)

	fig := &Figure{
		Nodes:      make([]FigureNode, 0, len(s.Nodes)),
		Edges:      make([]FigureEdge, 0, len(s.Nodes)),
		Autorange:  params.Autorange,
		DimOpacity: e.visual.DimOpacity,
	}

	// The root shrinks a little for every node added, down to a floor,
	// so a crowded map stays readable.
	rootSize := e.visual.RootSize - e.visual.RootShrink*float64(len(s.Nodes)-1)
	if rootSize < e.visual.RootMin {
		rootSize = e.visual.RootMin
	}

	for _, n := range s.Nodes {
		p := positions[n.ID]

		size := e.visual.NodeBase + e.visual.NodeScale*n.Breadth
		if n.ID == rootID {
			size = rootSize
		}
		flash := params.FlashID != "" && n.ID == params.FlashID
		if flash {
			size *= e.visual.FlashScale
		}

		fig.Nodes = append(fig.Nodes, FigureNode{
			ID:        n.ID,
			Label:     n.Label,
			X:         p.X,
			Y:         p.Y,
			Size:      size,
			Status:    s.EffectiveStatus(n),
			Clickable: n.ID != rootID,
			Flash:     flash,
		})

		if n.ParentID != "" {
			if _, ok := positions[n.ParentID]; ok {
				fig.Edges = append(fig.Edges, FigureEdge{
					From:     n.ParentID,
					To:       n.ID,
					Explored: n.Status == domain.StatusKnown || n.Status == domain.StatusUnknown,
				})
			}
		}
	}

	focusID := s.CurrentID
	if _, ok := positions[focusID]; !ok {
		focusID = rootID
	}
	fig.XRange, fig.YRange = ViewRange(positions, focusID)

	return fig
}
