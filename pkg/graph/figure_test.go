package graph

import (
	"testing"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *domain.Session {
	return &domain.Session{
		ID:        "s1",
		Topic:     "Quaternions",
		CurrentID: "quaternions",
		Mode:      domain.ModeShort,
		Nodes: []domain.ConceptNode{
			{ID: "quaternions", Label: "Quaternions", Status: domain.StatusUnexplored},
			{ID: "complex numbers", Label: "Complex Numbers", Status: domain.StatusKnown, ParentID: "quaternions", Distance: 0.5, Breadth: 0.8},
			{ID: "rotation", Label: "Rotation", Status: domain.StatusUnexplored, ParentID: "quaternions", Distance: 1.0, Breadth: 0.6},
		},
	}
}

func figureNode(t *testing.T, fig *Figure, id string) FigureNode {
	t.Helper()
	for _, n := range fig.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %q not in figure", id)
	return FigureNode{}
}

func TestFigureComposition(t *testing.T) {
	fig := testEngine().Figure(sampleSession(), FigureParams{})

	require.Len(t, fig.Nodes, 3)
	require.Len(t, fig.Edges, 2)

	root := figureNode(t, fig, "quaternions")
	assert.False(t, root.Clickable)
	assert.Equal(t, domain.StatusCurrent, root.Status, "current node renders as current")

	known := figureNode(t, fig, "complex numbers")
	assert.True(t, known.Clickable)
	assert.Equal(t, domain.StatusKnown, known.Status)
	assert.InDelta(t, 50+30*0.8, known.Size, 1e-9)

	// Root size shrinks with node count but respects the floor.
	assert.InDelta(t, 120-2*2, root.Size, 1e-9)
	assert.Equal(t, 0.4, fig.DimOpacity)
}

func TestFigureEdgeExploration(t *testing.T) {
	fig := testEngine().Figure(sampleSession(), FigureParams{})

	byTo := map[string]FigureEdge{}
	for _, e := range fig.Edges {
		byTo[e.To] = e
	}
	assert.True(t, byTo["complex numbers"].Explored)
	assert.False(t, byTo["rotation"].Explored)
	assert.Equal(t, "quaternions", byTo["rotation"].From)
}

func TestFigureFlash(t *testing.T) {
	e := testEngine()
	plain := e.Figure(sampleSession(), FigureParams{})
	flashed := e.Figure(sampleSession(), FigureParams{FlashID: "rotation"})

	base := figureNode(t, plain, "rotation")
	hot := figureNode(t, flashed, "rotation")

	assert.True(t, hot.Flash)
	assert.InDelta(t, base.Size*1.25, hot.Size, 1e-9)
}

func TestFigureRootFloor(t *testing.T) {
	s := sampleSession()
	// Grow the map until the root would shrink past its floor.
	for i := 0; i < 40; i++ {
		s.Nodes = append(s.Nodes, domain.ConceptNode{
			ID:       domain.NormalizeID("extra " + string(rune('a'+i))),
			Label:    "Extra",
			ParentID: "rotation",
			Distance: 0.5,
			Breadth:  0.5,
		})
	}

	fig := testEngine().Figure(s, FigureParams{})
	root := figureNode(t, fig, "quaternions")
	assert.InDelta(t, 80.0, root.Size, 1e-9)
}

func TestFigureAutorange(t *testing.T) {
	fig := testEngine().Figure(sampleSession(), FigureParams{Autorange: true})
	assert.True(t, fig.Autorange)
}

func TestFigureViewCentersOnCurrent(t *testing.T) {
	s := sampleSession()
	s.CurrentID = "rotation"

	fig := testEngine().Figure(s, FigureParams{})

	rot := figureNode(t, fig, "rotation")
	assert.InDelta(t, rot.X, (fig.XRange[0]+fig.XRange[1])/2, 1e-9)
	assert.InDelta(t, rot.Y, (fig.YRange[0]+fig.YRange[1])/2, 1e-9)
}
