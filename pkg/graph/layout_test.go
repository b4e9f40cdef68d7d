package graph

import (
	"math"
	"testing"

	"github.com/elieapp/elie/pkg/config"
	"github.com/elieapp/elie/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	cfg := config.Default()
	return NewEngine(cfg.Layout, cfg.Force, cfg.Visual)
}

func sampleNodes() []domain.ConceptNode {
	return []domain.ConceptNode{
		{ID: "quaternions", Label: "Quaternions"},
		{ID: "complex numbers", Label: "Complex Numbers", ParentID: "quaternions", Distance: 0.5, Breadth: 0.8},
		{ID: "rotation", Label: "Rotation", ParentID: "quaternions", Distance: 1.0, Breadth: 0.6},
	}
}

func TestBuildPositionsRootAtOrigin(t *testing.T) {
	positions := testEngine().BuildPositions(sampleNodes())

	require.Len(t, positions, 3)
	assert.Equal(t, Point{}, positions["quaternions"])
}

func TestBuildPositionsDeterministic(t *testing.T) {
	e := testEngine()
	nodes := sampleNodes()

	first := e.BuildPositions(nodes)
	second := e.BuildPositions(nodes)

	assert.Equal(t, first, second)
}

func TestBuildPositionsChildGeometry(t *testing.T) {
	positions := testEngine().BuildPositions(sampleNodes())

	// Children drop below the parent by levelStep * distance and are
	// spread symmetrically around it.
	complex := positions["complex numbers"]
	rotation := positions["rotation"]

	assert.InDelta(t, -2.5, complex.Y, 1e-9) // 5 * 0.5
	assert.InDelta(t, -5.0, rotation.Y, 1e-9)
	assert.InDelta(t, -2.5, complex.X, 1e-9)
	assert.InDelta(t, 2.5, rotation.X, 1e-9)
}

func TestBuildPositionsSubtreeWidth(t *testing.T) {
	nodes := []domain.ConceptNode{
		{ID: "root"},
		{ID: "a", ParentID: "root", Distance: 1},
		{ID: "b", ParentID: "root", Distance: 1},
		{ID: "a1", ParentID: "a", Distance: 1},
		{ID: "a2", ParentID: "a", Distance: 1},
	}
	positions := testEngine().BuildPositions(nodes)

	// a has two leaves so it gets twice b's width: slots are
	// [-7.5,2.5] for a and [2.5,7.5] for b.
	assert.InDelta(t, -2.5, positions["a"].X, 1e-9)
	assert.InDelta(t, 5.0, positions["b"].X, 1e-9)

	// a's children sit inside a's slot, centered under it.
	assert.InDelta(t, -5.0, positions["a1"].X, 1e-9)
	assert.InDelta(t, 0.0, positions["a2"].X, 1e-9)
}

func TestBuildPositionsOrphanStillPlaced(t *testing.T) {
	nodes := []domain.ConceptNode{
		{ID: "root"},
		{ID: "stray", ParentID: "gone", Distance: 1},
	}
	positions := testEngine().BuildPositions(nodes)

	_, ok := positions["stray"]
	assert.True(t, ok)
}

func TestRefineKeepsRootPinned(t *testing.T) {
	e := testEngine()
	nodes := sampleNodes()
	positions := e.BuildPositions(nodes)

	e.Refine(positions, nodes)

	assert.Equal(t, Point{}, positions["quaternions"])
}

func TestRefineDeterministic(t *testing.T) {
	e := testEngine()
	nodes := sampleNodes()

	a := e.BuildPositions(nodes)
	b := e.BuildPositions(nodes)
	e.Refine(a, nodes)
	e.Refine(b, nodes)

	assert.Equal(t, a, b)
}

func TestRefineSeparatesOverlappingNodes(t *testing.T) {
	e := testEngine()
	nodes := []domain.ConceptNode{
		{ID: "root"},
		{ID: "a", ParentID: "root", Distance: 1},
		{ID: "b", ParentID: "root", Distance: 1},
	}
	positions := map[string]Point{
		"root": {},
		"a":    {X: 0.01, Y: -5},
		"b":    {X: -0.01, Y: -5},
	}

	e.Refine(positions, nodes)

	dx := positions["a"].X - positions["b"].X
	dy := positions["a"].Y - positions["b"].Y
	assert.Greater(t, math.Hypot(dx, dy), 0.5, "repulsion should push near-coincident nodes apart")
}

func TestRescaleShrinksOversizedMap(t *testing.T) {
	e := testEngine()
	positions := map[string]Point{
		"root": {},
		"far":  {X: 30, Y: 40}, // radius 50
		"near": {X: 1, Y: 1},
	}

	e.Rescale(positions, "root")

	assert.InDelta(t, 6.0, positions["far"].X, 1e-9)
	assert.InDelta(t, 8.0, positions["far"].Y, 1e-9)
	assert.InDelta(t, 0.2, positions["near"].X, 1e-9)
}

func TestRescaleLeavesSmallMapAlone(t *testing.T) {
	e := testEngine()
	positions := map[string]Point{
		"root": {},
		"a":    {X: 3, Y: 4},
	}

	e.Rescale(positions, "root")

	assert.Equal(t, Point{X: 3, Y: 4}, positions["a"])
}

func TestViewRangeDegenerate(t *testing.T) {
	xr, yr := ViewRange(map[string]Point{"root": {}}, "root")
	assert.Equal(t, [2]float64{-10, 10}, xr)
	assert.Equal(t, [2]float64{-10, 10}, yr)
}

func TestViewRangeCoversAllNodes(t *testing.T) {
	positions := map[string]Point{
		"root": {},
		"a":    {X: -4, Y: -6},
		"b":    {X: 8, Y: -2},
	}
	xr, yr := ViewRange(positions, "root")

	for id, p := range positions {
		assert.GreaterOrEqual(t, p.X, xr[0], "node %s x", id)
		assert.LessOrEqual(t, p.X, xr[1], "node %s x", id)
		assert.GreaterOrEqual(t, p.Y, yr[0], "node %s y", id)
		assert.LessOrEqual(t, p.Y, yr[1], "node %s y", id)
	}

	// Square window centered on the focus.
	assert.InDelta(t, xr[1]-xr[0], yr[1]-yr[0], 1e-9)
	assert.InDelta(t, -(xr[0]), xr[1], 1e-9)
}
