// Package graph turns a session's concept tree into 2D positions and a
// renderable figure. Layout runs in three passes: a deterministic tree
// layout, an optional force-directed refinement, and a rescale that
// keeps the map inside a fixed radius.
package graph

import (
	"math"

	"github.com/elieapp/elie/pkg/config"
	"github.com/elieapp/elie/pkg/domain"
)

// Point is a node position in layout space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Engine computes layouts and figures using fixed configuration.
type Engine struct {
	layout config.LayoutConfig
	force  config.ForceConfig
	visual config.VisualConfig
}

// NewEngine creates an engine with the given tuning.
func NewEngine(layout config.LayoutConfig, force config.ForceConfig, visual config.VisualConfig) *Engine {
	return &Engine{layout: layout, force: force, visual: visual}
}

// BuildPositions assigns each node a coordinate with a layered tree
// layout: the root at the origin, children spread evenly beneath their
// parent with horizontal room proportional to their subtree's leaf
// count, and vertical drop scaled by the child's distance weight.
// Output is deterministic for a given node order.
func (e *Engine) BuildPositions(nodes []domain.ConceptNode) map[string]Point {
	positions := make(map[string]Point, len(nodes))
	if len(nodes) == 0 {
		return positions
	}

	children := childIndex(nodes)
	leaves := map[string]int{}
	var countLeaves func(id string) int
	countLeaves = func(id string) int {
		if n, ok := leaves[id]; ok {
			return n
		}
		kids := children[id]
		total := 0
		for _, kid := range kids {
			total += countLeaves(kid.ID)
		}
		if total == 0 {
			total = 1
		}
		leaves[id] = total
		return total
	}

	var place func(node domain.ConceptNode, x, y float64)
	place = func(node domain.ConceptNode, x, y float64) {
		positions[node.ID] = Point{X: x, Y: y}

		kids := children[node.ID]
		if len(kids) == 0 {
			return
		}
		total := 0.0
		for _, kid := range kids {
			total += float64(countLeaves(kid.ID)) * e.layout.SiblingGap
		}
		cursor := x - total/2
		for _, kid := range kids {
			width := float64(countLeaves(kid.ID)) * e.layout.SiblingGap
			kidX := cursor + width/2
			kidY := y - e.layout.LevelStep*kid.Distance
			place(kid, kidX, kidY)
			cursor += width
		}
	}

	for _, n := range nodes {
		if n.ParentID == "" {
			place(n, 0, 0)
			break
		}
	}

	// Orphaned nodes (parent missing from the set) still get a spot so
	// rendering never loses them.
	for _, n := range nodes {
		if _, ok := positions[n.ID]; !ok {
			positions[n.ID] = Point{X: 0, Y: -e.layout.LevelStep * n.Distance}
		}
	}

	return positions
}

// Refine runs the force-directed pass over positions in place: every
// node pair repels, every parent edge pulls toward its ideal length,
// per-step movement is capped at one unit, and the root stays pinned.
func (e *Engine) Refine(positions map[string]Point, nodes []domain.ConceptNode) {
	if e.force.Iterations <= 0 || len(nodes) < 2 {
		return
	}

	rootID := ""
	for _, n := range nodes {
		if n.ParentID == "" {
			rootID = n.ID
			break
		}
	}

	for iter := 0; iter < e.force.Iterations; iter++ {
		disp := make(map[string]Point, len(nodes))

		// Repulsion between all pairs.
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				u, v := nodes[i].ID, nodes[j].ID
				pu, pv := positions[u], positions[v]
				dx, dy := pu.X-pv.X, pu.Y-pv.Y
				dist := math.Hypot(dx, dy)
				if dist < 0.1 {
					dist = 0.1
				}
				f := e.force.Repel / dist
				du, dv := disp[u], disp[v]
				du.X += dx / dist * f
				du.Y += dy / dist * f
				dv.X -= dx / dist * f
				dv.Y -= dy / dist * f
				disp[u] = du
				disp[v] = dv
			}
		}

		// Spring attraction along parent edges.
		for _, n := range nodes {
			if n.ParentID == "" {
				continue
			}
			pp, ok := positions[n.ParentID]
			if !ok {
				continue
			}
			pn := positions[n.ID]
			dx, dy := pn.X-pp.X, pn.Y-pp.Y
			dist := math.Hypot(dx, dy)
			if dist < 0.1 {
				dist = 0.1
			}
			ideal := n.Distance * e.layout.LevelStep
			f := e.force.Attract * (dist - ideal)
			dn, dp := disp[n.ID], disp[n.ParentID]
			dn.X -= dx / dist * f
			dn.Y -= dy / dist * f
			dp.X += dx / dist * f
			dp.Y += dy / dist * f
			disp[n.ID] = dn
			disp[n.ParentID] = dp
		}

		// Apply, damped to at most one unit of movement per step.
		for _, n := range nodes {
			if n.ID == rootID {
				continue
			}
			d := disp[n.ID]
			if mv := math.Hypot(d.X, d.Y); mv > 1 {
				d.X /= mv
				d.Y /= mv
			}
			p := positions[n.ID]
			positions[n.ID] = Point{X: p.X + d.X, Y: p.Y + d.Y}
		}
	}
}

// Rescale shrinks positions toward the origin when the farthest
// non-root node has drifted beyond the target radius. Positions inside
// the bound are untouched.
func (e *Engine) Rescale(positions map[string]Point, rootID string) {
	maxRadius := 0.0
	for id, p := range positions {
		if id == rootID {
			continue
		}
		if r := math.Hypot(p.X, p.Y); r > maxRadius {
			maxRadius = r
		}
	}
	if maxRadius <= e.layout.TargetRadius {
		return
	}
	scale := e.layout.TargetRadius / maxRadius
	for id, p := range positions {
		positions[id] = Point{X: p.X * scale, Y: p.Y * scale}
	}
}

// ViewRange computes square viewport bounds centered on the focus node
// with enough margin to cover every node. Degenerate maps get a fixed
// default window.
func ViewRange(positions map[string]Point, focusID string) (xRange, yRange [2]float64) {
	if len(positions) < 2 {
		return [2]float64{-10, 10}, [2]float64{-10, 10}
	}

	focus := positions[focusID]
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	spreadX := math.Max(focus.X-minX, maxX-focus.X)
	spreadY := math.Max(focus.Y-minY, maxY-focus.Y)
	spread := math.Max(spreadX, spreadY)*1.2 + 5

	return [2]float64{focus.X - spread, focus.X + spread},
		[2]float64{focus.Y - spread, focus.Y + spread}
}

// childIndex groups node values by parent ID, preserving input order.
func childIndex(nodes []domain.ConceptNode) map[string][]domain.ConceptNode {
	idx := make(map[string][]domain.ConceptNode)
	for _, n := range nodes {
		if n.ParentID != "" {
			idx[n.ParentID] = append(idx[n.ParentID], n)
		}
	}
	return idx
}
