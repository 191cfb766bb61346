package normalize

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// ShrinkBounds tightens containers, bottom-up, onto the children that touch
// each edge. Edges pinned by a border or a distinct background keep their
// extent. A container that carries text keeps the horizontal extent its
// parent gives it, since its width is set by the layout rather than by the
// glyphs; it never grows past its own recorded box. Leaves are left as is.
//
// Requires InitialNeighborInfos to be populated.
func ShrinkBounds(in *schemas.NodeMap) *schemas.NodeMap {
	out := in.Clone()
	for _, n := range out.Reverse() {
		if len(n.Children) == 0 {
			continue
		}
		recorded := n.BoundingRect
		for _, d := range schemas.Directions {
			if !isStructuralEdge(out, n, d) {
				continue
			}
			if gap := childGap(out, n, d); gap > 0 {
				insetEdge(&n.BoundingRect, d, gap)
			}
		}
		clampRect(n)

		if n.TextStyleInfo == nil {
			continue
		}
		if parent, ok := out.Parent(n); ok {
			left := math.Max(parent.BoundingRect.X, recorded.X)
			right := math.Min(parent.BoundingRect.Right(), recorded.Right())
			n.BoundingRect.X = math.Min(left, recorded.Right())
			n.BoundingRect.Width = math.Max(0, right-left)
		}
	}
	return out
}

// childGap is the empty space between edge d of n and the outermost edge
// child on that side. Children overflowing the edge give zero.
func childGap(m *schemas.NodeMap, n *schemas.NodeInfo, d schemas.Direction) float64 {
	edge := edgeChildren(m, n, d)
	if len(edge) == 0 {
		return 0
	}
	parentEdge := n.BoundingRect.Edge(d)
	switch d {
	case schemas.Left, schemas.Top:
		lowest := math.Inf(1)
		for _, c := range edge {
			lowest = math.Min(lowest, c.BoundingRect.Edge(d))
		}
		return math.Max(0, lowest-parentEdge)
	default:
		highest := math.Inf(-1)
		for _, c := range edge {
			highest = math.Max(highest, c.BoundingRect.Edge(d))
		}
		return math.Max(0, parentEdge-highest)
	}
}
