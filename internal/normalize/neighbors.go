// Package normalize implements the stages that turn a freshly recorded node
// map into one whose geometry reflects what a viewer sees: neighbor location,
// margin collapsing, padding folding, bounding shrink, duplicate-child
// collapsing and neighbor distances.
//
// Every exported stage takes a NodeMap, leaves it untouched, and returns a new
// one.
package normalize

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// LocateNeighbors resolves the four neighbor slots of every node. Slots are
// recomputed from scratch, so running it twice gives the same assignment.
func LocateNeighbors(in *schemas.NodeMap) *schemas.NodeMap {
	out := in.Clone()
	for _, n := range out.Nodes() {
		n.Neighbors = resolveNeighbors(out, n, func(p *schemas.NodeInfo) schemas.NeighborInfos {
			return p.Neighbors
		})
	}
	return out
}

// LocateInitialNeighbors freezes the sibling neighbors of every node into
// InitialNeighborInfos. Only slots that resolve to an actual sibling are kept:
// a child with an empty slot in a direction sits on its container's edge.
func LocateInitialNeighbors(in *schemas.NodeMap) *schemas.NodeMap {
	out := in.Clone()
	for _, n := range out.Nodes() {
		var initial schemas.NeighborInfos
		for _, d := range schemas.Directions {
			initial.Set(d, nearestSibling(out, n, d))
		}
		n.InitialNeighborInfos = &initial
	}
	return out
}

// resolveNeighbors fills all four directions for n. parentSlots returns the
// already-resolved slots of n's parent; callers walk the map breadth first so
// the parent is always done before n.
func resolveNeighbors(m *schemas.NodeMap, n *schemas.NodeInfo, parentSlots func(*schemas.NodeInfo) schemas.NeighborInfos) schemas.NeighborInfos {
	var slots schemas.NeighborInfos
	parent, hasParent := m.Parent(n)
	for _, d := range schemas.Directions {
		if id := nearestSibling(m, n, d); id != "" {
			slots.Set(d, id)
			continue
		}
		if !hasParent {
			continue
		}
		if geometry.IsSameDistance(n.BoundingRect.Edge(d), parent.BoundingRect.Edge(d)) {
			// n is flush with its parent, so whatever is beside the parent is beside n.
			slots.Set(d, parentSlots(parent).Get(d))
			continue
		}
		slots.Set(d, parent.UniqueID)
	}
	return slots
}

// nearestSibling returns the closest sibling lying straight in direction d.
// Ties keep the first sibling in list order.
func nearestSibling(m *schemas.NodeMap, n *schemas.NodeInfo, d schemas.Direction) string {
	best := ""
	bestGap := math.Inf(1)
	for _, id := range n.Sibling {
		s, ok := m.Get(id)
		if !ok {
			continue
		}
		dir, ok := geometry.Classify(n.BoundingRect, s.BoundingRect).Direction()
		if !ok || dir != d {
			continue
		}
		if gap := geometry.Gap(n.BoundingRect, s.BoundingRect, d); gap < bestGap {
			best, bestGap = id, gap
		}
	}
	return best
}
