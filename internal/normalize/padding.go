package normalize

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// FoldPadding absorbs structural padding into node rectangles.
//
// The first pass folds every mergeable edge into its own node. The second
// pass walks containers bottom-up and promotes the smallest remaining padding
// of the children on each edge to the container, shrinking the container by
// that amount and taking it off each edge child.
//
// Requires InitialNeighborInfos to be populated.
func FoldPadding(in *schemas.NodeMap) *schemas.NodeMap {
	out := in.Clone()

	for _, n := range out.Nodes() {
		for _, d := range schemas.Directions {
			if !IsPaddingMergeable(out, n, d) {
				continue
			}
			insetEdge(&n.BoundingRect, d, n.PaddingInfo.Get(d))
			n.PaddingInfo.Set(d, 0)
		}
		clampRect(n)
	}

	for _, n := range out.Reverse() {
		if len(n.Children) == 0 {
			continue
		}
		for _, d := range schemas.Directions {
			edge := edgeChildren(out, n, d)
			if len(edge) == 0 {
				continue
			}
			gap := math.Inf(1)
			for _, c := range edge {
				gap = math.Min(gap, c.PaddingInfo.Get(d))
			}
			if gap <= 0 {
				continue
			}
			n.PaddingInfo.Set(d, n.PaddingInfo.Get(d)+gap)
			insetEdge(&n.BoundingRect, d, gap)
			for _, c := range edge {
				c.PaddingInfo.Set(d, c.PaddingInfo.Get(d)-gap)
			}
		}
		clampRect(n)
	}
	return out
}
