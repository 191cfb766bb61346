package normalize

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// RecordNeighborDistances converts each neighbor slot into a distance. A
// sibling-like neighbor is measured edge to facing edge; a parent-like
// neighbor is measured edge to the same edge.
func RecordNeighborDistances(in *schemas.NodeMap) *schemas.NodeMap {
	out := in.Clone()
	for _, n := range out.Nodes() {
		var info schemas.NeighborMarginInfo
		for _, d := range schemas.Directions {
			id := n.Neighbors.Get(d)
			neighbor, ok := out.Get(id)
			if !ok {
				info.Set(d, schemas.NeighborMargin{})
				continue
			}
			isParent := classifyNeighbor(out, n, id)
			var v float64
			if isParent {
				v = math.Abs(n.BoundingRect.Edge(d) - neighbor.BoundingRect.Edge(d))
			} else {
				v = math.Abs(n.BoundingRect.Edge(d) - neighbor.BoundingRect.Edge(d.Opposite()))
			}
			info.Set(d, schemas.NeighborMargin{
				Value:             v,
				IsParent:          isParent,
				IsDirectlySibling: n.HasSibling(id),
			})
		}
		n.NeighborMarginInfo = info
	}
	return out
}

// classifyNeighbor reports whether id relates to n as a parent (true) or as
// a sibling (false), walking up the ancestor chain until one of n's
// ancestors has id as its parent or sibling. Running out of ancestors counts
// as parent.
func classifyNeighbor(m *schemas.NodeMap, n *schemas.NodeInfo, id string) bool {
	cur := n
	for steps := 0; steps <= m.Len(); steps++ {
		if cur.ParentID == id {
			return true
		}
		if cur.HasSibling(id) {
			return false
		}
		parent, ok := m.Parent(cur)
		if !ok {
			return true
		}
		cur = parent
	}
	return true
}
