package normalize

import (
	"slices"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// node builds a transparent, unstyled node.
func node(id, parent string, x, y, w, h float64, children ...string) *schemas.NodeInfo {
	return &schemas.NodeInfo{
		UniqueID:        id,
		NodeName:        id,
		ParentID:        parent,
		Children:        children,
		BoundingRect:    schemas.Rect{X: x, Y: y, Width: w, Height: h},
		OriginBounding:  schemas.Rect{X: x, Y: y, Width: w, Height: h},
		BackgroundColor: schemas.Transparent,
		BorderInfo: schemas.BorderInfo{
			LeftColor: schemas.Transparent, RightColor: schemas.Transparent,
			TopColor: schemas.Transparent, BottomColor: schemas.Transparent,
		},
	}
}

// tree assembles nodes in the given (breadth-first) order and derives the
// sibling lists from each parent's children.
func tree(nodes ...*schemas.NodeInfo) *schemas.NodeMap {
	m := schemas.NewNodeMapFrom(nodes)
	for _, n := range m.Nodes() {
		parent, ok := m.Get(n.ParentID)
		if !ok {
			continue
		}
		n.Sibling = slices.DeleteFunc(slices.Clone(parent.Children), func(id string) bool {
			return id == n.UniqueID
		})
	}
	return m
}

func mustGet(m *schemas.NodeMap, id string) *schemas.NodeInfo {
	n, ok := m.Get(id)
	if !ok {
		panic("missing node " + id)
	}
	return n
}
