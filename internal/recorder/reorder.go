package recorder

import (
	"slices"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// ReorderChildren stably sorts every children list into reading order: a
// child above or to the left of another comes first. Pairs that overlap keep
// their paint order.
func ReorderChildren(m *schemas.NodeMap) {
	for _, n := range m.Nodes() {
		if len(n.Children) < 2 {
			continue
		}
		slices.SortStableFunc(n.Children, func(a, b string) int {
			na, okA := m.Get(a)
			nb, okB := m.Get(b)
			if !okA || !okB {
				return 0
			}
			return readingOrder(na.BoundingRect, nb.BoundingRect)
		})
	}
}

func readingOrder(a, b schemas.Rect) int {
	switch geometry.Classify(a, b) {
	case geometry.PositionTopLeft, geometry.PositionTop, geometry.PositionTopRight, geometry.PositionLeft:
		return 1
	case geometry.PositionBottomLeft, geometry.PositionBottom, geometry.PositionBottomRight, geometry.PositionRight:
		return -1
	}
	return 0
}
