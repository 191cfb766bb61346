package normalize

import "github.com/xkilldash9x/ui-differ/api/schemas"

// hasBorder reports whether edge d carries a border that visibly marks the
// node's boundary: non-zero width, a painted colour, and a colour that differs
// from the node's own background.
func hasBorder(n *schemas.NodeInfo, d schemas.Direction) bool {
	w := n.BorderInfo.Width(d)
	c := n.BorderInfo.Color(d)
	return w > 0 && c != "" && c != schemas.Transparent && c != n.BackgroundColor
}

// ancestorBackground returns the first non-transparent background above n.
// The walk is bounded by the map size so a malformed parent cycle cannot spin.
func ancestorBackground(m *schemas.NodeMap, n *schemas.NodeInfo) string {
	cur, ok := m.Parent(n)
	for steps := 0; ok && steps <= m.Len(); steps++ {
		if cur.BackgroundColor != schemas.Transparent && cur.BackgroundColor != "" {
			return cur.BackgroundColor
		}
		cur, ok = m.Parent(cur)
	}
	return schemas.Transparent
}

// hasDistinctBackground reports whether n paints a background a viewer could
// tell apart from what is behind it.
func hasDistinctBackground(m *schemas.NodeMap, n *schemas.NodeInfo) bool {
	switch n.BackgroundColor {
	case schemas.BackgroundImage:
		return true
	case schemas.Transparent, "":
		return false
	}
	return n.BackgroundColor != ancestorBackground(m, n)
}

// isStructuralEdge reports whether nothing visible pins edge d of n: no
// distinct background and no border on that edge.
func isStructuralEdge(m *schemas.NodeMap, n *schemas.NodeInfo, d schemas.Direction) bool {
	return !hasDistinctBackground(m, n) && !hasBorder(n, d)
}

// IsPaddingMergeable reports whether the padding on edge d is purely
// structural and can be folded into the node's rectangle.
func IsPaddingMergeable(m *schemas.NodeMap, n *schemas.NodeInfo, d schemas.Direction) bool {
	return n.PaddingInfo.Get(d) != 0 && isStructuralEdge(m, n, d)
}

// insetEdge moves edge d of r inward by v.
func insetEdge(r *schemas.Rect, d schemas.Direction, v float64) {
	switch d {
	case schemas.Left:
		r.X += v
		r.Width -= v
	case schemas.Right:
		r.Width -= v
	case schemas.Top:
		r.Y += v
		r.Height -= v
	case schemas.Bottom:
		r.Height -= v
	}
}

// clampRect zeroes negative dimensions and flags the node when it had to.
func clampRect(n *schemas.NodeInfo) {
	if n.BoundingRect.Width < 0 {
		n.BoundingRect.Width = 0
		n.Flagged = true
	}
	if n.BoundingRect.Height < 0 {
		n.BoundingRect.Height = 0
		n.Flagged = true
	}
}

// edgeChildren returns the children of n that have no sibling beside them in
// direction d, judged by the neighbors frozen before normalization.
func edgeChildren(m *schemas.NodeMap, n *schemas.NodeInfo, d schemas.Direction) []*schemas.NodeInfo {
	var out []*schemas.NodeInfo
	for _, id := range n.Children {
		c, ok := m.Get(id)
		if !ok {
			continue
		}
		if c.InitialNeighborInfos != nil && c.InitialNeighborInfos.Get(d) != "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
