package recorder

import (
	"math"
	"strings"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// RecordDOM flattens a page snapshot into a node map. Elements out of normal
// flow are dropped with their subtrees, and elements that paint nothing are
// dropped with every reference to them. The root is always kept. A snapshot
// whose root has no area yields an empty map.
func RecordDOM(snap *schemas.PageSnapshot) *schemas.NodeMap {
	if snap == nil || snap.Root == nil || snap.Root.UniqueID == "" ||
		snap.Root.Rect.Width <= 0 || snap.Root.Rect.Height <= 0 {
		return schemas.NewNodeMap(0)
	}

	type item struct {
		el       *schemas.ElementSnapshot
		parentID string
		siblings []string
	}

	m := schemas.NewNodeMap(64)
	queue := []item{{el: snap.Root}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var childIDs []string
		var inFlow []*schemas.ElementSnapshot
		for _, c := range cur.el.Children {
			if c == nil || c.UniqueID == "" || outOfFlow(c.Style) {
				continue
			}
			inFlow = append(inFlow, c)
			childIDs = append(childIDs, c.UniqueID)
		}

		isRoot := cur.parentID == ""
		n := recordElement(snap, cur.el, isRoot)
		n.ParentID = cur.parentID
		n.Children = childIDs
		n.Sibling = siblingsOf(cur.siblings, n.UniqueID)
		if len(childIDs) == 0 {
			n.TextStyleInfo = textStyle(cur.el)
		}
		n.IsEmptyNode = isEmptyElement(n)
		m.Set(n)

		for _, c := range inFlow {
			queue = append(queue, item{el: c, parentID: n.UniqueID, siblings: childIDs})
		}
	}

	drop := make(map[string]bool)
	for i, n := range m.Nodes() {
		if i > 0 && n.IsEmptyNode {
			drop[n.UniqueID] = true
		}
	}
	prune(m, drop)
	return m
}

func recordElement(snap *schemas.PageSnapshot, el *schemas.ElementSnapshot, isRoot bool) *schemas.NodeInfo {
	s := el.Style
	rect := schemas.Rect{
		X:      el.Rect.X,
		Y:      el.Rect.Y + snap.ScrollY,
		Width:  el.Rect.Width,
		Height: el.Rect.Height,
	}
	if isRoot && snap.DocumentHeight > 0 {
		rect.Height = math.Min(rect.Height, snap.DocumentHeight)
	}

	sx, sy := transformScale(s.Transform)
	n := &schemas.NodeInfo{
		UniqueID:       el.UniqueID,
		NodeName:       "." + strings.Join(el.ClassList, "."),
		BoundingRect:   rect,
		OriginBounding: rect,
		PaddingInfo: schemas.PaddingInfo{
			Left:   parsePx(s.PaddingLeft) / sx,
			Right:  parsePx(s.PaddingRight) / sx,
			Top:    parsePx(s.PaddingTop) / sy,
			Bottom: parsePx(s.PaddingBottom) / sy,
		},
		BorderInfo:      elementBorder(el, sx, sy),
		BackgroundColor: backgroundOf(s),
		MarginInfo: schemas.MarginInfo{
			Top:    parsePx(s.MarginTop),
			Bottom: parsePx(s.MarginBottom),
		},
		IsBFC:         establishesBFC(s, isRoot),
		IsTextWrapper: el.IsTextWrapper,
		Text:          strings.TrimSpace(el.Text),
		FlexGrow:      parseNumber(s.FlexGrow),
	}
	if s.Display == "flex" || s.Display == "inline-flex" {
		n.NodeFlexInfo = schemas.FlexInfo{
			IsFlex:         true,
			FlexDirection:  s.FlexDirection,
			JustifyContent: s.JustifyContent,
			AlignItems:     s.AlignItems,
		}
	}
	return n
}

// elementBorder reads the element's own border, falling back per edge to the
// ::before and then the ::after pseudo element.
func elementBorder(el *schemas.ElementSnapshot, sx, sy float64) schemas.BorderInfo {
	own := pseudoOf(el.Style)
	layers := []schemas.PseudoBorder{own}
	if el.Before != nil {
		layers = append(layers, *el.Before)
	}
	if el.After != nil {
		layers = append(layers, *el.After)
	}

	width := func(pick func(schemas.PseudoBorder) string, scale float64) float64 {
		ws := make([]float64, 0, len(layers))
		for _, l := range layers {
			ws = append(ws, borderWidth(pick(l), scale))
		}
		return firstWidth(ws...)
	}
	color := func(pick func(schemas.PseudoBorder) string) string {
		cs := make([]string, 0, len(layers))
		for _, l := range layers {
			cs = append(cs, normalizeColor(pick(l)))
		}
		return firstColor(cs...)
	}

	return schemas.BorderInfo{
		LeftWidth:   width(func(p schemas.PseudoBorder) string { return p.LeftWidth }, sx),
		RightWidth:  width(func(p schemas.PseudoBorder) string { return p.RightWidth }, sx),
		TopWidth:    width(func(p schemas.PseudoBorder) string { return p.TopWidth }, sy),
		BottomWidth: width(func(p schemas.PseudoBorder) string { return p.BottomWidth }, sy),
		LeftColor:   color(func(p schemas.PseudoBorder) string { return p.LeftColor }),
		RightColor:  color(func(p schemas.PseudoBorder) string { return p.RightColor }),
		TopColor:    color(func(p schemas.PseudoBorder) string { return p.TopColor }),
		BottomColor: color(func(p schemas.PseudoBorder) string { return p.BottomColor }),
	}
}

func pseudoOf(s schemas.ComputedStyle) schemas.PseudoBorder {
	return schemas.PseudoBorder{
		TopWidth:    s.BorderTopWidth,
		RightWidth:  s.BorderRightWidth,
		BottomWidth: s.BorderBottomWidth,
		LeftWidth:   s.BorderLeftWidth,
		TopColor:    s.BorderTopColor,
		RightColor:  s.BorderRightColor,
		BottomColor: s.BorderBottomColor,
		LeftColor:   s.BorderLeftColor,
	}
}

// textStyle measures the line count of a leaf element with visible text.
func textStyle(el *schemas.ElementSnapshot) *schemas.TextStyleInfo {
	if strings.TrimSpace(el.Text) == "" {
		return nil
	}
	lh := lineHeightPx(el.Style)
	lines := 1
	if lh > 0 {
		lines = max(1, int(geometry.Round(el.TextHeight/lh)))
	}
	return &schemas.TextStyleInfo{LineHeight: lh, TextLineCount: lines}
}

// isEmptyElement reports whether a node paints nothing of its own and holds
// nothing.
func isEmptyElement(n *schemas.NodeInfo) bool {
	if len(n.Children) > 0 || n.Text != "" || n.BackgroundColor != schemas.Transparent {
		return false
	}
	noWidth, noColor := true, true
	for _, d := range schemas.Directions {
		if n.BorderInfo.Width(d) != 0 {
			noWidth = false
		}
		if n.BorderInfo.Color(d) != schemas.Transparent {
			noColor = false
		}
	}
	return noWidth || noColor
}
