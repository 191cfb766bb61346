package diff

import (
	"strings"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// Alignment is where a flex container places a child on the vertical axis.
type Alignment int

const (
	AlignTop Alignment = iota
	AlignCenter
	AlignBottom
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignBottom:
		return "bottom"
	}
	return "top"
}

// Offset is how far extra (or missing) text lines move a node's top edge and
// how much they change its height.
type Offset struct {
	Top    float64
	Height float64
}

// SiblingPosition locates a child among its parent's children.
type SiblingPosition struct {
	Index int
	Total int
}

// FlexKey is the parent container state that decides vertical placement.
type FlexKey struct {
	FlexDirection  string
	JustifyContent string
	AlignItems     string
}

// AlignmentStrategy resolves the vertical alignment of a child of a flex
// container. pos is nil when the child's place among its siblings is unknown.
type AlignmentStrategy interface {
	Alignment(key FlexKey, pos *SiblingPosition) Alignment
}

// CSSFlexAlignment implements AlignmentStrategy with the CSS flexbox rules:
// a column container places children by justify-content, a row container by
// align-items, and reversed directions mirror top and bottom.
type CSSFlexAlignment struct{}

// Alignment implements AlignmentStrategy.
func (CSSFlexAlignment) Alignment(key FlexKey, pos *SiblingPosition) Alignment {
	base, reversed := strings.CutSuffix(key.FlexDirection, "-reverse")
	if base == "" {
		base = "row"
	}

	var a Alignment
	switch base {
	case "column":
		a = justifyAlignment(key.JustifyContent, pos)
	default:
		a = crossAlignment(key.AlignItems)
	}

	if !reversed {
		return a
	}
	switch a {
	case AlignTop:
		return AlignBottom
	case AlignBottom:
		return AlignTop
	}
	return a
}

func justifyAlignment(justify string, pos *SiblingPosition) Alignment {
	switch justify {
	case "center":
		return AlignCenter
	case "flex-end", "end":
		return AlignBottom
	case "space-between", "space-around", "space-evenly":
		return spaceAlignment(justify, pos)
	}
	return AlignTop
}

func crossAlignment(align string) Alignment {
	switch align {
	case "center":
		return AlignCenter
	case "flex-end", "end":
		return AlignBottom
	}
	return AlignTop
}

// spaceAlignment handles the distributed justify-content values, where the
// first child hugs the top, the last hugs the bottom, and the rest float.
func spaceAlignment(justify string, pos *SiblingPosition) Alignment {
	if pos == nil {
		return AlignTop
	}
	if pos.Total == 1 {
		if justify == "space-between" {
			return AlignTop
		}
		return AlignCenter
	}
	switch pos.Index {
	case 0:
		return AlignTop
	case pos.Total - 1:
		return AlignBottom
	}
	return AlignCenter
}

// lineOffset returns the shift caused by a change in line count, and the sign
// to apply it with: a DOM node with more lines than its design is taller, so
// the correction is subtracted.
func lineOffset(strategy AlignmentStrategy, dom *schemas.NodeMap, n, designNode *schemas.NodeInfo) (Offset, float64) {
	if n.TextStyleInfo == nil || designNode == nil || designNode.TextStyleInfo == nil {
		return Offset{}, 1
	}
	delta := n.TextStyleInfo.TextLineCount - designNode.TextStyleInfo.TextLineCount
	coefficient := 1.0
	if delta > 0 {
		coefficient = -1
	}
	if delta < 0 {
		delta = -delta
	}
	dh := float64(delta) * n.TextStyleInfo.LineHeight
	if dh == 0 {
		return Offset{}, coefficient
	}

	parent, ok := dom.Parent(n)
	if !ok || !parent.NodeFlexInfo.IsFlex {
		return Offset{Height: dh}, coefficient
	}

	key := FlexKey{
		FlexDirection:  parent.NodeFlexInfo.FlexDirection,
		JustifyContent: parent.NodeFlexInfo.JustifyContent,
		AlignItems:     parent.NodeFlexInfo.AlignItems,
	}
	var pos *SiblingPosition
	for i, id := range parent.Children {
		if id == n.UniqueID {
			pos = &SiblingPosition{Index: i, Total: len(parent.Children)}
			break
		}
	}

	switch strategy.Alignment(key, pos) {
	case AlignCenter:
		return Offset{Top: dh / 2, Height: dh}, coefficient
	case AlignBottom:
		return Offset{Top: dh, Height: dh}, coefficient
	}
	return Offset{Height: dh}, coefficient
}

// isSoleGrowChild reports whether n is the only child of its flex parent with
// flex-grow 1, and on which axis the parent stretches it.
func isSoleGrowChild(dom *schemas.NodeMap, n *schemas.NodeInfo) (horizontal, vertical bool) {
	if n.FlexGrow != 1 {
		return false, false
	}
	parent, ok := dom.Parent(n)
	if !ok || !parent.NodeFlexInfo.IsFlex {
		return false, false
	}
	growers := 0
	for _, id := range parent.Children {
		if c, ok := dom.Get(id); ok && c.FlexGrow == 1 {
			growers++
		}
	}
	if growers != 1 {
		return false, false
	}
	if strings.HasPrefix(parent.NodeFlexInfo.FlexDirection, "column") {
		return false, true
	}
	return true, false
}
