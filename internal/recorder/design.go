package recorder

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// SafeArea describes the fixed header and footer bands of a mobile artboard,
// in design units.
type SafeArea struct {
	Enabled      bool
	HeaderHeight float64
	FooterHeight float64
	// ScreenHeight overrides the artboard height when placing the footer band.
	ScreenHeight float64
}

// DefaultSafeArea returns the 88/68 header and footer bands, enabled.
func DefaultSafeArea() SafeArea {
	return SafeArea{Enabled: true, HeaderHeight: 88, FooterHeight: 68}
}

// DesignRecorder flattens a design scene graph into DOM pixel space.
type DesignRecorder struct {
	conv     Converter
	safeArea SafeArea
}

// NewDesignRecorder returns a recorder using the given unit conversion and
// safe-area bands.
func NewDesignRecorder(conv Converter, safeArea SafeArea) *DesignRecorder {
	return &DesignRecorder{conv: conv, safeArea: safeArea}
}

// Record flattens root. Geometry is taken relative to the root's origin and
// converted to DOM pixels; invisible nodes are skipped with their subtrees.
// Children are reordered left-to-right and top-to-bottom. A root with no
// area yields an empty map.
func (r *DesignRecorder) Record(root *schemas.SceneNode) *schemas.NodeMap {
	if root == nil || root.ID == "" || root.AbsoluteBoundingBox.Width <= 0 || root.AbsoluteBoundingBox.Height <= 0 {
		return schemas.NewNodeMap(0)
	}
	origin := root.AbsoluteBoundingBox

	type item struct {
		node     *schemas.SceneNode
		parentID string
		siblings []string
	}

	m := schemas.NewNodeMap(64)
	queue := []item{{node: root}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var visible []*schemas.SceneNode
		var childIDs []string
		if cur.node.HasChildList() {
			for _, c := range cur.node.Children {
				if c == nil || c.ID == "" || !c.IsVisible() {
					continue
				}
				visible = append(visible, c)
				childIDs = append(childIDs, c.ID)
			}
		}

		n := r.recordNode(cur.node, origin)
		n.ParentID = cur.parentID
		n.Children = childIDs
		n.Sibling = siblingsOf(cur.siblings, n.UniqueID)
		n.IsBFC = cur.parentID == ""
		m.Set(n)

		for _, c := range visible {
			queue = append(queue, item{node: c, parentID: n.UniqueID, siblings: childIDs})
		}
	}

	r.applySafeArea(m)
	ReorderChildren(m)
	return m
}

func (r *DesignRecorder) recordNode(s *schemas.SceneNode, origin schemas.Rect) *schemas.NodeInfo {
	box := s.AbsoluteBoundingBox
	rect := schemas.Rect{
		X:      r.conv.Px(box.X - origin.X),
		Y:      r.conv.Px(box.Y - origin.Y),
		Width:  r.conv.Px(box.Width),
		Height: r.conv.Px(box.Height),
	}
	n := &schemas.NodeInfo{
		UniqueID:        s.ID,
		NodeName:        s.Name,
		BoundingRect:    rect,
		OriginBounding:  rect,
		PaddingInfo:     r.padding(s),
		BorderInfo:      r.border(s),
		BackgroundColor: designBackground(s),
		Text:            s.Characters,
		TextStyleInfo:   r.textStyle(s),
		NodeFlexInfo:    designFlex(s),
		FlexGrow:        s.FlexGrow,
	}
	return n
}

// padding is only meaningful on auto-layout frames.
func (r *DesignRecorder) padding(s *schemas.SceneNode) schemas.PaddingInfo {
	if s.Type != schemas.NodeTypeFrame || s.FlexMode == "" || s.FlexMode == "NONE" {
		return schemas.PaddingInfo{}
	}
	return schemas.PaddingInfo{
		Left:   r.conv.Px(s.PaddingLeft),
		Right:  r.conv.Px(s.PaddingRight),
		Top:    r.conv.Px(s.PaddingTop),
		Bottom: r.conv.Px(s.PaddingBottom),
	}
}

func (r *DesignRecorder) border(s *schemas.SceneNode) schemas.BorderInfo {
	b := schemas.BorderInfo{
		LeftColor:   schemas.Transparent,
		RightColor:  schemas.Transparent,
		TopColor:    schemas.Transparent,
		BottomColor: schemas.Transparent,
	}
	if s.Type == schemas.NodeTypeSlice {
		return b
	}

	switch s.Type {
	case schemas.NodeTypeFrame, schemas.NodeTypeRectangle, schemas.NodeTypeInstance,
		schemas.NodeTypeComponent, schemas.NodeTypeComponentSet:
		b.LeftWidth = r.conv.Px(s.StrokeLeftWeight)
		b.RightWidth = r.conv.Px(s.StrokeRightWeight)
		b.TopWidth = r.conv.Px(s.StrokeTopWeight)
		b.BottomWidth = r.conv.Px(s.StrokeBottomWeight)
	default:
		w := r.conv.Px(s.StrokeWeight)
		b.LeftWidth, b.RightWidth, b.TopWidth, b.BottomWidth = w, w, w, w
	}

	if len(s.Strokes) > 0 && s.Strokes[0].Type == "SOLID" && s.Strokes[0].Color.A > 0 {
		c := rgba(s.Strokes[0].Color)
		b.LeftColor, b.RightColor, b.TopColor, b.BottomColor = c, c, c, c
	}
	return b
}

func designBackground(s *schemas.SceneNode) string {
	if len(s.Fills) == 0 {
		return schemas.Transparent
	}
	fill := s.Fills[0]
	if fill.Type != "SOLID" {
		return schemas.BackgroundImage
	}
	if fill.Color.A == 0 {
		return schemas.Transparent
	}
	return rgba(fill.Color)
}

// rgba renders a design colour the way getComputedStyle would.
func rgba(c schemas.RGBA) string {
	channel := func(v float64) int { return int(geometry.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", channel(c.R), channel(c.G), channel(c.B),
		strconv.FormatFloat(c.A, 'f', -1, 64))
}

// textStyle derives the line box of a TEXT node. The line count follows how
// the text box resizes: auto width is one line, auto height fills whole
// lines, and fixed boxes count the rendered lines.
func (r *DesignRecorder) textStyle(s *schemas.SceneNode) *schemas.TextStyleInfo {
	if s.Type != schemas.NodeTypeText {
		return nil
	}
	var lh float64
	for _, seg := range s.TextStyles {
		lh = math.Max(lh, geometry.Round(seg.LineHeightByPx))
	}
	info := &schemas.TextStyleInfo{LineHeight: r.conv.Px(lh), TextLineCount: 1}
	if lh <= 0 {
		return info
	}

	switch s.TextAutoResize {
	case "WIDTH_AND_HEIGHT":
	case "HEIGHT":
		info.TextLineCount = max(int(math.Floor(s.AbsoluteBoundingBox.Height/lh)), 1)
	default:
		h := s.AbsoluteBoundingBox.Height
		if s.AbsoluteRenderBounds != nil {
			h = s.AbsoluteRenderBounds.Height
		}
		info.TextLineCount = max(int(math.Ceil(h/lh)), 1)
	}
	return info
}

var axisAlign = map[string]string{
	"FLEX_START":    "flex-start",
	"CENTER":        "center",
	"FLEX_END":      "flex-end",
	"SPACE_BETWEEN": "space-between",
	"BASELINE":      "baseline",
}

func designFlex(s *schemas.SceneNode) schemas.FlexInfo {
	var dir string
	switch s.FlexMode {
	case "HORIZONTAL":
		dir = "row"
	case "VERTICAL":
		dir = "column"
	default:
		return schemas.FlexInfo{}
	}
	return schemas.FlexInfo{
		IsFlex:         true,
		FlexDirection:  dir,
		JustifyContent: axisAlign[s.MainAxisAlignItems],
		AlignItems:     axisAlign[s.CrossAxisAlignItems],
	}
}

// applySafeArea drops nodes that sit wholly inside the header or footer
// band, together with their subtrees. The root is never dropped.
func (r *DesignRecorder) applySafeArea(m *schemas.NodeMap) {
	if !r.safeArea.Enabled {
		return
	}
	root, ok := m.Root()
	if !ok {
		return
	}
	screen := root.BoundingRect.Height
	if r.safeArea.ScreenHeight > 0 {
		screen = r.conv.Px(r.safeArea.ScreenHeight)
	}
	header := r.conv.Px(r.safeArea.HeaderHeight)
	footerTop := screen - r.conv.Px(r.safeArea.FooterHeight)

	drop := make(map[string]bool)
	for _, n := range m.Nodes() {
		if n.UniqueID == root.UniqueID || drop[n.UniqueID] {
			continue
		}
		rect := n.BoundingRect
		inHeader := r.safeArea.HeaderHeight > 0 && rect.Bottom() <= header
		inFooter := r.safeArea.FooterHeight > 0 && rect.Y >= footerTop && rect.Bottom() <= screen
		if !inHeader && !inFooter {
			continue
		}
		for _, id := range subtree(m, n.UniqueID) {
			drop[id] = true
		}
	}
	prune(m, drop)
}
