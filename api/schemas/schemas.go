package schemas

import "slices"

// -- Geometry --

// Direction identifies one of the four cardinal neighbor slots of a node.
type Direction string

const (
	Top    Direction = "TOP"
	Bottom Direction = "BOTTOM"
	Left   Direction = "LEFT"
	Right  Direction = "RIGHT"
)

// Directions lists the cardinal directions in the order every stage walks them.
var Directions = []Direction{Top, Bottom, Left, Right}

// Opposite returns the direction facing d.
func (d Direction) Opposite() Direction {
	switch d {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	case Right:
		return Left
	}
	return d
}

// Horizontal reports whether d lies on the x axis.
func (d Direction) Horizontal() bool {
	return d == Left || d == Right
}

// Rect is an axis-aligned box in absolute page (or design) coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Edge returns the coordinate of the rectangle's edge facing d.
func (r Rect) Edge(d Direction) float64 {
	switch d {
	case Top:
		return r.Y
	case Bottom:
		return r.Bottom()
	case Left:
		return r.X
	case Right:
		return r.Right()
	}
	return 0
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// -- Style facts --

// Background sentinels used by BackgroundColor. Any other value is an rgba() string.
const (
	Transparent     = "transparent"
	BackgroundImage = "background-image"
)

// PaddingInfo holds per-edge padding in DOM pixels.
type PaddingInfo struct {
	Left   float64 `json:"paddingLeft"`
	Right  float64 `json:"paddingRight"`
	Top    float64 `json:"paddingTop"`
	Bottom float64 `json:"paddingBottom"`
}

// Get returns the padding on edge d.
func (p PaddingInfo) Get(d Direction) float64 {
	switch d {
	case Top:
		return p.Top
	case Bottom:
		return p.Bottom
	case Left:
		return p.Left
	case Right:
		return p.Right
	}
	return 0
}

// Set replaces the padding on edge d.
func (p *PaddingInfo) Set(d Direction, v float64) {
	switch d {
	case Top:
		p.Top = v
	case Bottom:
		p.Bottom = v
	case Left:
		p.Left = v
	case Right:
		p.Right = v
	}
}

// BorderInfo holds per-edge border width and colour.
type BorderInfo struct {
	LeftWidth   float64 `json:"borderWidthLeft"`
	RightWidth  float64 `json:"borderWidthRight"`
	TopWidth    float64 `json:"borderWidthTop"`
	BottomWidth float64 `json:"borderWidthBottom"`
	LeftColor   string  `json:"borderColorLeft"`
	RightColor  string  `json:"borderColorRight"`
	TopColor    string  `json:"borderColorTop"`
	BottomColor string  `json:"borderColorBottom"`
}

// Width returns the border width on edge d.
func (b BorderInfo) Width(d Direction) float64 {
	switch d {
	case Top:
		return b.TopWidth
	case Bottom:
		return b.BottomWidth
	case Left:
		return b.LeftWidth
	case Right:
		return b.RightWidth
	}
	return 0
}

// Color returns the border colour on edge d.
func (b BorderInfo) Color(d Direction) string {
	switch d {
	case Top:
		return b.TopColor
	case Bottom:
		return b.BottomColor
	case Left:
		return b.LeftColor
	case Right:
		return b.RightColor
	}
	return ""
}

// Visible reports whether any edge carries a border that would be painted.
func (b BorderInfo) Visible() bool {
	for _, d := range Directions {
		if b.Width(d) > 0 && b.Color(d) != "" && b.Color(d) != Transparent {
			return true
		}
	}
	return false
}

// MarginInfo holds the vertical margins read at capture time. Only the DOM
// recorder fills it; margin collapsing is a block-axis behavior.
type MarginInfo struct {
	Top    float64 `json:"marginTop"`
	Bottom float64 `json:"marginBottom"`
}

// TextStyleInfo describes the line box of a text-bearing node.
type TextStyleInfo struct {
	LineHeight    float64 `json:"lineHeight"`
	TextLineCount int     `json:"textLineCount"`
}

// FlexInfo describes the node as a flex container.
type FlexInfo struct {
	IsFlex         bool   `json:"isFlex"`
	FlexDirection  string `json:"flexDirection,omitempty"`
	JustifyContent string `json:"justifyContent,omitempty"`
	AlignItems     string `json:"alignItems,omitempty"`
}

// -- Neighbors --

// NeighborInfos holds the neighbor id per direction. An empty string means none.
type NeighborInfos struct {
	Top    string `json:"top,omitempty"`
	Bottom string `json:"bottom,omitempty"`
	Left   string `json:"left,omitempty"`
	Right  string `json:"right,omitempty"`
}

// Get returns the neighbor in direction d.
func (n NeighborInfos) Get(d Direction) string {
	switch d {
	case Top:
		return n.Top
	case Bottom:
		return n.Bottom
	case Left:
		return n.Left
	case Right:
		return n.Right
	}
	return ""
}

// Set replaces the neighbor in direction d.
func (n *NeighborInfos) Set(d Direction, id string) {
	switch d {
	case Top:
		n.Top = id
	case Bottom:
		n.Bottom = id
	case Left:
		n.Left = id
	case Right:
		n.Right = id
	}
}

// NeighborMargin is the resolved distance to a neighbor plus its provenance.
type NeighborMargin struct {
	Value             float64 `json:"value"`
	IsParent          bool    `json:"isParent"`
	IsDirectlySibling bool    `json:"isDirectlySibling"`
}

// NeighborMarginInfo holds one NeighborMargin per direction.
type NeighborMarginInfo struct {
	Top    NeighborMargin `json:"top"`
	Bottom NeighborMargin `json:"bottom"`
	Left   NeighborMargin `json:"left"`
	Right  NeighborMargin `json:"right"`
}

// Get returns the margin record for direction d.
func (n NeighborMarginInfo) Get(d Direction) NeighborMargin {
	switch d {
	case Top:
		return n.Top
	case Bottom:
		return n.Bottom
	case Left:
		return n.Left
	case Right:
		return n.Right
	}
	return NeighborMargin{}
}

// Set replaces the margin record for direction d.
func (n *NeighborMarginInfo) Set(d Direction, m NeighborMargin) {
	switch d {
	case Top:
		n.Top = m
	case Bottom:
		n.Bottom = m
	case Left:
		n.Left = m
	case Right:
		n.Right = m
	}
}

// -- Node --

// MatchResult describes how a DOM node was paired with a design node.
type MatchResult struct {
	DesignNodeID    string  `json:"designNodeId"`
	Confidence      float64 `json:"confidence"`
	CenterDistance  float64 `json:"centerDistance"`
	OverlapRatio    float64 `json:"overlapRatio"`
	OffsetCorrected bool    `json:"offsetCorrected"`
}

// NodeInfo is the flat record of one element of either tree.
type NodeInfo struct {
	UniqueID string   `json:"uniqueId"`
	NodeName string   `json:"nodeName"`
	ParentID string   `json:"parentId"`
	Children []string `json:"children"`
	Sibling  []string `json:"sibling"`

	BoundingRect   Rect `json:"boundingRect"`
	OriginBounding Rect `json:"originBounding"`

	PaddingInfo     PaddingInfo `json:"paddingInfo"`
	BorderInfo      BorderInfo  `json:"borderInfo"`
	BackgroundColor string      `json:"backgroundColor"`
	MarginInfo      MarginInfo  `json:"marginInfo"`

	Neighbors            NeighborInfos      `json:"neighbors"`
	InitialNeighborInfos *NeighborInfos     `json:"initialNeighborInfos,omitempty"`
	NeighborMarginInfo   NeighborMarginInfo `json:"neighborMarginInfo"`

	IsBFC               bool           `json:"isBFC,omitempty"`
	IsOutOfDocumentFlow bool           `json:"isOutOfDocumentFlow,omitempty"`
	IsEmptyNode         bool           `json:"isEmptyNode,omitempty"`
	IsTextWrapper       bool           `json:"isTextWrapper,omitempty"`
	Text                string         `json:"text,omitempty"`
	TextStyleInfo       *TextStyleInfo `json:"textStyleInfo,omitempty"`
	NodeFlexInfo        FlexInfo       `json:"nodeFlexInfo"`
	FlexGrow            float64        `json:"flexGrow,omitempty"`

	MatchedDesignNodeID string       `json:"matchedDesignNodeId,omitempty"`
	MatchResult         *MatchResult `json:"matchResult,omitempty"`

	// Flagged marks a node whose geometry had to be clamped during normalization.
	Flagged bool `json:"flagged,omitempty"`
}

// Clone returns a deep copy of the node.
func (n *NodeInfo) Clone() *NodeInfo {
	if n == nil {
		return nil
	}
	c := *n
	c.Children = slices.Clone(n.Children)
	c.Sibling = slices.Clone(n.Sibling)
	if n.InitialNeighborInfos != nil {
		init := *n.InitialNeighborInfos
		c.InitialNeighborInfos = &init
	}
	if n.TextStyleInfo != nil {
		ts := *n.TextStyleInfo
		c.TextStyleInfo = &ts
	}
	if n.MatchResult != nil {
		mr := *n.MatchResult
		c.MatchResult = &mr
	}
	return &c
}

// HasSibling reports whether id is in the node's sibling list.
func (n *NodeInfo) HasSibling(id string) bool {
	return slices.Contains(n.Sibling, id)
}
