package schemas

import "time"

// -- DOM capture --

// UniqueIDAttribute is the attribute the capture pre-pass stamps on every element.
const UniqueIDAttribute = "data-ui-differ-id"

// TextWrapperAttribute marks the span the pre-pass wraps around bare text runs.
const TextWrapperAttribute = "data-ui-differ-text"

// Viewport describes the emulated device a page was captured with.
type Viewport struct {
	Width             int64   `json:"width" yaml:"width"`
	Height            int64   `json:"height" yaml:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor" yaml:"device_scale_factor"`
	Mobile            bool    `json:"mobile" yaml:"mobile"`
}

// PageSnapshot is everything read from a live page in one capture.
type PageSnapshot struct {
	URL            string           `json:"url"`
	Viewport       Viewport         `json:"viewport"`
	ScrollY        float64          `json:"scrollY"`
	DocumentHeight float64          `json:"documentHeight"`
	CapturedAt     time.Time        `json:"capturedAt"`
	Root           *ElementSnapshot `json:"root"`
}

// ComputedStyle carries the computed style properties the recorder reads.
// Values are the raw strings returned by getComputedStyle.
type ComputedStyle struct {
	PaddingTop    string `json:"paddingTop"`
	PaddingRight  string `json:"paddingRight"`
	PaddingBottom string `json:"paddingBottom"`
	PaddingLeft   string `json:"paddingLeft"`
	MarginTop     string `json:"marginTop"`
	MarginBottom  string `json:"marginBottom"`

	BorderTopWidth    string `json:"borderTopWidth"`
	BorderRightWidth  string `json:"borderRightWidth"`
	BorderBottomWidth string `json:"borderBottomWidth"`
	BorderLeftWidth   string `json:"borderLeftWidth"`
	BorderTopColor    string `json:"borderTopColor"`
	BorderRightColor  string `json:"borderRightColor"`
	BorderBottomColor string `json:"borderBottomColor"`
	BorderLeftColor   string `json:"borderLeftColor"`

	BackgroundColor string `json:"backgroundColor"`
	BackgroundImage string `json:"backgroundImage"`
	Transform       string `json:"transform"`

	Float       string `json:"float"`
	Position    string `json:"position"`
	Display     string `json:"display"`
	OverflowX   string `json:"overflowX"`
	OverflowY   string `json:"overflowY"`
	Contain     string `json:"contain"`
	ColumnCount string `json:"columnCount"`
	ColumnWidth string `json:"columnWidth"`

	FlexDirection  string `json:"flexDirection"`
	JustifyContent string `json:"justifyContent"`
	AlignItems     string `json:"alignItems"`
	FlexGrow       string `json:"flexGrow"`

	LineHeight string `json:"lineHeight"`
	FontSize   string `json:"fontSize"`
}

// PseudoBorder is the border of a ::before or ::after pseudo element.
type PseudoBorder struct {
	TopWidth    string `json:"borderTopWidth"`
	RightWidth  string `json:"borderRightWidth"`
	BottomWidth string `json:"borderBottomWidth"`
	LeftWidth   string `json:"borderLeftWidth"`
	TopColor    string `json:"borderTopColor"`
	RightColor  string `json:"borderRightColor"`
	BottomColor string `json:"borderBottomColor"`
	LeftColor   string `json:"borderLeftColor"`
}

// ElementSnapshot is one element as seen by the capture script. Rect is the
// viewport-relative getBoundingClientRect; the recorder shifts it by ScrollY.
type ElementSnapshot struct {
	UniqueID      string             `json:"uniqueId"`
	Tag           string             `json:"tag"`
	ClassList     []string           `json:"classList"`
	IsTextWrapper bool               `json:"isTextWrapper"`
	Text          string             `json:"text"`
	TextHeight    float64            `json:"textHeight"`
	Rect          Rect               `json:"rect"`
	Style         ComputedStyle      `json:"style"`
	Before        *PseudoBorder      `json:"before,omitempty"`
	After         *PseudoBorder      `json:"after,omitempty"`
	Children      []*ElementSnapshot `json:"children"`
}

// -- Design scene graph --

// Design node types with special handling.
const (
	NodeTypeFrame        = "FRAME"
	NodeTypeGroup        = "GROUP"
	NodeTypeComponent    = "COMPONENT"
	NodeTypeComponentSet = "COMPONENT_SET"
	NodeTypeInstance     = "INSTANCE"
	NodeTypeRectangle    = "RECTANGLE"
	NodeTypePen          = "PEN"
	NodeTypeText         = "TEXT"
	NodeTypeSlice        = "SLICE"
)

// RGBA is a design colour with channels in [0, 1].
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint is a fill or stroke entry.
type Paint struct {
	Type    string `json:"type"`
	Color   RGBA   `json:"color"`
	Visible *bool  `json:"isVisible,omitempty"`
}

// TextSegment is a styled run inside a text node.
type TextSegment struct {
	LineHeightByPx float64 `json:"lineHeightByPx"`
}

// SceneNode is a design-tool node as exported by the plugin.
type SceneNode struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Visible *bool  `json:"isVisible,omitempty"`

	AbsoluteBoundingBox  Rect  `json:"absoluteBoundingBox"`
	AbsoluteRenderBounds *Rect `json:"absoluteRenderBounds,omitempty"`

	FlexMode            string  `json:"flexMode,omitempty"`
	MainAxisAlignItems  string  `json:"mainAxisAlignItems,omitempty"`
	CrossAxisAlignItems string  `json:"crossAxisAlignItems,omitempty"`
	FlexGrow            float64 `json:"flexGrow,omitempty"`
	PaddingTop          float64 `json:"paddingTop,omitempty"`
	PaddingRight        float64 `json:"paddingRight,omitempty"`
	PaddingBottom       float64 `json:"paddingBottom,omitempty"`
	PaddingLeft         float64 `json:"paddingLeft,omitempty"`

	Fills              []Paint `json:"fills,omitempty"`
	Strokes            []Paint `json:"strokes,omitempty"`
	StrokeWeight       float64 `json:"strokeWeight,omitempty"`
	StrokeTopWeight    float64 `json:"strokeTopWeight,omitempty"`
	StrokeRightWeight  float64 `json:"strokeRightWeight,omitempty"`
	StrokeBottomWeight float64 `json:"strokeBottomWeight,omitempty"`
	StrokeLeftWeight   float64 `json:"strokeLeftWeight,omitempty"`

	TextAutoResize string        `json:"textAutoResize,omitempty"`
	TextStyles     []TextSegment `json:"textStyles,omitempty"`
	Characters     string        `json:"characters,omitempty"`

	ClipsContent bool `json:"clipsContent,omitempty"`
	IsMask       bool `json:"isMask,omitempty"`

	Children []*SceneNode `json:"children,omitempty"`
}

// HasChildList reports whether the node type can own children.
func (n *SceneNode) HasChildList() bool {
	switch n.Type {
	case NodeTypeFrame, NodeTypeComponent, NodeTypeComponentSet, NodeTypeGroup, NodeTypeInstance:
		return true
	}
	return false
}

// IsVisible reports whether the node is rendered. Absent means visible.
func (n *SceneNode) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}
