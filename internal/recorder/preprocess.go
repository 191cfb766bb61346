package recorder

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// Preprocess rewrites a scene graph into the shape a page would have been
// built with. Mask layers become clipping frames, full-size background
// shapes become the fill of their container, and children of clipping
// frames are cut to the visible area. The input is not modified.
func Preprocess(root *schemas.SceneNode) *schemas.SceneNode {
	if root == nil {
		return nil
	}
	out := cloneScene(root)
	out = combineMasks(out)
	out = hoistBackgrounds(out)
	return clipOverflow(out, nil)
}

func cloneScene(n *schemas.SceneNode) *schemas.SceneNode {
	c := *n
	c.Fills = append([]schemas.Paint(nil), n.Fills...)
	c.Strokes = append([]schemas.Paint(nil), n.Strokes...)
	c.TextStyles = append([]schemas.TextSegment(nil), n.TextStyles...)
	if n.AbsoluteRenderBounds != nil {
		rb := *n.AbsoluteRenderBounds
		c.AbsoluteRenderBounds = &rb
	}
	c.Children = make([]*schemas.SceneNode, 0, len(n.Children))
	for _, child := range n.Children {
		if child != nil {
			c.Children = append(c.Children, cloneScene(child))
		}
	}
	return &c
}

func isGroupLike(n *schemas.SceneNode) bool {
	return n.Type == schemas.NodeTypeGroup || n.Type == schemas.NodeTypeFrame
}

// combineMasks replaces every mask layer inside a group or frame with a
// clipping frame holding the layers painted above it, up to the next mask.
// Layers below the first mask are left alone.
func combineMasks(n *schemas.SceneNode) *schemas.SceneNode {
	if !n.HasChildList() {
		return n
	}
	if isGroupLike(n) {
		var out []*schemas.SceneNode
		var frame *schemas.SceneNode
		for _, c := range n.Children {
			if c.IsMask {
				if frame != nil && len(frame.Children) > 0 {
					out = append(out, frame)
				}
				frame = maskFrame(c)
				continue
			}
			if frame != nil {
				frame.Children = append(frame.Children, c)
				continue
			}
			out = append(out, c)
		}
		if frame != nil && len(frame.Children) > 0 {
			out = append(out, frame)
		}
		n.Children = out
	}
	for i, c := range n.Children {
		n.Children[i] = combineMasks(c)
	}
	return n
}

func maskFrame(mask *schemas.SceneNode) *schemas.SceneNode {
	f := &schemas.SceneNode{
		ID:                  mask.ID + "-mask",
		Name:                mask.Name + "-mask",
		Type:                schemas.NodeTypeFrame,
		AbsoluteBoundingBox: mask.AbsoluteBoundingBox,
		FlexMode:            "NONE",
		ClipsContent:        true,
	}
	if mask.AbsoluteRenderBounds != nil {
		rb := *mask.AbsoluteRenderBounds
		f.AbsoluteRenderBounds = &rb
	}
	return f
}

// hoistBackgrounds moves rectangles and paths that cover their whole group
// or frame into the container's fills.
func hoistBackgrounds(n *schemas.SceneNode) *schemas.SceneNode {
	if !n.HasChildList() {
		return n
	}
	if isGroupLike(n) {
		var rest []*schemas.SceneNode
		for _, c := range n.Children {
			if isBackgroundShape(c, n) {
				n.Fills = append(n.Fills, c.Fills...)
				continue
			}
			rest = append(rest, c)
		}
		n.Children = rest
	}
	for i, c := range n.Children {
		n.Children[i] = hoistBackgrounds(c)
	}
	return n
}

func isBackgroundShape(c, parent *schemas.SceneNode) bool {
	if c.Type != schemas.NodeTypeRectangle && c.Type != schemas.NodeTypePen {
		return false
	}
	if !c.IsVisible() {
		return false
	}
	return c.AbsoluteBoundingBox.Width >= parent.AbsoluteBoundingBox.Width &&
		c.AbsoluteBoundingBox.Height >= parent.AbsoluteBoundingBox.Height
}

// clipOverflow cuts every node to the nearest enclosing frame that clips its
// content. Nodes clipped away entirely are removed.
func clipOverflow(n *schemas.SceneNode, clip *schemas.Rect) *schemas.SceneNode {
	if clip != nil {
		box, ok := intersect(n.AbsoluteBoundingBox, *clip)
		if !ok {
			return nil
		}
		n.AbsoluteBoundingBox = box
		if n.AbsoluteRenderBounds != nil {
			if rb, ok := intersect(*n.AbsoluteRenderBounds, *clip); ok {
				n.AbsoluteRenderBounds = &rb
			} else {
				n.AbsoluteRenderBounds = nil
			}
		}
	}
	if !n.HasChildList() {
		return n
	}

	next := clip
	if n.ClipsContent && n.Type != schemas.NodeTypeGroup {
		box := n.AbsoluteBoundingBox
		next = &box
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c = clipOverflow(c, next); c != nil {
			kept = append(kept, c)
		}
	}
	n.Children = kept
	return n
}

func intersect(a, b schemas.Rect) (schemas.Rect, bool) {
	x0 := math.Max(a.X, b.X)
	y0 := math.Max(a.Y, b.Y)
	x1 := math.Min(a.Right(), b.Right())
	y1 := math.Min(a.Bottom(), b.Bottom())
	if x1 < x0 || y1 < y0 {
		return schemas.Rect{}, false
	}
	return schemas.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}
