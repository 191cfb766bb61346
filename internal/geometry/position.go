package geometry

import "github.com/xkilldash9x/ui-differ/api/schemas"

// Position is the cell a sibling occupies in the 3x3 grid centered on a node.
// The numbering follows a phone keypad with the center cell unused.
type Position int

const (
	PositionNone        Position = 0
	PositionTopLeft     Position = 1
	PositionTop         Position = 2
	PositionTopRight    Position = 3
	PositionLeft        Position = 4
	PositionRight       Position = 6
	PositionBottomLeft  Position = 7
	PositionBottom      Position = 8
	PositionBottomRight Position = 9
)

// Direction maps the four edge cells to a cardinal direction. Corners and
// PositionNone return false.
func (p Position) Direction() (schemas.Direction, bool) {
	switch p {
	case PositionTop:
		return schemas.Top, true
	case PositionBottom:
		return schemas.Bottom, true
	case PositionLeft:
		return schemas.Left, true
	case PositionRight:
		return schemas.Right, true
	}
	return "", false
}

// Classify returns where sibling sits relative to cur. Edge comparisons are
// strict: a sibling is to the left only when its right edge does not pass
// cur's left edge. Straight neighbors must also overlap cur on the other axis.
func Classify(cur, sibling schemas.Rect) Position {
	left := sibling.Right() <= cur.X
	right := cur.Right() <= sibling.X
	above := sibling.Bottom() <= cur.Y
	below := cur.Bottom() <= sibling.Y

	switch {
	case above && left:
		return PositionTopLeft
	case above && right:
		return PositionTopRight
	case below && left:
		return PositionBottomLeft
	case below && right:
		return PositionBottomRight
	case above:
		return PositionTop
	case below:
		return PositionBottom
	case left:
		return PositionLeft
	case right:
		return PositionRight
	}
	return PositionNone
}
