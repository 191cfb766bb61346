// Package geometry holds the rounding rules and rectangle relations shared by
// every normalization stage.
package geometry

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// Round rounds half up, the way browsers and design tools report whole pixels.
// Go's math.Round rounds half away from zero, which disagrees for -0.5.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// IsSameDistance reports whether a and b are equal after rounding their
// difference to whole pixels. Sub-pixel jitter never counts as a change.
func IsSameDistance(a, b float64) bool {
	return Round(b-a) == 0
}

// FixedSubtract returns round(a - b).
func FixedSubtract(a, b float64) float64 {
	return Round(a - b)
}

// SameRect reports whether two rectangles agree on all four components.
func SameRect(a, b schemas.Rect) bool {
	return IsSameDistance(a.X, b.X) &&
		IsSameDistance(a.Y, b.Y) &&
		IsSameDistance(a.Width, b.Width) &&
		IsSameDistance(a.Height, b.Height)
}

// Gap returns the distance from cur to a candidate that lies in direction d.
func Gap(cur, candidate schemas.Rect, d schemas.Direction) float64 {
	switch d {
	case schemas.Top:
		return cur.Y - candidate.Bottom()
	case schemas.Bottom:
		return candidate.Y - cur.Bottom()
	case schemas.Left:
		return cur.X - candidate.Right()
	case schemas.Right:
		return candidate.X - cur.Right()
	}
	return 0
}

// CenterDistance is the euclidean distance between the centers of a and b.
func CenterDistance(a, b schemas.Rect) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}

// IoU returns the intersection-over-union of a and b, zero when the union is empty.
func IoU(a, b schemas.Rect) float64 {
	ix := math.Max(0, math.Min(a.Right(), b.Right())-math.Max(a.X, b.X))
	iy := math.Max(0, math.Min(a.Bottom(), b.Bottom())-math.Max(a.Y, b.Y))
	inter := ix * iy
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Translate shifts r by (dx, dy).
func Translate(r schemas.Rect, dx, dy float64) schemas.Rect {
	r.X += dx
	r.Y += dy
	return r
}
