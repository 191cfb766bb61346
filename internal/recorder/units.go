package recorder

import "github.com/xkilldash9x/ui-differ/internal/geometry"

// Default design-to-DOM conversion: a 750 unit wide artboard maps to a
// 10rem viewport at 37.5px per rem.
const (
	DefaultUnitBase = 750
	DefaultRemBase  = 37.5
)

// Converter maps design units to DOM pixels through a rem step rounded to two
// decimals, matching the px-to-rem transform the page itself was built with.
type Converter struct {
	UnitBase float64
	RemBase  float64
}

// DefaultConverter returns the 750/37.5 converter.
func DefaultConverter() Converter {
	return Converter{UnitBase: DefaultUnitBase, RemBase: DefaultRemBase}
}

// Px converts a single design length. Values of 1 or less (hairlines, zero
// and negative offsets) pass through unchanged.
func (c Converter) Px(v float64) float64 {
	if v <= 1 || c.UnitBase <= 0 || c.RemBase <= 0 {
		return v
	}
	rem := geometry.Round(v/c.UnitBase*10*100) / 100
	return geometry.Round(rem * c.RemBase)
}
