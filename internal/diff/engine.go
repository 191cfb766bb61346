// Package diff computes per-node discrepancies between matched DOM and design
// nodes and decides which of them are worth reporting.
package diff

import (
	"math"

	"fortio.org/safecast"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// Engine computes diff records for matched DOM nodes.
type Engine struct {
	alignment AlignmentStrategy
}

// Option configures an Engine.
type Option func(*Engine)

// WithAlignmentStrategy replaces the flex alignment rules used by the
// multi-line text correction.
func WithAlignmentStrategy(s AlignmentStrategy) Option {
	return func(e *Engine) {
		if s != nil {
			e.alignment = s
		}
	}
}

// New returns an Engine using the CSS flexbox alignment rules.
func New(opts ...Option) *Engine {
	e := &Engine{alignment: CSSFlexAlignment{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome is the raw output of Diff, before filtering.
type Outcome struct {
	// Records holds one record per surviving matched DOM node, in DOM order.
	Records []schemas.DiffRecord
	// Discarded lists DOM nodes that lost a shared design node to a better
	// candidate.
	Discarded []string
}

// Diff computes a record for every DOM node that has a match in design.
// Nodes are visited in DOM map order. A node's DOM-side distance to a sibling
// neighbor includes the diff already computed for that neighbor.
func (e *Engine) Diff(dom, design *schemas.NodeMap) Outcome {
	done := make(map[string]schemas.DiffValues, dom.Len())
	var records []schemas.DiffRecord

	for _, n := range dom.Nodes() {
		d, ok := design.Get(n.MatchedDesignNodeID)
		if !ok {
			continue
		}
		values := e.values(dom, design, n, d, done)
		done[n.UniqueID] = values

		rec := schemas.DiffRecord{
			DomNodeID:      n.UniqueID,
			DesignNodeID:   d.UniqueID,
			DesignNodeName: d.NodeName,
			Diff:           values,
			OriginNode:     n.Clone(),
			DesignNode:     d.Clone(),
		}
		if n.MatchResult != nil {
			rec.Match = *n.MatchResult
		}
		records = append(records, rec)
	}

	kept, discarded := resolveDuplicates(records)
	return Outcome{Records: kept, Discarded: discarded}
}

func (e *Engine) values(dom, design *schemas.NodeMap, n, d *schemas.NodeInfo, done map[string]schemas.DiffValues) schemas.DiffValues {
	var v schemas.DiffValues
	width := geometry.FixedSubtract(n.BoundingRect.Width, d.BoundingRect.Width)
	height := geometry.FixedSubtract(n.BoundingRect.Height, d.BoundingRect.Height)

	margins := make(map[schemas.Direction]float64, 4)
	for _, dir := range schemas.Directions {
		margins[dir] = marginDiff(dom, design, n, d, dir, done)
	}

	if horizontal, vertical := isSoleGrowChild(dom, n); horizontal {
		width = 0
	} else if vertical {
		height = 0
	}

	// A taller text block grows downward and, depending on alignment, also
	// starts higher; both shifts are reflow, not drift.
	off, coef := lineOffset(e.alignment, dom, n, d)
	height += coef * off.Height
	margins[schemas.Top] -= coef * off.Top

	if topID := n.Neighbors.Top; topID != "" && !n.NeighborMarginInfo.Top.IsParent {
		if above, ok := dom.Get(topID); ok {
			aboveDesign, _ := design.Get(above.MatchedDesignNodeID)
			aboveOff, aboveCoef := lineOffset(e.alignment, dom, above, aboveDesign)
			margins[schemas.Top] -= aboveCoef * aboveOff.Top
		}
	}

	v.Width = toInt(geometry.Round(width))
	v.Height = toInt(geometry.Round(height))
	for _, dir := range schemas.Directions {
		v.SetMargin(dir, toInt(geometry.Round(margins[dir])))
	}
	return v
}

// marginDiff compares the DOM and design distance in direction dir. When
// both sides have a neighbor there, the recorded neighbor distances are
// compared, with the DOM side corrected by the neighbor's own discrepancy.
// Otherwise each node's offset inside its parent is compared.
func marginDiff(dom, design *schemas.NodeMap, n, d *schemas.NodeInfo, dir schemas.Direction, done map[string]schemas.DiffValues) float64 {
	domNeighbor := n.Neighbors.Get(dir)
	if domNeighbor != "" && d.Neighbors.Get(dir) != "" {
		raw := n.NeighborMarginInfo.Get(dir)
		fixed := raw.Value
		if !raw.IsParent {
			if prev, ok := done[domNeighbor]; ok {
				fixed += float64(prev.Margin(dir))
			}
		}
		return geometry.FixedSubtract(fixed, d.NeighborMarginInfo.Get(dir).Value)
	}
	return geometry.FixedSubtract(offsetInParent(dom, n, dir), offsetInParent(design, d, dir))
}

// offsetInParent is the distance from edge dir of n to the same edge of its
// parent. A root measures from the origin on the left and top.
func offsetInParent(m *schemas.NodeMap, n *schemas.NodeInfo, dir schemas.Direction) float64 {
	r := n.BoundingRect
	parent, ok := m.Parent(n)
	if !ok {
		switch dir {
		case schemas.Left:
			return r.X
		case schemas.Top:
			return r.Y
		}
		return 0
	}
	p := parent.BoundingRect
	switch dir {
	case schemas.Left:
		return r.X - p.X
	case schemas.Top:
		return r.Y - p.Y
	case schemas.Right:
		return p.Right() - r.Right()
	case schemas.Bottom:
		return p.Bottom() - r.Bottom()
	}
	return 0
}

// toInt converts an already rounded value. Non-finite input yields zero.
func toInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	n, err := safecast.Convert[int](v)
	if err != nil {
		return 0
	}
	return n
}
