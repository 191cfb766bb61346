// Package matcher pairs DOM nodes with design nodes by geometry.
package matcher

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// Confidence of each offset source.
const (
	leftNeighborConfidence = 0.8
	topNeighborConfidence  = 0.7
	averageConfidence      = 0.3
)

// Score weights.
const (
	centerWeight     = 0.4
	overlapWeight    = 0.6
	confidenceWeight = 0.1
)

// Options tunes the scoring.
type Options struct {
	// CenterDistanceScale is the center distance, in pixels, at which the
	// center score reaches zero.
	CenterDistanceScale float64
	// MinScore is the floor a candidate must beat to be accepted.
	MinScore float64
}

// DefaultOptions returns the stock scoring parameters.
func DefaultOptions() Options {
	return Options{CenterDistanceScale: 50, MinScore: 0.3}
}

// Matcher is the hybrid IoU and center-distance matcher. It is greedy: DOM
// nodes are matched in map order and each accepted match feeds the offset
// correction of the nodes after it. Identical inputs always give identical
// results.
type Matcher struct {
	opts Options
}

// New returns a Matcher. Zero-valued options fall back to the defaults.
func New(opts Options) *Matcher {
	def := DefaultOptions()
	if opts.CenterDistanceScale <= 0 {
		opts.CenterDistanceScale = def.CenterDistanceScale
	}
	if opts.MinScore <= 0 {
		opts.MinScore = def.MinScore
	}
	return &Matcher{opts: opts}
}

type offset struct {
	x, y       float64
	confidence float64
}

type pair struct {
	domID, designID string
	dx, dy          float64
}

// Match returns a copy of dom with MatchedDesignNodeID and MatchResult set on
// every matched node, along with the ids of DOM nodes left unmatched.
func (m *Matcher) Match(dom, design *schemas.NodeMap) (*schemas.NodeMap, []string) {
	out := dom.Clone()
	designNodes := design.Nodes()

	var pairs []pair
	byDom := make(map[string]int)
	var unmatched []string

	for _, n := range out.Nodes() {
		n.MatchedDesignNodeID = ""
		n.MatchResult = nil

		off := offsetFor(n, pairs, byDom)
		parent, hasParent := out.Parent(n)

		var best *schemas.MatchResult
		bestScore := -1.0
		for _, d := range designNodes {
			corrected := geometry.Translate(d.BoundingRect, off.x, off.y)
			if hasParent && !withinParent(corrected, parent.BoundingRect) {
				continue
			}
			dist := geometry.CenterDistance(n.BoundingRect, corrected)
			iou := geometry.IoU(n.BoundingRect, corrected)
			center := math.Max(0, 1-dist/m.opts.CenterDistanceScale)
			score := centerWeight*center + overlapWeight*iou + confidenceWeight*off.confidence
			if score > bestScore && score > m.opts.MinScore {
				bestScore = score
				best = &schemas.MatchResult{
					DesignNodeID:    d.UniqueID,
					Confidence:      score,
					CenterDistance:  dist,
					OverlapRatio:    iou,
					OffsetCorrected: off.confidence > 0,
				}
			}
		}

		if best == nil {
			unmatched = append(unmatched, n.UniqueID)
			continue
		}
		n.MatchedDesignNodeID = best.DesignNodeID
		n.MatchResult = best

		d, _ := design.Get(best.DesignNodeID)
		domX, domY := n.BoundingRect.Center()
		designX, designY := d.BoundingRect.Center()
		byDom[n.UniqueID] = len(pairs)
		pairs = append(pairs, pair{
			domID:    n.UniqueID,
			designID: d.UniqueID,
			dx:       domX - designX,
			dy:       domY - designY,
		})
	}
	return out, unmatched
}

// offsetFor picks the translation to apply to design rectangles before
// scoring them against n: the left neighbor's match first, then the top
// neighbor's, then the mean of every match so far.
func offsetFor(n *schemas.NodeInfo, pairs []pair, byDom map[string]int) offset {
	if i, ok := byDom[n.Neighbors.Left]; ok && n.Neighbors.Left != "" {
		return offset{x: pairs[i].dx, y: pairs[i].dy, confidence: leftNeighborConfidence}
	}
	if i, ok := byDom[n.Neighbors.Top]; ok && n.Neighbors.Top != "" {
		return offset{x: pairs[i].dx, y: pairs[i].dy, confidence: topNeighborConfidence}
	}
	if len(pairs) == 0 {
		return offset{}
	}
	var sx, sy float64
	for _, p := range pairs {
		sx += p.dx
		sy += p.dy
	}
	k := float64(len(pairs))
	return offset{x: sx / k, y: sy / k, confidence: averageConfidence}
}

// withinParent reports whether the corrected top-left corner of a design
// rectangle falls inside the DOM parent's rectangle.
func withinParent(r, parent schemas.Rect) bool {
	return r.X >= parent.X && r.X <= parent.Right() &&
		r.Y >= parent.Y && r.Y <= parent.Bottom()
}
