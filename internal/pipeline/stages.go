package pipeline

import (
	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/normalize"
)

// Stage is one pure transformation of a node map.
type Stage struct {
	Name string
	Run  func(*schemas.NodeMap) *schemas.NodeMap
}

// DOMStages is the normalization chain applied to a recorded DOM tree.
var DOMStages = []Stage{
	{Name: "initial-neighbors", Run: normalize.LocateInitialNeighbors},
	{Name: "collapse-margins", Run: normalize.CollapseMargins},
	{Name: "fold-padding", Run: normalize.FoldPadding},
	{Name: "shrink-bounds", Run: normalize.ShrinkBounds},
	{Name: "collapse-duplicates", Run: normalize.CollapseDuplicateChildren},
	{Name: "neighbors", Run: normalize.LocateNeighbors},
	{Name: "neighbor-distances", Run: normalize.RecordNeighborDistances},
}

// DesignStages is the normalization chain applied to a recorded design tree.
// Design layers carry no collapsing margins.
var DesignStages = []Stage{
	{Name: "initial-neighbors", Run: normalize.LocateInitialNeighbors},
	{Name: "fold-padding", Run: normalize.FoldPadding},
	{Name: "shrink-bounds", Run: normalize.ShrinkBounds},
	{Name: "collapse-duplicates", Run: normalize.CollapseDuplicateChildren},
	{Name: "neighbors", Run: normalize.LocateNeighbors},
	{Name: "neighbor-distances", Run: normalize.RecordNeighborDistances},
}
