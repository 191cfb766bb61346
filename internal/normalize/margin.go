package normalize

import (
	"math"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// CollapseMargins folds collapsed child margins into the padding of block
// formatting contexts. A BFC does not let its first or last child's margin
// escape, so that margin shows up as extra height inside the box. Only the
// padding is touched here; FoldPadding moves it into geometry afterwards.
//
// Requires InitialNeighborInfos to be populated.
func CollapseMargins(in *schemas.NodeMap) *schemas.NodeMap {
	out := in.Clone()
	for _, n := range out.Nodes() {
		if !n.IsBFC || len(n.Children) == 0 {
			continue
		}
		for _, d := range []schemas.Direction{schemas.Top, schemas.Bottom} {
			if n.PaddingInfo.Get(d) != 0 || hasBorder(n, d) {
				continue
			}
			margin := math.Inf(1)
			for _, c := range edgeChildren(out, n, d) {
				v := c.MarginInfo.Top
				if d == schemas.Bottom {
					v = c.MarginInfo.Bottom
				}
				margin = math.Min(margin, v)
			}
			if math.IsInf(margin, 1) || margin == 0 {
				continue
			}
			n.PaddingInfo.Set(d, n.PaddingInfo.Get(d)+margin)
		}
	}
	return out
}
