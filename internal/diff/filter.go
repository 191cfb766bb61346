package diff

import (
	"strings"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// Filter drops records a reviewer would not act on.
func Filter(records []schemas.DiffRecord) []schemas.DiffRecord {
	out := make([]schemas.DiffRecord, 0, len(records))
	for _, rec := range records {
		if Reportable(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Reportable decides whether a single record is worth reporting. Text
// wrappers only report horizontal drift, since their size follows the text
// itself. Empty, invisible nodes never report. Everything else reports a size
// change, or a margin change when both sides agree on whether that margin is
// measured to a direct sibling.
func Reportable(rec schemas.DiffRecord) bool {
	origin, design := rec.OriginNode, rec.DesignNode
	if origin == nil || design == nil {
		return false
	}
	v := rec.Diff

	if origin.IsTextWrapper {
		return v.MarginLeft != 0
	}
	if isEmpty(origin) {
		return false
	}
	if v.Width != 0 || v.Height != 0 {
		return true
	}
	for _, d := range schemas.Directions {
		if v.Margin(d) == 0 {
			continue
		}
		if origin.NeighborMarginInfo.Get(d).IsDirectlySibling == design.NeighborMarginInfo.Get(d).IsDirectlySibling {
			return true
		}
	}
	return false
}

// isEmpty reports whether a node paints nothing: no children, no text, no
// background, and no border.
func isEmpty(n *schemas.NodeInfo) bool {
	if len(n.Children) > 0 || strings.TrimSpace(n.Text) != "" {
		return false
	}
	if n.BackgroundColor != schemas.Transparent && n.BackgroundColor != "" {
		return false
	}
	noWidth, noColor := true, true
	for _, d := range schemas.Directions {
		if n.BorderInfo.Width(d) != 0 {
			noWidth = false
		}
		if c := n.BorderInfo.Color(d); c != schemas.Transparent && c != "" {
			noColor = false
		}
	}
	return noWidth || noColor
}
