package diff

import "github.com/xkilldash9x/ui-differ/api/schemas"

// Error weights used to pick one DOM node per design node.
const (
	marginErrorWeight = 0.2
	sizeErrorWeight   = 0.1
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// weightedError scores how far a record is from its design node.
func weightedError(v schemas.DiffValues) float64 {
	margins := abs(v.MarginLeft) + abs(v.MarginRight) + abs(v.MarginTop) + abs(v.MarginBottom)
	size := abs(v.Width) + abs(v.Height)
	return marginErrorWeight*float64(margins) + sizeErrorWeight*float64(size)
}

// resolveDuplicates keeps, for every design node claimed by several DOM
// nodes, only the record with the lowest weighted error. Ties go to the
// earlier record. Losers are not rematched.
func resolveDuplicates(records []schemas.DiffRecord) ([]schemas.DiffRecord, []string) {
	best := make(map[string]int, len(records))
	for i, rec := range records {
		j, ok := best[rec.DesignNodeID]
		if !ok || weightedError(rec.Diff) < weightedError(records[j].Diff) {
			best[rec.DesignNodeID] = i
		}
	}

	kept := make([]schemas.DiffRecord, 0, len(best))
	var discarded []string
	for i, rec := range records {
		if best[rec.DesignNodeID] == i {
			kept = append(kept, rec)
			continue
		}
		discarded = append(discarded, rec.DomNodeID)
	}
	return kept, discarded
}
