package schemas

import "time"

// DiffValues are the rounded discrepancies of one DOM node against its design
// counterpart. Positive values mean the DOM is larger or further away.
type DiffValues struct {
	Width        int `json:"width"`
	Height       int `json:"height"`
	MarginLeft   int `json:"marginLeft"`
	MarginRight  int `json:"marginRight"`
	MarginTop    int `json:"marginTop"`
	MarginBottom int `json:"marginBottom"`
}

// Margin returns the margin discrepancy in direction d.
func (v DiffValues) Margin(d Direction) int {
	switch d {
	case Top:
		return v.MarginTop
	case Bottom:
		return v.MarginBottom
	case Left:
		return v.MarginLeft
	case Right:
		return v.MarginRight
	}
	return 0
}

// SetMargin replaces the margin discrepancy in direction d.
func (v *DiffValues) SetMargin(d Direction, value int) {
	switch d {
	case Top:
		v.MarginTop = value
	case Bottom:
		v.MarginBottom = value
	case Left:
		v.MarginLeft = value
	case Right:
		v.MarginRight = value
	}
}

// IsZero reports whether every discrepancy is zero.
func (v DiffValues) IsZero() bool {
	return v == DiffValues{}
}

// DiffRecord is the comparison outcome for one matched DOM node.
type DiffRecord struct {
	DomNodeID      string      `json:"domNodeId"`
	DesignNodeID   string      `json:"designNodeId"`
	DesignNodeName string      `json:"designNodeName"`
	Diff           DiffValues  `json:"distanceResult"`
	Match          MatchResult `json:"matchResult"`
	OriginNode     *NodeInfo   `json:"originNode,omitempty"`
	DesignNode     *NodeInfo   `json:"designNode,omitempty"`
}

// DiffResult is the full output of one comparison run.
type DiffResult struct {
	RunID           string       `json:"runId"`
	Name            string       `json:"name,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	DomNodeCount    int          `json:"domNodeCount"`
	DesignNodeCount int          `json:"designNodeCount"`
	// Records holds the reportable discrepancies.
	Records []DiffRecord `json:"records"`
	// Passed lists matched DOM nodes whose discrepancies were filtered out.
	Passed []string `json:"passed"`
	// Unmatched lists DOM nodes that scored below the matching floor.
	Unmatched []string `json:"unmatched"`
	// Discarded lists DOM nodes that lost a duplicate match to another DOM node.
	Discarded []string `json:"discarded"`
	// Flagged lists nodes (either tree) whose geometry was clamped.
	Flagged []string `json:"flagged,omitempty"`
}

// ByDomID indexes the records by DOM node id.
func (r *DiffResult) ByDomID() map[string]DiffRecord {
	out := make(map[string]DiffRecord, len(r.Records))
	for _, rec := range r.Records {
		out[rec.DomNodeID] = rec
	}
	return out
}
