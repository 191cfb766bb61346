package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/reporting/sarif"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "ui-differ"
	ToolInfoURI  = "https://github.com/xkilldash9x/ui-differ"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type ruleText struct {
	name, short, full, help string
}

var ruleTexts = map[Kind]ruleText{
	KindWidth: {
		"WidthMismatch", "Element width differs from the design.",
		"The rendered width of the element is not the width of its design counterpart.",
		"Check fixed widths, horizontal padding and borders of the element.",
	},
	KindHeight: {
		"HeightMismatch", "Element height differs from the design.",
		"The rendered height of the element is not the height of its design counterpart.",
		"Check line heights, vertical padding and the number of text lines.",
	},
	KindMarginTop: {
		"MarginTopMismatch", "Space above the element differs from the design.",
		"The distance to the neighbor above the element is not the distance in the design.",
		"Check margin-top of the element and margin-bottom of the element above it.",
	},
	KindMarginBottom: {
		"MarginBottomMismatch", "Space below the element differs from the design.",
		"The distance to the neighbor below the element is not the distance in the design.",
		"Check margin-bottom of the element and margin-top of the element below it.",
	},
	KindMarginLeft: {
		"MarginLeftMismatch", "Space left of the element differs from the design.",
		"The distance to the neighbor on the left is not the distance in the design.",
		"Check margin-left of the element and padding-left of its container.",
	},
	KindMarginRight: {
		"MarginRightMismatch", "Space right of the element differs from the design.",
		"The distance to the neighbor on the right is not the distance in the design.",
		"Check margin-right of the element and padding-right of its container.",
	},
	KindUnmatched: {
		"UnmatchedElement", "Element has no design counterpart.",
		"No design node scored above the matching floor for this element.",
		"Check that the element exists in the design, or lower matcher.min_score.",
	},
}

// RuleID returns the SARIF rule id of a discrepancy kind.
func RuleID(k Kind) string {
	return "UIDIFF-" + strings.ToUpper(string(k))
}

// SARIFReporter implements the Reporter interface for the SARIF 2.1.0 format.
// It is thread safe. Each Write adds one SARIF run.
type SARIFReporter struct {
	writer      io.WriteCloser
	logger      *zap.Logger
	log         *sarif.Log
	toolVersion string
	// mu protects the log structure.
	mu sync.Mutex
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string, logger *zap.Logger) *SARIFReporter {
	return &SARIFReporter{
		writer:      writer,
		logger:      logger.Named("sarif_reporter"),
		toolVersion: toolVersion,
		log: &sarif.Log{
			Version: SARIFVersion,
			Schema:  SARIFSchema,
			Runs:    []*sarif.Run{},
		},
	}
}

func (r *SARIFReporter) newRun(result *schemas.DiffResult) *sarif.Run {
	return &sarif.Run{
		Tool: &sarif.Tool{
			Driver: &sarif.ToolComponent{
				Name:           ToolName,
				Version:        pString(r.toolVersion),
				InformationURI: pString(ToolInfoURI),
				// Initialize empty slices (not nil) for proper JSON marshalling
				Rules: []*sarif.ReportingDescriptor{},
			},
		},
		AutomationDetails: &sarif.AutomationDetails{ID: pString(result.RunID)},
		Results:           []*sarif.Result{},
	}
}

// Write converts a DiffResult into a SARIF run: one result per reported
// record and one note per unmatched DOM node.
func (r *SARIFReporter) Write(result *schemas.DiffResult) error {
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.newRun(result)
	rules := make(map[Kind]bool)

	for _, rec := range result.Records {
		ds := Discrepancies(rec)
		if len(ds) == 0 {
			continue
		}
		primary := primaryDiscrepancy(ds)
		ensureRule(run, rules, primary.Kind)

		level := sarif.LevelWarning
		if primary.IsSize() {
			level = sarif.LevelError
		}
		props := sarif.PropertyBag{
			"designNodeId": rec.DesignNodeID,
			"confidence":   rec.Match.Confidence,
		}
		for _, d := range ds {
			props[string(d.Kind)] = d.Value
		}
		run.Results = append(run.Results, &sarif.Result{
			RuleID:     RuleID(primary.Kind),
			Message:    &sarif.Message{Text: pString(fmt.Sprintf("%s differs from %q: %s", rec.DomNodeID, rec.DesignNodeName, Summary(rec)))},
			Level:      level,
			Locations:  createLocations(result, rec.DomNodeID, rec.DesignNodeName),
			Properties: &props,
		})
	}

	for _, id := range result.Unmatched {
		ensureRule(run, rules, KindUnmatched)
		run.Results = append(run.Results, &sarif.Result{
			RuleID:    RuleID(KindUnmatched),
			Message:   &sarif.Message{Text: pString(fmt.Sprintf("%s has no design counterpart", id))},
			Level:     sarif.LevelNote,
			Locations: createLocations(result, id, ""),
		})
	}

	r.log.Runs = append(r.log.Runs, run)
	r.logger.Debug("Wrote run to SARIF buffer",
		zap.String("run_id", result.RunID),
		zap.Int("results_count", len(run.Results)),
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var resultsCount int
	for _, run := range r.log.Runs {
		resultsCount += len(run.Results)
	}
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_runs", len(r.log.Runs)),
		zap.Int("total_results", resultsCount),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Successfully wrote SARIF report",
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// primaryDiscrepancy picks the largest discrepancy; ties keep the earlier one.
func primaryDiscrepancy(ds []Discrepancy) Discrepancy {
	best := ds[0]
	for _, d := range ds[1:] {
		if abs(d.Value) > abs(best.Value) {
			best = d
		}
	}
	return best
}

// ensureRule registers the rule for k on the run once.
func ensureRule(run *sarif.Run, seen map[Kind]bool, k Kind) {
	if seen[k] {
		return
	}
	seen[k] = true
	text := ruleTexts[k]
	markdownHelp := fmt.Sprintf("**%s**\n\n%s\n\n**Fix:**\n%s", text.short, text.full, text.help)
	driver := run.Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               RuleID(k),
		Name:             pString(text.name),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(text.short)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString(text.full)},
		Help: &sarif.MultiformatMessageString{
			Text:     pString(text.help),
			Markdown: pString(markdownHelp),
		},
		Properties: &sarif.PropertyBag{
			"tags":      []string{"layout", "ui-differ"},
			"precision": "medium",
		},
	})
}

// createLocations points at the page by name and at the DOM node by id.
func createLocations(result *schemas.DiffResult, domID, designName string) []*sarif.Location {
	loc := &sarif.Location{
		LogicalLocations: []*sarif.LogicalLocation{{
			Name:               pString(domID),
			FullyQualifiedName: pString(fmt.Sprintf("%s[%s=%q]", suiteName(result), schemas.UniqueIDAttribute, domID)),
			Kind:               pString("element"),
		}},
	}
	if result.Name != "" {
		loc.PhysicalLocation = &sarif.PhysicalLocation{
			ArtifactLocation: &sarif.ArtifactLocation{URI: pString(result.Name)},
		}
	}
	if designName != "" {
		loc.Message = &sarif.Message{Text: pString("Design node " + designName)}
	}
	return []*sarif.Location{loc}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string {
	return &s
}
