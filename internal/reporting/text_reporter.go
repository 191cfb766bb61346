package reporting

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// TextReporter writes a human-readable listing as results arrive.
type TextReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	mu     sync.Mutex

	title, fail, warn, pass, faint *color.Color
}

// NewTextReporter creates a text reporter. Colour is used only when colorize
// is set and the terminal supports it.
func NewTextReporter(writer io.WriteCloser, colorize bool, logger *zap.Logger) *TextReporter {
	r := &TextReporter{
		writer: writer,
		logger: logger.Named("text_reporter"),
		title:  color.New(color.Bold),
		fail:   color.New(color.FgRed),
		warn:   color.New(color.FgYellow),
		pass:   color.New(color.FgGreen),
		faint:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.title, r.fail, r.warn, r.pass, r.faint} {
		if colorize && !color.NoColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Write prints one result.
func (r *TextReporter) Write(result *schemas.DiffResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.writer
	if _, err := r.title.Fprintf(w, "%s", suiteName(result)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	r.faint.Fprintf(w, "  run %s  dom %d  design %d\n", result.RunID, result.DomNodeCount, result.DesignNodeCount)

	for _, rec := range result.Records {
		c := r.warn
		for _, d := range Discrepancies(rec) {
			if d.IsSize() {
				c = r.fail
				break
			}
		}
		c.Fprintf(w, "  ✗ %s", rec.DomNodeID)
		fmt.Fprintf(w, " -> %s (%s)  %s\n", rec.DesignNodeName, rec.DesignNodeID, Summary(rec))
	}
	for _, id := range result.Unmatched {
		r.faint.Fprintf(w, "  ? %s has no design counterpart\n", id)
	}
	for _, id := range result.Discarded {
		r.faint.Fprintf(w, "  ~ %s lost its match to a closer element\n", id)
	}
	if len(result.Flagged) > 0 {
		r.warn.Fprintf(w, "  ! %d nodes had clamped geometry\n", len(result.Flagged))
	}

	status := r.pass
	if len(result.Records) > 0 {
		status = r.fail
	}
	_, err := status.Fprintf(w, "  %d reported, %d passed, %d unmatched, %d discarded\n\n",
		len(result.Records), len(result.Passed), len(result.Unmatched), len(result.Discarded))
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Close(); err != nil {
		r.logger.Error("Failed to close output writer", zap.Error(err))
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}
