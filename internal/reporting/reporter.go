// Package reporting renders comparison results as text, JSON, SARIF or JUnit XML.
package reporting

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// Output formats understood by New.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
	FormatJUnit = "junit"
)

// Reporter defines the interface for writing comparison results to an output.
type Reporter interface {
	// Write processes a single comparison result.
	Write(result *schemas.DiffResult) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// chainedCloser closes a compressing writer before the file under it.
type chainedCloser struct {
	io.WriteCloser
	under io.Closer
}

func (c *chainedCloser) Close() error {
	return multierr.Append(c.WriteCloser.Close(), c.under.Close())
}

// IsStdout reports whether outputPath refers to standard output.
func IsStdout(outputPath string) bool {
	return outputPath == "" || outputPath == "stdout" || outputPath == "-"
}

// New creates a new reporter based on the specified format and output path.
// Paths ending in .br are brotli-compressed.
func New(format, outputPath, toolVersion string, logger *zap.Logger) (Reporter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var writer io.WriteCloser
	isStdOut := IsStdout(outputPath)

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
		if strings.HasSuffix(outputPath, transport.BrotliExt) {
			writer = &chainedCloser{WriteCloser: transport.NewBrotliWriter(f), under: f}
		}
	}

	switch format {
	case FormatSARIF:
		return NewSARIFReporter(writer, toolVersion, logger), nil
	case FormatJSON:
		return NewJSONReporter(writer, logger), nil
	case FormatJUnit:
		return NewJUnitReporter(writer, logger), nil
	case FormatText:
		return NewTextReporter(writer, isStdOut, logger), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Kind names one class of layout discrepancy.
type Kind string

const (
	KindWidth        Kind = "width"
	KindHeight       Kind = "height"
	KindMarginTop    Kind = "margin-top"
	KindMarginBottom Kind = "margin-bottom"
	KindMarginLeft   Kind = "margin-left"
	KindMarginRight  Kind = "margin-right"
	KindUnmatched    Kind = "unmatched"
)

// Discrepancy is one non-zero value of a diff record.
type Discrepancy struct {
	Kind  Kind
	Value int
}

// IsSize reports whether the discrepancy concerns the node's own box.
func (d Discrepancy) IsSize() bool {
	return d.Kind == KindWidth || d.Kind == KindHeight
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s %+d", d.Kind, d.Value)
}

// Discrepancies lists the non-zero values of a record, sizes first.
func Discrepancies(rec schemas.DiffRecord) []Discrepancy {
	v := rec.Diff
	all := []Discrepancy{
		{KindWidth, v.Width},
		{KindHeight, v.Height},
		{KindMarginTop, v.MarginTop},
		{KindMarginBottom, v.MarginBottom},
		{KindMarginLeft, v.MarginLeft},
		{KindMarginRight, v.MarginRight},
	}
	out := all[:0]
	for _, d := range all {
		if d.Value != 0 {
			out = append(out, d)
		}
	}
	return out
}

// Summary is a one-line description of a record's discrepancies.
func Summary(rec schemas.DiffRecord) string {
	ds := Discrepancies(rec)
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

// suiteName labels a result in reports.
func suiteName(result *schemas.DiffResult) string {
	if result.Name != "" {
		return result.Name
	}
	return result.RunID
}
