package reporting

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// JSONReporter writes each result as one JSON document per line.
type JSONReporter struct {
	writer  io.WriteCloser
	encoder *jsoniter.Encoder
	logger  *zap.Logger
	mu      sync.Mutex
	written int
}

// NewJSONReporter creates a reporter that streams JSON lines to writer.
func NewJSONReporter(writer io.WriteCloser, logger *zap.Logger) *JSONReporter {
	return &JSONReporter{
		writer:  writer,
		encoder: json.NewEncoder(writer),
		logger:  logger.Named("json_reporter"),
	}
}

// Write encodes one result.
func (r *JSONReporter) Write(result *schemas.DiffResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result %s: %w", result.RunID, err)
	}
	r.written++
	return nil
}

// Close closes the underlying writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("Closing JSON report", zap.Int("results", r.written))
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}
