package transport

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// BrotliExt marks brotli-compressed files.
const BrotliExt = ".br"

var brotliReaderPool = sync.Pool{
	New: func() interface{} {
		return brotli.NewReader(nil)
	},
}

// Shared empty reader used for resetting pooled readers.
var emptyReader = strings.NewReader("")

// pooledBrotliReader returns its decoder to the pool on Close.
type pooledBrotliReader struct {
	*brotli.Reader
	once sync.Once
}

func (r *pooledBrotliReader) Close() error {
	r.once.Do(func() {
		_ = r.Reader.Reset(emptyReader)
		brotliReaderPool.Put(r.Reader)
	})
	return nil
}

// NewBrotliReader wraps src in a pooled brotli decoder. Close releases the
// decoder; it does not close src.
func NewBrotliReader(src io.Reader) (io.ReadCloser, error) {
	br := brotliReaderPool.Get().(*brotli.Reader)
	if err := br.Reset(src); err != nil {
		brotliReaderPool.Put(br)
		return nil, fmt.Errorf("brotli initialization error: %w", err)
	}
	return &pooledBrotliReader{Reader: br}, nil
}

// NewBrotliWriter wraps dst in a brotli encoder at the default quality.
func NewBrotliWriter(dst io.Writer) io.WriteCloser {
	return brotli.NewWriterLevel(dst, brotli.DefaultCompression)
}
