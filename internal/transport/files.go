package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// compressed reports whether path names a brotli file.
func compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), BrotliExt)
}

// ReadFile returns the contents of path, decompressing .br files.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed(path) {
		br, err := NewBrotliReader(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		defer br.Close()
		r = br
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// ReadJSON decodes the JSON document in path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// WriteJSON encodes v as indented JSON into path, compressing .br files.
func WriteJSON(path string, v interface{}) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	var w io.Writer = f
	if compressed(path) {
		bw := NewBrotliWriter(f)
		defer func() { err = multierr.Append(err, bw.Close()) }()
		w = bw
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// Design is a design-side input in one of the accepted shapes.
type Design struct {
	Scene *schemas.SceneNode
	Nodes *schemas.NodeMap
	// Normalized is true for node lists, which the plugin exports after
	// running the normalization chain.
	Normalized bool
}

// ParseDesign accepts clipboard text, a JSON node list or a JSON scene graph.
func ParseDesign(data []byte) (Design, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case IsClipboard(trimmed):
		m, err := DecodeClipboard(string(trimmed))
		if err != nil {
			return Design{}, err
		}
		return Design{Nodes: m, Normalized: true}, nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		m, err := DecodeNodeList(trimmed)
		if err != nil {
			return Design{}, err
		}
		return Design{Nodes: m, Normalized: true}, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var scene schemas.SceneNode
		if err := json.Unmarshal(trimmed, &scene); err != nil {
			return Design{}, fmt.Errorf("decoding scene graph: %w", err)
		}
		return Design{Scene: &scene}, nil
	}
	return Design{}, fmt.Errorf("unrecognized design input")
}

// LoadDesign reads and parses a design file.
func LoadDesign(path string) (Design, error) {
	data, err := ReadFile(path)
	if err != nil {
		return Design{}, err
	}
	d, err := ParseDesign(data)
	if err != nil {
		return Design{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadSnapshot reads a page snapshot written by the capture command.
func LoadSnapshot(path string) (*schemas.PageSnapshot, error) {
	var snap schemas.PageSnapshot
	if err := ReadJSON(path, &snap); err != nil {
		return nil, err
	}
	if snap.Root == nil {
		return nil, fmt.Errorf("%s: snapshot has no root element", path)
	}
	return &snap, nil
}
