// Package transport moves node lists and captures between processes: the
// design plugin's clipboard text, JSON files and brotli-compressed JSON.
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClipboardPrefix marks clipboard text produced by the design plugin.
const ClipboardPrefix = "~$$MASTER_GO_UI_DIFFER_NODE_INFO$$~"

var (
	// ErrMissingPrefix is returned when clipboard text does not start with ClipboardPrefix.
	ErrMissingPrefix = errors.New("transport: clipboard text does not carry design node info")
	// ErrNotNodeList is returned when the payload after the prefix is not a JSON array.
	ErrNotNodeList = errors.New("transport: design payload is not a node list")
)

// EncodeClipboard renders m as clipboard text: the prefix followed by a JSON
// array of nodes in map order.
func EncodeClipboard(m *schemas.NodeMap) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding design nodes: %w", err)
	}
	return ClipboardPrefix + string(data), nil
}

// IsClipboard reports whether text looks like plugin clipboard output.
func IsClipboard(text []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(text), []byte(ClipboardPrefix))
}

// DecodeClipboard verifies and strips the prefix, then decodes the node list.
// Surrounding whitespace added by clipboard managers is ignored.
func DecodeClipboard(text string) (*schemas.NodeMap, error) {
	payload, ok := strings.CutPrefix(strings.TrimSpace(text), ClipboardPrefix)
	if !ok {
		return nil, ErrMissingPrefix
	}
	return DecodeNodeList([]byte(payload))
}

// DecodeNodeList decodes a JSON array of nodes and checks its references.
func DecodeNodeList(data []byte) (*schemas.NodeMap, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotNodeList
	}
	m := schemas.NewNodeMap(0)
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decoding design nodes: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("design node list: %w", err)
	}
	return m, nil
}
