// Package recorder flattens a captured DOM tree or a design scene graph into a
// schemas.NodeMap in breadth-first order. Both recorders are pure: they read
// already captured data and never touch a browser or a design tool.
package recorder

import (
	"errors"
	"slices"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// ErrNoGeometry reports that a tree had no usable root rectangle. Recorders
// return an empty map in that case; callers that want to surface it as an
// error wrap this value.
var ErrNoGeometry = errors.New("recorder: root has no usable geometry")

// prune removes ids from a map along with every reference to them.
func prune(m *schemas.NodeMap, drop map[string]bool) {
	if len(drop) == 0 {
		return
	}
	for id := range drop {
		m.Delete(id)
	}
	gone := func(id string) bool { return drop[id] }
	for _, n := range m.Nodes() {
		n.Children = slices.DeleteFunc(n.Children, gone)
		n.Sibling = slices.DeleteFunc(n.Sibling, gone)
	}
}

// subtree returns id and every descendant reachable through children lists.
func subtree(m *schemas.NodeMap, id string) []string {
	out := []string{id}
	for i := 0; i < len(out); i++ {
		n, ok := m.Get(out[i])
		if !ok {
			continue
		}
		out = append(out, n.Children...)
	}
	return out
}

// siblingsOf returns ids without self.
func siblingsOf(ids []string, self string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
