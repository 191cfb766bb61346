package schemas

import (
	"fmt"
	"slices"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NodeMap is an insertion-ordered map of nodes keyed by unique id. Recorders
// insert in breadth-first order, so iterating Nodes visits parents before
// children and Reverse visits children before parents.
//
// A NodeMap handed to a stage is treated as immutable. Stages that change
// nodes call Clone first and edit the copy.
type NodeMap struct {
	order []string
	nodes map[string]*NodeInfo
}

// NewNodeMap returns an empty map with room for capacity nodes.
func NewNodeMap(capacity int) *NodeMap {
	return &NodeMap{
		order: make([]string, 0, capacity),
		nodes: make(map[string]*NodeInfo, capacity),
	}
}

// NewNodeMapFrom builds a map from nodes in the given order. Later duplicates
// replace earlier ones without changing position.
func NewNodeMapFrom(nodes []*NodeInfo) *NodeMap {
	m := NewNodeMap(len(nodes))
	for _, n := range nodes {
		m.Set(n)
	}
	return m
}

// Len returns the number of nodes.
func (m *NodeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Get returns the node with the given id.
func (m *NodeMap) Get(id string) (*NodeInfo, bool) {
	if m == nil || id == "" {
		return nil, false
	}
	n, ok := m.nodes[id]
	return n, ok
}

// Has reports whether id is present.
func (m *NodeMap) Has(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// Set inserts or replaces a node. New ids are appended to the order.
func (m *NodeMap) Set(n *NodeInfo) {
	if n == nil || n.UniqueID == "" {
		return
	}
	if _, ok := m.nodes[n.UniqueID]; !ok {
		m.order = append(m.order, n.UniqueID)
	}
	m.nodes[n.UniqueID] = n
}

// Delete removes a node, keeping the relative order of the rest.
func (m *NodeMap) Delete(id string) {
	if _, ok := m.nodes[id]; !ok {
		return
	}
	delete(m.nodes, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
}

// IDs returns the ids in insertion order.
func (m *NodeMap) IDs() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.order)
}

// Nodes returns the nodes in insertion order.
func (m *NodeMap) Nodes() []*NodeInfo {
	if m == nil {
		return nil
	}
	out := make([]*NodeInfo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id])
	}
	return out
}

// Reverse returns the nodes in reverse insertion order.
func (m *NodeMap) Reverse() []*NodeInfo {
	out := m.Nodes()
	slices.Reverse(out)
	return out
}

// Root returns the first node, which recorders always make the tree root.
func (m *NodeMap) Root() (*NodeInfo, bool) {
	if m.Len() == 0 {
		return nil, false
	}
	return m.nodes[m.order[0]], true
}

// Clone returns a deep copy. The copy shares nothing with the receiver.
func (m *NodeMap) Clone() *NodeMap {
	if m == nil {
		return NewNodeMap(0)
	}
	c := NewNodeMap(len(m.order))
	for _, id := range m.order {
		c.order = append(c.order, id)
		c.nodes[id] = m.nodes[id].Clone()
	}
	return c
}

// Parent returns the parent of n, if it is present in the map.
func (m *NodeMap) Parent(n *NodeInfo) (*NodeInfo, bool) {
	if n == nil {
		return nil, false
	}
	return m.Get(n.ParentID)
}

// Validate checks that every edge points at a surviving node and that parent
// links are acyclic.
func (m *NodeMap) Validate() error {
	for _, n := range m.Nodes() {
		if n.ParentID != "" && !m.Has(n.ParentID) {
			return fmt.Errorf("node %q references missing parent %q", n.UniqueID, n.ParentID)
		}
		for _, c := range n.Children {
			if !m.Has(c) {
				return fmt.Errorf("node %q references missing child %q", n.UniqueID, c)
			}
		}
		for _, s := range n.Sibling {
			if !m.Has(s) {
				return fmt.Errorf("node %q references missing sibling %q", n.UniqueID, s)
			}
		}
		steps := 0
		for cur := n; cur.ParentID != ""; {
			next, ok := m.Get(cur.ParentID)
			if !ok {
				break
			}
			steps++
			if steps > m.Len() {
				return fmt.Errorf("node %q has a cyclic parent chain", n.UniqueID)
			}
			cur = next
		}
	}
	return nil
}

// MarshalJSON encodes the map as an array in insertion order.
func (m *NodeMap) MarshalJSON() ([]byte, error) {
	nodes := m.Nodes()
	if nodes == nil {
		nodes = []*NodeInfo{}
	}
	return json.Marshal(nodes)
}

// UnmarshalJSON decodes an array of nodes, keeping array order.
func (m *NodeMap) UnmarshalJSON(data []byte) error {
	var nodes []*NodeInfo
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}
	*m = *NewNodeMapFrom(nodes)
	return nil
}
