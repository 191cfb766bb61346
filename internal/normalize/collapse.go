package normalize

import (
	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/geometry"
)

// CollapseDuplicateChildren merges every parent with its sole child when the
// two occupy the same rectangle, until no such pair is left. The child's id
// survives and takes over the parent's place in the tree. Passes are bounded
// by the node count.
func CollapseDuplicateChildren(in *schemas.NodeMap) *schemas.NodeMap {
	out := in
	for pass := 0; pass <= in.Len(); pass++ {
		next, merged := collapsePass(out)
		if !merged {
			break
		}
		out = next
	}
	if out == in {
		return in.Clone()
	}
	return out
}

// collapsePass merges one round of non-overlapping parent/child pairs.
func collapsePass(in *schemas.NodeMap) (*schemas.NodeMap, bool) {
	// retired parent id -> surviving child id
	replace := make(map[string]string)
	involved := make(map[string]bool)
	for _, n := range in.Nodes() {
		if len(n.Children) != 1 || involved[n.UniqueID] {
			continue
		}
		childID := n.Children[0]
		child, ok := in.Get(childID)
		if !ok || involved[childID] || childID == n.UniqueID {
			continue
		}
		if !geometry.SameRect(n.BoundingRect, child.BoundingRect) {
			continue
		}
		replace[n.UniqueID] = childID
		involved[n.UniqueID] = true
		involved[childID] = true
	}
	if len(replace) == 0 {
		return in, false
	}

	survivors := make(map[string]bool, len(replace))
	for _, childID := range replace {
		survivors[childID] = true
	}

	nodes := make([]*schemas.NodeInfo, 0, in.Len()-len(replace))
	for _, n := range in.Nodes() {
		if survivors[n.UniqueID] {
			// placed at its former parent's slot below
			continue
		}
		if childID, ok := replace[n.UniqueID]; ok {
			child, _ := in.Get(childID)
			nodes = append(nodes, mergeInto(n, child))
			continue
		}
		nodes = append(nodes, n.Clone())
	}

	for _, n := range nodes {
		rewriteRefs(n, replace)
	}
	return schemas.NewNodeMapFrom(nodes), true
}

// mergeInto builds the surviving node: content and style come from the
// child, placement in the tree comes from the parent.
func mergeInto(parent, child *schemas.NodeInfo) *schemas.NodeInfo {
	merged := child.Clone()
	p := parent.Clone()
	merged.ParentID = p.ParentID
	merged.Sibling = p.Sibling
	merged.FlexGrow = p.FlexGrow
	merged.Neighbors = p.Neighbors
	merged.InitialNeighborInfos = p.InitialNeighborInfos
	merged.NeighborMarginInfo = p.NeighborMarginInfo
	merged.Flagged = child.Flagged || parent.Flagged
	return merged
}

// rewriteRefs maps every id reference of n through replace, dropping
// duplicates a rewrite may create in list fields.
func rewriteRefs(n *schemas.NodeInfo, replace map[string]string) {
	mapID := func(id string) string {
		if r, ok := replace[id]; ok {
			return r
		}
		return id
	}
	mapList := func(ids []string) []string {
		seen := make(map[string]bool, len(ids))
		out := ids[:0]
		for _, id := range ids {
			id = mapID(id)
			if seen[id] || id == n.UniqueID {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		return out
	}

	n.ParentID = mapID(n.ParentID)
	n.Children = mapList(n.Children)
	n.Sibling = mapList(n.Sibling)
	for _, d := range schemas.Directions {
		n.Neighbors.Set(d, mapID(n.Neighbors.Get(d)))
		if n.InitialNeighborInfos != nil {
			n.InitialNeighborInfos.Set(d, mapID(n.InitialNeighborInfos.Get(d)))
		}
	}
}
