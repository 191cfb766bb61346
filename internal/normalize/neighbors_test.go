package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

func gridTree() *schemas.NodeMap {
	return tree(
		node("root", "", 0, 0, 300, 300, "a", "b", "c"),
		node("a", "root", 0, 0, 100, 100),
		node("b", "root", 0, 150, 100, 100),
		node("c", "root", 150, 0, 100, 100),
	)
}

func TestLocateNeighbors(t *testing.T) {
	out := LocateNeighbors(gridTree())

	a := mustGet(out, "a")
	assert.Equal(t, "b", a.Neighbors.Bottom)
	assert.Equal(t, "c", a.Neighbors.Right)
	assert.Empty(t, a.Neighbors.Top, "flush with a root that has no neighbor above")
	assert.Empty(t, a.Neighbors.Left)

	b := mustGet(out, "b")
	assert.Equal(t, "a", b.Neighbors.Top)
	assert.Equal(t, "root", b.Neighbors.Bottom, "not flush with the parent's bottom edge")

	c := mustGet(out, "c")
	assert.Equal(t, "a", c.Neighbors.Left)
	assert.Equal(t, "root", c.Neighbors.Bottom, "b sits diagonally and does not count")
	assert.Equal(t, "root", c.Neighbors.Right)
}

func TestLocateNeighbors_InheritsParentNeighbor(t *testing.T) {
	m := tree(
		node("root", "", 0, 0, 300, 300, "left", "right"),
		node("left", "root", 0, 0, 100, 300, "inner"),
		node("right", "root", 200, 0, 100, 300),
		node("inner", "left", 10, 0, 90, 50),
	)
	out := LocateNeighbors(m)
	inner := mustGet(out, "inner")
	assert.Equal(t, "right", inner.Neighbors.Right, "flush right edge inherits the parent's right neighbor")
	assert.Equal(t, "left", inner.Neighbors.Left, "inset left edge points at the parent")
}

func TestLocateNeighbors_TieKeepsFirstSibling(t *testing.T) {
	m := tree(
		node("root", "", 0, 0, 300, 300, "cur", "x", "y"),
		node("cur", "root", 100, 100, 50, 50),
		node("x", "root", 100, 0, 20, 80),
		node("y", "root", 130, 0, 20, 80),
	)
	out := LocateNeighbors(m)
	assert.Equal(t, "x", mustGet(out, "cur").Neighbors.Top)
}

func TestLocateNeighbors_Idempotent(t *testing.T) {
	once := LocateNeighbors(gridTree())
	twice := LocateNeighbors(once)
	for _, id := range once.IDs() {
		if diff := cmp.Diff(mustGet(once, id).Neighbors, mustGet(twice, id).Neighbors); diff != "" {
			t.Errorf("neighbors of %s changed on second run (-first +second):\n%s", id, diff)
		}
	}
}

func TestLocateNeighbors_DoesNotMutateInput(t *testing.T) {
	in := gridTree()
	_ = LocateNeighbors(in)
	assert.Empty(t, mustGet(in, "a").Neighbors.Bottom)
}

func TestLocateInitialNeighbors(t *testing.T) {
	out := LocateInitialNeighbors(gridTree())

	a := mustGet(out, "a")
	require.NotNil(t, a.InitialNeighborInfos)
	assert.Equal(t, "b", a.InitialNeighborInfos.Bottom)
	assert.Empty(t, a.InitialNeighborInfos.Top)

	b := mustGet(out, "b")
	assert.Empty(t, b.InitialNeighborInfos.Bottom, "only siblings are frozen, never the parent")
	assert.Empty(t, b.Neighbors.Top, "final slots stay untouched")
}
