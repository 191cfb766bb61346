package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.4, 0},
		{0.5, 1},
		{-0.5, 0},
		{-0.6, -1},
		{2.49, 2},
		{-2.5, -2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round(tc.in), "Round(%v)", tc.in)
	}
}

func TestIsSameDistance(t *testing.T) {
	for _, v := range []float64{-100, -1, 0, 1, 37, 1024} {
		assert.True(t, IsSameDistance(v, v), "a value always equals itself")
	}
	assert.True(t, IsSameDistance(10, 10.4))
	assert.False(t, IsSameDistance(10, 10.5))
	assert.True(t, IsSameDistance(10.5, 10), "a drift of -0.5 rounds to zero")
	assert.Equal(t, float64(10), FixedSubtract(30, 20.2))
}

func TestIoU(t *testing.T) {
	a := schemas.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.Equal(t, 1.0, IoU(a, a))
	assert.Equal(t, 0.0, IoU(a, schemas.Rect{X: 20, Y: 20, Width: 5, Height: 5}))
	assert.InDelta(t, 50.0/150.0, IoU(a, schemas.Rect{X: 5, Y: 0, Width: 10, Height: 10}), 1e-9)
	assert.Equal(t, 0.0, IoU(schemas.Rect{}, schemas.Rect{}), "empty union scores zero")
}

func TestCenterDistanceAndGap(t *testing.T) {
	a := schemas.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := schemas.Rect{X: 30, Y: 40, Width: 10, Height: 10}
	assert.Equal(t, 50.0, CenterDistance(a, b))

	cur := schemas.Rect{X: 100, Y: 100, Width: 50, Height: 50}
	assert.Equal(t, 20.0, Gap(cur, schemas.Rect{X: 100, Y: 40, Width: 50, Height: 40}, schemas.Top))
	assert.Equal(t, 5.0, Gap(cur, schemas.Rect{X: 100, Y: 155, Width: 50, Height: 10}, schemas.Bottom))
	assert.Equal(t, 10.0, Gap(cur, schemas.Rect{X: 60, Y: 100, Width: 30, Height: 50}, schemas.Left))
	assert.Equal(t, 0.0, Gap(cur, schemas.Rect{X: 150, Y: 100, Width: 30, Height: 50}, schemas.Right))
}

func TestClassify(t *testing.T) {
	cur := schemas.Rect{X: 100, Y: 100, Width: 100, Height: 100}
	cases := []struct {
		name    string
		sibling schemas.Rect
		want    Position
	}{
		{"above", schemas.Rect{X: 120, Y: 0, Width: 20, Height: 100}, PositionTop},
		{"below touching", schemas.Rect{X: 100, Y: 200, Width: 100, Height: 10}, PositionBottom},
		{"left", schemas.Rect{X: 0, Y: 150, Width: 50, Height: 10}, PositionLeft},
		{"right", schemas.Rect{X: 250, Y: 90, Width: 10, Height: 200}, PositionRight},
		{"top left corner", schemas.Rect{X: 0, Y: 0, Width: 50, Height: 50}, PositionTopLeft},
		{"top right corner", schemas.Rect{X: 250, Y: 0, Width: 50, Height: 50}, PositionTopRight},
		{"bottom left corner", schemas.Rect{X: 0, Y: 250, Width: 50, Height: 50}, PositionBottomLeft},
		{"bottom right corner", schemas.Rect{X: 250, Y: 250, Width: 50, Height: 50}, PositionBottomRight},
		{"overlapping", schemas.Rect{X: 150, Y: 150, Width: 100, Height: 100}, PositionNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(cur, tc.sibling))
		})
	}
}

func TestPositionDirection(t *testing.T) {
	d, ok := PositionLeft.Direction()
	assert.True(t, ok)
	assert.Equal(t, schemas.Left, d)

	_, ok = PositionTopLeft.Direction()
	assert.False(t, ok)
	_, ok = PositionNone.Direction()
	assert.False(t, ok)
}
