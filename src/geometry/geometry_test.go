package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Rect
	}{
		{"top-left to bottom-right", Point{100, 100}, Point{300, 250}, Rect{100, 100, 200, 150}},
		{"bottom-right to top-left", Point{300, 250}, Point{100, 100}, Rect{100, 100, 200, 150}},
		{"top-right to bottom-left", Point{300, 100}, Point{100, 250}, Rect{100, 100, 200, 150}},
		{"same point", Point{42, 7}, Point{42, 7}, Rect{42, 7, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.a, tt.b))
		})
	}
}

func TestNormalizeProperty(t *testing.T) {
	coords := []float64{-3, 0, 1.5, 17, 640, 1919}
	for _, x1 := range coords {
		for _, y1 := range coords {
			for _, x2 := range coords {
				for _, y2 := range coords {
					r := Normalize(Point{x1, y1}, Point{x2, y2})
					require.GreaterOrEqual(t, r.W, 0.0)
					require.GreaterOrEqual(t, r.H, 0.0)
					require.Equal(t, min(x1, x2), r.X)
					require.Equal(t, min(y1, y2), r.Y)
					require.Equal(t, max(x1, x2)-min(x1, x2), r.W)
					require.Equal(t, max(y1, y2)-min(y1, y2), r.H)
				}
			}
		}
	}
}

func TestScale(t *testing.T) {
	s, err := Scale(1920, 3840)
	require.NoError(t, err)
	assert.Equal(t, 0.5, s)

	_, err = Scale(1920, 0)
	assert.ErrorIs(t, err, ErrInvalidScale)

	_, err = Scale(0, 100)
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestToSourceScenario(t *testing.T) {
	scale, err := Scale(1920, 3840)
	require.NoError(t, err)

	sel := Normalize(Point{100, 100}, Point{300, 250})
	require.Equal(t, Rect{100, 100, 200, 150}, sel)

	crop := ToSource(sel, scale)
	assert.Equal(t, Rect{200, 200, 400, 300}, crop)
	assert.Equal(t, crop, ToSource(sel, scale), "re-deriving must be idempotent")
}

func TestToSourceElementwise(t *testing.T) {
	sel := Rect{10, 20, 30, 40}
	for _, scale := range []float64{0.25, 0.5, 1, 1.5, 2, 3} {
		crop := ToSource(sel, scale)
		assert.InDelta(t, sel.X/scale, crop.X, 1e-9)
		assert.InDelta(t, sel.Y/scale, crop.Y, 1e-9)
		assert.InDelta(t, sel.W/scale, crop.W, 1e-9)
		assert.InDelta(t, sel.H/scale, crop.H, 1e-9)
	}
	assert.Equal(t, Rect{}, ToSource(sel, 0))
}

func TestQualifies(t *testing.T) {
	assert.True(t, Rect{W: 6, H: 6}.Qualifies(MinSelectionSpan))
	assert.False(t, Rect{W: 5, H: 100}.Qualifies(MinSelectionSpan))
	assert.False(t, Rect{W: 100, H: 4}.Qualifies(MinSelectionSpan))
	assert.False(t, Rect{}.Qualifies(MinSelectionSpan))
}

func TestPhysical(t *testing.T) {
	r := Rect{100, 100, 200, 150}
	assert.Equal(t, image.Rect(100, 100, 300, 250), r.Physical(1))
	assert.Equal(t, image.Rect(200, 200, 600, 500), r.Physical(2))
	assert.Equal(t, image.Rect(150, 150, 450, 375), r.Physical(1.5))
	assert.Equal(t, image.Rect(100, 100, 300, 250), r.Physical(0))
}

func TestContainsAndEnclosing(t *testing.T) {
	r := Rect{10.5, 10.5, 5, 5}
	assert.True(t, r.Contains(Point{10.5, 15.5}))
	assert.False(t, r.Contains(Point{9, 12}))
	assert.Equal(t, image.Rect(10, 10, 16, 16), r.Enclosing())
}

func TestSurfaceBounds(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 1920, 1080), SurfaceBounds(Size{1920, 1080}, 1))
	assert.Equal(t, image.Rect(0, 0, 3840, 2160), SurfaceBounds(Size{1920, 1080}, 2))
	assert.Equal(t, image.Rect(0, 0, 1441, 811), SurfaceBounds(Size{960.5, 540.5}, 1.5))
}
