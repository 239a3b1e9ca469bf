// Package geometry converts between display space (pointer / rendering surface
// logical pixels) and source space (native pixels of the captured bitmap).
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MinSelectionSpan is the default threshold, in display pixels, that both sides
// of a selection must exceed before it can be committed.
const MinSelectionSpan = 5

var ErrInvalidScale = errors.New("invalid scale")

// Point is a location in either space; the owner decides which.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair.
type Size struct {
	W float64
	H float64
}

// Rect is always normalized: X,Y is the top-left corner and W,H are >= 0.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Normalize builds the rectangle spanned by two corner points.
func Normalize(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(b.X - a.X),
		H: math.Abs(b.Y - a.Y),
	}
}

// Scale returns displayWidth / sourceWidth.
func Scale(displayWidth float64, sourceWidth int) (float64, error) {
	if sourceWidth <= 0 || displayWidth <= 0 {
		return 0, fmt.Errorf("%w: display width %.2f, source width %d", ErrInvalidScale, displayWidth, sourceWidth)
	}
	return displayWidth / float64(sourceWidth), nil
}

// ToSource derives the crop rectangle in source space. It is a pure function of
// the display rectangle and the scale.
func ToSource(r Rect, scale float64) Rect {
	if scale <= 0 {
		return Rect{}
	}
	return Rect{X: r.X / scale, Y: r.Y / scale, W: r.W / scale, H: r.H / scale}
}

// Qualifies reports whether both sides strictly exceed minSpan.
func (r Rect) Qualifies(minSpan float64) bool {
	return r.W > minSpan && r.H > minSpan
}

// Empty reports a zero-area rectangle.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Physical maps a display-space rectangle onto the integer pixel grid of a
// surface with the given device pixel ratio. Edges are rounded independently so
// adjacent rectangles tile without gaps.
func (r Rect) Physical(density float64) image.Rectangle {
	if density <= 0 {
		density = 1
	}
	return image.Rect(
		int(math.Round(r.X*density)),
		int(math.Round(r.Y*density)),
		int(math.Round((r.X+r.W)*density)),
		int(math.Round((r.Y+r.H)*density)),
	)
}

// Enclosing returns the smallest integer rectangle containing r.
func (r Rect) Enclosing() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)),
		int(math.Ceil(r.Y+r.H)),
	)
}

func (r Rect) String() string {
	return fmt.Sprintf("{%g,%g %gx%g}", r.X, r.Y, r.W, r.H)
}

// SurfaceBounds is the physical pixel rectangle of a rendering surface.
func SurfaceBounds(display Size, density float64) image.Rectangle {
	if density <= 0 {
		density = 1
	}
	return image.Rect(0, 0, int(math.Ceil(display.W*density)), int(math.Ceil(display.H*density)))
}
