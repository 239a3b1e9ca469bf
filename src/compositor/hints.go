package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	hintText    = "ESC cancel   Enter / double-click copy"
	hintMargin  = 16
	hintPadding = 4
)

var (
	hintInk     = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	hintBacking = color.RGBA{A: 0xb0}
)

// drawHints writes the key help in the top-left corner and the physical size
// of the selection next to it. The 7x13 face is magnified by the whole-number
// part of the density so labels keep their logical size on HiDPI surfaces.
func (c *Compositor) drawHints(dst *image.RGBA) {
	k := hintZoom(c.density)
	drawLabel(dst, image.Pt(hintMargin*k, hintMargin*k), hintText, k)

	if c.sel == nil || !c.sel.visible {
		return
	}
	full := c.sel.rect.Physical(c.density)
	if full.Empty() {
		return
	}
	label := fmt.Sprintf("%d x %d", full.Dx(), full.Dy())
	h := labelSize(label).Y * k
	at := image.Pt(full.Min.X, full.Min.Y-h-2*k)
	if at.Y < 0 {
		at.Y = full.Min.Y + 2*k
	}
	drawLabel(dst, at, label, k)
}

func hintZoom(density float64) int {
	return int(math.Max(1, math.Floor(density)))
}

// labelSize is the unmagnified size of the backing box for text.
func labelSize(text string) image.Point {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	return image.Pt(w+2*hintPadding, face.Metrics().Height.Ceil()+2*hintPadding)
}

// drawLabel draws text on a dark backing box whose top-left corner is at,
// magnified k times.
func drawLabel(dst draw.Image, at image.Point, text string, k int) {
	face := basicfont.Face7x13
	size := labelSize(text)
	label := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(label, label.Bounds(), image.NewUniform(hintBacking), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: label, Src: image.NewUniform(hintInk), Face: face}
	d.Dot = fixed.P(hintPadding, hintPadding+face.Metrics().Ascent.Ceil())
	d.DrawString(text)

	box := image.Rectangle{Min: at, Max: at.Add(size.Mul(k))}
	xdraw.NearestNeighbor.Scale(dst, box, label, label.Bounds(), xdraw.Over, nil)
}
