// Package compositor renders the capture surface from three ordered layers:
// the captured bitmap as background, a translucent dimming mask, and the
// selection layer which draws the same bitmap windowed to the crop rectangle so
// the selected region appears lit through the mask.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"xshot/src/geometry"
)

var ErrEmptyRegion = errors.New("empty render region")

// Options control the look of the live surface. None of them affect exported
// pixels except through overlays.
type Options struct {
	MaskColor   color.RGBA
	BorderColor color.RGBA
	// BorderWidth is in display pixels.
	BorderWidth float64
	Hints       bool
}

// DefaultOptions is a half-transparent black mask with a 2px blue border.
func DefaultOptions() Options {
	return Options{
		MaskColor:   MaskColorFromOpacity(0.5),
		BorderColor: color.RGBA{R: 0x16, G: 0x77, B: 0xff, A: 0xff},
		BorderWidth: 2,
		Hints:       true,
	}
}

// MaskColorFromOpacity returns premultiplied black at the given opacity.
func MaskColorFromOpacity(opacity float64) color.RGBA {
	opacity = math.Max(0, math.Min(1, opacity))
	return color.RGBA{A: uint8(math.Round(opacity * 255))}
}

// Overlay is extra content drawn on top of the selection layer, for example
// annotations. It is part of the exported pixels. dst is clipped to the part of
// the selection being rendered; selection is the full physical selection
// rectangle.
type Overlay interface {
	DrawOverlay(dst draw.Image, selection image.Rectangle, density float64)
}

type backgroundLayer struct {
	bitmap image.Image
	scaled *image.RGBA
}

type maskLayer struct {
	size  geometry.Size
	color color.RGBA
}

type selectionLayer struct {
	visible bool
	rect    geometry.Rect
	crop    geometry.Rect
}

// Compositor is not safe for concurrent use. The bitmap it is built from is
// never written to.
type Compositor struct {
	opts     Options
	density  float64
	bounds   image.Rectangle
	scale    float64
	ratio    float64
	bg       *backgroundLayer
	mask     *maskLayer
	sel      *selectionLayer
	overlays []Overlay
	// spare holds live frames the display has let go of.
	spare chan *image.RGBA

	exporting bool
}

// New builds the three layers for one session. density is the device pixel
// ratio of the rendering surface.
func New(display geometry.Size, density float64, bitmap image.Image, opts Options) (*Compositor, error) {
	if bitmap == nil {
		return nil, errors.New("compositor: nil bitmap")
	}
	if density <= 0 {
		density = 1
	}
	scale, err := geometry.Scale(display.W, bitmap.Bounds().Dx())
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	if display.H <= 0 {
		return nil, fmt.Errorf("compositor: invalid display height %.2f", display.H)
	}
	c := &Compositor{
		opts:    opts,
		density: density,
		bounds:  geometry.SurfaceBounds(display, density),
		scale:   scale,
		ratio:   scale * density,
		bg:      &backgroundLayer{bitmap: bitmap},
		mask:    &maskLayer{size: display, color: opts.MaskColor},
		sel:     &selectionLayer{},
		spare:   make(chan *image.RGBA, 2),
	}
	log.Printf("compositor: source %dx%d, display %.0fx%.0f, scale %.4f, density %.2f",
		bitmap.Bounds().Dx(), bitmap.Bounds().Dy(), display.W, display.H, scale, density)
	return c, nil
}

func (c *Compositor) Scale() float64          { return c.scale }
func (c *Compositor) Bounds() image.Rectangle { return c.bounds }

// ShowSelection positions the selection layer at r (display space). The crop
// window is always derived from r and the scale.
func (c *Compositor) ShowSelection(r geometry.Rect) {
	if c.sel == nil {
		return
	}
	c.sel.visible = true
	c.sel.rect = r
	c.sel.crop = geometry.ToSource(r, c.scale)
}

// HideSelection makes the selection layer invisible.
func (c *Compositor) HideSelection() {
	if c.sel == nil {
		return
	}
	*c.sel = selectionLayer{}
}

// Selection returns the selection rectangle, its crop window and visibility.
func (c *Compositor) Selection() (rect, crop geometry.Rect, visible bool) {
	if c.sel == nil {
		return geometry.Rect{}, geometry.Rect{}, false
	}
	return c.sel.rect, c.sel.crop, c.sel.visible
}

// AddOverlay registers content drawn above the selection.
func (c *Compositor) AddOverlay(o Overlay) {
	c.overlays = append(c.overlays, o)
}

// Render draws a full live frame, reusing a recycled one when available.
// Calling it again without state changes yields an identical frame.
func (c *Compositor) Render() *image.RGBA {
	if c.bg == nil {
		return image.NewRGBA(c.bounds)
	}
	frame := c.nextFrame()
	c.renderInto(frame)
	return frame
}

// Recycle returns a frame produced by Render once nothing reads it any more.
// It may be called from any goroutine, also after Release.
func (c *Compositor) Recycle(frame *image.RGBA) {
	if frame == nil || frame.Rect != c.bounds {
		return
	}
	select {
	case c.spare <- frame:
	default:
	}
}

func (c *Compositor) nextFrame() *image.RGBA {
	select {
	case f := <-c.spare:
		return f
	default:
		return image.NewRGBA(c.bounds)
	}
}

// enterExportMode suppresses the mask, the border and hints until the returned
// function runs.
func (c *Compositor) enterExportMode() func() {
	prev := c.exporting
	c.exporting = true
	return func() { c.exporting = prev }
}

// RenderRegion renders the display-space rectangle r at the surface density
// with mask, border and hints suppressed. The returned image has the physical
// bounds of r on the surface.
func (c *Compositor) RenderRegion(r geometry.Rect) (img *image.RGBA, err error) {
	restore := c.enterExportMode()
	defer restore()
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("compositor: render panic: %v", p)
		}
	}()

	if c.bg == nil {
		return nil, errors.New("compositor: released")
	}
	phys := r.Physical(c.density).Intersect(c.bounds)
	if phys.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEmptyRegion, r)
	}
	dst := image.NewRGBA(phys)
	c.renderInto(dst)
	return dst, nil
}

// Release drops every layer and the bitmap reference.
func (c *Compositor) Release() {
	c.bg = nil
	c.mask = nil
	c.sel = nil
	c.overlays = nil
}

func (c *Compositor) renderInto(dst *image.RGBA) {
	area := dst.Bounds()

	draw.Draw(dst, area, c.background(), area.Min, draw.Src)

	if c.mask != nil && !c.exporting {
		draw.Draw(dst, area, image.NewUniform(c.mask.color), image.Point{}, draw.Over)
	}

	if c.sel != nil && c.sel.visible {
		full := c.sel.rect.Physical(c.density)
		clip := full.Intersect(area)
		if !clip.Empty() {
			sub := dst.SubImage(clip).(*image.RGBA)
			c.drawSource(sub, c.sel.crop.Enclosing())
			for _, o := range c.overlays {
				o.DrawOverlay(sub, full, c.density)
			}
		}
		if !c.exporting && !full.Empty() {
			c.drawBorder(dst, full)
		}
	}

	if c.opts.Hints && !c.exporting {
		c.drawHints(dst)
	}
}

// background returns the bitmap scaled onto the surface, building it once.
func (c *Compositor) background() *image.RGBA {
	if c.bg.scaled != nil {
		return c.bg.scaled
	}
	scaled := image.NewRGBA(c.bounds)
	draw.Draw(scaled, c.bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)
	c.drawSource(scaled, c.bg.bitmap.Bounds().Sub(c.bg.bitmap.Bounds().Min))
	c.bg.scaled = scaled
	return scaled
}

// drawSource maps source pixels inside window (zero-based source coordinates)
// onto dst using the session's source-to-surface ratio.
func (c *Compositor) drawSource(dst *image.RGBA, window image.Rectangle) {
	src := c.bg.bitmap
	origin := src.Bounds().Min

	if math.Abs(c.ratio-1) < 1e-9 {
		draw.Draw(dst, dst.Bounds(), src, dst.Bounds().Min.Add(origin), draw.Src)
		return
	}

	// One source pixel of margin keeps bilinear sampling stable at the edges.
	sr := window.Inset(-1).Add(origin).Intersect(src.Bounds())
	if sr.Empty() {
		return
	}
	k := c.ratio
	s2d := f64.Aff3{
		k, 0, -k * float64(origin.X),
		0, k, -k * float64(origin.Y),
	}
	xdraw.ApproxBiLinear.Transform(dst, s2d, src, sr, xdraw.Src, nil)
}

func (c *Compositor) drawBorder(dst *image.RGBA, r image.Rectangle) {
	width := int(math.Max(1, math.Round(c.opts.BorderWidth*c.density)))
	outer := r.Inset(-width / 2)
	inner := outer.Inset(width)
	paint := image.NewUniform(c.opts.BorderColor)

	if inner.Empty() {
		draw.Draw(dst, outer, paint, image.Point{}, draw.Src)
		return
	}
	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y),
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y),
	}
	for _, b := range bands {
		draw.Draw(dst, b, paint, image.Point{}, draw.Src)
	}
}
