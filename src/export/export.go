// Package export turns the committed selection into a pixel buffer and hands it
// to the clipboard.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"

	"xshot/src/geometry"
)

var ErrExportFailed = errors.New("export failed")

// PixelBuffer is raw RGBA, row-major, top-to-bottom, with no row padding.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// FromImage copies img into a tightly packed buffer.
func FromImage(img *image.RGBA) PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := PixelBuffer{Width: w, Height: h, Pix: make([]byte, w*h*4)}
	rowLen := w * 4
	for y := 0; y < h; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(buf.Pix[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}
	return buf
}

// Image wraps the buffer without copying.
func (b PixelBuffer) Image() *image.RGBA {
	return &image.RGBA{Pix: b.Pix, Stride: b.Width * 4, Rect: image.Rect(0, 0, b.Width, b.Height)}
}

// PNG encodes the buffer losslessly.
func (b PixelBuffer) PNG() ([]byte, error) {
	if b.Width <= 0 || b.Height <= 0 || len(b.Pix) != b.Width*b.Height*4 {
		return nil, fmt.Errorf("invalid pixel buffer %dx%d (%d bytes)", b.Width, b.Height, len(b.Pix))
	}
	var out bytes.Buffer
	if err := png.Encode(&out, b.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return out.Bytes(), nil
}

// Renderer produces the visual content of a display-space region at the
// surface's pixel density, without mask or selection border.
type Renderer interface {
	RenderRegion(r geometry.Rect) (*image.RGBA, error)
}

// ClipboardWriter receives the exported pixels.
type ClipboardWriter interface {
	WriteImage(ctx context.Context, buf PixelBuffer) error
}

// Run renders sel and writes it to the clipboard. Every failure is wrapped in
// ErrExportFailed; the buffer is returned whenever rendering succeeded.
func Run(ctx context.Context, r Renderer, sel geometry.Rect, w ClipboardWriter) (PixelBuffer, error) {
	img, err := r.RenderRegion(sel)
	if err != nil {
		return PixelBuffer{}, fmt.Errorf("%w: render %v: %w", ErrExportFailed, sel, err)
	}
	buf := FromImage(img)
	log.Printf("export: rendered %v as %dx%d pixels", sel, buf.Width, buf.Height)

	if err := ctx.Err(); err != nil {
		return buf, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if w == nil {
		return buf, fmt.Errorf("%w: no clipboard writer", ErrExportFailed)
	}
	if err := w.WriteImage(ctx, buf); err != nil {
		return buf, fmt.Errorf("%w: clipboard: %w", ErrExportFailed, err)
	}
	return buf, nil
}
