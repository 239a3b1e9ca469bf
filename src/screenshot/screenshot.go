package screenshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"time"

	_ "image/jpeg"

	"github.com/kbinani/screenshot"
)

var ErrNoDisplay = errors.New("no active displays found")

// Capturer grabs one display as an encoded PNG.
type Capturer struct {
	// Display is the index passed to the platform capture API.
	Display int
	// Delay gives the compositor time to unmap a window hidden just before
	// the capture.
	Delay time.Duration
}

// Capture captures the configured display. The result reflects the display
// state at call time.
func (c Capturer) Capture(ctx context.Context) ([]byte, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	start := time.Now()
	img, err := CaptureDisplay(c.Display)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := Encode(img)
	if err != nil {
		return nil, err
	}
	log.Printf("screenshot: display %d captured %dx%d in %v", c.Display, img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start))
	return data, nil
}

// CaptureDisplay captures a single display.
func CaptureDisplay(index int) (*image.RGBA, error) {
	bounds, err := GetDisplayBounds(index)
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", index, err)
	}
	return img, nil
}

// GetDisplayBounds returns the bounds of a display in physical pixels.
func GetDisplayBounds(index int) (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	if index < 0 || index >= n {
		return image.Rectangle{}, fmt.Errorf("display %d out of range (%d active)", index, n)
	}
	return screenshot.GetDisplayBounds(index), nil
}

// Encode converts to PNG bytes, favouring speed over size.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode turns an encoded still image into an RGBA bitmap anchored at 0,0.
func Decode(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decoded %s image has no pixels", format)
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// LogDisplays logs the bounds of every active display.
func LogDisplays() {
	n := screenshot.NumActiveDisplays()
	log.Printf("screenshot: %d active displays", n)
	for i := 0; i < n; i++ {
		log.Printf("screenshot: display %d bounds %v", i, screenshot.GetDisplayBounds(i))
	}
}
