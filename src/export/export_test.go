package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xshot/src/compositor"
	"xshot/src/geometry"
)

type recordingWriter struct {
	calls int
	got   PixelBuffer
	err   error
}

func (w *recordingWriter) WriteImage(ctx context.Context, buf PixelBuffer) error {
	w.calls++
	w.got = buf
	return w.err
}

type failingRenderer struct{}

func (failingRenderer) RenderRegion(geometry.Rect) (*image.RGBA, error) {
	return nil, errors.New("gpu on fire")
}

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 3), B: uint8(x + y), A: 0xff})
		}
	}
	return img
}

func TestScenarioFullHDOverUHD(t *testing.T) {
	src := pattern(3840, 2160)
	sel := geometry.Normalize(geometry.Point{X: 100, Y: 100}, geometry.Point{X: 300, Y: 250})

	for _, tt := range []struct {
		density float64
		w, h    int
	}{
		{1, 200, 150},
		{2, 400, 300},
	} {
		c, err := compositor.New(geometry.Size{W: 1920, H: 1080}, tt.density, src, compositor.DefaultOptions())
		require.NoError(t, err)
		require.Equal(t, 0.5, c.Scale())
		c.ShowSelection(sel)

		w := &recordingWriter{}
		buf, err := Run(context.Background(), c, sel, w)
		require.NoError(t, err)
		assert.Equal(t, 1, w.calls)
		assert.Equal(t, tt.w, buf.Width)
		assert.Equal(t, tt.h, buf.Height)
		assert.Len(t, buf.Pix, tt.w*tt.h*4)

		if tt.density == 2 {
			// one source pixel per physical pixel: the export is the raw crop
			crop := geometry.ToSource(sel, c.Scale())
			require.Equal(t, geometry.Rect{X: 200, Y: 200, W: 400, H: 300}, crop)
			out := buf.Image()
			for y := 0; y < buf.Height; y++ {
				for x := 0; x < buf.Width; x++ {
					require.Equal(t, src.RGBAAt(200+x, 200+y), out.RGBAAt(x, y))
				}
			}
		}
	}
}

func TestFromImageHandlesOffsetAndStride(t *testing.T) {
	full := pattern(10, 10)
	sub := full.SubImage(image.Rect(3, 4, 7, 9)).(*image.RGBA)

	buf := FromImage(sub)
	require.Equal(t, 4, buf.Width)
	require.Equal(t, 5, buf.Height)
	for y := 0; y < 5; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, full.RGBAAt(3+x, 4+y), buf.Image().RGBAAt(x, y))
		}
	}
}

func TestPNGRoundTrip(t *testing.T) {
	buf := FromImage(pattern(13, 7))
	data, err := buf.PNG()
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	for y := 0; y < 7; y++ {
		for x := 0; x < 13; x++ {
			r, g, b, a := decoded.At(x, y).RGBA()
			want := buf.Image().RGBAAt(x, y)
			require.Equal(t, want, color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)})
		}
	}

	_, err = PixelBuffer{Width: 2, Height: 2, Pix: make([]byte, 3)}.PNG()
	assert.Error(t, err)
}

func TestRunRenderFailure(t *testing.T) {
	w := &recordingWriter{}
	_, err := Run(context.Background(), failingRenderer{}, geometry.Rect{W: 10, H: 10}, w)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Zero(t, w.calls)
}

func TestRunClipboardFailure(t *testing.T) {
	c, err := compositor.New(geometry.Size{W: 20, H: 20}, 1, pattern(20, 20), compositor.DefaultOptions())
	require.NoError(t, err)
	sel := geometry.Rect{X: 2, Y: 2, W: 10, H: 10}
	c.ShowSelection(sel)

	w := &recordingWriter{err: errors.New("clipboard locked")}
	buf, err := Run(context.Background(), c, sel, w)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Equal(t, 10, buf.Width)
	assert.Equal(t, 1, w.calls)
}

func TestRunCancelledContext(t *testing.T) {
	c, err := compositor.New(geometry.Size{W: 20, H: 20}, 1, pattern(20, 20), compositor.DefaultOptions())
	require.NoError(t, err)
	sel := geometry.Rect{W: 10, H: 10}
	c.ShowSelection(sel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &recordingWriter{}
	_, err = Run(ctx, c, sel, w)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.calls)
}
