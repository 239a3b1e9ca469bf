package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xshot/src/geometry"
)

func writeGradient(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	path := filepath.Join(t.TempDir(), "capture.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&cropOptions{})
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCropExactAtDensityTwo(t *testing.T) {
	in := writeGradient(t, 200, 100)
	out := filepath.Join(t.TempDir(), "out.png")

	_, err := execute(t, "--file", in, "--display-width", "100", "--density", "2", "--rect", "10,10,20,10", "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
	for _, p := range []image.Point{{0, 0}, {39, 19}, {17, 5}} {
		r, g, _, _ := img.At(p.X, p.Y).RGBA()
		assert.Equal(t, uint32(20+p.X), r>>8, "red at %v", p)
		assert.Equal(t, uint32(20+p.Y), g>>8, "green at %v", p)
	}
}

func TestCropJSONSummary(t *testing.T) {
	in := writeGradient(t, 200, 100)
	out := filepath.Join(t.TempDir(), "out.png")

	stdout, err := execute(t, "--file", in, "--display-width", "100", "--rect", "10,10,20,10", "--out", out, "--json")
	require.NoError(t, err)

	var s summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &s))
	assert.Equal(t, 20, s.Width)
	assert.Equal(t, 10, s.Height)
	assert.Equal(t, 0.5, s.Scale)
	assert.Equal(t, geometry.Rect{X: 20, Y: 20, W: 40, H: 20}, s.Crop)
}

func TestCropRequiresDestination(t *testing.T) {
	in := writeGradient(t, 20, 20)
	_, err := execute(t, "--file", in, "--rect", "1,1,5,5")
	assert.Error(t, err)
}

func TestCropRejectsBadInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")

	_, err := execute(t, "--file", filepath.Join(t.TempDir(), "missing.png"), "--rect", "1,1,5,5", "--out", out)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = execute(t, "--file", empty, "--rect", "1,1,5,5", "--out", out)
	assert.Error(t, err)

	in := writeGradient(t, 20, 20)
	_, err = execute(t, "--file", in, "--rect", "1,1,0,5", "--out", out)
	assert.Error(t, err)
}

func TestParseRect(t *testing.T) {
	r, err := parseRect(" 1.5, 2,30 ,40")
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{X: 1.5, Y: 2, W: 30, H: 40}, r)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,-3,4"} {
		_, err := parseRect(bad)
		assert.Error(t, err, bad)
	}
}

func TestDisplayFor(t *testing.T) {
	assert.Equal(t, geometry.Size{W: 1920, H: 1080}, displayFor(3840, 2160, 0, 2))
	assert.Equal(t, geometry.Size{W: 100, H: 50}, displayFor(200, 100, 100, 1))
}
