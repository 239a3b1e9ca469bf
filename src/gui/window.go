package gui

import (
	"context"
	"errors"
	"image"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"xshot/src/cursor"
	"xshot/src/geometry"
	"xshot/src/messages"
	"xshot/src/screenshot"
)

// Window is the borderless full-screen capture window. Its methods may be
// called from any goroutine; fyne calls are marshalled onto the fyne thread.
type Window struct {
	app          fyne.App
	win          fyne.Window
	surface      *surface
	displayIndex int
}

// NewWindow builds the capture window on displayIndex. post receives every
// input event; it must not block. Call from the fyne thread before app.Run.
func NewWindow(app fyne.App, displayIndex int, post func(messages.Message)) *Window {
	var win fyne.Window
	if drv, ok := app.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
	} else {
		win = app.NewWindow("xshot")
	}
	win.SetPadded(false)

	s := newSurface(post)
	win.SetContent(s)
	win.Canvas().SetOnTypedKey(s.typedKey)
	// Closing the window through the window manager cancels the session.
	win.SetCloseIntercept(func() { post(messages.KeyPressed{Key: messages.KeyEscape}) })

	return &Window{app: app, win: win, surface: s, displayIndex: displayIndex}
}

func (w *Window) Hide(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fyne.DoAndWait(func() {
		w.win.SetFullScreen(false)
		w.win.Hide()
	})
	return nil
}

func (w *Window) Show(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fyne.DoAndWait(func() {
		w.win.Show()
		w.win.SetFullScreen(true)
	})
	return nil
}

func (w *Window) SetFocus(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fyne.DoAndWait(w.win.RequestFocus)
	return nil
}

func (w *Window) Present(frame *image.RGBA, recycle func(*image.RGBA)) {
	fyne.Do(func() { w.surface.setFrame(frame, recycle) })
}

func (w *Window) SetCursor(c cursor.Cursor) {
	w.surface.setCursor(c)
}

// Surface reports the display in logical units and the device pixel ratio. The
// physical size comes from the capture backend so it always matches the
// captured bitmap's display.
func (w *Window) Surface() (geometry.Size, float64, error) {
	bounds, err := screenshot.GetDisplayBounds(w.displayIndex)
	if err != nil {
		return geometry.Size{}, 0, err
	}
	if bounds.Empty() {
		return geometry.Size{}, 0, errors.New("display has no area")
	}
	var density float32
	fyne.DoAndWait(func() { density = w.win.Canvas().Scale() })
	display, ratio := logicalDisplay(bounds, density)
	w.surface.setDisplay(display)
	log.Printf("gui: display %v at density %.2f", display, ratio)
	return display, ratio, nil
}

func logicalDisplay(physical image.Rectangle, density float32) (geometry.Size, float64) {
	ratio := float64(density)
	if ratio <= 0 {
		ratio = 1
	}
	return geometry.Size{
		W: float64(physical.Dx()) / ratio,
		H: float64(physical.Dy()) / ratio,
	}, ratio
}
