package gui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"xshot/src/cursor"
	"xshot/src/geometry"
	"xshot/src/messages"
)

// surface shows the composited frame and turns pointer input into session
// messages in display coordinates.
type surface struct {
	widget.BaseWidget

	img     *canvas.Image
	recycle func(*image.RGBA)
	post    func(messages.Message)

	mu      sync.Mutex
	display geometry.Size
	cursor  desktop.Cursor
	pressed bool
}

var (
	_ desktop.Mouseable   = (*surface)(nil)
	_ desktop.Hoverable   = (*surface)(nil)
	_ desktop.Cursorable  = (*surface)(nil)
	_ fyne.Draggable      = (*surface)(nil)
	_ fyne.DoubleTappable = (*surface)(nil)
)

func newSurface(post func(messages.Message)) *surface {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels
	s := &surface{img: img, post: post, cursor: desktop.CrosshairCursor}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.img)
}

// setFrame must run on the fyne thread. The replaced frame goes back to its
// producer.
func (s *surface) setFrame(frame *image.RGBA, recycle func(*image.RGBA)) {
	prev, prevRecycle := s.img.Image, s.recycle
	s.img.Image = frame
	s.recycle = recycle
	s.img.Refresh()

	if old, ok := prev.(*image.RGBA); ok && old != frame && prevRecycle != nil {
		prevRecycle(old)
	}
}

func (s *surface) setDisplay(d geometry.Size) {
	s.mu.Lock()
	s.display = d
	s.mu.Unlock()
}

func (s *surface) setCursor(c cursor.Cursor) {
	s.mu.Lock()
	s.cursor = desktopCursor(c)
	s.mu.Unlock()
}

// Cursor implements desktop.Cursorable.
func (s *surface) Cursor() desktop.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// toDisplay maps a widget position into the display space reported to the
// session, which may differ from the widget size when the platform scales the
// window.
func (s *surface) toDisplay(pos fyne.Position) geometry.Point {
	s.mu.Lock()
	display := s.display
	s.mu.Unlock()
	return mapPosition(pos, s.Size(), display)
}

func mapPosition(pos fyne.Position, widgetSize fyne.Size, display geometry.Size) geometry.Point {
	p := geometry.Point{X: float64(pos.X), Y: float64(pos.Y)}
	if widgetSize.Width > 0 && display.W > 0 {
		p.X *= display.W / float64(widgetSize.Width)
	}
	if widgetSize.Height > 0 && display.H > 0 {
		p.Y *= display.H / float64(widgetSize.Height)
	}
	return p
}

func (s *surface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.pressed = true
	p := s.toDisplay(ev.Position)
	s.post(messages.PointerDown{X: p.X, Y: p.Y})
}

func (s *surface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !s.pressed {
		return
	}
	s.pressed = false
	p := s.toDisplay(ev.Position)
	s.post(messages.PointerUp{X: p.X, Y: p.Y})
}

func (s *surface) MouseIn(*desktop.MouseEvent) {}
func (s *surface) MouseOut()                   {}

func (s *surface) MouseMoved(ev *desktop.MouseEvent) {
	if !s.pressed {
		return
	}
	p := s.toDisplay(ev.Position)
	s.post(messages.PointerMove{X: p.X, Y: p.Y})
}

func (s *surface) Dragged(ev *fyne.DragEvent) {
	if !s.pressed {
		return
	}
	p := s.toDisplay(ev.Position)
	s.post(messages.PointerMove{X: p.X, Y: p.Y})
}

func (s *surface) DragEnd() {}

func (s *surface) DoubleTapped(ev *fyne.PointEvent) {
	p := s.toDisplay(ev.Position)
	s.post(messages.DoubleClick{X: p.X, Y: p.Y})
}

// typedKey is installed on the window canvas so keys arrive without focus.
func (s *surface) typedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyEscape:
		s.post(messages.KeyPressed{Key: messages.KeyEscape})
	case fyne.KeyReturn, fyne.KeyEnter:
		s.post(messages.KeyPressed{Key: messages.KeyEnter})
	}
}

// desktopCursor maps a tool cursor onto the standard cursors fyne exposes.
func desktopCursor(c cursor.Cursor) desktop.Cursor {
	switch c {
	case cursor.Crosshair:
		return desktop.CrosshairCursor
	case cursor.Pointer, cursor.Move:
		return desktop.PointerCursor
	case cursor.Text:
		return desktop.TextCursor
	case cursor.ResizeE, cursor.ResizeW:
		return desktop.HResizeCursor
	case cursor.ResizeN, cursor.ResizeS:
		return desktop.VResizeCursor
	default:
		return desktop.DefaultCursor
	}
}
