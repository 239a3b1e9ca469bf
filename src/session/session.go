// Package session is the capture session state machine. It owns the layers of
// one hotkey-to-clipboard lifecycle and is driven exclusively by the event loop
// goroutine through Handle.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"xshot/src/compositor"
	"xshot/src/cursor"
	"xshot/src/export"
	"xshot/src/geometry"
	"xshot/src/messages"
	"xshot/src/selection"
)

var (
	ErrCaptureFailed = errors.New("capture failed")
	ErrStaleEvent    = errors.New("stale event")
	ErrBusy          = errors.New("capture session already active")
	ErrCancelled     = errors.New("capture cancelled")
)

type State int

const (
	Idle State = iota
	Capturing
	Loaded
	Selecting
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Capturing:
		return "Capturing"
	case Loaded:
		return "Loaded"
	case Selecting:
		return "Selecting"
	case Committing:
		return "Committing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Window is the capture window. Hide, Show and SetFocus return only once the
// platform has applied them.
type Window interface {
	Hide(ctx context.Context) error
	Show(ctx context.Context) error
	SetFocus(ctx context.Context) error
	// Present replaces the displayed frame. The caller does not write to frame
	// until it comes back through recycle, which the window calls once frame is
	// no longer displayed.
	Present(frame *image.RGBA, recycle func(*image.RGBA))
	SetCursor(c cursor.Cursor)
	// Surface reports the logical size of the rendering surface and its device
	// pixel ratio.
	Surface() (geometry.Size, float64, error)
}

// Capturer returns the current display as an encoded still image.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// DecodeFunc turns the captured bytes into a bitmap.
type DecodeFunc func(data []byte) (*image.RGBA, error)

// Dispatcher runs a blocking job away from the event loop and delivers the
// message it returns back to the loop. It reports false when the job could not
// be queued.
type Dispatcher interface {
	Dispatch(ctx context.Context, job func(ctx context.Context) messages.Message) bool
}

// Notifier shows a short non-blocking message to the user.
type Notifier interface {
	Notify(title, body string)
}

type Options struct {
	Window     Window
	Capturer   Capturer
	Decode     DecodeFunc
	Clipboard  export.ClipboardWriter
	Dispatcher Dispatcher
	Notifier   Notifier

	Compositor       compositor.Options
	MinSelectionSpan float64
	// CommitOnRelease commits as soon as a qualifying drag ends instead of
	// waiting for double-click or Enter.
	CommitOnRelease bool
}

// CaptureSession is the state of the current lifecycle. Source is non-nil only
// in Loaded, Selecting and Committing, and then Scale equals
// Display.W / Source width.
type CaptureSession struct {
	State   State
	Source  image.Image
	Display geometry.Size
	Scale   float64

	layers *compositor.Compositor
	sel    *selection.Controller
}

type Machine struct {
	opts       Options
	cur        CaptureSession
	generation uint64
	cursor     *cursor.Manager
	onIdle     func(err error)
}

// New validates the collaborators and returns an Idle machine.
func New(opts Options) (*Machine, error) {
	if opts.Window == nil {
		return nil, errors.New("Window is required")
	}
	if opts.Capturer == nil {
		return nil, errors.New("Capturer is required")
	}
	if opts.Decode == nil {
		return nil, errors.New("Decode is required")
	}
	if opts.Clipboard == nil {
		return nil, errors.New("Clipboard is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("Dispatcher is required")
	}
	if opts.MinSelectionSpan <= 0 {
		opts.MinSelectionSpan = geometry.MinSelectionSpan
	}
	return &Machine{
		opts:   opts,
		cursor: cursor.NewManager(opts.Window.SetCursor),
	}, nil
}

// OnIdle registers a hook run every time a session returns to Idle. err is nil
// only when the selection reached the clipboard.
func (m *Machine) OnIdle(fn func(err error)) { m.onIdle = fn }

func (m *Machine) State() State { return m.cur.State }

// Session returns a copy of the current session fields.
func (m *Machine) Session() CaptureSession {
	s := m.cur
	s.layers = nil
	s.sel = nil
	return s
}

// Selection returns the live display-space rectangle and whether it qualifies.
func (m *Machine) Selection() (geometry.Rect, bool) {
	if m.cur.sel == nil {
		return geometry.Rect{}, false
	}
	return m.cur.sel.Rect(), m.cur.sel.Qualifying()
}

func (m *Machine) Cursor() *cursor.Manager { return m.cursor }

// Generation identifies the current session; results tagged with an older
// generation are discarded.
func (m *Machine) Generation() uint64 { return m.generation }

// Handle is the transition function. Returned errors are informational; the
// machine is always left in a consistent state.
func (m *Machine) Handle(ctx context.Context, msg messages.Message) error {
	switch ev := msg.(type) {
	case messages.HotkeyPressed:
		return m.trigger(ctx, ev.Source)
	case messages.CaptureComplete:
		return m.captureComplete(ctx, ev)
	case messages.PointerDown:
		m.pointerDown(geometry.Point{X: ev.X, Y: ev.Y})
	case messages.PointerMove:
		m.pointerMove(geometry.Point{X: ev.X, Y: ev.Y})
	case messages.PointerUp:
		return m.pointerUp(ctx, geometry.Point{X: ev.X, Y: ev.Y})
	case messages.DoubleClick:
		return m.commit(ctx)
	case messages.KeyPressed:
		switch ev.Key {
		case messages.KeyEscape:
			m.cancel(ctx)
		case messages.KeyEnter:
			return m.commit(ctx)
		}
	case messages.ExportComplete:
		return m.exportComplete(ctx, ev)
	default:
		log.Printf("session: ignoring message %s", msg.Type())
	}
	return nil
}

func (m *Machine) setState(s State) {
	if m.cur.State != s {
		log.Printf("session: %s -> %s", m.cur.State, s)
	}
	m.cur.State = s
}

func (m *Machine) trigger(ctx context.Context, source string) error {
	if m.cur.State != Idle {
		log.Printf("session: %s trigger ignored in state %s", source, m.cur.State)
		return ErrBusy
	}
	m.generation++
	gen := m.generation
	m.setState(Capturing)

	// The window must be gone before the capture or it would capture itself.
	if err := m.opts.Window.Hide(ctx); err != nil {
		err = fmt.Errorf("%w: hide window: %w", ErrCaptureFailed, err)
		m.abort(err)
		return err
	}

	ok := m.opts.Dispatcher.Dispatch(ctx, captureJob(gen, m.opts.Capturer, m.opts.Decode))
	if !ok {
		err := fmt.Errorf("%w: capture worker busy", ErrCaptureFailed)
		m.abort(err)
		return err
	}
	return nil
}

// captureJob captures and decodes off the loop. A panic in the platform code is
// reported as a failed capture of the same generation so the session can still
// return to Idle.
func captureJob(gen uint64, capturer Capturer, decode DecodeFunc) func(context.Context) messages.Message {
	return func(ctx context.Context) (msg messages.Message) {
		defer func() {
			if p := recover(); p != nil {
				msg = messages.CaptureComplete{Generation: gen, Err: fmt.Errorf("panic: %v", p)}
			}
		}()
		data, err := capturer.Capture(ctx)
		if err != nil {
			return messages.CaptureComplete{Generation: gen, Err: err}
		}
		img, err := decode(data)
		if err != nil {
			return messages.CaptureComplete{Generation: gen, Err: err}
		}
		return messages.CaptureComplete{Generation: gen, Image: img}
	}
}

func (m *Machine) captureComplete(ctx context.Context, ev messages.CaptureComplete) error {
	if ev.Generation != m.generation || m.cur.State != Capturing {
		log.Printf("session: discarding capture result of generation %d (current %d, state %s)", ev.Generation, m.generation, m.cur.State)
		return ErrStaleEvent
	}
	if ev.Err != nil || ev.Image == nil {
		err := ev.Err
		if err == nil {
			err = errors.New("no image")
		}
		log.Printf("session: capture failed: %v", err)
		err = fmt.Errorf("%w: %w", ErrCaptureFailed, err)
		m.abort(err)
		return err
	}

	display, density, err := m.opts.Window.Surface()
	if err != nil {
		err = fmt.Errorf("%w: surface: %w", ErrCaptureFailed, err)
		m.abort(err)
		return err
	}
	layers, err := compositor.New(display, density, ev.Image, m.opts.Compositor)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCaptureFailed, err)
		m.abort(err)
		return err
	}

	m.cur = CaptureSession{
		State:   Capturing,
		Source:  ev.Image,
		Display: display,
		Scale:   layers.Scale(),
		layers:  layers,
		sel:     selection.New(m.opts.MinSelectionSpan),
	}
	m.setState(Loaded)
	m.cursor.SetTool(cursor.Selection)

	// Show only after background and mask are attached and a frame exists.
	m.render()
	if err := m.opts.Window.Show(ctx); err != nil {
		err = fmt.Errorf("%w: show window: %w", ErrCaptureFailed, err)
		m.reset(ctx, err)
		return err
	}
	if err := m.opts.Window.SetFocus(ctx); err != nil {
		log.Printf("session: focus failed: %v", err)
	}
	return nil
}

func (m *Machine) pointerDown(p geometry.Point) {
	if m.cur.State != Loaded && m.cur.State != Selecting {
		return
	}
	if !m.cur.sel.PointerDown(p) {
		return
	}
	m.syncSelection()
	m.cursor.SetTool(cursor.Selection)
	m.setState(Selecting)
	m.render()
}

func (m *Machine) pointerMove(p geometry.Point) {
	if m.cur.State != Selecting {
		return
	}
	if _, ok := m.cur.sel.PointerMove(p); !ok {
		return
	}
	m.syncSelection()
	m.render()
}

func (m *Machine) pointerUp(ctx context.Context, p geometry.Point) error {
	if m.cur.State != Selecting || !m.cur.sel.Dragging() {
		return nil
	}
	qualifies := m.cur.sel.PointerUp(p)
	m.syncSelection()
	m.render()
	if !qualifies {
		return nil
	}
	m.cursor.SetTool(cursor.Select)
	if m.opts.CommitOnRelease {
		return m.commit(ctx)
	}
	return nil
}

func (m *Machine) commit(ctx context.Context) error {
	if m.cur.State != Selecting {
		return nil
	}
	rect, err := m.cur.sel.Commit()
	if err != nil {
		return err
	}
	m.setState(Committing)
	m.cursor.SetTemporaryCursor(cursor.Wait)

	gen := m.generation
	ok := m.opts.Dispatcher.Dispatch(ctx, exportJob(gen, m.cur.layers, rect, m.opts.Clipboard))
	if !ok {
		return m.exportComplete(ctx, messages.ExportComplete{
			Generation: gen,
			Err:        fmt.Errorf("%w: export worker busy", export.ErrExportFailed),
		})
	}
	return nil
}

func exportJob(gen uint64, r export.Renderer, rect geometry.Rect, w export.ClipboardWriter) func(context.Context) messages.Message {
	return func(ctx context.Context) (msg messages.Message) {
		defer func() {
			if p := recover(); p != nil {
				msg = messages.ExportComplete{Generation: gen, Err: fmt.Errorf("%w: panic: %v", export.ErrExportFailed, p)}
			}
		}()
		buf, err := export.Run(ctx, r, rect, w)
		return messages.ExportComplete{Generation: gen, Buffer: buf, Err: err}
	}
}

func (m *Machine) exportComplete(ctx context.Context, ev messages.ExportComplete) error {
	if ev.Generation != m.generation || m.cur.State != Committing {
		log.Printf("session: discarding export result of generation %d (current %d, state %s)", ev.Generation, m.generation, m.cur.State)
		return ErrStaleEvent
	}
	m.reset(ctx, ev.Err)
	if ev.Err != nil {
		log.Printf("session: export failed: %v", ev.Err)
		if m.opts.Notifier != nil {
			m.opts.Notifier.Notify("xshot", "Clipboard error")
		}
		return ev.Err
	}
	log.Printf("session: copied %dx%d pixels to clipboard", ev.Buffer.Width, ev.Buffer.Height)
	return nil
}

// cancel handles Escape. An export already in flight is allowed to finish.
func (m *Machine) cancel(ctx context.Context) {
	switch m.cur.State {
	case Idle:
		return
	case Committing:
		log.Printf("session: escape ignored while committing")
		return
	}
	log.Printf("session: cancelled in state %s", m.cur.State)
	m.reset(ctx, ErrCancelled)
}

// reset releases every session resource, hides the window and returns to Idle
// with the session outcome. Bumping the generation invalidates any job still in
// flight.
func (m *Machine) reset(ctx context.Context, outcome error) {
	m.release()
	if err := m.opts.Window.Hide(ctx); err != nil {
		log.Printf("session: hide failed: %v", err)
	}
	m.idle(outcome)
}

// abort returns to Idle without touching the window, which is still hidden.
func (m *Machine) abort(outcome error) {
	m.release()
	m.idle(outcome)
}

func (m *Machine) release() {
	m.generation++
	if m.cur.layers != nil {
		m.cur.layers.Release()
	}
	m.cur = CaptureSession{State: m.cur.State}
}

func (m *Machine) idle(outcome error) {
	m.setState(Idle)
	if m.onIdle != nil {
		m.onIdle(outcome)
	}
}

// syncSelection copies the controller's rectangle and visibility onto the
// selection layer.
func (m *Machine) syncSelection() {
	if m.cur.sel.Visible() {
		m.cur.layers.ShowSelection(m.cur.sel.Rect())
		return
	}
	m.cur.layers.HideSelection()
}

func (m *Machine) render() {
	if m.cur.layers == nil {
		return
	}
	m.opts.Window.Present(m.cur.layers.Render(), m.cur.layers.Recycle)
}
