// Package cursor maps the active tool to the pointer cursor shown over the
// capture surface.
package cursor

import "log"

// Cursor identifies a pointer shape. Values are CSS-style names so any backend
// can map them onto its own set.
type Cursor string

const (
	Default    Cursor = "default"
	Crosshair  Cursor = "crosshair"
	Pointer    Cursor = "pointer"
	Move       Cursor = "move"
	Text       Cursor = "text"
	Wait       Cursor = "wait"
	NotAllowed Cursor = "not-allowed"

	ResizeN  Cursor = "n-resize"
	ResizeS  Cursor = "s-resize"
	ResizeE  Cursor = "e-resize"
	ResizeW  Cursor = "w-resize"
	ResizeNE Cursor = "ne-resize"
	ResizeNW Cursor = "nw-resize"
	ResizeSE Cursor = "se-resize"
	ResizeSW Cursor = "sw-resize"
)

// Tool identifies what a pointer drag does.
type Tool string

const (
	Select    Tool = "select"
	Selection Tool = "selection"
	Pen       Tool = "pen"
	Brush     Tool = "brush"
	Eraser    Tool = "eraser"
	Arrow     Tool = "arrow"
	Rectangle Tool = "rectangle"
	Circle    Tool = "circle"
	Line      Tool = "line"
	TextTool  Tool = "text"
	MoveTool  Tool = "move"
)

// Drawing tools share the crosshair until dedicated cursors exist.
var toolCursors = map[Tool]Cursor{
	Select:    Default,
	Selection: Crosshair,
	Pen:       Crosshair,
	Brush:     Crosshair,
	Eraser:    Crosshair,
	Arrow:     Crosshair,
	Rectangle: Crosshair,
	Circle:    Crosshair,
	Line:      Crosshair,
	TextTool:  Text,
	MoveTool:  Move,
}

// ForTool returns the cursor for a tool, Default for unknown tools.
func ForTool(t Tool) Cursor {
	if c, ok := toolCursors[t]; ok {
		return c
	}
	return Default
}

// ApplyFunc pushes a cursor to the rendering surface.
type ApplyFunc func(Cursor)

// Manager tracks the current tool and cursor. It is advisory only and never
// affects selection or export results.
type Manager struct {
	apply  ApplyFunc
	tool   Tool
	cursor Cursor
}

// NewManager starts with the selection tool active.
func NewManager(apply ApplyFunc) *Manager {
	m := &Manager{apply: apply, tool: Selection, cursor: Crosshair}
	return m
}

// SetTool switches tool and applies its cursor.
func (m *Manager) SetTool(t Tool) {
	if _, ok := toolCursors[t]; !ok {
		log.Printf("cursor: unknown tool %q, using default cursor", t)
	}
	m.tool = t
	m.SetCursor(ForTool(t))
}

func (m *Manager) Tool() Tool { return m.tool }

// SetCursor applies c and records it as current.
func (m *Manager) SetCursor(c Cursor) {
	m.cursor = c
	if m.apply != nil {
		m.apply(c)
	}
}

func (m *Manager) Cursor() Cursor { return m.cursor }

// ResetToToolCursor re-applies the cursor of the active tool.
func (m *Manager) ResetToToolCursor() {
	m.SetCursor(ForTool(m.tool))
}

// SetTemporaryCursor shows c without changing the recorded cursor, e.g. while
// hovering.
func (m *Manager) SetTemporaryCursor(c Cursor) {
	if m.apply != nil {
		m.apply(c)
	}
}
