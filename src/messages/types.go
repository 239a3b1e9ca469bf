package messages

import (
	"image"

	"xshot/src/export"
)

// Message is the base interface for everything delivered to the event loop.
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeHotkeyPressed   = "HotkeyPressed"
	TypePointerDown     = "PointerDown"
	TypePointerMove     = "PointerMove"
	TypePointerUp       = "PointerUp"
	TypeDoubleClick     = "DoubleClick"
	TypeKeyPressed      = "KeyPressed"
	TypeCaptureComplete = "CaptureComplete"
	TypeExportComplete  = "ExportComplete"
)

// Trigger sources for HotkeyPressed.
const (
	SourceHotkey = "hotkey"
	SourceTray   = "tray"
	SourceRemote = "remote"
	SourceCLI    = "cli"
)

// Key names carried by KeyPressed.
const (
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
)

// HotkeyPressed - a capture was requested. It carries no payload beyond where
// the request came from.
type HotkeyPressed struct {
	Source string
}

func (m HotkeyPressed) Type() string { return TypeHotkeyPressed }

// PointerDown - primary button pressed at X,Y in display coordinates
type PointerDown struct {
	X, Y float64
}

func (m PointerDown) Type() string { return TypePointerDown }

// PointerMove - pointer moved to X,Y in display coordinates
type PointerMove struct {
	X, Y float64
}

func (m PointerMove) Type() string { return TypePointerMove }

// PointerUp - primary button released at X,Y in display coordinates
type PointerUp struct {
	X, Y float64
}

func (m PointerUp) Type() string { return TypePointerUp }

// DoubleClick - double click at X,Y in display coordinates
type DoubleClick struct {
	X, Y float64
}

func (m DoubleClick) Type() string { return TypeDoubleClick }

// KeyPressed - a key relevant to the capture surface (KeyEscape, KeyEnter)
type KeyPressed struct {
	Key string
}

func (m KeyPressed) Type() string { return TypeKeyPressed }

// CaptureComplete - native capture and decode finished for a session generation
type CaptureComplete struct {
	Generation uint64
	Image      image.Image
	Err        error
}

func (m CaptureComplete) Type() string { return TypeCaptureComplete }

// ExportComplete - offscreen render and clipboard write finished
type ExportComplete struct {
	Generation uint64
	Buffer     export.PixelBuffer
	Err        error
}

func (m ExportComplete) Type() string { return TypeExportComplete }
