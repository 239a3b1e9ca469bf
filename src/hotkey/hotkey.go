package hotkey

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

var ErrInvalidHotkey = errors.New("invalid hotkey")

// Listen registers a global key combination such as "Alt+X" and invokes
// callback from the hook goroutine each time it is pressed. Keys are matched by
// Windows virtual-key rawcode on Windows and by libuiohook keycode elsewhere.
func Listen(hotkeyConfig string, callback func()) error {
	keys := parseHotkey(hotkeyConfig)
	log.Printf("Parsed hotkey configuration: %v", keys)

	m, err := newMatcher(keys, codesFor, runtime.GOOS == "windows")
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidHotkey, hotkeyConfig, err)
	}
	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			if m.feed(ev) {
				log.Printf("Hotkey activated: %s", hotkeyConfig)
				if callback != nil {
					callback()
				}
			}
		}
		log.Printf("Event channel closed")
	}()
	return nil
}

// Stop ends the global hook started by Listen.
func Stop() { gohook.End() }

type keyState struct {
	name    string
	codes   []uint16
	pressed bool
}

// matcher tracks which keys of one combination are currently held.
type matcher struct {
	mu         sync.Mutex
	keys       []keyState
	useRawcode bool
}

func newMatcher(keys []string, lookup func(string) []uint16, useRawcode bool) (*matcher, error) {
	m := &matcher{useRawcode: useRawcode}
	for _, name := range keys {
		codes := lookup(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("cannot map key %q", name)
		}
		m.keys = append(m.keys, keyState{name: name, codes: codes})
	}
	if len(m.keys) == 0 {
		return nil, errors.New("no keys")
	}
	return m, nil
}

// feed updates key state from one hook event and reports whether the whole
// combination just became pressed. States reset after a match so holding the
// keys fires once.
func (m *matcher) feed(ev gohook.Event) bool {
	if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
		return false
	}
	code := ev.Keycode
	if m.useRawcode {
		code = ev.Rawcode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.keys {
		if !containsCode(m.keys[i].codes, code) {
			continue
		}
		m.keys[i].pressed = ev.Kind == gohook.KeyDown
	}
	if ev.Kind == gohook.KeyUp {
		return false
	}
	for i := range m.keys {
		if !m.keys[i].pressed {
			return false
		}
	}
	for i := range m.keys {
		m.keys[i].pressed = false
	}
	return true
}

func containsCode(codes []uint16, c uint16) bool {
	for _, v := range codes {
		if v == c {
			return true
		}
	}
	return false
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "option":
			keys = append(keys, "alt")
		case "win", "cmd", "super", "meta":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

func codesFor(keyName string) []uint16 {
	if runtime.GOOS == "windows" {
		return keyNameToRawcodes(keyName)
	}
	return keyNameToKeycodes(keyName)
}

// keyNameToKeycodes maps a key name to libuiohook keycodes, including the
// right-hand variant of modifiers.
func keyNameToKeycodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	names := []string{keyName}
	switch keyName {
	case "ctrl", "alt", "shift", "cmd":
		names = append(names, "r"+keyName)
	case "escape":
		names = []string{"esc"}
	case "return":
		names = []string{"enter"}
	}
	var codes []uint16
	for _, n := range names {
		if c, ok := gohook.Keycode[n]; ok {
			codes = append(codes, c)
		}
	}
	return codes
}

var specialRawcodes = map[string][]uint16{
	"ctrl":        {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":         {164, 165}, // VK_LMENU, VK_RMENU
	"shift":       {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":         {91, 92},   // VK_LWIN, VK_RWIN
	"space":       {32},
	"enter":       {13},
	"return":      {13},
	"esc":         {27},
	"escape":      {27},
	"tab":         {9},
	"backspace":   {8},
	"delete":      {46},
	"del":         {46},
	"insert":      {45},
	"ins":         {45},
	"home":        {36},
	"end":         {35},
	"pageup":      {33}, // VK_PRIOR
	"pgup":        {33},
	"pagedown":    {34}, // VK_NEXT
	"pgdn":        {34},
	"left":        {37},
	"up":          {38},
	"right":       {39},
	"down":        {40},
	"printscreen": {44}, // VK_SNAPSHOT
	"prtsc":       {44},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes
// Returns a slice of rawcodes (e.g., both left and right variants for modifiers)
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := specialRawcodes[keyName]; ok {
		return codes
	}

	// Letters and digits share their ASCII uppercase code (0x41-0x5A, 0x30-0x39).
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 'A')}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c)}
		}
	}

	// F1-F24 are VK_F1 (112) onwards.
	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 24 && keyName == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(111 + n)}
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
