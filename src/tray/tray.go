package tray

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const Title = "xshot"

// Setup installs the tray menu. onCapture runs on the fyne thread and must
// not block. fyne appends its own Quit item. It reports false when the
// platform has no system tray.
func Setup(app fyne.App, hotkey string, port int, onCapture func()) bool {
	desk, ok := app.(desktop.App)
	if !ok {
		log.Printf("tray: system tray not supported")
		return false
	}

	capture := fyne.NewMenuItem(captureLabel(hotkey), onCapture)
	about := fyne.NewMenuItem(aboutLabel(port), nil)
	about.Disabled = true

	desk.SetSystemTrayMenu(fyne.NewMenu(Title, capture, fyne.NewMenuItemSeparator(), about))
	desk.SetSystemTrayIcon(Icon)
	return true
}

func captureLabel(hotkey string) string {
	if hotkey == "" {
		return "Capture"
	}
	return fmt.Sprintf("Capture (%s)", hotkey)
}

func aboutLabel(port int) string {
	if port <= 0 {
		return Title
	}
	return fmt.Sprintf("%s - resident TCP port %d", Title, port)
}
