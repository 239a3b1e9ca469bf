package runtimeinit

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"xshot/src/clipboard"
	"xshot/src/compositor"
	"xshot/src/config"
	"xshot/src/logutil"
	"xshot/src/screenshot"
	"xshot/src/session"
)

type Options struct {
	LoadOptions config.LoadOptions
	// LogToStderr mirrors logs to stderr, for CLI tools.
	LogToStderr bool
	// SkipClipboard leaves the clipboard uninitialized, for runs that never copy.
	SkipClipboard bool
}

// Runtime is what every entry point needs after startup.
type Runtime struct {
	Config *config.Config
	Log    io.Closer
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closer := logutil.Setup(logutil.Options{
		FileLogging: cfg.EnableFileLogging,
		Dir:         logDir(),
		Stderr:      opts.LogToStderr,
	})
	log.Printf("config: hotkey=%s span=%.0f mask=%.2f border=%.0f commitOnRelease=%v display=%d",
		cfg.Hotkey, cfg.MinSelectionSpan, cfg.MaskOpacity, cfg.BorderWidth, cfg.CommitOnRelease, cfg.DisplayIndex)

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return &Runtime{Config: cfg, Log: closer}, nil
}

// CompositorOptions maps the rendering settings of cfg.
func CompositorOptions(cfg *config.Config) compositor.Options {
	return compositor.Options{
		MaskColor:   compositor.MaskColorFromOpacity(cfg.MaskOpacity),
		BorderColor: cfg.BorderColor,
		BorderWidth: cfg.BorderWidth,
		Hints:       cfg.ShowHints,
	}
}

// SessionOptions returns the machine options derived from cfg. Window,
// Dispatcher and Notifier are left for the caller.
func SessionOptions(cfg *config.Config) session.Options {
	return session.Options{
		Capturer:         screenshot.Capturer{Display: cfg.DisplayIndex, Delay: cfg.CaptureDelay},
		Decode:           screenshot.Decode,
		Clipboard:        clipboard.Writer{},
		Compositor:       CompositorOptions(cfg),
		MinSelectionSpan: cfg.MinSelectionSpan,
		CommitOnRelease:  cfg.CommitOnRelease,
	}
}

// logDir places the log beside the executable, falling back to the working
// directory.
func logDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
