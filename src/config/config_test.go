package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"HOTKEY", "ENABLE_FILE_LOGGING", "MIN_SELECTION_SPAN", "MASK_OPACITY",
		"BORDER_COLOR", "BORDER_WIDTH", "SHOW_HINTS", "COMMIT_ON_RELEASE",
		"CAPTURE_DELAY_MS", "DISPLAY_INDEX", EnvPathEnvVar,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("MIN_SELECTION_SPAN", "8")
	t.Setenv("MASK_OPACITY", "0.7")
	t.Setenv("BORDER_COLOR", "#ff0000")
	t.Setenv("COMMIT_ON_RELEASE", "1")
	t.Setenv("CAPTURE_DELAY_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected Hotkey to be 'Ctrl+Shift+T', got '%s'", cfg.Hotkey)
	}
	if cfg.MinSelectionSpan != 8 {
		t.Errorf("Expected MinSelectionSpan 8, got %v", cfg.MinSelectionSpan)
	}
	if cfg.MaskOpacity != 0.7 {
		t.Errorf("Expected MaskOpacity 0.7, got %v", cfg.MaskOpacity)
	}
	if cfg.BorderColor != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Errorf("Expected red border, got %v", cfg.BorderColor)
	}
	if !cfg.CommitOnRelease {
		t.Errorf("Expected CommitOnRelease to be true")
	}
	if cfg.CaptureDelay != 250*time.Millisecond {
		t.Errorf("Expected 250ms capture delay, got %v", cfg.CaptureDelay)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: ""})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected default hotkey, got %q", cfg.Hotkey)
	}
	if cfg.MinSelectionSpan != 5 || cfg.MaskOpacity != 0.5 || cfg.BorderWidth != 2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.BorderColor != (color.RGBA{R: 0x16, G: 0x77, B: 0xff, A: 0xff}) {
		t.Errorf("unexpected default border color %v", cfg.BorderColor)
	}
	if !cfg.ShowHints || cfg.CommitOnRelease || cfg.DisplayIndex != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN_SELECTION_SPAN", "-3")
	t.Setenv("MASK_OPACITY", "7")
	t.Setenv("DISPLAY_INDEX", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.MinSelectionSpan != 5 {
		t.Errorf("Expected fallback span 5, got %v", cfg.MinSelectionSpan)
	}
	if cfg.MaskOpacity != 1 {
		t.Errorf("Expected opacity clamped to 1, got %v", cfg.MaskOpacity)
	}
	if cfg.DisplayIndex != 0 {
		t.Errorf("Expected display 0, got %d", cfg.DisplayIndex)
	}
}

func TestInvalidBorderColor(t *testing.T) {
	clearEnv(t)
	t.Setenv("BORDER_COLOR", "blue")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid BORDER_COLOR")
	}
}

func TestEnvFileOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "xshot.env")
	if err := os.WriteFile(path, []byte("HOTKEY=Ctrl+Alt+S\nBORDER_WIDTH=3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load never overrides variables that are already set, even empty.
	os.Unsetenv("HOTKEY")
	os.Unsetenv("BORDER_WIDTH")
	t.Cleanup(func() {
		os.Unsetenv("HOTKEY")
		os.Unsetenv("BORDER_WIDTH")
	})

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.BorderWidth != 3 {
		t.Errorf("Expected BorderWidth 3 from env file, got %v", cfg.BorderWidth)
	}
	if cfg.Hotkey != "Ctrl+Alt+S" {
		t.Errorf("Expected hotkey from env file, got %q", cfg.Hotkey)
	}
}

func TestHotkeyOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOTKEY", "Ctrl+Q")
	cfg, err := LoadWithOptions(LoadOptions{HotkeyOverride: "Alt+S"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hotkey != "Alt+S" {
		t.Errorf("Expected override hotkey, got %q", cfg.Hotkey)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#1677ff", color.RGBA{R: 0x16, G: 0x77, B: 0xff, A: 0xff}, true},
		{"fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, true},
		{"#00000080", color.RGBA{A: 0x80}, true},
		{"#12345", color.RGBA{}, false},
		{"#gggggg", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseHexColor(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
