package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHotkey      = "Alt+X"
	DefaultBorderColor = "#1677ff"
	EnvPathEnvVar      = "XSHOT_ENV"
)

type LoadOptions struct {
	EnvPathOverride string
	HotkeyOverride  string
}

type Config struct {
	Hotkey            string
	EnableFileLogging bool

	// Selection and rendering, in display pixels unless noted.
	MinSelectionSpan float64
	MaskOpacity      float64
	BorderColor      color.RGBA
	BorderWidth      float64
	ShowHints        bool
	CommitOnRelease  bool

	CaptureDelay time.Duration
	DisplayIndex int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) explicit override path
	// 2) .env in the application (executable) directory
	// 3) If not found, use XSHOT_ENV env var as a path to a config file
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	borderColor, err := ParseHexColor(getEnvWithDefault("BORDER_COLOR", DefaultBorderColor))
	if err != nil {
		return nil, fmt.Errorf("BORDER_COLOR: %w", err)
	}

	hotkey := getEnvWithDefault("HOTKEY", DefaultHotkey)
	if override := strings.TrimSpace(opts.HotkeyOverride); override != "" {
		hotkey = override
	}

	cfg := &Config{
		Hotkey:            hotkey,
		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
		MinSelectionSpan:  getEnvFloat("MIN_SELECTION_SPAN", 5, 0),
		MaskOpacity:       clamp(getEnvFloat("MASK_OPACITY", 0.5, -1), 0, 1),
		BorderColor:       borderColor,
		BorderWidth:       getEnvFloat("BORDER_WIDTH", 2, -1),
		ShowHints:         getEnvBool("SHOW_HINTS", true),
		CommitOnRelease:   getEnvBool("COMMIT_ON_RELEASE", false),
		CaptureDelay:      time.Duration(getEnvInt("CAPTURE_DELAY_MS", 0, -1)) * time.Millisecond,
		DisplayIndex:      getEnvInt("DISPLAY_INDEX", 0, -1),
	}

	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.EnvPathOverride); p != "" {
		return p
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa into an opaque-by-default
// color. The leading # is optional.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvFloat returns defaultValue when the variable is unset, unparsable or
// not greater than floor.
func getEnvFloat(key string, defaultValue, floor float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && n > floor {
			return n
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue, floor int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > floor {
			return n
		}
	}
	return defaultValue
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
