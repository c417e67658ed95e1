package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WindowConfig holds the defaults for windows created by the CLI.
type WindowConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Title        string `yaml:"title,omitempty"`
	ARGB         bool   `yaml:"argb"`
	WindowEvents bool   `yaml:"window_events"`
	MouseEvents  bool   `yaml:"mouse_events"`
	KeyEvents    bool   `yaml:"key_events"`
	InputOnly    bool   `yaml:"input_only"`
}

// RenderConfig holds the image blit defaults.
type RenderConfig struct {
	Dither bool   `yaml:"dither"`
	Blend  bool   `yaml:"blend"`
	Scaler string `yaml:"scaler"`
}

// Config is the effective configuration.
type Config struct {
	Display  string       `yaml:"display,omitempty"`
	LogLevel string       `yaml:"log_level"`
	Window   WindowConfig `yaml:"window"`
	Render   RenderConfig `yaml:"render"`
	Engine   string       `yaml:"engine"`
	// CursorHideTimeout is in seconds; -1 never hides the cursor.
	CursorHideTimeout int `yaml:"cursor_hide_timeout"`
}

var scalerNames = []string{"nearest", "approx-bilinear", "bilinear", "catmull-rom"}

// ScalerNames lists the accepted render.scaler values.
func ScalerNames() []string {
	return append([]string(nil), scalerNames...)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Window: WindowConfig{
			Width:        640,
			Height:       480,
			Title:        "kaa-display",
			WindowEvents: true,
			MouseEvents:  true,
			KeyEvents:    true,
		},
		Render: RenderConfig{
			Dither: true,
			Scaler: "approx-bilinear",
		},
		Engine:            "software",
		CursorHideTimeout: -1,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.Window.InputOnly && c.Window.ARGB {
		return &ValidationError{Path: "window.input_only", Err: fmt.Errorf("input_only windows cannot use an ARGB visual")}
	}
	if !containsString(scalerNames, c.Render.Scaler) {
		return &ValidationError{Path: "render.scaler", Err: fmt.Errorf("scaler must be one of: %s", strings.Join(scalerNames, ", "))}
	}
	switch c.Engine {
	case "software", "gl":
	default:
		return &ValidationError{Path: "engine", Err: fmt.Errorf("engine must be one of: software, gl")}
	}
	if c.CursorHideTimeout < -1 {
		return &ValidationError{Path: "cursor_hide_timeout", Err: fmt.Errorf("cursor_hide_timeout must be >= -1")}
	}
	return nil
}

// SlogLevel converts LogLevel for a slog handler.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
