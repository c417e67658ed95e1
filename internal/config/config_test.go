package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.CursorHideTimeout != -1 {
		t.Fatalf("expected cursor_hide_timeout -1, got %d", cfg.CursorHideTimeout)
	}
	if !cfg.Render.Dither || cfg.Render.Blend {
		t.Fatalf("expected dither on and blend off, got %+v", cfg.Render)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Width != 640 || res.Config.Engine != "software" {
		t.Fatalf("expected defaults, got %+v", res.Config)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_PartialBlocksKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		`display: ":1"`,
		"log_level: WARNING",
		"window:",
		"  width: 1024",
		"  mouse_events: false",
		"render:",
		"  scaler: CatMull-Rom",
		"engine: gl",
		"cursor_hide_timeout: 3",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Display != ":1" || cfg.LogLevel != "warn" || cfg.Engine != "gl" || cfg.CursorHideTimeout != 3 {
		t.Fatalf("unexpected top-level values: %+v", cfg)
	}
	if cfg.Window.Width != 1024 || cfg.Window.Height != 480 {
		t.Fatalf("expected 1024x480, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.MouseEvents || !cfg.Window.KeyEvents {
		t.Fatalf("unexpected event flags: %+v", cfg.Window)
	}
	if cfg.Render.Scaler != "catmull-rom" || !cfg.Render.Dither {
		t.Fatalf("unexpected render block: %+v", cfg.Render)
	}

	val, src, err := Explain(res, "window.width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 1024 || src.Kind != SourceFile || src.Line != 4 {
		t.Fatalf("explain window.width = %v from %+v", val, src)
	}
	_, src, err = Explain(res, "window.height")
	if err != nil || src.Kind != SourceDefault {
		t.Fatalf("explain window.height source = %+v, %v", src, err)
	}
	if _, _, err := Explain(res, "window"); err == nil {
		t.Fatalf("expected error explaining a block")
	}
}

func TestLoadFromPath_UnknownKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  colour: red\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: info\nengine: vulkan\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "engine" || verr.Source.Line != 2 {
		t.Fatalf("unexpected error context: %+v", verr)
	}
	if !strings.Contains(err.Error(), path) && !strings.Contains(err.Error(), "config.yaml:2:") {
		t.Fatalf("expected file position in %q", err.Error())
	}
}

func TestLoadFromPath_Includes(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "config.yaml")
	writeFile(t, filepath.Join(dir, "conf.d", "10-window.yaml"), "window:\n  width: 800\n  height: 600\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-render.yml"), "render:\n  blend: true\n")
	writeFile(t, filepath.Join(dir, "conf.d", "notes.txt"), "ignored")
	writeFile(t, mainPath, "include: conf.d\nwindow:\n  height: 700\n")

	res, err := LoadFromPath(mainPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Width != 800 || res.Config.Window.Height != 700 {
		t.Fatalf("expected 800x700, got %dx%d", res.Config.Window.Width, res.Config.Window.Height)
	}
	if !res.Config.Render.Blend {
		t.Fatalf("expected blend from include")
	}
	if len(res.Files) != 3 || filepath.Base(res.Files[2]) != "config.yaml" {
		t.Fatalf("expected includes before the main file, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"height", func(c *Config) { c.Window.Height = -5 }, "window.height"},
		{"argb input only", func(c *Config) { c.Window.ARGB, c.Window.InputOnly = true, true }, "window.input_only"},
		{"scaler", func(c *Config) { c.Render.Scaler = "lanczos" }, "render.scaler"},
		{"engine", func(c *Config) { c.Engine = "" }, "engine"},
		{"cursor timeout", func(c *Config) { c.CursorHideTimeout = -2 }, "cursor_hide_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("expected ValidationError at %s, got %v", tt.path, err)
			}
		})
	}
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Window.Title = "slides"
	cfg.CursorHideTimeout = 5
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Title != "slides" || res.Config.CursorHideTimeout != 5 {
		t.Fatalf("unexpected config after reload: %+v", res.Config)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != "/tmp/xdg/kaa-display/config.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}
