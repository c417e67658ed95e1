package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.LogLevel != nil {
		level := strings.ToLower(strings.TrimSpace(*raw.LogLevel))
		if level == "warning" {
			level = "warn"
		}
		cfg.LogLevel = level
	}
	if w := raw.Window; w != nil {
		cfg.Window.Width = derefInt(w.Width, cfg.Window.Width)
		cfg.Window.Height = derefInt(w.Height, cfg.Window.Height)
		if w.Title != nil {
			cfg.Window.Title = *w.Title
		}
		cfg.Window.ARGB = derefBool(w.ARGB, cfg.Window.ARGB)
		cfg.Window.WindowEvents = derefBool(w.WindowEvents, cfg.Window.WindowEvents)
		cfg.Window.MouseEvents = derefBool(w.MouseEvents, cfg.Window.MouseEvents)
		cfg.Window.KeyEvents = derefBool(w.KeyEvents, cfg.Window.KeyEvents)
		cfg.Window.InputOnly = derefBool(w.InputOnly, cfg.Window.InputOnly)
	}
	if r := raw.Render; r != nil {
		cfg.Render.Dither = derefBool(r.Dither, cfg.Render.Dither)
		cfg.Render.Blend = derefBool(r.Blend, cfg.Render.Blend)
		if r.Scaler != nil {
			cfg.Render.Scaler = strings.ToLower(strings.TrimSpace(*r.Scaler))
		}
	}
	if raw.Engine != nil {
		cfg.Engine = strings.ToLower(strings.TrimSpace(*raw.Engine))
	}
	cfg.CursorHideTimeout = derefInt(raw.CursorHideTimeout, cfg.CursorHideTimeout)

	return cfg
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
