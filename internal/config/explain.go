package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	display
//	log_level
//	engine
//	cursor_hide_timeout
//	window.<width|height|title|argb|window_events|mouse_events|key_events|input_only>
//	render.<dither|blend|scaler>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "display", "log_level", "engine", "cursor_hide_timeout":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
	case "window", "render":
		if len(parts) != 2 {
			return nil, fmt.Errorf("path %q must name a %s field", path, parts[0])
		}
	default:
		return nil, fmt.Errorf("unknown path %q", path)
	}

	switch path {
	case "display":
		return cfg.Display, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "engine":
		return cfg.Engine, nil
	case "cursor_hide_timeout":
		return cfg.CursorHideTimeout, nil
	case "window.width":
		return cfg.Window.Width, nil
	case "window.height":
		return cfg.Window.Height, nil
	case "window.title":
		return cfg.Window.Title, nil
	case "window.argb":
		return cfg.Window.ARGB, nil
	case "window.window_events":
		return cfg.Window.WindowEvents, nil
	case "window.mouse_events":
		return cfg.Window.MouseEvents, nil
	case "window.key_events":
		return cfg.Window.KeyEvents, nil
	case "window.input_only":
		return cfg.Window.InputOnly, nil
	case "render.dither":
		return cfg.Render.Dither, nil
	case "render.blend":
		return cfg.Render.Blend, nil
	case "render.scaler":
		return cfg.Render.Scaler, nil
	}
	return nil, fmt.Errorf("unknown path %q", path)
}
