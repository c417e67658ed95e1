package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWindowConfig struct {
	Width        *int    `yaml:"width"`
	Height       *int    `yaml:"height"`
	Title        *string `yaml:"title"`
	ARGB         *bool   `yaml:"argb"`
	WindowEvents *bool   `yaml:"window_events"`
	MouseEvents  *bool   `yaml:"mouse_events"`
	KeyEvents    *bool   `yaml:"key_events"`
	InputOnly    *bool   `yaml:"input_only"`
}

type RawRenderConfig struct {
	Dither *bool   `yaml:"dither"`
	Blend  *bool   `yaml:"blend"`
	Scaler *string `yaml:"scaler"`
}

// RawConfig is one YAML file as written: unset keys stay nil so that
// later files only override what they mention.
type RawConfig struct {
	Include           IncludeList      `yaml:"include"`
	Display           *string          `yaml:"display"`
	LogLevel          *string          `yaml:"log_level"`
	Window            *RawWindowConfig `yaml:"window"`
	Render            *RawRenderConfig `yaml:"render"`
	Engine            *string          `yaml:"engine"`
	CursorHideTimeout *int             `yaml:"cursor_hide_timeout"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Window != nil {
		base := RawWindowConfig{}
		if out.Window != nil {
			base = *out.Window
		}
		merged := mergeRawWindow(base, *overlay.Window)
		out.Window = &merged
	}
	if overlay.Render != nil {
		base := RawRenderConfig{}
		if out.Render != nil {
			base = *out.Render
		}
		merged := mergeRawRender(base, *overlay.Render)
		out.Render = &merged
	}
	if overlay.Engine != nil {
		out.Engine = overlay.Engine
	}
	if overlay.CursorHideTimeout != nil {
		out.CursorHideTimeout = overlay.CursorHideTimeout
	}
	return out
}

func mergeRawWindow(base, overlay RawWindowConfig) RawWindowConfig {
	out := base
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.ARGB != nil {
		out.ARGB = overlay.ARGB
	}
	if overlay.WindowEvents != nil {
		out.WindowEvents = overlay.WindowEvents
	}
	if overlay.MouseEvents != nil {
		out.MouseEvents = overlay.MouseEvents
	}
	if overlay.KeyEvents != nil {
		out.KeyEvents = overlay.KeyEvents
	}
	if overlay.InputOnly != nil {
		out.InputOnly = overlay.InputOnly
	}
	return out
}

func mergeRawRender(base, overlay RawRenderConfig) RawRenderConfig {
	out := base
	if overlay.Dither != nil {
		out.Dither = overlay.Dither
	}
	if overlay.Blend != nil {
		out.Blend = overlay.Blend
	}
	if overlay.Scaler != nil {
		out.Scaler = overlay.Scaler
	}
	return out
}
