// Package scene is a small software scene engine: an ordered stack of
// image layers composed over a background and pushed to an X window.
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"golang.org/x/image/draw"

	"github.com/freevo/kaa-display/internal/render"
	"github.com/freevo/kaa-display/internal/x11"
)

// ErrNoOutput is returned by Render before SetOutput has been called.
var ErrNoOutput = errors.New("scene: no output bound")

// Layer is one image in the stack.
type Layer struct {
	Image image.Image
	Pos   image.Point
}

// Software renders on the CPU. It accepts either engine backend.
type Software struct {
	mu         sync.Mutex
	background color.Color
	layers     []Layer
	target     *render.OutputTarget
	logger     *slog.Logger
}

// NewSoftware returns an engine that clears to background.
func NewSoftware(background color.Color, logger *slog.Logger) *Software {
	if background == nil {
		background = color.Black
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Software{background: background, logger: logger}
}

// SetOutput binds the engine to target.
func (s *Software) SetOutput(target render.OutputTarget) error {
	if target.Conn == nil || target.Drawable == 0 {
		return fmt.Errorf("scene: incomplete output target")
	}
	if target.Depth != 16 && target.Depth != 24 && target.Depth != 32 {
		return fmt.Errorf("scene: unsupported depth %d", target.Depth)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = &target
	s.logger.Debug("software engine output bound",
		"drawable", target.Drawable, "depth", target.Depth, "backend", target.Backend)
	return nil
}

// Output returns the bound target, if any.
func (s *Software) Output() (render.OutputTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return render.OutputTarget{}, false
	}
	return *s.target, true
}

// SetBackground changes the clear color.
func (s *Software) SetBackground(c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
}

// Add pushes img on top of the stack and returns its index.
func (s *Software) Add(img image.Image, pos image.Point) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, Layer{Image: img, Pos: pos})
	return len(s.layers) - 1
}

// Move repositions layer i.
func (s *Software) Move(i int, pos image.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("scene: no layer %d", i)
	}
	s.layers[i].Pos = pos
	return nil
}

// Clear removes every layer.
func (s *Software) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = nil
}

// Frame composes the part r of the scene.
func (s *Software) Frame(r image.Rectangle) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame(r)
}

func (s *Software) frame(r image.Rectangle) *image.RGBA {
	frame := image.NewRGBA(r)
	draw.Draw(frame, r, image.NewUniform(s.background), image.Point{}, draw.Src)
	for _, l := range s.layers {
		dst := l.Image.Bounds().Sub(l.Image.Bounds().Min).Add(l.Pos)
		clip := dst.Intersect(r)
		if clip.Empty() {
			continue
		}
		sp := l.Image.Bounds().Min.Add(clip.Min.Sub(l.Pos))
		draw.Draw(frame, clip, l.Image, sp, draw.Over)
	}
	return frame
}

// Render redraws the whole output window.
func (s *Software) Render() error {
	return s.RenderRect(image.Rectangle{})
}

// RenderRect redraws the part r of the output window, or all of it when r
// is empty.
func (s *Software) RenderRect(r image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return ErrNoOutput
	}
	target := *s.target

	return target.Conn.Do(func(srv x11.Server) error {
		attrs, err := srv.Attributes(target.Drawable)
		if err != nil {
			return fmt.Errorf("failed to get output geometry: %w", err)
		}
		area := image.Rect(0, 0, attrs.Width, attrs.Height)
		if !r.Empty() {
			area = area.Intersect(r)
		}
		if area.Empty() {
			return nil
		}
		if err := srv.PutImage(target.Drawable, target.Depth, area.Min, s.frame(area)); err != nil {
			return fmt.Errorf("failed to push frame: %w", err)
		}
		return nil
	})
}

// Resolver resolves engine objects for render.Bridge.
type Resolver struct{}

// Engine accepts a *Software or any other render.SceneEngine.
func (Resolver) Engine(src any) (render.SceneEngine, error) {
	switch e := src.(type) {
	case *Software:
		if e == nil {
			return nil, fmt.Errorf("scene: nil engine")
		}
		return e, nil
	case render.SceneEngine:
		return e, nil
	default:
		return nil, fmt.Errorf("scene: cannot use %T as a scene engine", src)
	}
}
