package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/freevo/kaa-display/internal/x11"
)

// Backend selects the output path of a scene engine.
type Backend int

const (
	BackendSoftware Backend = iota
	BackendGL
)

func (b Backend) String() string {
	switch b {
	case BackendSoftware:
		return "software"
	case BackendGL:
		return "gl"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend parses "software" or "gl".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "software", "":
		return BackendSoftware, nil
	case "gl":
		return BackendGL, nil
	default:
		return 0, fmt.Errorf("unknown engine backend %q (want software or gl)", s)
	}
}

// OutputTarget is the X11 surface a scene engine draws to.
type OutputTarget struct {
	Conn     *x11.Connection
	Drawable xproto.Window
	Visual   xproto.Visualid
	Colormap xproto.Colormap
	Depth    byte
	Backend  Backend
}

// SceneEngine is a rendering engine that can be pointed at an X window.
type SceneEngine interface {
	SetOutput(target OutputTarget) error
}

// SceneOptions configure the window BindSceneEngine creates.
type SceneOptions struct {
	Size    image.Point
	Title   string
	Backend Backend
}

const sceneEventMask = xproto.EventMaskExposure | xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease | xproto.EventMaskStructureNotify |
	xproto.EventMaskPointerMotion | xproto.EventMaskKeyPress

// outputVisual is the visual a backend renders with. Colormaps created
// for it are freed if window creation fails.
type outputVisual struct {
	Visual       xproto.Visualid
	Colormap     xproto.Colormap
	Depth        byte
	ownsColormap bool
}

// BindSceneEngine creates a top-level window for the engine resolved from
// src and points the engine's output at it. The returned handle is foreign:
// destroying it does not destroy the native window.
func (b *Bridge) BindSceneEngine(src any, conn *x11.Connection, opts SceneOptions) (*x11.Window, error) {
	if b.collab.Engines == nil {
		return nil, &Error{Op: "bind", Err: ErrEngineUnavailable}
	}
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		return nil, &Error{Op: "bind", Err: invalidf("window size %v", opts.Size)}
	}
	engine, err := b.collab.Engines.Engine(src)
	if err != nil {
		return nil, &Error{Op: "bind", Err: fmt.Errorf("%w: %v", ErrEngineUnavailable, err)}
	}

	var target OutputTarget
	err = conn.Do(func(srv x11.Server) error {
		out, err := backendVisual(srv, opts.Backend)
		if err != nil {
			return err
		}
		id, err := srv.CreateWindow(x11.CreateParams{
			Parent: srv.Screen().Root,
			Width:  opts.Size.X,
			Height: opts.Size.Y,
			Depth:  out.Depth,
			Class:  xproto.WindowClassInputOutput,
			Visual: out.Visual,
			Values: x11.ValueList{
				xproto.CwBackPixmap:   xproto.BackPixmapNone,
				xproto.CwBorderPixel:  0,
				xproto.CwBitGravity:   xproto.GravityBitForget,
				xproto.CwBackingStore: xproto.BackingStoreNotUseful,
				xproto.CwEventMask:    sceneEventMask,
				xproto.CwColormap:     uint32(out.Colormap),
			},
		})
		if err != nil {
			if out.ownsColormap {
				if ferr := srv.FreeColormap(out.Colormap); ferr != nil {
					b.logger.Debug("failed to free colormap", "colormap", out.Colormap, "error", ferr)
				}
			}
			return &x11.WindowCreationError{Err: err}
		}
		if opts.Title != "" {
			if err := srv.SetWMName(id, opts.Title); err != nil {
				b.logger.Warn("failed to set window title", "window", id, "error", err)
			}
		}
		target = OutputTarget{
			Conn:     conn,
			Drawable: id,
			Visual:   out.Visual,
			Colormap: out.Colormap,
			Depth:    out.Depth,
			Backend:  opts.Backend,
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "bind", Err: err}
	}

	if err := engine.SetOutput(target); err != nil {
		_ = conn.Do(func(srv x11.Server) error {
			return srv.DestroyWindow(target.Drawable)
		})
		return nil, &Error{Op: "bind", Err: fmt.Errorf("engine rejected output: %w", err)}
	}
	b.logger.Debug("scene engine bound",
		"window", target.Drawable, "backend", opts.Backend, "depth", target.Depth)

	w, err := x11.Wrap(conn, target.Drawable)
	if err != nil {
		return nil, &Error{Op: "bind", Err: err}
	}
	return w, nil
}

func backendVisual(srv x11.Server, backend Backend) (outputVisual, error) {
	switch backend {
	case BackendSoftware:
		screen := srv.Screen()
		return outputVisual{Visual: screen.Visual, Colormap: screen.Colormap, Depth: screen.Depth}, nil
	case BackendGL:
		return glVisual(srv)
	default:
		return outputVisual{}, fmt.Errorf("%w: backend %v", ErrEngineUnavailable, backend)
	}
}
