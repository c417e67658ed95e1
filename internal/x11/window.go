package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Unset leaves a geometry field unchanged.
const Unset = -1

// Ownership records whether a Window destroys its native window.
type Ownership int

const (
	// Owned windows were created here and are destroyed with the handle.
	Owned Ownership = iota
	// Foreign windows were attached to or wrapped and are never destroyed.
	Foreign
)

func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "foreign"
}

const (
	windowEventMask = xproto.EventMaskExposure | xproto.EventMaskStructureNotify |
		xproto.EventMaskFocusChange
	buttonEventMask = xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease
	mouseEventMask  = buttonEventMask | xproto.EventMaskPointerMotion
	keyEventMask    = xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease
)

// Options configures Create. Nil event flags default to true.
type Options struct {
	Parent       *Window
	Title        string
	ARGB         bool
	WindowEvents *bool
	MouseEvents  *bool
	KeyEvents    *bool
	InputOnly    bool
	// Window attaches to an existing window instead of creating one.
	Window xproto.Window
}

// Bool returns a pointer to b, for Options event flags.
func Bool(b bool) *bool {
	return &b
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}

// EventMask composes the event mask selected by the options.
func (o Options) EventMask() uint32 {
	var mask uint32
	if enabled(o.WindowEvents) {
		mask |= windowEventMask
	}
	if enabled(o.MouseEvents) {
		mask |= mouseEventMask
	}
	if enabled(o.KeyEvents) {
		mask |= keyEventMask
	}
	return mask
}

// Window is a handle on one X window.
type Window struct {
	conn      *Connection
	id        xproto.Window
	ownership Ownership
	cursor    xproto.Cursor
	counted   bool
	destroyed bool
}

// Create makes a new window of the given size, or attaches to opts.Window.
func Create(conn *Connection, width, height int, opts Options) (*Window, error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return nil, ErrClosed
	}

	var (
		w   *Window
		err error
	)
	if opts.Window != 0 {
		w = conn.attach(opts.Window, opts.EventMask())
	} else {
		w, err = conn.create(width, height, opts)
		if err != nil {
			return nil, err
		}
	}

	if conn.deleteWindow != 0 {
		if err := conn.srv.SetWMProtocols(w.id, []string{deleteWindowAtom}); err != nil {
			conn.logger.Debug("failed to set WM_PROTOCOLS", "window", w.id, "error", err)
		}
	}
	conn.retain()
	w.counted = true
	return w, nil
}

func (c *Connection) attach(id xproto.Window, mask uint32) *Window {
	err := c.srv.SelectInput(id, mask)
	if IsAccessError(err) {
		retry := c.srv.SelectInput(id, mask&^buttonEventMask)
		if retry != nil {
			c.logger.Warn("couldn't select any events for external window; window signals will not work",
				"window", id, "error", retry)
		} else {
			c.logger.Warn("couldn't select button events for external window; button signals will not work",
				"window", id)
		}
	} else if err != nil {
		c.logger.Warn("failed to select events for external window", "window", id, "error", err)
	}
	return &Window{conn: c, id: id, ownership: Foreign}
}

func (c *Connection) create(width, height int, opts Options) (*Window, error) {
	screen := c.srv.Screen()
	parent := screen.Root
	if opts.Parent != nil {
		parent = opts.Parent.id
	}
	mask := opts.EventMask()

	params := CreateParams{
		Parent: parent,
		Width:  width,
		Height: height,
	}

	var colormap xproto.Colormap
	switch {
	case opts.InputOnly:
		params.Class = xproto.WindowClassInputOnly
		params.Values = ValueList{
			xproto.CwWinGravity: xproto.GravityStatic,
			xproto.CwEventMask:  mask &^ xproto.EventMaskExposure,
		}
	case opts.ARGB && c.srv.CompositeSupported():
		visual, ok := c.srv.ARGBVisual()
		if !ok {
			c.logger.Info("no ARGB visual available, using default visual")
			params.Values = defaultWindowValues(screen, mask)
			params.Class = xproto.WindowClassInputOutput
			break
		}
		cmap, err := c.srv.CreateColormap(visual)
		if err != nil {
			return nil, &WindowCreationError{Err: fmt.Errorf("failed to create colormap: %w", err)}
		}
		colormap = cmap
		params.Class = xproto.WindowClassInputOutput
		params.Depth = 32
		params.Visual = visual
		params.Values = ValueList{
			xproto.CwBackPixel:   0,
			xproto.CwBorderPixel: 0,
			xproto.CwEventMask:   mask,
			xproto.CwColormap:    uint32(cmap),
		}
	default:
		if opts.ARGB {
			c.logger.Info("composite extension unavailable, using default visual")
		}
		params.Class = xproto.WindowClassInputOutput
		params.Depth = screen.Depth
		params.Visual = screen.Visual
		params.Values = defaultWindowValues(screen, mask)
	}

	id, err := c.srv.CreateWindow(params)
	if err != nil {
		if colormap != 0 {
			if ferr := c.srv.FreeColormap(colormap); ferr != nil {
				c.logger.Debug("failed to free colormap", "colormap", colormap, "error", ferr)
			}
		}
		return nil, &WindowCreationError{Err: err}
	}

	if opts.Title != "" {
		if err := c.srv.SetWMName(id, opts.Title); err != nil {
			c.logger.Warn("failed to set window title", "window", id, "error", err)
		}
	}
	return &Window{conn: c, id: id, ownership: Owned}, nil
}

func defaultWindowValues(screen ScreenInfo, mask uint32) ValueList {
	return ValueList{
		xproto.CwBackPixmap:       xproto.BackPixmapNone,
		xproto.CwBitGravity:       xproto.GravityStatic,
		xproto.CwWinGravity:       xproto.GravityStatic,
		xproto.CwBackingStore:     xproto.BackingStoreNotUseful,
		xproto.CwOverrideRedirect: 0,
		xproto.CwEventMask:        mask,
		xproto.CwColormap:         uint32(screen.Colormap),
	}
}

// Wrap adopts an existing window without taking ownership of it. The
// invisible cursor is created up front.
func Wrap(conn *Connection, id xproto.Window) (*Window, error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return nil, ErrClosed
	}

	w := &Window{conn: conn, id: id, ownership: Foreign}
	cursor, err := conn.srv.CreateInvisibleCursor(id)
	if err != nil {
		conn.logger.Warn("failed to create invisible cursor", "window", id, "error", err)
	} else {
		w.cursor = cursor
	}
	conn.retain()
	w.counted = true
	return w, nil
}

// Window returns a lightweight foreign handle on id, for introspection.
// It holds no server resources and needs no Destroy.
func (c *Connection) Window(id xproto.Window) *Window {
	return &Window{conn: c, id: id, ownership: Foreign}
}

// Root returns a foreign handle on the root window.
func (c *Connection) Root() *Window {
	return c.Window(c.srv.Screen().Root)
}

// ID returns the native window id.
func (w *Window) ID() xproto.Window { return w.id }

// Ownership reports whether the native window is destroyed with the handle.
func (w *Window) Ownership() Ownership { return w.ownership }

// Connection returns the connection the window lives on.
func (w *Window) Connection() *Connection { return w.conn }

// Do runs fn with exclusive access to the native server on behalf of the
// window. It fails with ErrClosed once the window is destroyed or its
// connection closed.
func (w *Window) Do(fn func(Server) error) error {
	return w.do(fn)
}

func (w *Window) do(fn func(Server) error) error {
	w.conn.mu.Lock()
	defer w.conn.mu.Unlock()
	if w.destroyed || w.conn.closed {
		return ErrClosed
	}
	return fn(w.conn.srv)
}

// Destroy frees the invisible cursor and, for owned windows, the native
// window. Foreign windows are left alone.
func (w *Window) Destroy() error {
	w.conn.mu.Lock()
	defer w.conn.mu.Unlock()
	if w.destroyed {
		return nil
	}
	w.destroyed = true
	if w.counted {
		w.conn.release()
	}
	if w.conn.closed {
		return nil
	}

	srv := w.conn.srv
	if w.cursor != 0 {
		if err := srv.FreeCursor(w.cursor); err != nil {
			w.conn.logger.Debug("failed to free cursor", "window", w.id, "error", err)
		}
		w.cursor = 0
	}
	if w.ownership != Owned {
		return nil
	}
	if err := srv.DestroyWindow(w.id); err != nil {
		return fmt.Errorf("failed to destroy window %d: %w", w.id, err)
	}
	return nil
}

// Show maps the window, raising it first when raise is set.
func (w *Window) Show(raise bool) error {
	return w.do(func(srv Server) error {
		if err := srv.MapWindow(w.id); err != nil {
			return fmt.Errorf("failed to map window: %w", err)
		}
		if raise {
			if err := srv.ConfigureWindow(w.id, ValueList{
				xproto.ConfigWindowStackMode: xproto.StackModeAbove,
			}); err != nil {
				return fmt.Errorf("failed to raise window: %w", err)
			}
		}
		return srv.Sync()
	})
}

// Hide unmaps the window.
func (w *Window) Hide() error {
	return w.do(func(srv Server) error {
		if err := srv.UnmapWindow(w.id); err != nil {
			return fmt.Errorf("failed to unmap window: %w", err)
		}
		return srv.Sync()
	})
}

// Raise puts the window on top of its siblings.
func (w *Window) Raise() error {
	return w.restack(xproto.StackModeAbove)
}

// Lower puts the window below its siblings.
func (w *Window) Lower() error {
	return w.restack(xproto.StackModeBelow)
}

func (w *Window) restack(mode uint32) error {
	return w.do(func(srv Server) error {
		if err := srv.ConfigureWindow(w.id, ValueList{xproto.ConfigWindowStackMode: mode}); err != nil {
			return fmt.Errorf("failed to restack window: %w", err)
		}
		return srv.Sync()
	})
}

// Visible reports whether the window is mapped and viewable.
func (w *Window) Visible() (bool, error) {
	var visible bool
	err := w.do(func(srv Server) error {
		attrs, err := srv.Attributes(w.id)
		if err != nil {
			return fmt.Errorf("failed to get window attributes: %w", err)
		}
		visible = attrs.MapState == xproto.MapStateViewable
		return nil
	})
	return visible, err
}

// Focus gives the window the input focus.
func (w *Window) Focus() error {
	return w.do(func(srv Server) error {
		if err := srv.SetInputFocus(w.id); err != nil {
			return fmt.Errorf("failed to focus window: %w", err)
		}
		return nil
	})
}

// SetCursorVisible shows or hides the pointer over the window. Hiding builds
// a transparent cursor once and reuses it afterwards.
func (w *Window) SetCursorVisible(visible bool) error {
	return w.do(func(srv Server) error {
		cursor := xproto.Cursor(xproto.CursorNone)
		if !visible {
			if w.cursor == 0 {
				c, err := srv.CreateInvisibleCursor(w.id)
				if err != nil {
					return fmt.Errorf("failed to create invisible cursor: %w", err)
				}
				w.cursor = c
			}
			cursor = w.cursor
		}
		if err := srv.ChangeAttributes(w.id, ValueList{xproto.CwCursor: uint32(cursor)}); err != nil {
			return fmt.Errorf("failed to set cursor: %w", err)
		}
		return nil
	})
}

// SetTitle stores the window title.
func (w *Window) SetTitle(title string) error {
	return w.do(func(srv Server) error {
		if err := srv.SetWMName(w.id, title); err != nil {
			return fmt.Errorf("failed to set window title: %w", err)
		}
		return nil
	})
}

// Title returns the window title; ok is false when none is set.
func (w *Window) Title() (title string, ok bool, err error) {
	err = w.do(func(srv Server) error {
		title, ok = srv.WMName(w.id)
		return nil
	})
	return title, ok, err
}

// Parent returns the parent window id.
func (w *Window) Parent() (xproto.Window, error) {
	var parent xproto.Window
	err := w.do(func(srv Server) error {
		tree, err := srv.QueryTree(w.id)
		if err != nil {
			return fmt.Errorf("failed to query window tree: %w", err)
		}
		parent = tree.Parent
		return nil
	})
	return parent, err
}
