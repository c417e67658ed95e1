package x11

import "github.com/BurntSushi/xgb/xproto"

// _NET_WM_STATE actions.
const (
	wmStateRemove = 0
	wmStateAdd    = 1
)

const (
	wmStateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	wmTypeNormal      = "_NET_WM_WINDOW_TYPE_NORMAL"
	wmTypeSplash      = "_NET_WM_WINDOW_TYPE_SPLASH"
	wmTransientFor    = "WM_TRANSIENT_FOR"
)

// Window manager hints are best effort: failures are logged and reported
// through the boolean result, never as errors.

// SetFullscreen asks the window manager to add or remove the fullscreen
// state. It reports whether the request was delivered.
func (w *Window) SetFullscreen(fullscreen bool) bool {
	action := wmStateRemove
	if fullscreen {
		action = wmStateAdd
	}
	return w.hint("_NET_WM_STATE", func(srv Server) error {
		if err := srv.UngrabPointer(); err != nil {
			w.conn.logger.Debug("failed to ungrab pointer", "error", err)
		}
		if err := srv.RequestWMState(w.id, action, wmStateFullscreen); err != nil {
			return err
		}
		return srv.Sync()
	})
}

// SetDecorated switches the window type between normal and splash, which
// most window managers draw without decorations.
func (w *Window) SetDecorated(decorated bool) bool {
	windowType := wmTypeSplash
	if decorated {
		windowType = wmTypeNormal
	}
	return w.hint("_NET_WM_WINDOW_TYPE", func(srv Server) error {
		return srv.SetWindowType(w.id, []string{windowType})
	})
}

// SetTransientFor marks the window as transient for owner, or for the root
// window when owner is zero. Disabling removes the hint.
func (w *Window) SetTransientFor(owner xproto.Window, transient bool) bool {
	return w.hint(wmTransientFor, func(srv Server) error {
		if err := srv.UngrabPointer(); err != nil {
			w.conn.logger.Debug("failed to ungrab pointer", "error", err)
		}
		if !transient {
			return srv.DeleteProperty(w.id, wmTransientFor)
		}
		if owner == 0 {
			owner = srv.Screen().Root
		}
		return srv.SetTransientFor(w.id, owner)
	})
}

func (w *Window) hint(name string, fn func(Server) error) bool {
	err := w.do(fn)
	if err != nil {
		w.conn.logger.Warn("failed to deliver window manager hint",
			"hint", name, "window", w.id, "error", err)
		return false
	}
	return true
}

// Fullscreen reports whether the window manager has the window in the
// fullscreen state.
func (w *Window) Fullscreen() bool {
	var states []string
	_ = w.do(func(srv Server) error {
		prop, err := srv.Atom("_NET_WM_STATE")
		if err != nil {
			return err
		}
		value, err := srv.GetProperty(w.id, prop, propertyLength)
		if err != nil {
			return err
		}
		states = atomNames(srv, value)
		return nil
	})
	for _, s := range states {
		if s == wmStateFullscreen {
			return true
		}
	}
	return false
}
