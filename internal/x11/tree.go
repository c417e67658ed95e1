package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

type childWalk struct {
	srv         Server
	screenW     int
	screenH     int
	recursive   bool
	visibleOnly bool
	titledOnly  bool
	found       []xproto.Window
}

// Children lists the window's children depth-first.
//
// With visibleOnly, a child that is not viewable or lies entirely off screen
// is skipped together with its subtree. With titledOnly, untitled windows are
// left out of the result but their subtrees are still visited.
func (w *Window) Children(recursive, visibleOnly, titledOnly bool) ([]xproto.Window, error) {
	var found []xproto.Window
	err := w.do(func(srv Server) error {
		attrs, err := srv.Attributes(w.id)
		if err != nil {
			return fmt.Errorf("failed to get window attributes: %w", err)
		}
		screen := srv.Screen()
		walk := &childWalk{
			srv:         srv,
			screenW:     screen.Width,
			screenH:     screen.Height,
			recursive:   recursive,
			visibleOnly: visibleOnly,
			titledOnly:  titledOnly,
		}
		if err := walk.visit(w.id, attrs.X, attrs.Y); err != nil {
			return err
		}
		found = walk.found
		return nil
	})
	return found, err
}

func (cw *childWalk) visit(win xproto.Window, x, y int) error {
	tree, err := cw.srv.QueryTree(win)
	if err != nil {
		return fmt.Errorf("failed to query window tree: %w", err)
	}

	for _, child := range tree.Children {
		childX, childY := x, y
		if cw.visibleOnly {
			attrs, err := cw.srv.Attributes(child)
			if err != nil {
				continue
			}
			childX += attrs.X
			childY += attrs.Y
			if !cw.onScreen(attrs, childX, childY) {
				continue
			}
		}

		keep := true
		if cw.titledOnly {
			_, keep = cw.srv.WMName(child)
		}
		if keep {
			cw.found = append(cw.found, child)
		}

		if cw.recursive {
			// A child destroyed mid-walk just has no subtree.
			_ = cw.visit(child, childX, childY)
		}
	}
	return nil
}

func (cw *childWalk) onScreen(attrs Attributes, x, y int) bool {
	if attrs.MapState != xproto.MapStateViewable {
		return false
	}
	if y+attrs.Height < 0 || y > cw.screenH {
		return false
	}
	if x+attrs.Width < 0 || x > cw.screenW {
		return false
	}
	return true
}

// FindByTitle walks the whole tree under the root and returns the first
// window whose title contains substring.
func (c *Connection) FindByTitle(substring string) (xproto.Window, error) {
	if substring == "" {
		return 0, fmt.Errorf("empty title substring")
	}
	var match xproto.Window
	err := c.Do(func(srv Server) error {
		walk := &childWalk{srv: srv, recursive: true, titledOnly: true}
		if err := walk.visit(srv.Screen().Root, 0, 0); err != nil {
			return err
		}
		for _, win := range walk.found {
			if name, ok := srv.WMName(win); ok && strings.Contains(name, substring) {
				match = win
				return nil
			}
		}
		return fmt.Errorf("no window found with title containing %q", substring)
	})
	return match, err
}
