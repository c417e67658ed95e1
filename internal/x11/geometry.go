package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
)

// Rect is a window position and size.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// SetGeometry moves and/or resizes the window. Fields passed as Unset are
// left alone; passing Unset for all four is a no-op.
func (w *Window) SetGeometry(x, y, width, height int) error {
	values := geometryValues(x, y, width, height)
	if len(values) == 0 {
		return nil
	}
	return w.do(func(srv Server) error {
		if err := srv.ConfigureWindow(w.id, values); err != nil {
			return fmt.Errorf("failed to configure window: %w", err)
		}
		return srv.Sync()
	})
}

// Move changes only the window position.
func (w *Window) Move(x, y int) error {
	return w.SetGeometry(x, y, Unset, Unset)
}

// Resize changes only the window size.
func (w *Window) Resize(width, height int) error {
	return w.SetGeometry(Unset, Unset, width, height)
}

// Geometry returns the window geometry relative to its parent, or relative
// to the root window when absolute is set.
func (w *Window) Geometry(absolute bool) (Rect, error) {
	var r Rect
	err := w.do(func(srv Server) error {
		attrs, err := srv.Attributes(w.id)
		if err != nil {
			return fmt.Errorf("failed to get window geometry: %w", err)
		}
		r = Rect{X: attrs.X, Y: attrs.Y, Width: attrs.Width, Height: attrs.Height}
		if absolute {
			dx, dy := ancestorOffset(srv, w.id)
			r.X += dx
			r.Y += dy
		}
		return nil
	})
	return r, err
}

// ancestorOffset sums the positions of every ancestor of win below the root.
// A self-parented window or a failed query ends the walk early.
func ancestorOffset(srv Server, win xproto.Window) (int, int) {
	var dx, dy int
	cur := win
	for {
		tree, err := srv.QueryTree(cur)
		if err != nil || tree.Parent == 0 || tree.Parent == cur || tree.Parent == tree.Root {
			return dx, dy
		}
		attrs, err := srv.Attributes(tree.Parent)
		if err != nil {
			return dx, dy
		}
		dx += attrs.X
		dy += attrs.Y
		cur = tree.Parent
	}
}
