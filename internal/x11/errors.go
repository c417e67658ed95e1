package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// ErrClosed is returned by operations on a closed connection or a destroyed window.
var ErrClosed = errors.New("x11: connection or window closed")

// ConnectionError reports that a display could not be opened.
type ConnectionError struct {
	Display string
	Err     error
}

func (e *ConnectionError) Error() string {
	name := e.Display
	if name == "" {
		name = "default display"
	}
	return fmt.Sprintf("failed to open %s: %v", name, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WindowCreationError reports a protocol error trapped while creating a window.
type WindowCreationError struct {
	Err error
}

func (e *WindowCreationError) Error() string {
	return fmt.Sprintf("failed to create window: %v", e.Err)
}

func (e *WindowCreationError) Unwrap() error { return e.Err }

// IsAccessError reports whether err is an X BadAccess error.
func IsAccessError(err error) bool {
	if err == nil {
		return false
	}
	var access xproto.AccessError
	return errors.As(err, &access)
}

// UnsupportedDepthError reports a drawable whose pixel layout has no
// conversion to or from RGBA.
type UnsupportedDepthError struct {
	Depth        byte
	BitsPerPixel int
}

func (e *UnsupportedDepthError) Error() string {
	if e.BitsPerPixel == 0 {
		return fmt.Sprintf("unsupported depth %d: no pixmap format", e.Depth)
	}
	return fmt.Sprintf("unsupported depth %d: %d bits per pixel", e.Depth, e.BitsPerPixel)
}
