package x11

import (
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// ScreenInfo describes the default screen of a display connection.
type ScreenInfo struct {
	Root     xproto.Window
	Width    int
	Height   int
	Depth    byte
	Visual   xproto.Visualid
	Colormap xproto.Colormap
}

// CreateParams describes a CreateWindow request. Zero Depth and Visual
// mean CopyFromParent.
type CreateParams struct {
	Parent xproto.Window
	X      int
	Y      int
	Width  int
	Height int
	Depth  byte
	Class  uint16
	Visual xproto.Visualid
	Values ValueList
}

// Attributes combines the window attributes and geometry replies for a window.
type Attributes struct {
	X           int
	Y           int
	Width       int
	Height      int
	BorderWidth int
	Depth       byte
	Class       uint16
	MapState    byte
	Visual      xproto.Visualid
	Colormap    xproto.Colormap
}

// Tree is the result of a QueryTree request.
type Tree struct {
	Root     xproto.Window
	Parent   xproto.Window
	Children []xproto.Window
}

// PropertyValue is a raw GetProperty reply.
type PropertyValue struct {
	Type       xproto.Atom
	Format     byte
	Items      int
	BytesAfter uint32
	Data       []byte
}

// Server is the native protocol surface used by Connection and Window.
// Implementations are not safe for concurrent use; Connection serializes
// every call under its lock.
type Server interface {
	Screen() ScreenInfo
	Fd() int
	Sync() error
	PollEvent() (xgb.Event, error)
	Close()

	CreateWindow(p CreateParams) (xproto.Window, error)
	DestroyWindow(win xproto.Window) error
	SelectInput(win xproto.Window, mask uint32) error
	ChangeAttributes(win xproto.Window, values ValueList) error
	MapWindow(win xproto.Window) error
	UnmapWindow(win xproto.Window) error
	ConfigureWindow(win xproto.Window, values ValueList) error
	Attributes(win xproto.Window) (Attributes, error)
	QueryTree(win xproto.Window) (Tree, error)
	SetInputFocus(win xproto.Window) error
	UngrabPointer() error

	CreateInvisibleCursor(win xproto.Window) (xproto.Cursor, error)
	FreeCursor(cursor xproto.Cursor) error

	Atom(name string) (xproto.Atom, error)
	AtomName(atom xproto.Atom) (string, error)
	ListProperties(win xproto.Window) ([]xproto.Atom, error)
	GetProperty(win xproto.Window, prop xproto.Atom, length uint32) (PropertyValue, error)
	DeleteProperty(win xproto.Window, name string) error

	WMName(win xproto.Window) (string, bool)
	SetWMName(win xproto.Window, name string) error
	SetWMProtocols(win xproto.Window, protocols []string) error
	SetTransientFor(win, owner xproto.Window) error
	RequestWMState(win xproto.Window, action int, state string) error
	SetWindowType(win xproto.Window, types []string) error

	CompositeSupported() bool
	ARGBVisual() (xproto.Visualid, bool)
	GLXVisual() (xproto.Visualid, byte, bool)
	CreateColormap(visual xproto.Visualid) (xproto.Colormap, error)
	FreeColormap(cmap xproto.Colormap) error

	SetShape(win xproto.Window, x, y, width, height int, bitmap []byte) error
	ResetShape(win xproto.Window) error

	FillRectangle(win xproto.Window, r image.Rectangle, pixel uint32) error
	PutImage(win xproto.Window, depth byte, dst image.Point, img image.Image) error
	GetImage(win xproto.Window, r image.Rectangle) (image.Image, error)

	KeyName(code xproto.Keycode) string
	Monitors() ([]Monitor, error)
}

// Monitor represents a physical output reported by RandR.
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}
