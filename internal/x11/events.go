package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// EventType identifies a translated event. Values match the X protocol
// event codes.
type EventType int

const (
	EventKeyPress        EventType = xproto.KeyPress
	EventMotionNotify    EventType = xproto.MotionNotify
	EventExpose          EventType = xproto.Expose
	EventConfigureNotify EventType = xproto.ConfigureNotify
)

func (t EventType) String() string {
	switch t {
	case EventKeyPress:
		return "KeyPress"
	case EventMotionNotify:
		return "MotionNotify"
	case EventExpose:
		return "Expose"
	case EventConfigureNotify:
		return "ConfigureNotify"
	default:
		return "Unknown"
	}
}

// Event is one of ExposeEvent, KeyPressEvent, MotionNotifyEvent or
// ConfigureNotifyEvent.
type Event interface {
	Type() EventType
	WindowID() xproto.Window
	isEvent()
}

// ExposeEvent reports a damaged region of a window.
type ExposeEvent struct {
	Window xproto.Window
	X      int
	Y      int
	Width  int
	Height int
}

// KeyPressEvent reports a pressed key.
type KeyPressEvent struct {
	Window  xproto.Window
	Keycode xproto.Keycode
}

// MotionNotifyEvent reports pointer motion in window and root coordinates.
type MotionNotifyEvent struct {
	Window xproto.Window
	X      int
	Y      int
	RootX  int
	RootY  int
}

// ConfigureNotifyEvent reports a window's new position and size.
type ConfigureNotifyEvent struct {
	Window xproto.Window
	X      int
	Y      int
	Width  int
	Height int
}

func (ExposeEvent) Type() EventType          { return EventExpose }
func (KeyPressEvent) Type() EventType        { return EventKeyPress }
func (MotionNotifyEvent) Type() EventType    { return EventMotionNotify }
func (ConfigureNotifyEvent) Type() EventType { return EventConfigureNotify }

func (e ExposeEvent) WindowID() xproto.Window          { return e.Window }
func (e KeyPressEvent) WindowID() xproto.Window        { return e.Window }
func (e MotionNotifyEvent) WindowID() xproto.Window    { return e.Window }
func (e ConfigureNotifyEvent) WindowID() xproto.Window { return e.Window }

func (ExposeEvent) isEvent()          {}
func (KeyPressEvent) isEvent()        {}
func (MotionNotifyEvent) isEvent()    {}
func (ConfigureNotifyEvent) isEvent() {}

// Translate converts a native event. Unsupported event types are dropped.
func Translate(ev xgb.Event) (Event, bool) {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		return ExposeEvent{
			Window: e.Window,
			X:      int(e.X),
			Y:      int(e.Y),
			Width:  int(e.Width),
			Height: int(e.Height),
		}, true
	case xproto.KeyPressEvent:
		return KeyPressEvent{Window: e.Event, Keycode: e.Detail}, true
	case xproto.MotionNotifyEvent:
		return MotionNotifyEvent{
			Window: e.Event,
			X:      int(e.EventX),
			Y:      int(e.EventY),
			RootX:  int(e.RootX),
			RootY:  int(e.RootY),
		}, true
	case xproto.ConfigureNotifyEvent:
		return ConfigureNotifyEvent{
			Window: e.Window,
			X:      int(e.X),
			Y:      int(e.Y),
			Width:  int(e.Width),
			Height: int(e.Height),
		}, true
	default:
		return nil, false
	}
}

// GroupByWindow splits events per target window, keeping delivery order.
func GroupByWindow(events []Event) map[xproto.Window][]Event {
	groups := make(map[xproto.Window][]Event)
	for _, ev := range events {
		id := ev.WindowID()
		groups[id] = append(groups[id], ev)
	}
	return groups
}
