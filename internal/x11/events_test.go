package x11

import (
	"reflect"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

func TestTranslate_SupportedEvents(t *testing.T) {
	tests := []struct {
		name string
		in   xgb.Event
		want Event
	}{
		{
			name: "expose",
			in:   xproto.ExposeEvent{Window: 7, X: 3, Y: 4, Width: 50, Height: 60, Count: 2},
			want: ExposeEvent{Window: 7, X: 3, Y: 4, Width: 50, Height: 60},
		},
		{
			name: "key press",
			in:   xproto.KeyPressEvent{Detail: 38, Event: 9, Root: 1, EventX: 5, EventY: 6},
			want: KeyPressEvent{Window: 9, Keycode: 38},
		},
		{
			name: "motion",
			in:   xproto.MotionNotifyEvent{Event: 11, EventX: -2, EventY: 15, RootX: 402, RootY: 315},
			want: MotionNotifyEvent{Window: 11, X: -2, Y: 15, RootX: 402, RootY: 315},
		},
		{
			name: "configure",
			in:   xproto.ConfigureNotifyEvent{Event: 1, Window: 12, X: -10, Y: 20, Width: 800, Height: 600},
			want: ConfigureNotifyEvent{Window: 12, X: -10, Y: 20, Width: 800, Height: 600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(tt.in)
			if !ok {
				t.Fatalf("Translate(%T) dropped a supported event", tt.in)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Translate(%T) = %#v, want %#v", tt.in, got, tt.want)
			}
			if got.Type() != tt.want.Type() {
				t.Fatalf("Type() = %v, want %v", got.Type(), tt.want.Type())
			}
		})
	}
}

func TestTranslate_TypeCodesMatchProtocol(t *testing.T) {
	codes := map[EventType]int{
		EventKeyPress:        2,
		EventMotionNotify:    6,
		EventExpose:          12,
		EventConfigureNotify: 22,
	}
	for typ, code := range codes {
		if int(typ) != code {
			t.Errorf("%v = %d, want %d", typ, int(typ), code)
		}
	}
}

func TestTranslate_DropsOtherEvents(t *testing.T) {
	dropped := []xgb.Event{
		xproto.ButtonPressEvent{Event: 3},
		xproto.KeyReleaseEvent{Event: 3},
		xproto.MapNotifyEvent{Window: 3},
		xproto.FocusInEvent{Event: 3},
		xproto.ClientMessageEvent{Window: 3},
		xproto.PropertyNotifyEvent{Window: 3},
	}
	for _, ev := range dropped {
		if got, ok := Translate(ev); ok || got != nil {
			t.Errorf("Translate(%T) = %#v, %v; want dropped", ev, got, ok)
		}
	}
}

func TestGroupByWindow(t *testing.T) {
	events := []Event{
		ExposeEvent{Window: 1},
		KeyPressEvent{Window: 2, Keycode: 9},
		MotionNotifyEvent{Window: 1, X: 4},
	}
	groups := GroupByWindow(events)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	want := []Event{ExposeEvent{Window: 1}, MotionNotifyEvent{Window: 1, X: 4}}
	if !reflect.DeepEqual(groups[1], want) {
		t.Fatalf("groups[1] = %#v, want %#v", groups[1], want)
	}
}
