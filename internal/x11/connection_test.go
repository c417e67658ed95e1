package x11_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/freevo/kaa-display/internal/x11"
	"github.com/freevo/kaa-display/internal/x11/x11test"
)

func TestPollEvents_SyncsAndTranslates(t *testing.T) {
	conn, srv := newConn(t)
	srv.Events = []xgb.Event{
		xproto.ExposeEvent{Window: 5, Width: 10, Height: 20},
		xproto.ButtonPressEvent{Event: 5},
		xproto.KeyPressEvent{Event: 6, Detail: 24},
	}

	events, err := conn.PollEvents()
	if err != nil {
		t.Fatalf("PollEvents() error = %v", err)
	}
	want := []x11.Event{
		x11.ExposeEvent{Window: 5, Width: 10, Height: 20},
		x11.KeyPressEvent{Window: 6, Keycode: 24},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("PollEvents() = %#v, want %#v", events, want)
	}
	if srv.Syncs != 1 {
		t.Fatalf("syncs = %d, want 1", srv.Syncs)
	}
	if len(srv.Events) != 0 {
		t.Fatalf("%d events left in queue", len(srv.Events))
	}

	events, err = conn.PollEvents()
	if err != nil || len(events) != 0 {
		t.Fatalf("second PollEvents() = %v, %v; want empty", events, err)
	}
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	conn, srv := newConn(t)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if got := srv.CallCount("Close"); got != 1 {
		t.Fatalf("native close calls = %d, want 1", got)
	}

	if _, err := conn.PollEvents(); !errors.Is(err, x11.ErrClosed) {
		t.Fatalf("PollEvents() after close error = %v, want ErrClosed", err)
	}
	if err := conn.Sync(); !errors.Is(err, x11.ErrClosed) {
		t.Fatalf("Sync() after close error = %v, want ErrClosed", err)
	}
}

func TestConnection_CloseWithLiveWindows(t *testing.T) {
	conn, srv := newConn(t)
	w, err := x11.Create(conn, 10, 10, x11.Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Show(false); !errors.Is(err, x11.ErrClosed) {
		t.Fatalf("Show() after close error = %v, want ErrClosed", err)
	}
	if srv.CallCount("MapWindow") != 0 {
		t.Fatalf("native call made on a closed connection")
	}
}

func TestConnection_Accessors(t *testing.T) {
	conn, srv := newConn(t)
	srv.MonitorSet = []x11.Monitor{
		{ID: 1, Name: "DP-1", Width: 2560, Height: 1440},
		{ID: 2, Name: "HDMI-1", X: 2560, Width: 1920, Height: 1080},
	}

	if fd := conn.SocketDescriptor(); fd != 42 {
		t.Fatalf("SocketDescriptor() = %d, want 42", fd)
	}
	if fd := conn.SocketDescriptor(); fd != 42 {
		t.Fatalf("SocketDescriptor() changed to %d", fd)
	}
	if conn.DeleteWindowAtom() == 0 {
		t.Fatalf("WM_DELETE_WINDOW atom not interned")
	}
	if root := conn.Root(); root.ID() != x11test.RootID || root.Ownership() != x11.Foreign {
		t.Fatalf("Root() = %d (%v)", root.ID(), root.Ownership())
	}

	screens, err := conn.Screens()
	if err != nil {
		t.Fatalf("Screens() error = %v", err)
	}
	if !reflect.DeepEqual(screens, srv.MonitorSet) {
		t.Fatalf("Screens() = %+v", screens)
	}
	if name := conn.KeyName(38); name != "key38" {
		t.Fatalf("KeyName() = %q", name)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	conn, err := x11.Open("/nonexistent/sock:99", quietLogger())
	if err == nil {
		conn.Close()
		t.Fatalf("Open() succeeded on a missing socket")
	}
	var cerr *x11.ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Open() error = %T %v, want *ConnectionError", err, err)
	}
	if cerr.Display != "/nonexistent/sock:99" || cerr.Err == nil {
		t.Fatalf("ConnectionError = %+v", cerr)
	}
}
