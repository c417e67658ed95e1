package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/freevo/kaa-display/internal/x11"
	"github.com/freevo/kaa-display/internal/x11/x11test"
)

func newTestServer(t *testing.T) (*Server, *x11test.Server) {
	t.Helper()
	srv := x11test.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(x11.NewConnection(srv, logger), logger), srv
}

func TestListChildren(t *testing.T) {
	s, srv := newTestServer(t)
	term := srv.AddWindow(x11test.RootID, 0, 0, 300, 200, true, "xterm")
	srv.AddWindow(x11test.RootID, 0, 0, 300, 200, false, "")
	srv.AddWindow(term, 0, 0, 10, 10, true, "")

	_, out, err := s.handleListChildren(context.Background(), nil, ListChildrenInput{VisibleOnly: true})
	if err != nil {
		t.Fatalf("list_children: %v", err)
	}
	if out.Parent != uint32(x11test.RootID) {
		t.Fatalf("parent = %d, want root", out.Parent)
	}
	if len(out.Children) != 1 || out.Children[0].Window != uint32(term) || out.Children[0].Title != "xterm" {
		t.Fatalf("children = %+v", out.Children)
	}

	_, out, err = s.handleListChildren(context.Background(), nil, ListChildrenInput{Recursive: true})
	if err != nil {
		t.Fatalf("list_children: %v", err)
	}
	if len(out.Children) != 3 {
		t.Fatalf("recursive children = %+v, want 3", out.Children)
	}
}

func TestGetGeometry(t *testing.T) {
	s, srv := newTestServer(t)
	frame := srv.AddWindow(x11test.RootID, 50, 60, 400, 300, true, "")
	client := srv.AddWindow(frame, 2, 20, 396, 278, true, "editor")

	_, out, err := s.handleGetGeometry(context.Background(), nil, GetGeometryInput{Window: uint32(client), Absolute: true})
	if err != nil {
		t.Fatalf("get_geometry: %v", err)
	}
	want := GetGeometryOutput{Window: uint32(client), X: 52, Y: 80, Width: 396, Height: 278, Visible: true, Parent: uint32(frame)}
	if out != want {
		t.Fatalf("get_geometry = %+v, want %+v", out, want)
	}

	if _, _, err := s.handleGetGeometry(context.Background(), nil, GetGeometryInput{Window: 0xdead}); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}

func TestGetPropertiesAndTitle(t *testing.T) {
	s, srv := newTestServer(t)
	win := srv.AddWindow(x11test.RootID, 0, 0, 10, 10, true, "notes")
	srv.SetAtomProperty(win, "_NET_WM_WINDOW_TYPE", "_NET_WM_WINDOW_TYPE_NORMAL")
	srv.SetProperty(win, "WM_CLASS", "STRING", 8, []byte("notes"))
	srv.SetProperty(win, "_NET_WM_PID", "CARDINAL", 32, []byte{0x39, 0x05, 0, 0})

	_, out, err := s.handleGetProperties(context.Background(), nil, WindowRef{Window: uint32(win)})
	if err != nil {
		t.Fatalf("get_properties: %v", err)
	}
	byName := make(map[string]PropertyInfo)
	for _, p := range out.Properties {
		byName[p.Name] = p
	}
	if got := byName["_NET_WM_WINDOW_TYPE"].Atoms; len(got) != 1 || got[0] != "_NET_WM_WINDOW_TYPE_NORMAL" {
		t.Fatalf("window type atoms = %v", got)
	}
	if got := byName["WM_CLASS"].Text; got != "notes" {
		t.Fatalf("WM_CLASS text = %q", got)
	}
	if got := byName["_NET_WM_PID"].Hex; got != "39050000" {
		t.Fatalf("_NET_WM_PID hex = %q", got)
	}

	_, title, err := s.handleGetTitle(context.Background(), nil, WindowRef{Window: uint32(win)})
	if err != nil || !title.Found || title.Title != "notes" {
		t.Fatalf("get_title = %+v, %v", title, err)
	}
	_, title, err = s.handleGetTitle(context.Background(), nil, WindowRef{})
	if err != nil || title.Found {
		t.Fatalf("root get_title = %+v, %v; want not found", title, err)
	}
}

func TestPollEvents(t *testing.T) {
	s, srv := newTestServer(t)
	srv.Events = []xgb.Event{
		xproto.ExposeEvent{Window: 7, Width: 30, Height: 40},
		xproto.KeyPressEvent{Event: 8, Detail: 9},
		xproto.MotionNotifyEvent{Event: 7, EventX: 3, EventY: 4, RootX: 103, RootY: 104},
	}

	_, out, err := s.handlePollEvents(context.Background(), nil, PollEventsInput{Window: 7})
	if err != nil {
		t.Fatalf("poll_events: %v", err)
	}
	want := []EventInfo{
		{Type: "Expose", Window: 7, Width: 30, Height: 40},
		{Type: "MotionNotify", Window: 7, X: 3, Y: 4, RootX: 103, RootY: 104},
	}
	if len(out.Events) != len(want) {
		t.Fatalf("events = %+v, want %+v", out.Events, want)
	}
	for i := range want {
		if out.Events[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, out.Events[i], want[i])
		}
	}

	srv.Events = []xgb.Event{xproto.KeyPressEvent{Event: 8, Detail: 9}}
	_, out, _ = s.handlePollEvents(context.Background(), nil, PollEventsInput{})
	if len(out.Events) != 1 || out.Events[0].Key != "key9" || out.Events[0].Keycode != 9 {
		t.Fatalf("key event = %+v", out.Events)
	}
}

func TestPropertyInfo_LongBinaryIsTruncated(t *testing.T) {
	p := x11.Property{Name: "ICON", Type: "CARDINAL", Format: 32, Items: 100, Data: make([]byte, 400)}
	info := propertyInfo(p)
	if len(info.Hex) != 2*maxHexBytes {
		t.Fatalf("hex length = %d, want %d", len(info.Hex), 2*maxHexBytes)
	}
}
