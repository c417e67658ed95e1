package main

import (
	"errors"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/freevo/kaa-display/internal/config"
	"github.com/freevo/kaa-display/internal/imaging"
	"github.com/freevo/kaa-display/internal/render"
	"github.com/freevo/kaa-display/internal/scene"
	"github.com/freevo/kaa-display/internal/x11"
	"github.com/freevo/kaa-display/internal/x11/x11test"
)

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in      string
		want    xproto.Window
		wantErr bool
	}{
		{"", 0, false},
		{"4194305", 0x400001, false},
		{"0x400001", 0x400001, false},
		{"0x1ffffffff", 0, true},
		{"xterm", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWindowID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseWindowID(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseWindowID(%q)=%#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestFormatPropertyValue(t *testing.T) {
	tests := []struct {
		name string
		prop x11.Property
		want string
	}{
		{"atoms", x11.Property{Format: 32, Atoms: []string{"_NET_WM_STATE_ABOVE", "_NET_WM_STATE_STICKY"}},
			"_NET_WM_STATE_ABOVE, _NET_WM_STATE_STICKY"},
		{"strings", x11.Property{Format: 8, Data: []byte("xterm\x00XTerm\x00")}, `"xterm", "XTerm"`},
		{"cardinals", x11.Property{Format: 32, Data: []byte{0x39, 0x05, 0, 0, 2, 0, 0, 0}}, "1337, 2"},
		{"shorts", x11.Property{Format: 16, Data: []byte{1, 0, 0, 1}}, "1, 256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPropertyValue(tt.prop); got != tt.want {
				t.Fatalf("formatPropertyValue()=%q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Fatalf("formatSource(%+v)=%q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRunConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("window:\n  width: 320\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(bad, []byte("engine: vulkan\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if rc := runConfig([]string{"validate", "--path", good}); rc != 0 {
		t.Fatalf("validate good rc=%d, want 0", rc)
	}
	if rc := runConfig([]string{"validate", "--path", bad}); rc != 1 {
		t.Fatalf("validate bad rc=%d, want 1", rc)
	}
	if rc := runConfig([]string{"bogus"}); rc != 2 {
		t.Fatalf("unknown subcommand rc=%d, want 2", rc)
	}
}

func TestCursorHider(t *testing.T) {
	srv := x11test.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn := x11.NewConnection(srv, logger)
	win, err := x11.Create(conn, 100, 100, x11.Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Unix(1000, 0)
	c := newCursorHider(win, 2, logger)
	c.now = func() time.Time { return now }
	c.last = now

	c.tick()
	if c.hidden {
		t.Fatalf("cursor hidden before the timeout")
	}
	now = now.Add(2 * time.Second)
	c.tick()
	if !c.hidden || len(srv.Cursors) != 1 {
		t.Fatalf("cursor not hidden after the timeout (cursors=%d)", len(srv.Cursors))
	}
	if got := srv.Windows[win.ID()].Cursor; got != srv.Cursors[0] {
		t.Fatalf("window cursor=%d, want invisible cursor %d", got, srv.Cursors[0])
	}

	c.activity()
	if c.hidden {
		t.Fatalf("cursor still hidden after motion")
	}
	if got := srv.Windows[win.ID()].Cursor; got != xproto.CursorNone {
		t.Fatalf("window cursor=%d after motion, want None", got)
	}

	never := newCursorHider(win, -1, logger)
	never.now = func() time.Time { return now.Add(time.Hour) }
	never.tick()
	if never.hidden {
		t.Fatalf("negative timeout hid the cursor")
	}
}

func TestWindowOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Window.MouseEvents = false
	opts := windowOptions(cfg)
	if opts.Title != cfg.Window.Title {
		t.Fatalf("title=%q, want %q", opts.Title, cfg.Window.Title)
	}
	want := x11.Options{MouseEvents: x11.Bool(false)}.EventMask()
	if got := opts.EventMask(); got != want {
		t.Fatalf("event mask=%#x, want %#x", got, want)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#000000", color.RGBA{A: 0xff}, false},
		{"#ff8000", color.RGBA{R: 0xff, G: 0x80, A: 0xff}, false},
		{"#1A2b3C", color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, false},
		{"ff8000", color.RGBA{}, true},
		{"#ff80", color.RGBA{}, true},
		{"#gg0000", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckBridge(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	full := render.NewBridge(render.Collaborators{Decoder: imaging.Decoder{}, Engines: scene.Resolver{}}, logger)
	if err := checkBridge(full, true); err != nil {
		t.Fatalf("checkBridge(scene) error = %v", err)
	}
	if err := checkBridge(full, false); err != nil {
		t.Fatalf("checkBridge(blit) error = %v", err)
	}

	empty := render.NewBridge(render.Collaborators{}, logger)
	if err := checkBridge(empty, true); !errors.Is(err, render.ErrEngineUnavailable) {
		t.Fatalf("checkBridge(scene) error = %v, want ErrEngineUnavailable", err)
	}
	if err := checkBridge(empty, false); !errors.Is(err, render.ErrDecoderUnavailable) {
		t.Fatalf("checkBridge(blit) error = %v, want ErrDecoderUnavailable", err)
	}
}
