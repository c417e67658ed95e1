package scene_test

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/freevo/kaa-display/internal/render"
	"github.com/freevo/kaa-display/internal/scene"
	"github.com/freevo/kaa-display/internal/x11"
	"github.com/freevo/kaa-display/internal/x11/x11test"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestFrame_LayersOverBackground(t *testing.T) {
	engine := scene.NewSoftware(color.RGBA{B: 0xff, A: 0xff}, quietLogger())
	red := color.RGBA{R: 0xff, A: 0xff}
	green := color.RGBA{G: 0xff, A: 0xff}
	engine.Add(square(10, red), image.Pt(5, 5))
	top := engine.Add(square(4, green), image.Pt(0, 0))
	if err := engine.Move(top, image.Pt(8, 8)); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	frame := engine.Frame(image.Rect(0, 0, 20, 20))
	tests := []struct {
		p    image.Point
		want color.RGBA
	}{
		{image.Pt(0, 0), color.RGBA{B: 0xff, A: 0xff}},
		{image.Pt(6, 6), red},
		{image.Pt(9, 9), green},
		{image.Pt(14, 14), red},
		{image.Pt(15, 15), color.RGBA{B: 0xff, A: 0xff}},
	}
	for _, tt := range tests {
		if got := rgba(frame.At(tt.p.X, tt.p.Y)); got != tt.want {
			t.Errorf("pixel %v = %+v, want %+v", tt.p, got, tt.want)
		}
	}

	if err := engine.Move(7, image.Point{}); err == nil {
		t.Fatalf("Move() accepted a missing layer")
	}
	engine.Clear()
	if got := rgba(engine.Frame(image.Rect(0, 0, 20, 20)).At(9, 9)); got.G != 0 {
		t.Fatalf("layer survived Clear()")
	}
}

func TestFrame_PartialRect(t *testing.T) {
	engine := scene.NewSoftware(nil, quietLogger())
	engine.Add(square(10, color.RGBA{R: 0xff, A: 0xff}), image.Pt(0, 0))
	frame := engine.Frame(image.Rect(5, 5, 15, 15))
	if frame.Bounds() != image.Rect(5, 5, 15, 15) {
		t.Fatalf("bounds = %v", frame.Bounds())
	}
	if got := rgba(frame.At(6, 6)); got.R != 0xff {
		t.Fatalf("pixel (6,6) = %+v, want red", got)
	}
	if got := rgba(frame.At(12, 12)); got != (color.RGBA{A: 0xff}) {
		t.Fatalf("pixel (12,12) = %+v, want black", got)
	}
}

func TestSetBackground(t *testing.T) {
	engine := scene.NewSoftware(nil, quietLogger())
	engine.SetBackground(color.RGBA{R: 0x20, G: 0x40, B: 0x60, A: 0xff})
	frame := engine.Frame(image.Rect(0, 0, 4, 4))
	if got := rgba(frame.At(1, 1)); got != (color.RGBA{R: 0x20, G: 0x40, B: 0x60, A: 0xff}) {
		t.Fatalf("pixel (1,1) = %+v, want the new background", got)
	}
}

func TestRender_ThroughBridge(t *testing.T) {
	srv := x11test.New()
	conn := x11.NewConnection(srv, quietLogger())
	engine := scene.NewSoftware(color.White, quietLogger())

	if err := engine.Render(); !errors.Is(err, scene.ErrNoOutput) {
		t.Fatalf("Render() before binding error = %v, want ErrNoOutput", err)
	}

	bridge := render.NewBridge(render.Collaborators{Engines: scene.Resolver{}}, quietLogger())
	w, err := bridge.BindSceneEngine(engine, conn, render.SceneOptions{Size: image.Pt(64, 48)})
	if err != nil {
		t.Fatalf("BindSceneEngine() error = %v", err)
	}
	target, ok := engine.Output()
	if !ok || target.Drawable != w.ID() {
		t.Fatalf("Output() = %+v, %v", target, ok)
	}

	if err := engine.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := engine.RenderRect(image.Rect(10, 10, 20, 20)); err != nil {
		t.Fatalf("RenderRect() error = %v", err)
	}
	if len(srv.Puts) != 2 {
		t.Fatalf("puts = %d, want 2", len(srv.Puts))
	}
	if got := srv.Puts[0].Image.Bounds(); got != image.Rect(0, 0, 64, 48) {
		t.Fatalf("full frame bounds = %v", got)
	}
	if got := srv.Puts[1]; got.Dst != image.Pt(10, 10) || got.Image.Bounds().Size() != image.Pt(10, 10) {
		t.Fatalf("partial put = %v at %v", got.Image.Bounds(), got.Dst)
	}
}

func TestSetOutput_Rejects(t *testing.T) {
	engine := scene.NewSoftware(nil, quietLogger())
	conn := x11.NewConnection(x11test.New(), quietLogger())
	if err := engine.SetOutput(render.OutputTarget{}); err == nil {
		t.Fatalf("SetOutput() accepted an empty target")
	}
	if err := engine.SetOutput(render.OutputTarget{Conn: conn, Drawable: 5, Depth: 8}); err == nil {
		t.Fatalf("SetOutput() accepted depth 8")
	}
}

func TestResolver(t *testing.T) {
	var r scene.Resolver
	engine := scene.NewSoftware(nil, nil)
	got, err := r.Engine(engine)
	if err != nil || got != render.SceneEngine(engine) {
		t.Fatalf("Engine() = %v, %v", got, err)
	}
	if _, err := r.Engine(42); err == nil {
		t.Fatalf("Engine() accepted an int")
	}
	var nilEngine *scene.Software
	if _, err := r.Engine(nilEngine); err == nil {
		t.Fatalf("Engine() accepted a nil engine")
	}
}
