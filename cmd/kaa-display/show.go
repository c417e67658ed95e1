package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/freevo/kaa-display/internal/config"
	"github.com/freevo/kaa-display/internal/imaging"
	"github.com/freevo/kaa-display/internal/render"
	"github.com/freevo/kaa-display/internal/scene"
	"github.com/freevo/kaa-display/internal/x11"
)

// showFlags are the options of the show command.
type showFlags struct {
	scene       bool
	engine      string
	size        string
	argb        bool
	fullscreen  bool
	undecorated bool
	shape       string
	watch       bool
	background  string
}

// viewer puts one image on screen, either blitted into a plain window or
// rendered by the software scene engine.
type viewer struct {
	conn   *x11.Connection
	bridge *render.Bridge
	win    *x11.Window
	opts   render.BlitOptions
	engine *scene.Software
	img    image.Image
	logger *slog.Logger
}

func (v *viewer) redraw() error {
	if v.engine != nil {
		return v.engine.Render()
	}
	return v.bridge.BlitImage(v.win, v.img, v.opts)
}

func (v *viewer) setImage(img image.Image) error {
	v.img = img
	if v.engine != nil {
		v.engine.Clear()
		v.engine.Add(img, image.Point{})
	}
	return v.redraw()
}

func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	var sf showFlags
	fs.BoolVar(&sf.scene, "scene", false, "Render through the scene engine instead of blitting")
	fs.StringVar(&sf.engine, "engine", "", "Scene engine backend: software or gl (default: config)")
	fs.StringVar(&sf.size, "size", "", "Window size WxH; the image is scaled to fit (default: image size)")
	fs.BoolVar(&sf.argb, "argb", false, "Use a 32-bit ARGB visual when compositing is available")
	fs.BoolVar(&sf.fullscreen, "fullscreen", false, "Ask the window manager for fullscreen")
	fs.BoolVar(&sf.undecorated, "undecorated", false, "Ask the window manager not to decorate the window")
	fs.StringVar(&sf.shape, "shape", "", "Image whose alpha channel shapes the window")
	fs.BoolVar(&sf.watch, "watch", false, "Reload the image when the file changes")
	fs.StringVar(&sf.background, "background", "", "Scene background color as #rrggbb (default: black)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kaa-display show [options] IMAGE")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Display an image until Escape or q is pressed.")
		fmt.Fprintf(os.Stderr, "Supported formats: %s\n", strings.Join(imaging.Formats(), ", "))
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	var size image.Point
	if sf.size != "" {
		if _, err := fmt.Sscanf(sf.size, "%dx%d", &size.X, &size.Y); err != nil || size.X <= 0 || size.Y <= 0 {
			fmt.Fprintf(os.Stderr, "invalid --size %q (want WxH)\n", sf.size)
			return 2
		}
	}

	cfg, conn, logger, err := common.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	img, err := imaging.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if size == (image.Point{}) {
		size = img.Bounds().Size()
	}

	v, err := newViewer(cfg, conn, logger, sf, img, size)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer v.win.Destroy()

	if err := v.run(cfg, path, sf.watch); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newViewer(cfg *config.Config, conn *x11.Connection, logger *slog.Logger, sf showFlags, img image.Image, size image.Point) (*viewer, error) {
	v := &viewer{
		conn: conn,
		bridge: render.NewBridge(render.Collaborators{
			Decoder: imaging.Decoder{},
			Engines: scene.Resolver{},
		}, logger),
		img:    img,
		logger: logger,
	}

	title := cfg.Window.Title
	if title == "" {
		title = "kaa-display"
	}

	if err := checkBridge(v.bridge, sf.scene); err != nil {
		return nil, err
	}

	if sf.scene {
		name := sf.engine
		if name == "" {
			name = cfg.Engine
		}
		backend, err := render.ParseBackend(name)
		if err != nil {
			return nil, err
		}
		v.engine = scene.NewSoftware(color.Black, logger)
		if sf.background != "" {
			bg, err := parseColor(sf.background)
			if err != nil {
				return nil, err
			}
			v.engine.SetBackground(bg)
		}
		v.engine.Add(img, image.Point{})
		win, err := v.bridge.BindSceneEngine(v.engine, conn, render.SceneOptions{
			Size:    size,
			Title:   title,
			Backend: backend,
		})
		if err != nil {
			return nil, err
		}
		v.win = win
	} else {
		opts := windowOptions(cfg)
		opts.Title = title
		opts.ARGB = opts.ARGB || sf.argb
		if opts.ARGB && !conn.CompositeSupported() {
			logger.Warn("composite or render extension missing, using the default visual")
		}
		win, err := x11.Create(conn, size.X, size.Y, opts)
		if err != nil {
			return nil, err
		}
		v.win = win

		v.opts = render.DefaultBlitOptions()
		v.opts.Dither = cfg.Render.Dither
		v.opts.Blend = cfg.Render.Blend
		v.opts.Scaler = render.Scalers[cfg.Render.Scaler]
		if size != img.Bounds().Size() {
			v.opts.ScaleTo = size
		}
	}

	if sf.shape != "" {
		maskImg, err := imaging.Load(sf.shape)
		if err != nil {
			v.win.Destroy()
			return nil, err
		}
		mask, w, h := imaging.Mask(maskImg)
		if err := v.win.SetShapeMask(mask, 0, 0, w, h); err != nil {
			v.win.Destroy()
			return nil, err
		}
	}
	if sf.undecorated {
		v.win.SetDecorated(false)
	}
	if err := v.win.Show(true); err != nil {
		v.win.Destroy()
		return nil, err
	}
	if sf.fullscreen {
		v.win.SetFullscreen(true)
	}
	if err := v.win.Focus(); err != nil {
		logger.Debug("failed to focus window", "window", v.win.ID(), "error", err)
	}
	return v, nil
}

// checkBridge fails when the bridge lacks the collaborator the chosen
// rendering path needs.
func checkBridge(bridge *render.Bridge, useScene bool) error {
	if useScene && !bridge.CanBindEngines() {
		return render.ErrEngineUnavailable
	}
	if !useScene && !bridge.CanBlit() {
		return render.ErrDecoderUnavailable
	}
	return nil
}

// parseColor reads an opaque #rrggbb color.
func parseColor(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q (want #rrggbb)", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q (want #rrggbb): %w", s, err)
	}
	c.A = 0xff
	return c, nil
}

// run services the window until it is closed with a key press or the
// process is interrupted.
func (v *viewer) run(cfg *config.Config, path string, watch bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reload <-chan struct{}
	if watch {
		ch, err := watchFile(ctx, path, v.logger)
		if err != nil {
			return err
		}
		reload = ch
	}

	cursor := newCursorHider(v.win, cfg.CursorHideTimeout, v.logger)

	for ctx.Err() == nil {
		if _, err := waitReadable(v.conn.SocketDescriptor(), pollInterval); err != nil {
			return err
		}
		events, err := v.conn.PollEvents()
		if err != nil {
			return err
		}

		exposed := false
		for _, ev := range events {
			if ev.WindowID() != v.win.ID() {
				continue
			}
			switch e := ev.(type) {
			case x11.ExposeEvent:
				exposed = true
			case x11.MotionNotifyEvent:
				cursor.activity()
			case x11.ConfigureNotifyEvent:
				v.logger.Debug("window configured", "width", e.Width, "height", e.Height)
			case x11.KeyPressEvent:
				switch v.conn.KeyName(e.Keycode) {
				case "Escape", "q":
					return nil
				}
			}
		}

		select {
		case <-reload:
			img, err := imaging.Load(path)
			if err != nil {
				v.logger.Warn("failed to reload image", "path", path, "error", err)
				break
			}
			v.logger.Info("image reloaded", "path", path)
			if err := v.setImage(img); err != nil {
				return err
			}
			exposed = false
		default:
		}

		if exposed {
			if err := v.redraw(); err != nil {
				return err
			}
		}
		cursor.tick()
	}
	return nil
}

// watchFile signals on the returned channel whenever path is written or
// replaced. The parent directory is watched so that editors which save by
// rename are noticed too.
func watchFile(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", "error", err)
			}
		}
	}()
	return out, nil
}

// cursorHider hides the pointer over a window after a period without
// motion and shows it again on the next motion event.
type cursorHider struct {
	win     *x11.Window
	timeout time.Duration
	enabled bool
	last    time.Time
	hidden  bool
	logger  *slog.Logger
	now     func() time.Time
}

// newCursorHider takes the timeout in seconds; a negative value never hides.
func newCursorHider(win *x11.Window, seconds int, logger *slog.Logger) *cursorHider {
	return &cursorHider{
		win:     win,
		timeout: time.Duration(seconds) * time.Second,
		enabled: seconds >= 0,
		last:    time.Now(),
		logger:  logger,
		now:     time.Now,
	}
}

func (c *cursorHider) activity() {
	c.last = c.now()
	if c.hidden {
		c.set(true)
	}
}

func (c *cursorHider) tick() {
	if !c.enabled || c.hidden || c.now().Sub(c.last) < c.timeout {
		return
	}
	c.set(false)
}

func (c *cursorHider) set(visible bool) {
	if err := c.win.SetCursorVisible(visible); err != nil {
		c.logger.Warn("failed to change cursor visibility", "window", c.win.ID(), "error", err)
		return
	}
	c.hidden = !visible
}
