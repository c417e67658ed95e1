package x11

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/glx"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xprop"
	"golang.org/x/sys/unix"
)

// putImageHeader is the fixed size of a PutImage request.
const putImageHeader = 28

const (
	syncAtomName = "_KAA_DISPLAY_SYNC"
	syncTimeout  = 2 * time.Second
)

// xgbServer implements Server on top of xgb and xgbutil.
//
// xgb reads the socket on its own goroutine, so the raw socket is never
// readable from the outside for long. Instead, a pump goroutine moves events
// into a local queue and bumps an eventfd, which is what Fd returns. Sync
// ends with a ClientMessage sent to a private InputOnly window and waits for
// the pump to see it, so nothing generated before the call is still in
// flight between xgb and the queue.
type xgbServer struct {
	xu     *xgbutil.XUtil
	conn   *xgb.Conn
	screen ScreenInfo
	logger *slog.Logger

	hasShape     bool
	hasComposite bool
	hasRender    bool
	hasGLX       bool

	pump      *eventPump
	efd       int
	syncWin   xproto.Window
	syncAtom  xproto.Atom
	syncSeq   uint32
	closeOnce sync.Once
}

var _ Server = (*xgbServer)(nil)

func dialServer(display string, logger *slog.Logger) (*xgbServer, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	xu, err := xgbutil.NewConnXgb(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize xgbutil: %w", err)
	}

	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create event descriptor: %w", err)
	}

	keybind.Initialize(xu)

	scr := xu.Screen()
	s := &xgbServer{
		xu:     xu,
		conn:   conn,
		logger: logger,
		efd:    efd,
		screen: ScreenInfo{
			Root:     scr.Root,
			Width:    int(scr.WidthInPixels),
			Height:   int(scr.HeightInPixels),
			Depth:    scr.RootDepth,
			Visual:   scr.RootVisual,
			Colormap: scr.DefaultColormap,
		},
	}

	s.hasShape = shape.Init(conn) == nil
	s.hasComposite = composite.Init(conn) == nil
	s.hasRender = render.Init(conn) == nil
	s.hasGLX = glx.Init(conn) == nil
	logger.Debug("x11 extensions",
		"shape", s.hasShape,
		"composite", s.hasComposite,
		"render", s.hasRender,
		"glx", s.hasGLX,
	)

	if err := s.createSyncWindow(); err != nil {
		conn.Close()
		_ = unix.Close(efd)
		return nil, fmt.Errorf("failed to create sync window: %w", err)
	}

	one := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	s.pump = newEventPump(s.syncMarker,
		func() { _, _ = unix.Write(efd, one) },
		func() {
			var buf [8]byte
			_, _ = unix.Read(efd, buf[:])
		})
	go s.pump.run(conn.WaitForEvent)
	return s, nil
}

func (s *xgbServer) createSyncWindow() error {
	atom, err := xprop.Atm(s.xu, syncAtomName)
	if err != nil {
		return err
	}
	wid, err := xproto.NewWindowId(s.conn)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(s.conn, 0, wid, s.screen.Root,
		-1, -1, 1, 1, 0, xproto.WindowClassInputOnly, 0, 0, nil).Check()
	if err != nil {
		return err
	}
	s.syncWin, s.syncAtom = wid, atom
	return nil
}

func (s *xgbServer) syncMarker(ev xgb.Event) (uint32, bool) {
	cm, ok := ev.(xproto.ClientMessageEvent)
	if !ok || cm.Window != s.syncWin || cm.Type != s.syncAtom || len(cm.Data.Data32) == 0 {
		return 0, false
	}
	return cm.Data.Data32[0], true
}

func (s *xgbServer) Screen() ScreenInfo { return s.screen }

func (s *xgbServer) Fd() int { return s.efd }

// Sync round-trips through a marker event. The checked SendEvent flushes
// every earlier request; the marker itself is queued by the server behind
// every event those requests generated.
func (s *xgbServer) Sync() error {
	s.syncSeq++
	marker := xproto.ClientMessageEvent{
		Format: 32,
		Window: s.syncWin,
		Type:   s.syncAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{s.syncSeq, 0, 0, 0, 0}),
	}
	err := xproto.SendEventChecked(s.conn, false, s.syncWin,
		xproto.EventMaskNoEvent, string(marker.Bytes())).Check()
	if err != nil {
		return err
	}
	return s.pump.await(s.syncSeq, syncTimeout)
}

func (s *xgbServer) PollEvent() (xgb.Event, error) {
	next, ok := s.pump.pop()
	if !ok {
		return nil, nil
	}
	if next.err != nil {
		return nil, next.err
	}
	return next.ev, nil
}

func (s *xgbServer) Close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
		s.pump.wait()
		_ = unix.Close(s.efd)
	})
}

func (s *xgbServer) CreateWindow(p CreateParams) (xproto.Window, error) {
	wid, err := xproto.NewWindowId(s.conn)
	if err != nil {
		return 0, err
	}
	mask, values := p.Values.Flatten()
	err = xproto.CreateWindowChecked(s.conn, p.Depth, wid, p.Parent,
		int16(p.X), int16(p.Y), uint16(p.Width), uint16(p.Height), 0,
		p.Class, p.Visual, mask, values).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

func (s *xgbServer) DestroyWindow(win xproto.Window) error {
	return xproto.DestroyWindowChecked(s.conn, win).Check()
}

func (s *xgbServer) SelectInput(win xproto.Window, mask uint32) error {
	return xproto.ChangeWindowAttributesChecked(s.conn, win,
		xproto.CwEventMask, []uint32{mask}).Check()
}

func (s *xgbServer) ChangeAttributes(win xproto.Window, values ValueList) error {
	mask, list := values.Flatten()
	return xproto.ChangeWindowAttributesChecked(s.conn, win, mask, list).Check()
}

func (s *xgbServer) MapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(s.conn, win).Check()
}

func (s *xgbServer) UnmapWindow(win xproto.Window) error {
	return xproto.UnmapWindowChecked(s.conn, win).Check()
}

func (s *xgbServer) ConfigureWindow(win xproto.Window, values ValueList) error {
	mask, list := values.Flatten()
	return xproto.ConfigureWindowChecked(s.conn, win, uint16(mask), list).Check()
}

func (s *xgbServer) Attributes(win xproto.Window) (Attributes, error) {
	attrCookie := xproto.GetWindowAttributes(s.conn, win)
	geomCookie := xproto.GetGeometry(s.conn, xproto.Drawable(win))

	attrs, err := attrCookie.Reply()
	if err != nil {
		return Attributes{}, err
	}
	geom, err := geomCookie.Reply()
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{
		X:           int(geom.X),
		Y:           int(geom.Y),
		Width:       int(geom.Width),
		Height:      int(geom.Height),
		BorderWidth: int(geom.BorderWidth),
		Depth:       geom.Depth,
		Class:       attrs.Class,
		MapState:    attrs.MapState,
		Visual:      attrs.Visual,
		Colormap:    attrs.Colormap,
	}, nil
}

func (s *xgbServer) QueryTree(win xproto.Window) (Tree, error) {
	reply, err := xproto.QueryTree(s.conn, win).Reply()
	if err != nil {
		return Tree{}, err
	}
	return Tree{Root: reply.Root, Parent: reply.Parent, Children: reply.Children}, nil
}

func (s *xgbServer) SetInputFocus(win xproto.Window) error {
	return xproto.SetInputFocusChecked(s.conn, xproto.InputFocusParent, win,
		xproto.TimeCurrentTime).Check()
}

func (s *xgbServer) UngrabPointer() error {
	return xproto.UngrabPointerChecked(s.conn, xproto.TimeCurrentTime).Check()
}

func (s *xgbServer) CreateInvisibleCursor(win xproto.Window) (xproto.Cursor, error) {
	pix, err := xproto.NewPixmapId(s.conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreatePixmapChecked(s.conn, 1, pix, xproto.Drawable(win), 1, 1).Check(); err != nil {
		return 0, fmt.Errorf("failed to create cursor pixmap: %w", err)
	}
	defer xproto.FreePixmap(s.conn, pix)

	gc, err := xproto.NewGcontextId(s.conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreateGCChecked(s.conn, gc, xproto.Drawable(pix),
		xproto.GcForeground, []uint32{0}).Check(); err != nil {
		return 0, fmt.Errorf("failed to create cursor gc: %w", err)
	}
	xproto.PolyFillRectangle(s.conn, xproto.Drawable(pix), gc,
		[]xproto.Rectangle{{X: 0, Y: 0, Width: 1, Height: 1}})
	xproto.FreeGC(s.conn, gc)

	cursor, err := xproto.NewCursorId(s.conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateCursorChecked(s.conn, cursor, pix, pix,
		0, 0, 0, 0, 0, 0, 0, 0).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create cursor: %w", err)
	}
	return cursor, nil
}

func (s *xgbServer) FreeCursor(cursor xproto.Cursor) error {
	return xproto.FreeCursorChecked(s.conn, cursor).Check()
}

func (s *xgbServer) Atom(name string) (xproto.Atom, error) {
	return xprop.Atm(s.xu, name)
}

func (s *xgbServer) AtomName(atom xproto.Atom) (string, error) {
	return xprop.AtomName(s.xu, atom)
}

func (s *xgbServer) ListProperties(win xproto.Window) ([]xproto.Atom, error) {
	reply, err := xproto.ListProperties(s.conn, win).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Atoms, nil
}

func (s *xgbServer) GetProperty(win xproto.Window, prop xproto.Atom, length uint32) (PropertyValue, error) {
	reply, err := xproto.GetProperty(s.conn, false, win, prop,
		xproto.GetPropertyTypeAny, 0, length).Reply()
	if err != nil {
		return PropertyValue{}, err
	}
	return PropertyValue{
		Type:       reply.Type,
		Format:     reply.Format,
		Items:      int(reply.ValueLen),
		BytesAfter: reply.BytesAfter,
		Data:       reply.Value,
	}, nil
}

func (s *xgbServer) DeleteProperty(win xproto.Window, name string) error {
	atom, err := xprop.Atm(s.xu, name)
	if err != nil {
		return err
	}
	return xproto.DeletePropertyChecked(s.conn, win, atom).Check()
}

func (s *xgbServer) WMName(win xproto.Window) (string, bool) {
	if name, err := icccm.WmNameGet(s.xu, win); err == nil && name != "" {
		return name, true
	}
	if name, err := ewmh.WmNameGet(s.xu, win); err == nil && name != "" {
		return name, true
	}
	return "", false
}

func (s *xgbServer) SetWMName(win xproto.Window, name string) error {
	if err := icccm.WmNameSet(s.xu, win, name); err != nil {
		return err
	}
	return ewmh.WmNameSet(s.xu, win, name)
}

func (s *xgbServer) SetWMProtocols(win xproto.Window, protocols []string) error {
	return icccm.WmProtocolsSet(s.xu, win, protocols)
}

func (s *xgbServer) SetTransientFor(win, owner xproto.Window) error {
	return icccm.WmTransientForSet(s.xu, win, owner)
}

func (s *xgbServer) RequestWMState(win xproto.Window, action int, state string) error {
	return ewmh.WmStateReq(s.xu, win, action, state)
}

func (s *xgbServer) SetWindowType(win xproto.Window, types []string) error {
	return ewmh.WmWindowTypeSet(s.xu, win, types)
}

func (s *xgbServer) CompositeSupported() bool {
	return s.hasComposite && s.hasRender
}

// ARGBVisual finds a 32-bit visual whose render format carries an alpha channel.
func (s *xgbServer) ARGBVisual() (xproto.Visualid, bool) {
	if !s.hasRender {
		return 0, false
	}
	reply, err := render.QueryPictFormats(s.conn).Reply()
	if err != nil {
		s.logger.Debug("failed to query picture formats", "error", err)
		return 0, false
	}

	alpha := make(map[render.Pictformat]bool)
	for _, f := range reply.Formats {
		if f.Type == render.PictTypeDirect && f.Depth == 32 && f.Direct.AlphaMask != 0 {
			alpha[f.Id] = true
		}
	}

	screen := s.conn.DefaultScreen
	if screen >= len(reply.Screens) {
		return 0, false
	}
	for _, depth := range reply.Screens[screen].Depths {
		if depth.Depth != 32 {
			continue
		}
		for _, v := range depth.Visuals {
			if alpha[v.Format] {
				return v.Visual, true
			}
		}
	}
	return 0, false
}

// glxFixedProperties is the number of leading, positional entries in each
// GLX visual config record; key/value pairs follow.
const glxFixedProperties = 18

// GLXVisual picks the deepest double-buffered RGBA visual advertised by GLX.
func (s *xgbServer) GLXVisual() (xproto.Visualid, byte, bool) {
	if !s.hasGLX {
		return 0, 0, false
	}
	reply, err := glx.GetVisualConfigs(s.conn, uint32(s.conn.DefaultScreen)).Reply()
	if err != nil {
		s.logger.Debug("failed to query glx visual configs", "error", err)
		return 0, 0, false
	}
	stride := int(reply.NumProperties)
	if stride < glxFixedProperties {
		return 0, 0, false
	}

	depths := make(map[xproto.Visualid]byte)
	for _, d := range s.xu.Screen().AllowedDepths {
		for _, v := range d.Visuals {
			depths[v.VisualId] = d.Depth
		}
	}

	var (
		best      xproto.Visualid
		bestDepth byte
		bestBits  uint32
	)
	for i := 0; i+stride <= len(reply.PropertyList) && i/stride < int(reply.NumVisuals); i += stride {
		props := reply.PropertyList[i : i+stride]
		id := xproto.Visualid(props[0])
		rgba, doubleBuffer, bufferBits := props[2] != 0, props[11] != 0, props[13]
		depth, ok := depths[id]
		if !ok || !rgba || !doubleBuffer {
			continue
		}
		if best == 0 || bufferBits > bestBits {
			best, bestDepth, bestBits = id, depth, bufferBits
		}
	}
	return best, bestDepth, best != 0
}

func (s *xgbServer) CreateColormap(visual xproto.Visualid) (xproto.Colormap, error) {
	cmap, err := xproto.NewColormapId(s.conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateColormapChecked(s.conn, xproto.ColormapAllocNone, cmap,
		s.screen.Root, visual).Check()
	if err != nil {
		return 0, err
	}
	return cmap, nil
}

func (s *xgbServer) FreeColormap(cmap xproto.Colormap) error {
	return xproto.FreeColormapChecked(s.conn, cmap).Check()
}

// SetShape uploads an XBM-layout bitmap (rows padded to a byte, LSB first)
// and sets it as the bounding shape of win.
func (s *xgbServer) SetShape(win xproto.Window, x, y, width, height int, bitmap []byte) error {
	if !s.hasShape {
		return errors.New("shape extension not available")
	}

	pix, err := xproto.NewPixmapId(s.conn)
	if err != nil {
		return err
	}
	err = xproto.CreatePixmapChecked(s.conn, 1, pix, xproto.Drawable(win),
		uint16(width), uint16(height)).Check()
	if err != nil {
		return fmt.Errorf("failed to create shape pixmap: %w", err)
	}
	defer xproto.FreePixmap(s.conn, pix)

	gc, err := xproto.NewGcontextId(s.conn)
	if err != nil {
		return err
	}
	if err := xproto.CreateGCChecked(s.conn, gc, xproto.Drawable(pix), 0, nil).Check(); err != nil {
		return fmt.Errorf("failed to create shape gc: %w", err)
	}
	defer xproto.FreeGC(s.conn, gc)

	setup := s.xu.Setup()
	stride, data := serverBitmap(bitmap, width, height,
		int(setup.BitmapFormatScanlinePad), setup.BitmapFormatBitOrder == xproto.ImageOrderMSBFirst)
	if err := s.putRows(xproto.Drawable(pix), gc, 1, 0, 0, width, height, stride, data); err != nil {
		return fmt.Errorf("failed to upload shape bitmap: %w", err)
	}

	return shape.MaskChecked(s.conn, shape.SoSet, shape.SkBounding, win,
		int16(x), int16(y), pix).Check()
}

func (s *xgbServer) ResetShape(win xproto.Window) error {
	if !s.hasShape {
		return errors.New("shape extension not available")
	}
	return shape.MaskChecked(s.conn, shape.SoSet, shape.SkBounding, win,
		0, 0, xproto.PixmapNone).Check()
}

func (s *xgbServer) FillRectangle(win xproto.Window, r image.Rectangle, pixel uint32) error {
	gc, err := xproto.NewGcontextId(s.conn)
	if err != nil {
		return err
	}
	if err := xproto.CreateGCChecked(s.conn, gc, xproto.Drawable(win),
		xproto.GcForeground, []uint32{pixel}).Check(); err != nil {
		return fmt.Errorf("failed to create gc: %w", err)
	}
	defer xproto.FreeGC(s.conn, gc)

	return xproto.PolyFillRectangleChecked(s.conn, xproto.Drawable(win), gc,
		[]xproto.Rectangle{{
			X:      int16(r.Min.X),
			Y:      int16(r.Min.Y),
			Width:  uint16(r.Dx()),
			Height: uint16(r.Dy()),
		}}).Check()
}

// PutImage converts img to the server's pixel layout for depth and draws
// it at dst.
func (s *xgbServer) PutImage(win xproto.Window, depth byte, dst image.Point, img image.Image) error {
	ximg := xgraphics.NewConvert(s.xu, img)
	b := ximg.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	format := xgraphics.GetFormat(s.xu, depth)
	if format == nil {
		return &UnsupportedDepthError{Depth: depth}
	}
	stride, data, err := packZPixmap(ximg.Pix[ximg.PixOffset(b.Min.X, b.Min.Y):], ximg.Stride,
		width, height, int(format.BitsPerPixel), int(format.ScanlinePad), s.msbFirst())
	if err != nil {
		return withDepth(err, depth)
	}

	gc, err := xproto.NewGcontextId(s.conn)
	if err != nil {
		return err
	}
	if err := xproto.CreateGCChecked(s.conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
		return fmt.Errorf("failed to create gc: %w", err)
	}
	defer xproto.FreeGC(s.conn, gc)

	return s.putRows(xproto.Drawable(win), gc, depth, dst.X, dst.Y, width, height, stride, data)
}

func (s *xgbServer) msbFirst() bool {
	return s.xu.Setup().ImageByteOrder == xproto.ImageOrderMSBFirst
}

func withDepth(err error, depth byte) error {
	var derr *UnsupportedDepthError
	if errors.As(err, &derr) {
		derr.Depth = depth
	}
	return err
}

// putRows sends ZPixmap data in as many PutImage requests as the maximum
// request size requires.
func (s *xgbServer) putRows(d xproto.Drawable, gc xproto.Gcontext, depth byte,
	x, y, width, height, stride int, data []byte) error {

	rowsPer := (xgbutil.MaxReqSize - putImageHeader) / stride
	if rowsPer < 1 {
		return fmt.Errorf("image row of %d bytes exceeds the request size", stride)
	}
	for row := 0; row < height; row += rowsPer {
		n := rowsPer
		if row+n > height {
			n = height - row
		}
		chunk := data[row*stride : (row+n)*stride]
		err := xproto.PutImageChecked(s.conn, xproto.ImageFormatZPixmap, d, gc,
			uint16(width), uint16(n), int16(x), int16(y+row), 0, depth, chunk).Check()
		if err != nil {
			return err
		}
	}
	return nil
}

// GetImage reads r of the window as ZPixmap data and converts it locally,
// with the same conversions PutImage uses.
func (s *xgbServer) GetImage(win xproto.Window, r image.Rectangle) (image.Image, error) {
	if r.Empty() {
		return image.NewRGBA(r), nil
	}
	reply, err := xproto.GetImage(s.conn, xproto.ImageFormatZPixmap, xproto.Drawable(win),
		int16(r.Min.X), int16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy()), 0xffffffff).Reply()
	if err != nil {
		return nil, err
	}
	format := xgraphics.GetFormat(s.xu, reply.Depth)
	if format == nil {
		return nil, &UnsupportedDepthError{Depth: reply.Depth}
	}
	img, err := unpackZPixmap(reply.Data, r, int(format.BitsPerPixel), int(format.ScanlinePad), s.msbFirst())
	if err != nil {
		return nil, withDepth(err, reply.Depth)
	}
	return img, nil
}

func (s *xgbServer) KeyName(code xproto.Keycode) string {
	return keybind.LookupString(s.xu, 0, code)
}

// Monitors lists the active CRTCs through RandR.
func (s *xgbServer) Monitors() ([]Monitor, error) {
	if err := randr.Init(s.conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(s.conn, s.screen.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(s.conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(s.conn, info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}
		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}
