// Package x11test provides an in-memory x11.Server for tests.
package x11test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/freevo/kaa-display/internal/x11"
)

// ErrBadWindow is returned for requests on unknown windows.
var ErrBadWindow = errors.New("BadWindow")

// Window is the fake server's record of one window.
type Window struct {
	ID           xproto.Window
	Parent       xproto.Window
	Children     []xproto.Window
	Attrs        x11.Attributes
	Name         string
	EventMask    uint32
	Cursor       xproto.Cursor
	Shape        []byte
	ShapeRect    image.Rectangle
	Types        []string
	Protocols    []string
	TransientFor xproto.Window
	Properties   map[xproto.Atom]x11.PropertyValue
	Stacking     []uint32
}

// StateRequest records a _NET_WM_STATE client message.
type StateRequest struct {
	Window xproto.Window
	Action int
	State  string
}

// Fill records a FillRectangle request.
type Fill struct {
	Window xproto.Window
	Rect   image.Rectangle
	Pixel  uint32
}

// Put records a PutImage request.
type Put struct {
	Window xproto.Window
	Depth  byte
	Dst    image.Point
	Image  image.Image
}

// Server is a fake X server holding a window tree in memory. Every request
// is appended to Calls.
type Server struct {
	Info    x11.ScreenInfo
	Windows map[xproto.Window]*Window
	Events  []xgb.Event

	Composite  bool
	ARGBID     xproto.Visualid
	GLXID      xproto.Visualid
	GLXDepth   byte
	MonitorSet []x11.Monitor
	// Contents is returned by GetImage when set.
	Contents image.Image

	// SelectInputErrs are returned by successive SelectInput calls.
	SelectInputErrs []error
	CreateErr       error
	HintErr         error
	CursorErr       error

	Calls         []string
	Masks         []uint32
	Created       []x11.CreateParams
	Destroyed     []xproto.Window
	Cursors       []xproto.Cursor
	FreedCursors  []xproto.Cursor
	Colormaps     []xproto.Colormap
	FreedCmaps    []xproto.Colormap
	StateRequests []StateRequest
	Fills         []Fill
	Puts          []Put
	Focused       xproto.Window
	Ungrabs       int
	Syncs         int
	Closed        bool

	nextID    uint32
	atoms     map[string]xproto.Atom
	atomNames map[xproto.Atom]string
}

var _ x11.Server = (*Server)(nil)

// RootID is the id of the fake root window.
const RootID xproto.Window = 1

// New returns a fake server with a mapped 1920x1080 depth-24 root window.
func New() *Server {
	s := &Server{
		Info: x11.ScreenInfo{
			Root:     RootID,
			Width:    1920,
			Height:   1080,
			Depth:    24,
			Visual:   0x21,
			Colormap: 0x20,
		},
		Windows:   make(map[xproto.Window]*Window),
		nextID:    0x400000,
		atoms:     make(map[string]xproto.Atom),
		atomNames: make(map[xproto.Atom]string),
	}
	s.Windows[RootID] = &Window{
		ID: RootID,
		Attrs: x11.Attributes{
			Width:    1920,
			Height:   1080,
			Depth:    24,
			MapState: xproto.MapStateViewable,
			Class:    xproto.WindowClassInputOutput,
		},
		Properties: make(map[xproto.Atom]x11.PropertyValue),
	}
	for _, name := range []string{"ATOM", "CARDINAL", "STRING", "WINDOW", "UTF8_STRING"} {
		s.intern(name)
	}
	return s
}

// AddWindow inserts a child of parent and returns its id.
func (s *Server) AddWindow(parent xproto.Window, x, y, width, height int, mapped bool, name string) xproto.Window {
	s.nextID++
	id := xproto.Window(s.nextID)
	state := byte(xproto.MapStateUnmapped)
	if mapped {
		state = xproto.MapStateViewable
	}
	s.Windows[id] = &Window{
		ID:     id,
		Parent: parent,
		Name:   name,
		Attrs: x11.Attributes{
			X:        x,
			Y:        y,
			Width:    width,
			Height:   height,
			Depth:    s.Info.Depth,
			MapState: state,
			Class:    xproto.WindowClassInputOutput,
		},
		Properties: make(map[xproto.Atom]x11.PropertyValue),
	}
	if p, ok := s.Windows[parent]; ok {
		p.Children = append(p.Children, id)
	}
	return id
}

// SetProperty stores a raw property value on win.
func (s *Server) SetProperty(win xproto.Window, name, typ string, format byte, data []byte) {
	w := s.Windows[win]
	items := len(data)
	if format > 8 {
		items = len(data) / int(format/8)
	}
	w.Properties[s.intern(name)] = x11.PropertyValue{
		Type:   s.intern(typ),
		Format: format,
		Items:  items,
		Data:   data,
	}
}

// SetAtomProperty stores an ATOM-typed property holding names.
func (s *Server) SetAtomProperty(win xproto.Window, name string, values ...string) {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(s.intern(v)))
	}
	s.SetProperty(win, name, "ATOM", 32, data)
}

// CallCount counts recorded calls named op.
func (s *Server) CallCount(op string) int {
	n := 0
	for _, c := range s.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (s *Server) record(op string) {
	s.Calls = append(s.Calls, op)
}

func (s *Server) intern(name string) xproto.Atom {
	if a, ok := s.atoms[name]; ok {
		return a
	}
	a := xproto.Atom(len(s.atoms) + 100)
	s.atoms[name] = a
	s.atomNames[a] = name
	return a
}

func (s *Server) window(win xproto.Window) (*Window, error) {
	w, ok := s.Windows[win]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadWindow, win)
	}
	return w, nil
}

func (s *Server) Screen() x11.ScreenInfo { return s.Info }

func (s *Server) Fd() int { return 42 }

func (s *Server) Sync() error {
	s.record("Sync")
	s.Syncs++
	return nil
}

func (s *Server) PollEvent() (xgb.Event, error) {
	if len(s.Events) == 0 {
		return nil, nil
	}
	ev := s.Events[0]
	s.Events = s.Events[1:]
	return ev, nil
}

func (s *Server) Close() {
	s.record("Close")
	s.Closed = true
}

func (s *Server) CreateWindow(p x11.CreateParams) (xproto.Window, error) {
	s.record("CreateWindow")
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	if _, err := s.window(p.Parent); err != nil {
		return 0, err
	}
	s.Created = append(s.Created, p)
	id := s.AddWindow(p.Parent, p.X, p.Y, p.Width, p.Height, false, "")
	w := s.Windows[id]
	w.EventMask = p.Values[xproto.CwEventMask]
	w.Attrs.Class = p.Class
	w.Attrs.Visual = p.Visual
	if p.Depth != 0 {
		w.Attrs.Depth = p.Depth
	}
	return id, nil
}

func (s *Server) DestroyWindow(win xproto.Window) error {
	s.record("DestroyWindow")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	s.Destroyed = append(s.Destroyed, win)
	if p, ok := s.Windows[w.Parent]; ok {
		for i, c := range p.Children {
			if c == win {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	delete(s.Windows, win)
	return nil
}

func (s *Server) SelectInput(win xproto.Window, mask uint32) error {
	s.record("SelectInput")
	s.Masks = append(s.Masks, mask)
	if len(s.SelectInputErrs) > 0 {
		err := s.SelectInputErrs[0]
		s.SelectInputErrs = s.SelectInputErrs[1:]
		if err != nil {
			return err
		}
	}
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.EventMask = mask
	return nil
}

func (s *Server) ChangeAttributes(win xproto.Window, values x11.ValueList) error {
	s.record("ChangeAttributes")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	if v, ok := values[xproto.CwCursor]; ok {
		w.Cursor = xproto.Cursor(v)
	}
	if v, ok := values[xproto.CwEventMask]; ok {
		w.EventMask = v
	}
	return nil
}

func (s *Server) MapWindow(win xproto.Window) error {
	s.record("MapWindow")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Attrs.MapState = xproto.MapStateViewable
	return nil
}

func (s *Server) UnmapWindow(win xproto.Window) error {
	s.record("UnmapWindow")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Attrs.MapState = xproto.MapStateUnmapped
	return nil
}

func (s *Server) ConfigureWindow(win xproto.Window, values x11.ValueList) error {
	s.record("ConfigureWindow")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	if v, ok := values[xproto.ConfigWindowX]; ok {
		w.Attrs.X = int(int32(v))
	}
	if v, ok := values[xproto.ConfigWindowY]; ok {
		w.Attrs.Y = int(int32(v))
	}
	if v, ok := values[xproto.ConfigWindowWidth]; ok {
		w.Attrs.Width = int(v)
	}
	if v, ok := values[xproto.ConfigWindowHeight]; ok {
		w.Attrs.Height = int(v)
	}
	if v, ok := values[xproto.ConfigWindowStackMode]; ok {
		w.Stacking = append(w.Stacking, v)
	}
	return nil
}

func (s *Server) Attributes(win xproto.Window) (x11.Attributes, error) {
	s.record("Attributes")
	w, err := s.window(win)
	if err != nil {
		return x11.Attributes{}, err
	}
	return w.Attrs, nil
}

func (s *Server) QueryTree(win xproto.Window) (x11.Tree, error) {
	s.record("QueryTree")
	w, err := s.window(win)
	if err != nil {
		return x11.Tree{}, err
	}
	children := append([]xproto.Window(nil), w.Children...)
	return x11.Tree{Root: RootID, Parent: w.Parent, Children: children}, nil
}

func (s *Server) SetInputFocus(win xproto.Window) error {
	s.record("SetInputFocus")
	if _, err := s.window(win); err != nil {
		return err
	}
	s.Focused = win
	return nil
}

func (s *Server) UngrabPointer() error {
	s.record("UngrabPointer")
	s.Ungrabs++
	return nil
}

func (s *Server) CreateInvisibleCursor(win xproto.Window) (xproto.Cursor, error) {
	s.record("CreateInvisibleCursor")
	if s.CursorErr != nil {
		return 0, s.CursorErr
	}
	s.nextID++
	c := xproto.Cursor(s.nextID)
	s.Cursors = append(s.Cursors, c)
	return c, nil
}

func (s *Server) FreeCursor(cursor xproto.Cursor) error {
	s.record("FreeCursor")
	s.FreedCursors = append(s.FreedCursors, cursor)
	return nil
}

func (s *Server) Atom(name string) (xproto.Atom, error) {
	return s.intern(name), nil
}

func (s *Server) AtomName(atom xproto.Atom) (string, error) {
	name, ok := s.atomNames[atom]
	if !ok {
		return "", fmt.Errorf("BadAtom: %d", atom)
	}
	return name, nil
}

func (s *Server) ListProperties(win xproto.Window) ([]xproto.Atom, error) {
	s.record("ListProperties")
	w, err := s.window(win)
	if err != nil {
		return nil, err
	}
	atoms := make([]xproto.Atom, 0, len(w.Properties))
	for a := range w.Properties {
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func (s *Server) GetProperty(win xproto.Window, prop xproto.Atom, length uint32) (x11.PropertyValue, error) {
	s.record("GetProperty")
	w, err := s.window(win)
	if err != nil {
		return x11.PropertyValue{}, err
	}
	v, ok := w.Properties[prop]
	if !ok {
		return x11.PropertyValue{}, nil
	}
	unit := 1
	if v.Format > 8 {
		unit = int(v.Format / 8)
	}
	limit := int(length) * 4
	if len(v.Data) > limit {
		v.BytesAfter = uint32(len(v.Data) - limit)
		v.Data = v.Data[:limit]
		v.Items = limit / unit
	}
	return v, nil
}

func (s *Server) DeleteProperty(win xproto.Window, name string) error {
	s.record("DeleteProperty")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	delete(w.Properties, s.intern(name))
	if name == "WM_TRANSIENT_FOR" {
		w.TransientFor = 0
	}
	return nil
}

func (s *Server) WMName(win xproto.Window) (string, bool) {
	w, ok := s.Windows[win]
	if !ok || w.Name == "" {
		return "", false
	}
	return w.Name, true
}

func (s *Server) SetWMName(win xproto.Window, name string) error {
	s.record("SetWMName")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Name = name
	return nil
}

func (s *Server) SetWMProtocols(win xproto.Window, protocols []string) error {
	s.record("SetWMProtocols")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Protocols = protocols
	return nil
}

func (s *Server) SetTransientFor(win, owner xproto.Window) error {
	s.record("SetTransientFor")
	if s.HintErr != nil {
		return s.HintErr
	}
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.TransientFor = owner
	return nil
}

func (s *Server) RequestWMState(win xproto.Window, action int, state string) error {
	s.record("RequestWMState")
	if s.HintErr != nil {
		return s.HintErr
	}
	s.StateRequests = append(s.StateRequests, StateRequest{Window: win, Action: action, State: state})
	return nil
}

func (s *Server) SetWindowType(win xproto.Window, types []string) error {
	s.record("SetWindowType")
	if s.HintErr != nil {
		return s.HintErr
	}
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Types = types
	return nil
}

func (s *Server) CompositeSupported() bool { return s.Composite }

func (s *Server) ARGBVisual() (xproto.Visualid, bool) {
	return s.ARGBID, s.ARGBID != 0
}

func (s *Server) GLXVisual() (xproto.Visualid, byte, bool) {
	return s.GLXID, s.GLXDepth, s.GLXID != 0
}

func (s *Server) CreateColormap(visual xproto.Visualid) (xproto.Colormap, error) {
	s.record("CreateColormap")
	s.nextID++
	c := xproto.Colormap(s.nextID)
	s.Colormaps = append(s.Colormaps, c)
	return c, nil
}

func (s *Server) FreeColormap(cmap xproto.Colormap) error {
	s.record("FreeColormap")
	s.FreedCmaps = append(s.FreedCmaps, cmap)
	return nil
}

func (s *Server) SetShape(win xproto.Window, x, y, width, height int, bitmap []byte) error {
	s.record("SetShape")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Shape = append([]byte(nil), bitmap...)
	w.ShapeRect = image.Rect(x, y, x+width, y+height)
	return nil
}

func (s *Server) ResetShape(win xproto.Window) error {
	s.record("ResetShape")
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.Shape = nil
	w.ShapeRect = image.Rectangle{}
	return nil
}

func (s *Server) FillRectangle(win xproto.Window, r image.Rectangle, pixel uint32) error {
	s.record("FillRectangle")
	s.Fills = append(s.Fills, Fill{Window: win, Rect: r, Pixel: pixel})
	return nil
}

func (s *Server) PutImage(win xproto.Window, depth byte, dst image.Point, img image.Image) error {
	s.record("PutImage")
	if _, err := s.window(win); err != nil {
		return err
	}
	s.Puts = append(s.Puts, Put{Window: win, Depth: depth, Dst: dst, Image: img})
	return nil
}

func (s *Server) GetImage(win xproto.Window, r image.Rectangle) (image.Image, error) {
	s.record("GetImage")
	if _, err := s.window(win); err != nil {
		return nil, err
	}
	if s.Contents != nil {
		return s.Contents, nil
	}
	return image.NewRGBA(r), nil
}

func (s *Server) KeyName(code xproto.Keycode) string {
	return fmt.Sprintf("key%d", code)
}

func (s *Server) Monitors() ([]x11.Monitor, error) {
	s.record("Monitors")
	return s.MonitorSet, nil
}
