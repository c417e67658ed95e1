package mcp

import (
	"context"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/BurntSushi/xgb/xproto"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/freevo/kaa-display/internal/x11"
)

// maxHexBytes bounds the raw property bytes returned as hex.
const maxHexBytes = 64

func (s *Server) window(id uint32) *x11.Window {
	if id == 0 {
		return s.conn.Root()
	}
	return s.conn.Window(xproto.Window(id))
}

func (s *Server) handleListChildren(_ context.Context, _ *mcpsdk.CallToolRequest, args ListChildrenInput) (*mcpsdk.CallToolResult, ListChildrenOutput, error) {
	w := s.window(args.Window)
	ids, err := w.Children(args.Recursive, args.VisibleOnly, args.TitledOnly)
	if err != nil {
		return nil, ListChildrenOutput{}, fmt.Errorf("failed to list children of %d: %w", w.ID(), err)
	}

	out := ListChildrenOutput{Parent: uint32(w.ID()), Children: make([]ChildInfo, 0, len(ids))}
	for _, id := range ids {
		info := ChildInfo{Window: uint32(id)}
		if title, ok, err := s.conn.Window(id).Title(); err == nil && ok {
			info.Title = title
		}
		out.Children = append(out.Children, info)
	}
	s.logger.Debug("list_children", "window", w.ID(), "count", len(out.Children))
	return nil, out, nil
}

func (s *Server) handleGetGeometry(_ context.Context, _ *mcpsdk.CallToolRequest, args GetGeometryInput) (*mcpsdk.CallToolResult, GetGeometryOutput, error) {
	w := s.window(args.Window)
	r, err := w.Geometry(args.Absolute)
	if err != nil {
		return nil, GetGeometryOutput{}, fmt.Errorf("failed to get geometry of %d: %w", w.ID(), err)
	}
	visible, err := w.Visible()
	if err != nil {
		return nil, GetGeometryOutput{}, err
	}
	parent, err := w.Parent()
	if err != nil {
		return nil, GetGeometryOutput{}, err
	}
	return nil, GetGeometryOutput{
		Window:  uint32(w.ID()),
		X:       r.X,
		Y:       r.Y,
		Width:   r.Width,
		Height:  r.Height,
		Visible: visible,
		Parent:  uint32(parent),
	}, nil
}

func (s *Server) handleGetProperties(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowRef) (*mcpsdk.CallToolResult, GetPropertiesOutput, error) {
	w := s.window(args.Window)
	props, err := w.Properties()
	if err != nil {
		return nil, GetPropertiesOutput{}, fmt.Errorf("failed to get properties of %d: %w", w.ID(), err)
	}
	out := GetPropertiesOutput{Window: uint32(w.ID()), Properties: make([]PropertyInfo, 0, len(props))}
	for _, p := range props {
		out.Properties = append(out.Properties, propertyInfo(p))
	}
	return nil, out, nil
}

func propertyInfo(p x11.Property) PropertyInfo {
	info := PropertyInfo{Name: p.Name, Type: p.Type, Format: p.Format, Items: p.Items, Atoms: p.Atoms}
	if p.Atoms != nil {
		return info
	}
	if p.Format == 8 && utf8.Valid(p.Data) {
		info.Text = string(p.Data)
		return info
	}
	data := p.Data
	if len(data) > maxHexBytes {
		data = data[:maxHexBytes]
	}
	info.Hex = hex.EncodeToString(data)
	return info
}

func (s *Server) handleGetTitle(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowRef) (*mcpsdk.CallToolResult, GetTitleOutput, error) {
	w := s.window(args.Window)
	title, ok, err := w.Title()
	if err != nil {
		return nil, GetTitleOutput{}, err
	}
	return nil, GetTitleOutput{Window: uint32(w.ID()), Title: title, Found: ok}, nil
}

func (s *Server) handlePollEvents(_ context.Context, _ *mcpsdk.CallToolRequest, args PollEventsInput) (*mcpsdk.CallToolResult, PollEventsOutput, error) {
	events, err := s.conn.PollEvents()
	if err != nil {
		return nil, PollEventsOutput{}, err
	}
	out := PollEventsOutput{Events: make([]EventInfo, 0, len(events))}
	for _, ev := range events {
		if args.Window != 0 && uint32(ev.WindowID()) != args.Window {
			continue
		}
		out.Events = append(out.Events, s.eventInfo(ev))
	}
	return nil, out, nil
}

func (s *Server) eventInfo(ev x11.Event) EventInfo {
	info := EventInfo{Type: ev.Type().String(), Window: uint32(ev.WindowID())}
	switch e := ev.(type) {
	case x11.ExposeEvent:
		info.X, info.Y, info.Width, info.Height = e.X, e.Y, e.Width, e.Height
	case x11.ConfigureNotifyEvent:
		info.X, info.Y, info.Width, info.Height = e.X, e.Y, e.Width, e.Height
	case x11.MotionNotifyEvent:
		info.X, info.Y, info.RootX, info.RootY = e.X, e.Y, e.RootX, e.RootY
	case x11.KeyPressEvent:
		info.Keycode = int(e.Keycode)
		info.Key = s.conn.KeyName(e.Keycode)
	}
	return info
}
