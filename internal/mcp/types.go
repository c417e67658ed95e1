package mcp

// WindowRef names a window; zero means the root window.
type WindowRef struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X window id (default: the root window)"`
}

// ListChildrenInput is the input for the list_children tool.
type ListChildrenInput struct {
	Window      uint32 `json:"window,omitempty" jsonschema:"X window id whose children to list (default: the root window)"`
	Recursive   bool   `json:"recursive,omitempty" jsonschema:"Walk the whole subtree instead of direct children only"`
	VisibleOnly bool   `json:"visible_only,omitempty" jsonschema:"Skip unmapped or off-screen windows together with their subtrees"`
	TitledOnly  bool   `json:"titled_only,omitempty" jsonschema:"Only return windows that have a title"`
}

// ChildInfo describes one window returned by list_children.
type ChildInfo struct {
	Window uint32 `json:"window"`
	Title  string `json:"title,omitempty"`
}

// ListChildrenOutput is the output for the list_children tool.
type ListChildrenOutput struct {
	Parent   uint32      `json:"parent"`
	Children []ChildInfo `json:"children"`
}

// GetGeometryInput is the input for the get_geometry tool.
type GetGeometryInput struct {
	Window   uint32 `json:"window,omitempty" jsonschema:"X window id (default: the root window)"`
	Absolute bool   `json:"absolute,omitempty" jsonschema:"Report the position relative to the root window instead of the parent"`
}

// GetGeometryOutput is the output for the get_geometry tool.
type GetGeometryOutput struct {
	Window  uint32 `json:"window"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Visible bool   `json:"visible"`
	Parent  uint32 `json:"parent"`
}

// PropertyInfo is one window property.
type PropertyInfo struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Format int      `json:"format"`
	Items  int      `json:"items"`
	Atoms  []string `json:"atoms,omitempty"`
	Text   string   `json:"text,omitempty"`
	Hex    string   `json:"hex,omitempty"`
}

// GetPropertiesOutput is the output for the get_properties tool.
type GetPropertiesOutput struct {
	Window     uint32         `json:"window"`
	Properties []PropertyInfo `json:"properties"`
}

// GetTitleOutput is the output for the get_title tool.
type GetTitleOutput struct {
	Window uint32 `json:"window"`
	Title  string `json:"title"`
	Found  bool   `json:"found"`
}

// PollEventsInput is the input for the poll_events tool.
type PollEventsInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"Only return events for this window (default: all windows)"`
}

// EventInfo is one translated X event.
type EventInfo struct {
	Type    string `json:"type"`
	Window  uint32 `json:"window"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	RootX   int    `json:"root_x,omitempty"`
	RootY   int    `json:"root_y,omitempty"`
	Keycode int    `json:"keycode,omitempty"`
	Key     string `json:"key,omitempty"`
}

// PollEventsOutput is the output for the poll_events tool.
type PollEventsOutput struct {
	Events []EventInfo `json:"events"`
}
