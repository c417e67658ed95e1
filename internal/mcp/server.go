// Package mcp exposes X window introspection as MCP tools.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/freevo/kaa-display/internal/x11"
)

const (
	ServerName    = "kaa-display"
	ServerVersion = "0.1.0"
)

// Server is the MCP server. It works through foreign handles on one
// display connection and never creates or destroys windows.
type Server struct {
	mcpServer *mcpsdk.Server
	conn      *x11.Connection
	logger    *slog.Logger
}

// NewServer creates a server on conn.
func NewServer(conn *x11.Connection, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{conn: conn, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_children",
		Description: "List the child windows of an X window (the root window by default). Optionally walk the whole subtree, skip hidden or off-screen windows, or keep only titled windows.",
	}, s.handleListChildren)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_geometry",
		Description: "Get the position and size of an X window, relative to its parent or to the root window, plus its visibility and parent id.",
	}, s.handleGetGeometry)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_properties",
		Description: "List every property set on an X window. ATOM values are resolved to names; text values are returned as text and everything else as hex.",
	}, s.handleGetProperties)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_title",
		Description: "Get the title of an X window from WM_NAME or _NET_WM_NAME.",
	}, s.handleGetTitle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "poll_events",
		Description: "Return the expose, key press, pointer motion and configure events received since the last poll. Never blocks.",
	}, s.handlePollEvents)
}
