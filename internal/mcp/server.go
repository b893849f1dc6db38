package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/panels"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Processor renders panel options to safe HTML.
type Processor interface {
	Process(opts content.Options) (string, error)
}

// Server wraps an MCP server that exposes panel rendering tools.
type Server struct {
	proc   Processor
	panels *panels.Store
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server. store may be nil, in which case the
// panel tools are not registered.
func NewServer(proc Processor, store *panels.Store) *Server {
	s := &Server{
		proc:   proc,
		panels: store,
	}

	s.mcp = server.NewMCPServer(
		"textpanel",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(renderContentTool, s.handleRenderContent)
	if s.panels != nil {
		s.mcp.AddTool(listPanelsTool, s.handleListPanels)
		s.mcp.AddTool(renderPanelTool, s.handleRenderPanel)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
