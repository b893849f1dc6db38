package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/textpanel/internal/content"
)

// handleRenderContent processes ad-hoc content.
func (s *Server) handleRenderContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	mode := content.Mode(request.GetString("mode", string(content.ModeMarkdown)))
	if !mode.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid mode %q: must be one of markdown, html, text", mode)), nil
	}

	html, err := s.proc.Process(content.Options{Mode: mode, Content: raw})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(html), nil
}

// handleListPanels lists stored panels.
func (s *Server) handleListPanels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.panels.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing panels failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No panels found. Create one with POST /api/panels."), nil
	}

	var b strings.Builder
	for _, p := range list {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "- %s  %s  [%s]\n", p.ID, title, p.Options.Mode)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleRenderPanel renders a stored panel with the current variables.
func (s *Server) handleRenderPanel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	p, err := s.panels.GetByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading panel failed: %v", err)), nil
	}
	if p == nil {
		return mcp.NewToolResultError(fmt.Sprintf("panel %q not found", id)), nil
	}

	html, err := s.proc.Process(p.Options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(html), nil
}
