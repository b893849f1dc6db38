package mcp

import "github.com/mark3labs/mcp-go/mcp"

// renderContentTool defines the render_content MCP tool.
var renderContentTool = mcp.NewTool("render_content",
	mcp.WithDescription("Render text, HTML or Markdown content to sanitized HTML with dashboard variables substituted."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Raw panel content"),
	),
	mcp.WithString("mode",
		mcp.Description("How to interpret the content (default markdown)"),
		mcp.Enum("markdown", "html", "text"),
	),
)

// listPanelsTool defines the list_panels MCP tool.
var listPanelsTool = mcp.NewTool("list_panels",
	mcp.WithDescription("List stored text panels with their ids, titles and modes."),
)

// renderPanelTool defines the render_panel MCP tool.
var renderPanelTool = mcp.NewTool("render_panel",
	mcp.WithDescription("Render a stored text panel to sanitized HTML."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Panel id"),
	),
)
