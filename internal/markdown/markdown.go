// Package markdown renders panel Markdown to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Options configure the renderer.
type Options struct {
	Highlight      bool
	HighlightStyle string
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer. Raw HTML in the source is passed through; callers
// are expected to sanitize the output.
func New(opts Options) *Renderer {
	extensions := []goldmark.Extender{extension.GFM}
	if opts.Highlight {
		style := opts.HighlightStyle
		if style == "" {
			style = "github"
		}
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// Render converts source to HTML.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}
