package content

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/textpanel/internal/variables"
)

// Processor turns panel options into HTML that is safe to inject into a page.
type Processor struct {
	replace   VariableReplacer
	markdown  MarkdownRenderer
	sanitizer Sanitizer
	settings  Settings
}

// NewProcessor creates a Processor. A nil replace leaves text unchanged.
// sanitizer may only be nil when settings disable sanitizing.
func NewProcessor(replace VariableReplacer, markdown MarkdownRenderer, sanitizer Sanitizer, settings Settings) *Processor {
	if replace == nil {
		replace = func(text string, _ variables.ScopedVars, _ string) (string, error) { return text, nil }
	}
	return &Processor{
		replace:   replace,
		markdown:  markdown,
		sanitizer: sanitizer,
		settings:  settings,
	}
}

// Process renders opts.Content according to opts.Mode.
func (p *Processor) Process(opts Options) (string, error) {
	if opts.Content == "" {
		return "", nil
	}

	switch opts.Mode {
	case ModeMarkdown:
		return p.prepareMarkdown(opts.Content)
	case ModeHTML:
		return p.prepareHTML(opts.Content)
	default:
		return p.prepareHTML(EscapeText(opts.Content))
	}
}

func (p *Processor) prepareMarkdown(source string) (string, error) {
	if p.markdown == nil {
		return "", fmt.Errorf("rendering markdown: no renderer configured")
	}
	html, err := p.markdown.Render(source)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return p.prepareHTML(html)
}

// prepareHTML substitutes variables with HTML escaping and then sanitizes.
func (p *Processor) prepareHTML(html string) (string, error) {
	html, err := p.replace(html, nil, variables.FormatHTML)
	if err != nil {
		return "", fmt.Errorf("replacing variables: %w", err)
	}
	if p.settings.DisableSanitizeHTML {
		return html, nil
	}
	if p.sanitizer == nil {
		return "", fmt.Errorf("sanitizing html: no sanitizer configured")
	}
	return p.sanitizer.Sanitize(html), nil
}

// EscapeText converts plain text into HTML. Ampersands are escaped first so
// the entities inserted afterwards are not escaped twice.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, "\n", "<br/>")
}
