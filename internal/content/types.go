package content

import "github.com/ziadkadry99/textpanel/internal/variables"

// Mode selects how panel content is interpreted.
type Mode string

const (
	ModeText     Mode = "text"
	ModeHTML     Mode = "html"
	ModeMarkdown Mode = "markdown"
)

// validModes is the set of recognized modes.
var validModes = map[Mode]bool{
	ModeText:     true,
	ModeHTML:     true,
	ModeMarkdown: true,
}

// Valid reports whether m is one of the recognized modes. Process treats
// unrecognized modes as text.
func (m Mode) Valid() bool { return validModes[m] }

// defaultContent is what a freshly created panel shows.
const defaultContent = `# Title

For markdown syntax help: [commonmark.org/help](https://commonmark.org/help/)
`

// Options are the user-facing panel options.
type Options struct {
	Mode    Mode   `json:"mode" yaml:"mode"`
	Content string `json:"content" yaml:"content"`
}

// DefaultOptions returns the options a new panel starts with.
func DefaultOptions() Options {
	return Options{Mode: ModeMarkdown, Content: defaultContent}
}

// Settings are process-wide rendering settings passed explicitly to the
// Processor.
type Settings struct {
	DisableSanitizeHTML bool
}

// VariableReplacer interpolates dashboard variables into text. format names
// the escaping applied to substituted values.
type VariableReplacer func(text string, scoped variables.ScopedVars, format string) (string, error)

// MarkdownRenderer converts Markdown source to HTML.
type MarkdownRenderer interface {
	Render(source string) (string, error)
}

// Sanitizer strips unsafe markup from an HTML string.
type Sanitizer interface {
	Sanitize(html string) string
}
