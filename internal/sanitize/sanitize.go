// Package sanitize strips unsafe markup from rendered panel HTML.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// highlightStyles are the inline CSS properties emitted by the syntax
// highlighter.
var highlightStyles = []string{
	"color",
	"background-color",
	"font-weight",
	"font-style",
	"text-decoration",
}

// Sanitizer removes scripts, event handlers and other unsafe markup.
// It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New returns a Sanitizer built on the user-generated-content policy, widened
// to keep class names and highlighter colours.
func New() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowStyles(highlightStyles...).OnElements("span", "pre", "code")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	return &Sanitizer{policy: p}
}

// Sanitize returns html with unsafe markup removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
