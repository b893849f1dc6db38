// Package view writes rendered panel HTML into a page.
//
// Panel HTML is inserted as template.HTML: it has already been sanitized by
// the content processor unless sanitizing was explicitly disabled.
package view

import (
	"fmt"
	"html/template"
	"io"
)

var templates = template.Must(template.Must(
	template.New("page").Parse(pageTemplate)).
	New("fragment").Parse(fragmentTemplate))

// Page describes a full panel page.
type Page struct {
	Title string
	HTML  string
	// LiveURL is the websocket path that streams updated HTML. Empty
	// renders a static page.
	LiveURL string
}

// pageData holds the data passed to the page template.
type pageData struct {
	Title   string
	Content template.HTML
	LiveURL string
}

// Render writes a complete HTML document for page.
func Render(w io.Writer, page Page) error {
	data := pageData{
		Title:   page.Title,
		Content: template.HTML(page.HTML),
		LiveURL: page.LiveURL,
	}
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// Fragment writes only the content container.
func Fragment(w io.Writer, html string) error {
	if err := templates.ExecuteTemplate(w, "fragment", template.HTML(html)); err != nil {
		return fmt.Errorf("rendering fragment: %w", err)
	}
	return nil
}
