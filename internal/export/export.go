// Package export renders panel content to standalone HTML pages.
package export

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/progress"
	"github.com/ziadkadry99/textpanel/internal/view"
)

// Processor renders panel options to safe HTML.
type Processor interface {
	Process(opts content.Options) (string, error)
}

// Document is one page to export.
type Document struct {
	// Name is the output path relative to the output directory, without
	// the .html extension.
	Name    string
	Title   string
	Options content.Options
	// Source is the file the document was read from, if any.
	Source string
}

// Exporter writes Documents as static pages.
type Exporter struct {
	proc     Processor
	outDir   string
	reporter progress.Reporter
}

// New creates an Exporter. A nil reporter discards progress.
func New(proc Processor, outDir string, reporter progress.Reporter) *Exporter {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Exporter{proc: proc, outDir: outDir, reporter: reporter}
}

// Export renders every document and returns the number of pages written.
// Documents that would write the same output file are rejected before
// anything is written.
func (e *Exporter) Export(docs []Document) (int, error) {
	if err := checkNames(docs); err != nil {
		return 0, err
	}

	e.reporter.Start(len(docs))
	defer e.reporter.Finish()

	for i, doc := range docs {
		if err := e.exportOne(doc); err != nil {
			return i, fmt.Errorf("exporting %s: %w", doc.Name, err)
		}
		e.reporter.Update(i+1, doc.Name)
	}
	return len(docs), nil
}

func (e *Exporter) exportOne(doc Document) error {
	html, err := e.proc.Process(doc.Options)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := view.Render(&buf, view.Page{Title: doc.Title, HTML: html}); err != nil {
		return err
	}

	outPath := filepath.Join(e.outDir, filepath.FromSlash(doc.Name)+".html")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

func checkNames(docs []Document) error {
	seen := make(map[string]int, len(docs))
	for i, doc := range docs {
		key := strings.ToLower(path.Clean(doc.Name))
		if j, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s both export to %s.html", sourceName(docs[j]), sourceName(doc), doc.Name)
		}
		seen[key] = i
	}
	return nil
}

func sourceName(doc Document) string {
	if doc.Source != "" {
		return doc.Source
	}
	return doc.Name
}

// ModeForPath picks a content mode from a file extension.
func ModeForPath(path string) content.Mode {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return content.ModeMarkdown
	case ".html", ".htm":
		return content.ModeHTML
	default:
		return content.ModeText
	}
}

// FindFiles returns the files under root matching any of the doublestar
// patterns, as sorted slash-separated relative paths.
func FindFiles(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadFiles reads files relative to root into Documents. An empty mode
// selects the mode from each file's extension.
func LoadFiles(root string, paths []string, mode content.Mode) ([]Document, error) {
	fsys := os.DirFS(root)
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		m := mode
		if m == "" {
			m = ModeForPath(p)
		}
		name := strings.TrimSuffix(p, filepath.Ext(p))
		docs = append(docs, Document{
			Name:    name,
			Title:   filepath.Base(name),
			Options: content.Options{Mode: m, Content: string(data)},
			Source:  p,
		})
	}
	return docs, nil
}
