package view

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderInjectsTrustedHTML(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Page{
		Title:   "Ops <notes>",
		HTML:    `<h1 id="status">Status</h1><p>a&amp;b<br/></p>`,
		LiveURL: "/ws/panels/abc",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `<div id="panel-content" class="markdown-html"><h1 id="status">Status</h1><p>a&amp;b<br/></p></div>`) {
		t.Errorf("panel html not injected verbatim:\n%s", out)
	}
	if !strings.Contains(out, "<title>Ops &lt;notes&gt;</title>") {
		t.Errorf("title not escaped:\n%s", out)
	}
	if !strings.Contains(out, `class="panel-scroll"`) {
		t.Errorf("missing scroll container:\n%s", out)
	}
	if !strings.Contains(out, "new WebSocket") || !strings.Contains(out, `ws\/panels\/abc`) {
		t.Errorf("missing live update script:\n%s", out)
	}
}

func TestRenderStatic(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Page{HTML: "<p>x</p>"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "WebSocket") {
		t.Error("static page should not open a socket")
	}
	if !strings.Contains(out, "<title>Text panel</title>") {
		t.Errorf("expected default title:\n%s", out)
	}
}

func TestFragment(t *testing.T) {
	var buf bytes.Buffer
	if err := Fragment(&buf, "<em>hi</em>"); err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if got := buf.String(); got != `<div id="panel-content" class="markdown-html"><em>hi</em></div>` {
		t.Errorf("Fragment = %q", got)
	}
}

func TestScrollContainerFillsPanel(t *testing.T) {
	// The container takes the remaining height of the panel instead of
	// growing with its content, so it scrolls rather than the body.
	if !strings.Contains(pageTemplate, ".panel { display: flex; flex-direction: column; height: 100%; }") {
		t.Error("panel is not a full-height flex column")
	}
	if !strings.Contains(pageTemplate, ".panel-scroll { flex: 1 1 0; min-height: 0; overflow-y: auto; }") {
		t.Error("scroll container does not fill the panel with its own scrollbar")
	}
	if strings.Contains(pageTemplate, "min-height: 100%") {
		t.Error("scroll container must not grow with its content")
	}
}
