package panels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/db"
	"github.com/ziadkadry99/textpanel/internal/markdown"
	"github.com/ziadkadry99/textpanel/internal/sanitize"
	"github.com/ziadkadry99/textpanel/internal/variables"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

// setupRegistry returns a registry whose debounce never fires on its own;
// tests call Flush on the panel trigger instead.
func setupRegistry(t *testing.T) (*Registry, *variables.Service) {
	t.Helper()
	vars := variables.NewService(nil)
	proc := content.NewProcessor(vars.Replace, markdown.New(markdown.Options{}), sanitize.New(), content.Settings{})
	reg := NewRegistry(setupTestStore(t), proc, NewHub(), time.Hour)
	vars.Subscribe(reg.UpdateAll)
	t.Cleanup(reg.Close)
	return reg, vars
}

func flush(t *testing.T, reg *Registry, id string) {
	t.Helper()
	trigger, ok := reg.Trigger(id)
	if !ok {
		t.Fatalf("panel %s is not live", id)
	}
	if !trigger.Flush() {
		t.Fatalf("panel %s had no pending render", id)
	}
}

func TestStoreCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, Panel{Title: "Notes", Options: content.Options{Mode: content.ModeText, Content: "hi"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Notes" || got.Options.Mode != content.ModeText || got.Options.Content != "hi" {
		t.Errorf("GetByID = %+v", got)
	}

	updated, err := store.UpdateOptions(ctx, p.ID, content.Options{Mode: content.ModeHTML, Content: "<b>x</b>"})
	if err != nil {
		t.Fatalf("UpdateOptions: %v", err)
	}
	if updated.Options.Mode != content.ModeHTML || updated.Options.Content != "<b>x</b>" {
		t.Errorf("UpdateOptions = %+v", updated)
	}

	renamed, err := store.UpdateTitle(ctx, p.ID, "Renamed")
	if err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if renamed.Title != "Renamed" || renamed.Options.Content != "<b>x</b>" {
		t.Errorf("UpdateTitle = %+v", renamed)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Renamed" {
		t.Errorf("List = %+v", list)
	}

	ok, err := store.Delete(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if got, _ := store.GetByID(ctx, p.ID); got != nil {
		t.Error("panel still present after delete")
	}
	if ok, _ := store.Delete(ctx, p.ID); ok {
		t.Error("second delete reported success")
	}
}

func TestStoreMissing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if p, err := store.GetByID(ctx, "nope"); p != nil || err != nil {
		t.Errorf("GetByID = %v, %v", p, err)
	}
	if p, err := store.UpdateOptions(ctx, "nope", content.DefaultOptions()); p != nil || err != nil {
		t.Errorf("UpdateOptions = %v, %v", p, err)
	}
	if p, err := store.UpdateTitle(ctx, "nope", "x"); p != nil || err != nil {
		t.Errorf("UpdateTitle = %v, %v", p, err)
	}
}

func TestRegistryCreateRendersImmediately(t *testing.T) {
	reg, _ := setupRegistry(t)

	p, err := reg.Create(context.Background(), "t", content.Options{Mode: content.ModeText, Content: "a<b"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	html, lastErr, ok := reg.Rendered(p.ID)
	if !ok || lastErr != nil {
		t.Fatalf("Rendered = %v, %v", ok, lastErr)
	}
	if html != "a&lt;b" {
		t.Errorf("html = %q", html)
	}
}

func TestRegistrySetOptionsDebounced(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	p, err := reg.Create(ctx, "t", content.Options{Mode: content.ModeText, Content: "one"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reg.SetOptions(ctx, p.ID, content.Options{Mode: content.ModeText, Content: "two"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if _, err := reg.SetOptions(ctx, p.ID, content.Options{Mode: content.ModeMarkdown, Content: "**three**"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}

	if html, _, _ := reg.Rendered(p.ID); html != "one" {
		t.Errorf("html changed before debounce fired: %q", html)
	}

	flush(t, reg, p.ID)

	trigger, _ := reg.Trigger(p.ID)
	if trigger.Recomputes() != 1 {
		t.Errorf("Recomputes = %d, want 1", trigger.Recomputes())
	}
	if html, _, _ := reg.Rendered(p.ID); html != "<p><strong>three</strong></p>\n" {
		t.Errorf("html = %q", html)
	}
}

func TestRegistryVariableChangeRerenders(t *testing.T) {
	reg, vars := setupRegistry(t)
	ctx := context.Background()

	p, err := reg.Create(ctx, "t", content.Options{Mode: content.ModeHTML, Content: "<p>host: $host</p>"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if html, _, _ := reg.Rendered(p.ID); html != "<p>host: $host</p>" {
		t.Errorf("unknown variable should stay untouched, got %q", html)
	}

	if _, err := vars.Set(ctx, "host", []string{"<db1>"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	flush(t, reg, p.ID)

	if html, _, _ := reg.Rendered(p.ID); html != "<p>host: &lt;db1&gt;</p>" {
		t.Errorf("html = %q", html)
	}
}

func TestRegistryLoadAndDelete(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	if _, err := reg.Store().Create(ctx, Panel{Title: "stored", Options: content.Options{Mode: content.ModeText, Content: "x"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	n, err := reg.Load(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Load = %d, %v", n, err)
	}

	list, _ := reg.Store().List(ctx)
	id := list[0].ID
	if _, _, ok := reg.Rendered(id); !ok {
		t.Fatal("loaded panel not live")
	}

	ok, err := reg.Delete(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if _, _, ok := reg.Rendered(id); ok {
		t.Error("deleted panel still live")
	}
}

func TestRegistryDefaultMode(t *testing.T) {
	reg, _ := setupRegistry(t)
	if got := reg.DefaultOptions(); got.Mode != content.ModeMarkdown || !strings.HasPrefix(got.Content, "# Title") {
		t.Errorf("DefaultOptions = %+v", got)
	}
	reg.SetDefaultMode(content.ModeText)
	reg.SetDefaultMode("bogus")
	if got := reg.DefaultOptions(); got.Mode != content.ModeText {
		t.Errorf("mode = %q, want text", got.Mode)
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *Registry) {
	t.Helper()
	reg, _ := setupRegistry(t)
	r := chi.NewRouter()
	RegisterRoutes(r, reg)
	return r, reg
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutesCreateWithDefaults(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/panels/", `{"title":"Welcome"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var p Panel
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Options.Mode != content.ModeMarkdown || !strings.HasPrefix(p.Options.Content, "# Title") {
		t.Errorf("options = %+v", p.Options)
	}

	w = doRequest(r, http.MethodGet, "/api/panels/"+p.ID+"/html", "")
	if w.Code != http.StatusOK {
		t.Fatalf("html status = %d", w.Code)
	}
	var resp htmlResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !strings.Contains(resp.HTML, `<h1 id="title">Title</h1>`) {
		t.Errorf("html = %q", resp.HTML)
	}
	if !strings.Contains(resp.HTML, `href="https://commonmark.org/help/"`) {
		t.Errorf("help link missing: %q", resp.HTML)
	}
}

func TestRoutesRejectInvalidMode(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/panels/", `{"title":"x","options":{"mode":"latex","content":"a"}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("create status = %d, want 400", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/panels/", `{"title":"x","options":{"mode":"text","content":"a"}}`)
	var p Panel
	json.NewDecoder(w.Body).Decode(&p)

	w = doRequest(r, http.MethodPut, "/api/panels/"+p.ID+"/options", `{"mode":"latex","content":"a"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("update status = %d, want 400", w.Code)
	}
	w = doRequest(r, http.MethodPut, "/api/panels/"+p.ID+"/options", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", w.Code)
	}
}

func TestRoutesUpdateAndDelete(t *testing.T) {
	r, reg := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/panels/", `{"title":"x","options":{"mode":"text","content":"before"}}`)
	var p Panel
	json.NewDecoder(w.Body).Decode(&p)

	w = doRequest(r, http.MethodPut, "/api/panels/"+p.ID+"/options", `{"mode":"html","content":"<i>after</i>"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	flush(t, reg, p.ID)

	w = doRequest(r, http.MethodGet, "/api/panels/"+p.ID+"/html", "")
	var resp htmlResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.HTML != "<i>after</i>" {
		t.Errorf("html = %q", resp.HTML)
	}

	w = doRequest(r, http.MethodGet, "/api/panels/"+p.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/panels/", "")
	var list []Panel
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Errorf("list = %+v", list)
	}

	w = doRequest(r, http.MethodDelete, "/api/panels/"+p.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	w = doRequest(r, http.MethodDelete, "/api/panels/"+p.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
}

func TestRoutesNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/panels/missing", ""},
		{http.MethodGet, "/api/panels/missing/html", ""},
		{http.MethodPut, "/api/panels/missing/options", `{"mode":"text","content":"x"}`},
		{http.MethodPut, "/api/panels/missing", `{"title":"x"}`},
		{http.MethodGet, "/panels/missing", ""},
		{http.MethodGet, "/ws/panels/missing", ""},
	}
	for _, tt := range tests {
		w := doRequest(r, tt.method, tt.path, tt.body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tt.method, tt.path, w.Code)
		}
	}
}

func TestRoutesViewPage(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/panels/", `{"title":"Runbook","options":{"mode":"html","content":"<p>ok</p><script>x()</script>"}}`)
	var p Panel
	json.NewDecoder(w.Body).Decode(&p)

	w = doRequest(r, http.MethodGet, "/panels/"+p.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<div id="panel-content" class="markdown-html"><p>ok</p></div>`) {
		t.Errorf("panel content missing:\n%s", body)
	}
	if strings.Contains(body, "x()") {
		t.Errorf("script survived:\n%s", body)
	}
	if !strings.Contains(body, "<title>Runbook</title>") {
		t.Errorf("title missing:\n%s", body)
	}
}

func TestLiveUpdates(t *testing.T) {
	r, reg := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	p, err := reg.Create(context.Background(), "live", content.Options{Mode: content.ModeText, Content: "v1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/panels/" + p.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading initial message: %v", err)
	}
	if msg.Type != "html" || msg.PanelID != p.ID || msg.HTML != "v1" || msg.Version != 1 {
		t.Errorf("initial message = %+v", msg)
	}
	if n := reg.Hub().Count(p.ID); n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}

	if _, err := reg.SetOptions(context.Background(), p.ID, content.Options{Mode: content.ModeText, Content: "v2"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	flush(t, reg, p.ID)

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading update: %v", err)
	}
	if msg.Type != "html" || msg.HTML != "v2" || msg.Version != 2 {
		t.Errorf("update message = %+v", msg)
	}

	if _, err := reg.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading delete: %v", err)
	}
	if msg.Type != "deleted" {
		t.Errorf("delete message = %+v", msg)
	}
}

func TestRoutesRenameAndViewers(t *testing.T) {
	r, reg := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	w := doRequest(r, http.MethodPost, "/api/panels/", `{"title":"old","options":{"mode":"text","content":"x"}}`)
	var p Panel
	json.NewDecoder(w.Body).Decode(&p)

	w = doRequest(r, http.MethodPut, "/api/panels/"+p.ID, `{"title":"new"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rename status = %d, body = %s", w.Code, w.Body.String())
	}
	stored, _ := reg.Store().GetByID(context.Background(), p.ID)
	if stored.Title != "new" {
		t.Errorf("title = %q, want new", stored.Title)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/panels/" + p.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading initial message: %v", err)
	}

	w = doRequest(r, http.MethodGet, "/api/panels/"+p.ID+"/html", "")
	var resp htmlResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Viewers != 1 || resp.Version != 1 || resp.HTML != "x" {
		t.Errorf("html response = %+v", resp)
	}
}

// A change broadcast after the socket subscribed but before the initial
// snapshot is written must not be replaced by that older snapshot.
func TestServeNeverSendsOlderSnapshot(t *testing.T) {
	hub := NewHub()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "p", func() (string, uint64) {
			hub.Broadcast("p", "new", 2)
			return "old", 1
		})
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading first message: %v", err)
	}
	if msg.HTML != "new" || msg.Version != 2 {
		t.Fatalf("first message = %+v, want new@2", msg)
	}

	hub.Broadcast("p", "stale", 2)
	hub.Broadcast("p", "newer", 3)
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading second message: %v", err)
	}
	if msg.HTML != "newer" || msg.Version != 3 {
		t.Errorf("second message = %+v, want newer@3", msg)
	}
}

func TestRegistryConcurrentWritesStayConsistent(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	p, err := reg.Create(ctx, "t", content.Options{Mode: content.ModeText, Content: "start"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opts := content.Options{Mode: content.ModeText, Content: fmt.Sprintf("v%d", i)}
			if _, err := reg.SetOptions(ctx, p.ID, opts); err != nil {
				t.Errorf("SetOptions: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, err := reg.Store().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	reg.mu.RLock()
	live := reg.live[p.ID].options()
	reg.mu.RUnlock()
	if live != stored.Options {
		t.Errorf("live options %+v, stored %+v", live, stored.Options)
	}
}

func TestRegistryDeleteWinsOverConcurrentUpdate(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		p, err := reg.Create(ctx, "t", content.Options{Mode: content.ModeText, Content: "x"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		// Drop the trigger so SetOptions has to reopen it.
		reg.close(p.ID)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.SetOptions(ctx, p.ID, content.Options{Mode: content.ModeText, Content: "y"})
		}()
		go func() {
			defer wg.Done()
			reg.Delete(ctx, p.ID)
		}()
		wg.Wait()

		if _, _, ok := reg.Rendered(p.ID); ok {
			t.Fatalf("deleted panel %s is live again", p.ID)
		}
	}
}
