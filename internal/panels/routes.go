package panels

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/view"
)

// createRequest is the body for POST /api/panels. Missing options fall back
// to the registry defaults.
type createRequest struct {
	Title   string           `json:"title"`
	Options *content.Options `json:"options,omitempty"`
}

// titleRequest is the body for PUT /api/panels/{id}.
type titleRequest struct {
	Title string `json:"title"`
}

// htmlResponse is the body for GET /api/panels/{id}/html.
type htmlResponse struct {
	ID      string `json:"id"`
	HTML    string `json:"html"`
	Version uint64 `json:"version"`
	Viewers int    `json:"viewers"`
	Error   string `json:"error,omitempty"`
}

// RegisterRoutes mounts the panel API, the panel view page and the live
// update socket.
func RegisterRoutes(r chi.Router, reg *Registry) {
	r.Route("/api/panels", func(r chi.Router) {
		r.Get("/", handleList(reg))
		r.Post("/", handleCreate(reg))
		r.Get("/{id}", handleGetByID(reg))
		r.Put("/{id}", handleUpdateTitle(reg))
		r.Put("/{id}/options", handleUpdateOptions(reg))
		r.Delete("/{id}", handleDelete(reg))
		r.Get("/{id}/html", handleHTML(reg))
	})
	r.Get("/panels/{id}", handleView(reg))
	r.Get("/ws/panels/{id}", handleLive(reg))
}

func handleList(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := reg.Store().List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if list == nil {
			list = []Panel{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

func handleCreate(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		opts := reg.DefaultOptions()
		if req.Options != nil {
			mode := opts.Mode
			opts = *req.Options
			if opts.Mode == "" {
				opts.Mode = mode
			}
		}
		if !opts.Mode.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid mode %q: must be one of text, html, markdown", opts.Mode))
			return
		}

		created, err := reg.Create(r.Context(), req.Title, opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleGetByID(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := reg.Store().GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if p == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

func handleUpdateTitle(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req titleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		p, err := reg.SetTitle(r.Context(), chi.URLParam(r, "id"), req.Title)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if p == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

func handleUpdateOptions(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts content.Options
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if !opts.Mode.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid mode %q: must be one of text, html, markdown", opts.Mode))
			return
		}

		p, err := reg.SetOptions(r.Context(), chi.URLParam(r, "id"), opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if p == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

func handleDelete(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := reg.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleHTML(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		trigger, ok := reg.Trigger(id)
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		html, version := trigger.Snapshot()
		resp := htmlResponse{
			ID:      id,
			HTML:    html,
			Version: version,
			Viewers: reg.Hub().Count(id),
		}
		if lastErr := trigger.Err(); lastErr != nil {
			resp.Error = lastErr.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleView(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := reg.Store().GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		html, _, ok := reg.Rendered(id)
		if p == nil || !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = view.Render(w, view.Page{
			Title:   p.Title,
			HTML:    html,
			LiveURL: "/ws/panels/" + id,
		})
		if err != nil {
			log.Printf("panels: %v", err)
		}
	}
}

func handleLive(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		trigger, ok := reg.Trigger(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		reg.Hub().Serve(w, r, id, trigger.Snapshot)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
