package variables

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setRequest is the body for PUT /api/variables/{name}. Value is shorthand
// for a single-value variable.
type setRequest struct {
	Value  *string  `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// RegisterRoutes mounts the variable API routes.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/variables", func(r chi.Router) {
		r.Get("/", handleList(svc))
		r.Get("/{name}", handleGet(svc))
		r.Put("/{name}", handleSet(svc))
		r.Delete("/{name}", handleDelete(svc))
	})
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(svc.List())
	}
}

func handleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := svc.Get(chi.URLParam(r, "name"))
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

func handleSet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		values := req.Values
		if req.Value != nil {
			values = []string{*req.Value}
		}

		name := chi.URLParam(r, "name")
		if !validName(name) {
			http.Error(w, `{"error":"invalid variable name"}`, http.StatusBadRequest)
			return
		}

		v, err := svc.Set(r.Context(), name, values)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

func handleDelete(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := svc.Delete(r.Context(), chi.URLParam(r, "name"))
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

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
