package directory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts read-only participant endpoints under /api/participants.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/participants", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGet(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			participants []Participant
			err          error
		)
		if role := Role(r.URL.Query().Get("role")); role != "" {
			if !role.Valid() {
				http.Error(w, "invalid role", http.StatusBadRequest)
				return
			}
			participants, err = store.ListByRole(r.Context(), role)
		} else {
			participants, err = store.List(r.Context())
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if participants == nil {
			participants = []Participant{}
		}
		writeJSON(w, http.StatusOK, participants)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if p == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
