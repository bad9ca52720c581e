package api

import (
	"net/http"

	"github.com/starford/notegraph/internal/prefs"
)

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := prefs.Load(r.Context(), h.settings)
	if err != nil {
		h.writeError(w, "get preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SavePreferences handles PUT /api/preferences. Omitted fields keep their
// stored values.
func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	p, err := prefs.Load(r.Context(), h.settings)
	if err != nil {
		h.writeError(w, "save preferences", err)
		return
	}
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, "save preferences", err)
		return
	}
	if err := prefs.Save(r.Context(), h.settings, p); err != nil {
		h.writeError(w, "save preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
