package api

import (
	"net/http"
)

// Transform handles POST /api/ai/transform. Gateway failures are returned
// as the typed error body with its code and user-facing message.
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "ai transform", err)
		return
	}
	out, err := h.ai.Run(r.Context(), req.Operation, req.Text, req.Arg)
	if err != nil {
		h.writeError(w, "ai transform", err)
		return
	}
	writeJSON(w, http.StatusOK, TransformResponse{Text: out})
}

// AIStatus handles GET /api/ai/status.
func (h *Handler) AIStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ai.Status())
}

// TestAIConnection handles POST /api/ai/test. It spends one request of the
// quota on a minimal prompt.
func (h *Handler) TestAIConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.ai.TestConnection(r.Context()); err != nil {
		h.writeError(w, "ai test", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ClearAICache handles DELETE /api/ai/cache.
func (h *Handler) ClearAICache(w http.ResponseWriter, r *http.Request) {
	if err := h.ai.ClearCache(r.Context()); err != nil {
		h.writeError(w, "ai clear cache", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
