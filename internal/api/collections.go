package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/noteservice"
)

// ListFolders handles GET /api/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"folders": h.svc.Folders()})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req noteservice.FolderInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "create folder", err)
		return
	}
	f, err := h.svc.CreateFolder(r.Context(), req)
	if err != nil {
		h.writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFolder handles PATCH /api/folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req noteservice.FolderPatch
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "update folder", err)
		return
	}
	f, err := h.svc.UpdateFolder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, "update folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{id}. Its notes become unfiled.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": h.svc.Tags()})
}

// CreateTag handles POST /api/tags. An existing tag with the same name is
// returned with 200 instead of 201.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "create tag", err)
		return
	}
	before := len(h.svc.Tags())
	t, err := h.svc.CreateTag(r.Context(), req.Name, req.Color)
	if err != nil {
		h.writeError(w, "create tag", err)
		return
	}
	status := http.StatusCreated
	if len(h.svc.Tags()) == before {
		status = http.StatusOK
	}
	writeJSON(w, status, t)
}

// RenameTag handles PATCH /api/tags/{id}.
func (h *Handler) RenameTag(w http.ResponseWriter, r *http.Request) {
	var req TagNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "rename tag", err)
		return
	}
	t, err := h.svc.RenameTag(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeError(w, "rename tag", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// MergeTag handles POST /api/tags/{id}/merge.
func (h *Handler) MergeTag(w http.ResponseWriter, r *http.Request) {
	var req MergeTagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "merge tag", err)
		return
	}
	t, err := h.svc.MergeTag(r.Context(), chi.URLParam(r, "id"), req.TargetID)
	if err != nil {
		h.writeError(w, "merge tag", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTag handles DELETE /api/tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTag(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
