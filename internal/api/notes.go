package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/filter"
	"github.com/starford/notegraph/internal/linkgraph"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
)

// filterState reads the view state from query parameters:
// folder, tags (comma separated), range, q, sort.
func filterState(r *http.Request) (filter.State, error) {
	q := r.URL.Query()
	st := filter.DefaultState()
	if f := q.Get("folder"); f != "" {
		st.FolderID = &f
	}
	if tags := q.Get("tags"); tags != "" {
		st.Tags = strings.Split(tags, ",")
	}
	if v := q.Get("range"); v != "" {
		st.DateRange = filter.DateRange(v)
	}
	if v := q.Get("sort"); v != "" {
		st.SortBy = filter.SortBy(v)
	}
	st.Query = q.Get("q")
	if err := st.Validate(); err != nil {
		return st, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return st, nil
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	st, err := filterState(r)
	if err != nil {
		h.writeError(w, "list notes", err)
		return
	}
	notes := h.svc.FilteredNotes(st)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes), Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Note(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "create note", err)
		return
	}
	n, err := h.svc.CreateNote(r.Context(), req.FolderID)
	if err != nil {
		h.writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// UpdateNote handles PATCH /api/notes/{id}. Pending drafts for the note are
// dropped so a late autosave cannot overwrite the explicit update.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "update note", err)
		return
	}
	if h.autosave != nil {
		h.autosave.Cancel(id)
	}
	n, err := h.svc.UpdateNote(r.Context(), id, noteservice.NotePatch{
		Title:      req.Title,
		Content:    req.Content,
		SetFolder:  req.FolderID.Set,
		FolderID:   req.FolderID.Value,
		Tags:       req.Tags,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		h.writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.autosave != nil {
		h.autosave.Cancel(id)
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		h.writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite handles POST /api/notes/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "toggle favorite", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// PushDraft handles PUT /api/notes/{id}/draft. The change is saved after
// the editor goes idle; the response only acknowledges receipt.
func (h *Handler) PushDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.autosave == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("autosave is not enabled"))
		return
	}
	var req DraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "push draft", err)
		return
	}
	if _, err := h.svc.Note(id); err != nil {
		h.writeError(w, "push draft", err)
		return
	}
	if req.Title != nil {
		h.autosave.PushTitle(id, *req.Title)
	}
	if req.Content != nil {
		h.autosave.PushContent(id, *req.Content)
	}
	w.WriteHeader(http.StatusAccepted)
}

// FlushDraft handles POST /api/notes/{id}/flush, used when the editor
// switches away from a note.
func (h *Handler) FlushDraft(w http.ResponseWriter, r *http.Request) {
	if h.autosave == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("autosave is not enabled"))
		return
	}
	if err := h.autosave.FlushNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "flush draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNoteTag handles POST /api/notes/{id}/tags.
func (h *Handler) AddNoteTag(w http.ResponseWriter, r *http.Request) {
	var req TagNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, "add note tag", err)
		return
	}
	n, err := h.svc.AddTagToNote(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeError(w, "add note tag", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// RemoveNoteTag handles DELETE /api/notes/{id}/tags/{name}.
func (h *Handler) RemoveNoteTag(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.RemoveTagFromNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, "remove note tag", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Backlinks handles GET /api/notes/{id}/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Backlinks(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes), Total: len(notes)})
}

// OutboundLinks handles GET /api/notes/{id}/outbound.
func (h *Handler) OutboundLinks(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.OutboundLinks(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "outbound links", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes), Total: len(notes)})
}

// ExportMarkdown handles GET /api/notes/{id}/markdown.
func (h *Handler) ExportMarkdown(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Note(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "export markdown", err)
		return
	}
	var folder *models.Folder
	if n.FolderID != nil {
		if f, err := h.svc.Folder(*n.FolderID); err == nil {
			folder = &f
		}
	}
	name := backup.MarkdownFilename(n)
	if r.URL.Query().Get("layout") == "folders" {
		name = backup.FolderMarkdownFilename(n, folder)
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write([]byte(backup.Markdown(n)))
}

// Search handles GET /api/search. With snippets=true it returns ranked
// excerpts from the store instead of whole notes.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if r.URL.Query().Get("snippets") == "true" {
		hits, err := h.svc.SearchSnippets(r.Context(), q, limit)
		if err != nil {
			h.writeError(w, "search", err)
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Hits: hits, Total: len(hits)})
		return
	}
	notes := h.svc.Search(q, limit)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes), Total: len(notes)})
}

// Orphans handles GET /api/orphans.
func (h *Handler) Orphans(w http.ResponseWriter, _ *http.Request) {
	notes := h.svc.Orphans()
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes), Total: len(notes)})
}

// Graph handles GET /api/graph.
func (h *Handler) Graph(w http.ResponseWriter, _ *http.Request) {
	nodes, edges := h.svc.Graph()
	if edges == nil {
		edges = []linkgraph.Edge{}
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: edges})
}

func nonNil(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
