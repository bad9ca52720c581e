package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/reconcile"
)

// ExportBackup handles GET /api/backup/export.
func (h *Handler) ExportBackup(w http.ResponseWriter, _ *http.Request) {
	b := h.svc.ExportBackup()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.Filename(time.Now())))
	if err := h.codec.Encode(w, b); err != nil {
		h.logger.Error("api: export backup failed", slog.String("error", err.Error()))
	}
}

// BackupStats handles GET /api/backup/stats.
func (h *Handler) BackupStats(w http.ResponseWriter, _ *http.Request) {
	st := h.svc.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"metadata":      st,
		"formattedSize": backup.FormatSize(int64(st.TotalSize)),
	})
}

// ImportBackup handles POST /api/backup/import. The backup is either a
// multipart "file" field or the raw JSON body. Options come from the
// "mode" and "handleDuplicates" form or query values and default to a
// merge that skips duplicates.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	limit := h.importMax
	if limit <= 0 {
		limit = backup.MaxFileSize
	}
	// Leave room for multipart framing; ParseFile enforces the real limit.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	var (
		name, contentType string
		size              int64
		body              io.Reader
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
			return
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing file field"))
			return
		}
		defer f.Close()
		name, contentType, size, body = fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f
	} else {
		name, contentType, size, body = "upload.json", r.Header.Get("Content-Type"), r.ContentLength, r.Body
	}

	b, err := h.codec.ParseFile(name, contentType, size, limit, body)
	if err != nil {
		h.writeError(w, "import backup", err)
		return
	}

	opts := reconcile.Options{
		Mode:             reconcile.Mode(formValue(r, "mode", string(reconcile.ModeMerge))),
		HandleDuplicates: reconcile.Duplicates(formValue(r, "handleDuplicates", string(reconcile.DuplicatesSkip))),
	}
	res, err := h.svc.ImportBackup(r.Context(), *b, opts)
	if err != nil {
		// The result carries the reconciler's messages; send it as is.
		status := http.StatusInternalServerError
		if errors.Is(err, apperr.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.logger.Warn("api: import backup failed", slog.String("error", err.Error()))
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func formValue(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}
