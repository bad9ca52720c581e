package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/notegraph/internal/aigateway"
	"github.com/starford/notegraph/internal/apperr"
)

// maxBodyBytes bounds JSON request bodies. Backup uploads have their own limit.
const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decodeJSON reads a JSON body into v and validates it when v implements
// Validate. An empty body leaves v at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: %w", apperr.ErrInvalidInput)
	}
	if vv, ok := v.(interface{ Validate() error }); ok {
		if err := vv.Validate(); err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
		}
	}
	return nil
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged and reported as 500 without detail.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var aiErr *aigateway.Error
	switch {
	case errors.As(err, &aiErr):
		writeJSON(w, aiStatus(aiErr.Code), aiErr)
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrStale):
		writeJSON(w, http.StatusConflict, errorBody("a newer version exists"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.logger.Error("api: "+op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func aiStatus(code aigateway.Code) int {
	switch code {
	case aigateway.CodeValidationError:
		return http.StatusBadRequest
	case aigateway.CodeRateLimit:
		return http.StatusTooManyRequests
	case aigateway.CodeNoAPIKey:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
