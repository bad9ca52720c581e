package backup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// MaxFileSize is the default upper bound for an imported backup file.
const MaxFileSize = 50 * 1024 * 1024

var (
	ErrNotJSON  = errors.New("file must be a JSON file")
	ErrTooLarge = errors.New("file is too large")
)

// ParseFile reads a backup upload. The file must declare itself as JSON by
// content type or extension and must not exceed limit bytes (MaxFileSize
// when limit is zero or negative).
func (c *Codec) ParseFile(name, contentType string, size, limit int64, r io.Reader) (*models.BackupData, error) {
	if limit <= 0 {
		limit = MaxFileSize
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if strings.TrimSpace(mediaType) != "application/json" && !strings.HasSuffix(strings.ToLower(name), ".json") {
		c.logger.Warn("backup: invalid file type", slog.String("name", name), slog.String("type", contentType))
		return nil, fmt.Errorf("backup: %s: %w: %w", name, ErrNotJSON, apperr.ErrInvalidInput)
	}
	if size > limit {
		c.logger.Warn("backup: file too large", slog.Int64("size", size), slog.Int64("limit", limit))
		return nil, fmt.Errorf("backup: %w (max %s): %w", ErrTooLarge, FormatSize(limit), apperr.ErrInvalidInput)
	}

	// Size may be unknown or wrong; never read past the limit.
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %w", name, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("backup: %w (max %s): %w", ErrTooLarge, FormatSize(limit), apperr.ErrInvalidInput)
	}

	b, err := c.Validate(raw)
	if err != nil {
		c.logger.Error("backup: parse failed", slog.String("name", name), slog.String("error", err.Error()))
		return nil, err
	}
	c.logger.Info("backup: file parsed", slog.String("name", name), slog.Int("size", len(raw)))
	return b, nil
}
