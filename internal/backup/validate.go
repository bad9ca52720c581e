package backup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// InvalidError lists every structural problem found in a backup.
type InvalidError struct {
	Issues []string
}

func (e *InvalidError) Error() string {
	return "backup: invalid backup file: " + strings.Join(e.Issues, "; ")
}

// Is lets callers match with errors.Is(err, apperr.ErrInvalidInput).
func (e *InvalidError) Is(target error) bool { return target == apperr.ErrInvalidInput }

var requiredFields = []string{"version", "exportedAt", "notes", "folders", "tags"}

// decoder accumulates issues while turning raw JSON into typed records.
type decoder struct {
	issues []string
}

func (d *decoder) addf(format string, args ...any) {
	d.issues = append(d.issues, fmt.Sprintf(format, args...))
}

// Validate decodes untrusted backup JSON. It returns either a fully typed
// backup or an *InvalidError naming every problem found; it never returns a
// partially decoded value.
func (c *Codec) Validate(raw []byte) (*models.BackupData, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		c.logger.Warn("backup: validation failed", slog.String("reason", "not an object"))
		return nil, &InvalidError{Issues: []string{"backup must be a JSON object"}}
	}

	d := &decoder{}
	for _, f := range requiredFields {
		if v, ok := top[f]; !ok || isNull(v) {
			d.addf("missing required field %q", f)
		}
	}

	out := &models.BackupData{
		Version:    d.str(top, "version", true),
		ExportedAt: d.str(top, "exportedAt", true),
		AppVersion: d.str(top, "appVersion", false),
	}
	out.Notes = decodeList(d, top, "notes", d.note)
	out.Folders = decodeList(d, top, "folders", d.folder)
	out.Tags = decodeList(d, top, "tags", d.tag)

	if len(d.issues) > 0 {
		c.logger.Warn("backup: validation failed", slog.Int("issues", len(d.issues)), slog.String("first", d.issues[0]))
		return nil, &InvalidError{Issues: d.issues}
	}

	if out.Version != Version {
		c.logger.Warn("backup: version mismatch",
			slog.String("backup_version", out.Version),
			slog.String("current_version", Version))
	}

	ds := models.Dataset{Notes: out.Notes, Folders: out.Folders, Tags: out.Tags}
	if m, ok := top["metadata"]; ok && !isNull(m) {
		if err := json.Unmarshal(m, &out.Metadata); err != nil {
			c.logger.Warn("backup: metadata unreadable, recomputing", slog.String("error", err.Error()))
			out.Metadata = Stats(ds)
		}
	} else {
		out.Metadata = Stats(ds)
	}

	c.logger.Info("backup: validated",
		slog.String("version", out.Version),
		slog.Int("notes", len(out.Notes)),
		slog.Int("folders", len(out.Folders)),
		slog.Int("tags", len(out.Tags)))
	return out, nil
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// str reads a string field. Required fields must also be non-empty.
func (d *decoder) str(obj map[string]json.RawMessage, key string, required bool) string {
	v, ok := obj[key]
	if !ok || isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.addf("field %q must be a string", key)
		return ""
	}
	if required && s == "" {
		d.addf("field %q must not be empty", key)
	}
	return s
}

func decodeList[T any](d *decoder, top map[string]json.RawMessage, key string, one func(at string, obj map[string]json.RawMessage) T) []T {
	out := []T{}
	v, ok := top[key]
	if !ok || isNull(v) {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		d.addf("field %q must be an array", key)
		return out
	}
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", key, i)
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			d.addf("%s: must be an object", at)
			continue
		}
		out = append(out, one(at, obj))
	}
	return out
}

func (d *decoder) note(at string, obj map[string]json.RawMessage) models.Note {
	n := models.Note{
		ID:    d.requiredString(at, obj, "id"),
		Title: d.requiredString(at, obj, "title"),
		Tags:  []string{},
	}
	if v, ok := obj["content"]; !ok || isNull(v) || json.Unmarshal(v, &n.Content) != nil {
		d.addf("%s: content must be a string", at)
	}
	n.FolderID = d.optionalRef(at, obj, "folderId")
	if v, ok := obj["tags"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &n.Tags); err != nil {
			d.addf("%s: tags must be an array of strings", at)
		}
	}
	if v, ok := obj["isFavorite"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &n.IsFavorite); err != nil {
			d.addf("%s: isFavorite must be a boolean", at)
		}
	}
	n.CreatedAt = d.timestamp(at, obj, "createdAt")
	n.UpdatedAt = d.timestamp(at, obj, "updatedAt")
	if n.UpdatedAt < n.CreatedAt {
		n.UpdatedAt = n.CreatedAt
	}
	return n
}

func (d *decoder) folder(at string, obj map[string]json.RawMessage) models.Folder {
	return models.Folder{
		ID:        d.requiredString(at, obj, "id"),
		Name:      d.requiredString(at, obj, "name"),
		ParentID:  d.optionalRef(at, obj, "parentId"),
		Color:     d.optionalString(at, obj, "color"),
		Icon:      d.optionalString(at, obj, "icon"),
		CreatedAt: d.timestamp(at, obj, "createdAt"),
	}
}

func (d *decoder) tag(at string, obj map[string]json.RawMessage) models.Tag {
	return models.Tag{
		ID:        d.requiredString(at, obj, "id"),
		Name:      d.requiredString(at, obj, "name"),
		Color:     d.optionalString(at, obj, "color"),
		CreatedAt: d.timestamp(at, obj, "createdAt"),
	}
}

func (d *decoder) requiredString(at string, obj map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := obj[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	if s == "" {
		d.addf("%s: %s must be a non-empty string", at, key)
	}
	return s
}

func (d *decoder) optionalString(at string, obj map[string]json.RawMessage, key string) string {
	v, ok := obj[key]
	if !ok || isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.addf("%s: %s must be a string", at, key)
	}
	return s
}

func (d *decoder) optionalRef(at string, obj map[string]json.RawMessage, key string) *string {
	return models.StringPtr(d.optionalString(at, obj, key))
}

// timestamp accepts epoch milliseconds or an RFC 3339 string, the form
// browser exports use for dates. A missing value decodes as zero.
func (d *decoder) timestamp(at string, obj map[string]json.RawMessage, key string) int64 {
	v, ok := obj[key]
	if !ok || isNull(v) {
		return 0
	}
	var ms float64
	if err := json.Unmarshal(v, &ms); err == nil {
		return int64(ms)
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UnixMilli()
		}
	}
	d.addf("%s: %s must be a millisecond timestamp or RFC 3339 date", at, key)
	return 0
}
