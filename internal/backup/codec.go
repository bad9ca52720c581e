// Package backup serializes the note collection to the versioned backup
// format and decodes untrusted backup files.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/starford/notegraph/internal/models"
)

// Version is the backup format written by Export. Older or newer versions
// are accepted on import with a warning.
const Version = "1.0.0"

// Codec exports and validates backups.
type Codec struct {
	logger     *slog.Logger
	appVersion string
	now        func() time.Time
}

// NewCodec creates a Codec stamping appVersion into every export.
func NewCodec(logger *slog.Logger, appVersion string) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	if appVersion == "" {
		appVersion = Version
	}
	return &Codec{logger: logger, appVersion: appVersion, now: time.Now}
}

// Export builds a backup of the given collection.
func (c *Codec) Export(notes []models.Note, folders []models.Folder, tags []models.Tag) models.BackupData {
	ds := normalize(models.Dataset{Notes: notes, Folders: folders, Tags: tags})
	b := models.BackupData{
		Version:    Version,
		ExportedAt: c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		AppVersion: c.appVersion,
		Notes:      ds.Notes,
		Folders:    ds.Folders,
		Tags:       ds.Tags,
		Metadata:   Stats(ds),
	}
	c.logger.Info("backup: exported",
		slog.Int("notes", b.Metadata.NoteCount),
		slog.Int("folders", b.Metadata.FolderCount),
		slog.Int("tags", b.Metadata.TagCount),
		slog.Int("total_size", b.Metadata.TotalSize),
	)
	return b
}

// Encode writes b as indented JSON.
func (c *Codec) Encode(w io.Writer, b models.BackupData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("backup: encode: %w", err)
	}
	return nil
}

// Stats computes backup metadata. TotalSize is the byte length of the
// compact JSON encoding of the three collections.
func Stats(ds models.Dataset) models.BackupMetadata {
	ds = normalize(ds)
	raw, _ := json.Marshal(ds)
	return models.BackupMetadata{
		NoteCount:   len(ds.Notes),
		FolderCount: len(ds.Folders),
		TagCount:    len(ds.Tags),
		TotalSize:   len(raw),
	}
}

// Filename returns the conventional export filename for t.
func Filename(t time.Time) string {
	return "notes-backup-" + t.UTC().Format("2006-01-02") + ".json"
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count for display, e.g. "1.5 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// normalize replaces nil slices so collections always encode as arrays.
func normalize(ds models.Dataset) models.Dataset {
	if ds.Notes == nil {
		ds.Notes = []models.Note{}
	}
	if ds.Folders == nil {
		ds.Folders = []models.Folder{}
	}
	if ds.Tags == nil {
		ds.Tags = []models.Tag{}
	}
	notes := make([]models.Note, len(ds.Notes))
	for i, n := range ds.Notes {
		if n.Tags == nil {
			n.Tags = []string{}
		}
		notes[i] = n
	}
	ds.Notes = notes
	return ds
}
