package storage

import (
	"context"

	"github.com/starford/notegraph/internal/models"
)

// Provider is the durable key-indexed store for notes, folders, tags, and
// settings. It holds no business rules: cascades are the caller's job.
type Provider interface {
	AllNotes(ctx context.Context) ([]models.Note, error)
	GetNote(ctx context.Context, id string) (models.Note, error)
	// SaveNote upserts n unless the stored row has a newer UpdatedAt, in
	// which case it returns apperr.ErrStale.
	SaveNote(ctx context.Context, n models.Note) error
	DeleteNote(ctx context.Context, id string) error
	NotesByFolder(ctx context.Context, folderID *string) ([]models.Note, error)
	NotesByUpdated(ctx context.Context) ([]models.Note, error)
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)
	SearchSnippets(ctx context.Context, query string, limit int) ([]SearchHit, error)

	AllFolders(ctx context.Context) ([]models.Folder, error)
	GetFolder(ctx context.Context, id string) (models.Folder, error)
	SaveFolder(ctx context.Context, f models.Folder) error
	DeleteFolder(ctx context.Context, id string) error

	AllTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id string) (models.Tag, error)
	SaveTag(ctx context.Context, t models.Tag) error
	DeleteTag(ctx context.Context, id string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)

	// ApplyImport writes ds in a single transaction. With replace set, all
	// existing notes, folders, and tags are removed first.
	ApplyImport(ctx context.Context, ds models.Dataset, replace bool) error

	Close() error
}

// Verify *DB satisfies Provider at compile time.
var _ Provider = (*DB)(nil)
