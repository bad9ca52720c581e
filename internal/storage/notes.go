package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

const noteColumns = `id, title, content, folder_id, tags, created_at, updated_at, is_favorite`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (models.Note, error) {
	var (
		n        models.Note
		folderID sql.NullString
		tagsJSON string
	)
	if err := r.Scan(&n.ID, &n.Title, &n.Content, &folderID, &tagsJSON, &n.CreatedAt, &n.UpdatedAt, &n.IsFavorite); err != nil {
		return models.Note{}, err
	}
	if folderID.Valid {
		n.FolderID = &folderID.String
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return models.Note{}, fmt.Errorf("decode tags of %s: %w", n.ID, err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AllNotes returns every note, most recently updated first.
func (db *DB) AllNotes(ctx context.Context) ([]models.Note, error) {
	out, err := db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: all notes: %w", err)
	}
	return out, nil
}

// NotesByUpdated is AllNotes by name: the updated_at index serves both.
func (db *DB) NotesByUpdated(ctx context.Context) ([]models.Note, error) {
	return db.AllNotes(ctx)
}

// NotesByFolder returns the notes in folderID; nil selects unfiled notes.
func (db *DB) NotesByFolder(ctx context.Context, folderID *string) ([]models.Note, error) {
	var (
		out []models.Note
		err error
	)
	if folderID == nil {
		out, err = db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE folder_id IS NULL ORDER BY updated_at DESC, id ASC`)
	} else {
		out, err = db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE folder_id = ? ORDER BY updated_at DESC, id ASC`, *folderID)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: notes by folder: %w", err)
	}
	return out, nil
}

// SearchNotes returns notes whose title or content contains query, ignoring
// case. An empty query returns every note.
func (db *DB) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	all, err := db.AllNotes(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	out := []models.Note{}
	for _, n := range all {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out, nil
}

// GetNote returns the note with the given id or apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, id string) (models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, fmt.Errorf("storage: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("storage: get note: %w", err)
	}
	return n, nil
}

// SaveNote upserts n. A write carrying an UpdatedAt older than the stored row
// loses and reports apperr.ErrStale.
func (db *DB) SaveNote(ctx context.Context, n models.Note) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			content     = excluded.content,
			folder_id   = excluded.folder_id,
			tags        = excluded.tags,
			created_at  = excluded.created_at,
			updated_at  = excluded.updated_at,
			is_favorite = excluded.is_favorite
		WHERE excluded.updated_at >= notes.updated_at
	`, noteArgs(n)...)
	if err != nil {
		return fmt.Errorf("storage: save note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: save note: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("storage: note %s: %w", n.ID, apperr.ErrStale)
	}
	return nil
}

// DeleteNote removes the note. Deleting a missing id is not an error.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete note: %w", err)
	}
	return nil
}

func putNote(ctx context.Context, ex execer, n models.Note) error {
	_, err := ex.ExecContext(ctx, `INSERT OR REPLACE INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, noteArgs(n)...)
	return err
}

func noteArgs(n models.Note) []any {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	return []any{n.ID, n.Title, n.Content, nullable(n.FolderID), string(tagsJSON), n.CreatedAt, n.UpdatedAt, n.IsFavorite}
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
