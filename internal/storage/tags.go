package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// AllTags returns every tag in creation order.
func (db *DB) AllTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, color, created_at FROM tags ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: all tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTag returns the tag with the given id or apperr.ErrNotFound.
func (db *DB) GetTag(ctx context.Context, id string) (models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, color, created_at FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("storage: tag %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("storage: get tag: %w", err)
	}
	return t, nil
}

// SaveTag inserts or replaces t.
func (db *DB) SaveTag(ctx context.Context, t models.Tag) error {
	if err := putTag(ctx, db.conn, t); err != nil {
		return fmt.Errorf("storage: save tag: %w", err)
	}
	return nil
}

// DeleteTag removes the tag row. Notes still naming it are the caller's concern.
func (db *DB) DeleteTag(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete tag: %w", err)
	}
	return nil
}

func putTag(ctx context.Context, ex execer, t models.Tag) error {
	_, err := ex.ExecContext(ctx, `INSERT OR REPLACE INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.Color, t.CreatedAt)
	return err
}
