package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

const folderColumns = `id, name, parent_id, color, icon, created_at`

func scanFolder(r rowScanner) (models.Folder, error) {
	var (
		f        models.Folder
		parentID sql.NullString
	)
	if err := r.Scan(&f.ID, &f.Name, &parentID, &f.Color, &f.Icon, &f.CreatedAt); err != nil {
		return models.Folder{}, err
	}
	if parentID.Valid {
		f.ParentID = &parentID.String
	}
	return f, nil
}

// AllFolders returns every folder in creation order.
func (db *DB) AllFolders(ctx context.Context) ([]models.Folder, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+folderColumns+` FROM folders ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: all folders: %w", err)
	}
	defer rows.Close()

	out := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan folder: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetFolder returns the folder with the given id or apperr.ErrNotFound.
func (db *DB) GetFolder(ctx context.Context, id string) (models.Folder, error) {
	f, err := scanFolder(db.conn.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Folder{}, fmt.Errorf("storage: folder %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Folder{}, fmt.Errorf("storage: get folder: %w", err)
	}
	return f, nil
}

// SaveFolder inserts or replaces f.
func (db *DB) SaveFolder(ctx context.Context, f models.Folder) error {
	if err := putFolder(ctx, db.conn, f); err != nil {
		return fmt.Errorf("storage: save folder: %w", err)
	}
	return nil
}

// DeleteFolder removes the folder row only; notes inside are untouched.
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete folder: %w", err)
	}
	return nil
}

func putFolder(ctx context.Context, ex execer, f models.Folder) error {
	_, err := ex.ExecContext(ctx, `INSERT OR REPLACE INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, nullable(f.ParentID), f.Color, f.Icon, f.CreatedAt)
	return err
}
