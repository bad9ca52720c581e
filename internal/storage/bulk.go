package storage

import (
	"context"
	"fmt"

	"github.com/starford/notegraph/internal/models"
)

// ApplyImport writes ds within a single transaction so an import either lands
// completely or not at all.
func (db *DB) ApplyImport(ctx context.Context, ds models.Dataset, replace bool) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if replace {
		for _, table := range []string{"notes", "folders", "tags"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("storage: clear %s: %w", table, err)
			}
		}
	}
	for _, f := range ds.Folders {
		if err := putFolder(ctx, tx, f); err != nil {
			return fmt.Errorf("storage: import folder %s: %w", f.ID, err)
		}
	}
	for _, t := range ds.Tags {
		if err := putTag(ctx, tx, t); err != nil {
			return fmt.Errorf("storage: import tag %s: %w", t.ID, err)
		}
	}
	for _, n := range ds.Notes {
		if err := putNote(ctx, tx, n); err != nil {
			return fmt.Errorf("storage: import note %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}
