//go:build sqlite_fts5

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// The FTS table mirrors notes through triggers, so every write path
// (single saves and bulk imports alike) keeps it current.
const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
	title,
	content,
	tags,
	content = 'notes',
	content_rowid = 'rowid',
	tokenize = 'unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS notes_fts_ai AFTER INSERT ON notes BEGIN
	INSERT INTO notes_fts (rowid, title, content, tags)
	VALUES (new.rowid, new.title, new.content, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_ad AFTER DELETE ON notes BEGIN
	INSERT INTO notes_fts (notes_fts, rowid, title, content, tags)
	VALUES ('delete', old.rowid, old.title, old.content, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_au AFTER UPDATE ON notes BEGIN
	INSERT INTO notes_fts (notes_fts, rowid, title, content, tags)
	VALUES ('delete', old.rowid, old.title, old.content, old.tags);
	INSERT INTO notes_fts (rowid, title, content, tags)
	VALUES (new.rowid, new.title, new.content, new.tags);
END;

INSERT INTO notes_fts (notes_fts) VALUES ('rebuild');
`

func initFTS(conn *sql.DB) error {
	if _, err := conn.Exec(ftsSchemaSQL); err != nil {
		return fmt.Errorf("storage: apply fts schema: %w", err)
	}
	return nil
}

// SearchSnippets runs a ranked FTS5 query. query is matched as a phrase;
// snippets mark hits with <b></b>.
func (db *DB) SearchSnippets(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchHit{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	phrase := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.id,
		       n.title,
		       snippet(notes_fts, 1, '<b>', '</b>', '...', 16)
		FROM notes_fts
		JOIN notes n ON n.rowid = notes_fts.rowid
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, phrase, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: search: %w", err)
	}
	defer rows.Close()

	out := []SearchHit{}
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.ID, &h.Title, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
