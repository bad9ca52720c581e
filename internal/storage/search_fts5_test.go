//go:build sqlite_fts5

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/notegraph/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_BulkImportIndexed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ds := models.Dataset{Notes: []models.Note{
		{ID: "x", Title: "Imported", Content: "quantum entanglement notes", Tags: []string{}, CreatedAt: 1, UpdatedAt: 1},
	}}
	if err := db.ApplyImport(ctx, ds, true); err != nil {
		t.Fatal(err)
	}
	hits, err := db.SearchSnippets(ctx, "entanglement", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || !strings.Contains(hits[0].Snippet, "<b>entanglement</b>") {
		t.Errorf("hits = %+v", hits)
	}
}
