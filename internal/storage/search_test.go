package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/notegraph/internal/models"
)

func TestSearchSnippets(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.SaveNote(ctx, models.Note{ID: "a", Title: "Garden", Content: "Plant tomatoes in spring", Tags: []string{}, UpdatedAt: 1})
	_ = db.SaveNote(ctx, models.Note{ID: "b", Title: "Kitchen", Content: "Roast tomatoes slowly", Tags: []string{}, UpdatedAt: 2})
	_ = db.SaveNote(ctx, models.Note{ID: "c", Title: "Other", Content: "nothing here", Tags: []string{}, UpdatedAt: 3})

	hits, err := db.SearchSnippets(ctx, "tomatoes", 10)
	if err != nil {
		t.Fatalf("SearchSnippets: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}
	for _, h := range hits {
		if h.ID == "c" {
			t.Errorf("unexpected hit %+v", h)
		}
		if !strings.Contains(strings.ToLower(h.Snippet), "tomatoes") {
			t.Errorf("snippet %q lacks the match", h.Snippet)
		}
	}

	limited, _ := db.SearchSnippets(ctx, "tomatoes", 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d hits", len(limited))
	}
}

func TestSearchSnippets_TracksWrites(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.SaveNote(ctx, models.Note{ID: "a", Title: "Draft", Content: "original wording", Tags: []string{}, UpdatedAt: 1})
	_ = db.SaveNote(ctx, models.Note{ID: "a", Title: "Draft", Content: "replacement wording", Tags: []string{}, UpdatedAt: 2})

	if hits, _ := db.SearchSnippets(ctx, "original", 10); len(hits) != 0 {
		t.Errorf("stale content still searchable: %+v", hits)
	}
	if hits, _ := db.SearchSnippets(ctx, "replacement", 10); len(hits) != 1 {
		t.Errorf("updated content not searchable: %+v", hits)
	}

	_ = db.DeleteNote(ctx, "a")
	if hits, _ := db.SearchSnippets(ctx, "replacement", 10); len(hits) != 0 {
		t.Errorf("deleted note still searchable: %+v", hits)
	}
}

func TestSearchSnippets_EmptyAndWildcards(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.SaveNote(ctx, models.Note{ID: "a", Title: "Plain", Content: "plain text", Tags: []string{}, UpdatedAt: 1})

	if hits, _ := db.SearchSnippets(ctx, "   ", 10); len(hits) != 0 {
		t.Errorf("blank query returned %+v", hits)
	}
	if hits, _ := db.SearchSnippets(ctx, "%", 10); len(hits) != 0 {
		t.Errorf("wildcard matched everything: %+v", hits)
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a", 50) + "needle" + strings.Repeat("b", 50)
	got := excerpt(long, "NEEDLE", 20)
	if !strings.Contains(got, "needle") || !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt = %q", got)
	}
	if got := excerpt("short", "x", 20); got != "short" {
		t.Errorf("excerpt of short text = %q", got)
	}
	if got := excerpt("", "x", 20); got != "" {
		t.Errorf("excerpt of empty = %q", got)
	}
}
