// Package testutil provides shared test helpers for stores and fixtures.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/storage"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "notegraph-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Seed writes ds into store, failing the test on error.
func Seed(t *testing.T, store storage.Provider, ds models.Dataset) {
	t.Helper()
	if err := store.ApplyImport(context.Background(), ds, false); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

// Note builds a note fixture updated at ts (milliseconds).
func Note(id, title, content string, ts int64) models.Note {
	return models.Note{ID: id, Title: title, Content: content, Tags: []string{}, CreatedAt: ts, UpdatedAt: ts}
}

// Clock is a settable time source for components that take a now func.
type Clock struct {
	T time.Time
}

// NewClock returns a clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Eventually polls fn until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
