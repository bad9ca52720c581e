// Package noteservice owns the in-memory note collection and applies every
// command to the store before reflecting it in memory.
package noteservice

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/reconcile"
	"github.com/starford/notegraph/internal/storage"
)

// Publisher receives change notifications, e.g. the SSE broker.
type Publisher interface {
	PublishChange(entity, action, id string)
}

type nopPublisher struct{}

func (nopPublisher) PublishChange(string, string, string) {}

// Service is the application state: notes, folders, and tags held in memory
// and kept in step with the store.
//
// Commands take the write lock for their whole duration, store calls
// included, so they run one at a time and observe each other's results.
type Service struct {
	store      storage.Provider
	codec      *backup.Codec
	reconciler *reconcile.Reconciler
	events     Publisher
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	notes   []models.Note
	folders []models.Folder
	tags    []models.Tag
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the change event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. Call Load before use.
func NewService(store storage.Provider, codec *backup.Codec, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:      store,
		codec:      codec,
		reconciler: reconcile.New(logger),
		events:     nopPublisher{},
		logger:     logger,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the in-memory state with the store's contents.
func (s *Service) Load(ctx context.Context) error {
	notes, err := s.store.AllNotes(ctx)
	if err != nil {
		return fmt.Errorf("noteservice: load: %w", err)
	}
	folders, err := s.store.AllFolders(ctx)
	if err != nil {
		return fmt.Errorf("noteservice: load: %w", err)
	}
	tags, err := s.store.AllTags(ctx)
	if err != nil {
		return fmt.Errorf("noteservice: load: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes, s.folders, s.tags = notes, folders, tags
	sortNotes(s.notes)
	s.logger.Info("noteservice: loaded",
		slog.Int("notes", len(notes)),
		slog.Int("folders", len(folders)),
		slog.Int("tags", len(tags)))
	return nil
}

// sortNotes keeps the collection most-recently-updated first, then by id,
// which matches the store's load order.
func sortNotes(notes []models.Note) {
	slices.SortStableFunc(notes, func(a, b models.Note) int {
		if c := cmp.Compare(b.UpdatedAt, a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (s *Service) nowMillis() int64 { return s.now().UnixMilli() }

// touch stamps a mutation. updatedAt never moves backwards, so the store's
// last-write-wins check accepts the write even if the clock steps back.
func (s *Service) touch(n *models.Note) {
	n.UpdatedAt = max(s.nowMillis(), n.UpdatedAt, n.CreatedAt)
}

func (s *Service) noteIndex(id string) int {
	return slices.IndexFunc(s.notes, func(n models.Note) bool { return n.ID == id })
}

func (s *Service) folderIndex(id string) int {
	return slices.IndexFunc(s.folders, func(f models.Folder) bool { return f.ID == id })
}

func (s *Service) tagIndex(id string) int {
	return slices.IndexFunc(s.tags, func(t models.Tag) bool { return t.ID == id })
}

func cloneNotes(in []models.Note) []models.Note {
	out := make([]models.Note, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
