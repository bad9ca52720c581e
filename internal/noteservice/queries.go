package noteservice

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/filter"
	"github.com/starford/notegraph/internal/linkgraph"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/storage"
)

// Note returns a copy of the note with the given id.
func (s *Service) Note(id string) (models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.noteIndex(id)
	if i < 0 {
		return models.Note{}, fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
	}
	return s.notes[i].Clone(), nil
}

// Notes returns every note, most recently updated first.
func (s *Service) Notes() []models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(s.notes)
}

func (s *Service) Folders() []models.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

func (s *Service) Folder(id string) (models.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.folderIndex(id)
	if i < 0 {
		return models.Folder{}, fmt.Errorf("noteservice: folder %s: %w", id, apperr.ErrNotFound)
	}
	return s.folders[i], nil
}

func (s *Service) Tags() []models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tags)
}

// FilteredNotes applies the view state to the collection.
func (s *Service) FilteredNotes(st filter.State) []models.Note {
	return filter.Apply(s.Notes(), st, s.now())
}

// Search matches query against titles and content, most recent first.
func (s *Service) Search(query string, limit int) []models.Note {
	st := filter.DefaultState()
	st.Query = query
	out := s.FilteredNotes(st)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SearchSnippets runs a ranked store-side search and returns excerpts
// around each hit.
func (s *Service) SearchSnippets(ctx context.Context, query string, limit int) ([]storage.SearchHit, error) {
	hits, err := s.store.SearchSnippets(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("noteservice: search: %w", err)
	}
	return hits, nil
}

// FindByTitle returns the first note whose title matches, ignoring case.
func (s *Service) FindByTitle(title string) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if strings.EqualFold(n.Title, title) {
			return n.Clone(), true
		}
	}
	return models.Note{}, false
}

// Backlinks returns the notes linking to the note with the given id.
func (s *Service) Backlinks(id string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.noteIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
	}
	return cloneNotes(linkgraph.Backlinks(s.notes[i], s.notes)), nil
}

// OutboundLinks returns the notes the given note links to.
func (s *Service) OutboundLinks(id string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.noteIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
	}
	return cloneNotes(linkgraph.OutboundLinks(s.notes[i], s.notes)), nil
}

// Orphans returns notes with no links in either direction.
func (s *Service) Orphans() []models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(linkgraph.NewIndex(s.notes).Orphans())
}

// Graph returns the link graph for visualisation.
func (s *Service) Graph() ([]linkgraph.Node, []linkgraph.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return linkgraph.NewIndex(s.notes).Graph()
}

// Stats summarises the collection.
func (s *Service) Stats() models.BackupMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return backup.Stats(s.dataset())
}

// Now exposes the service clock for callers that filter by date.
func (s *Service) Now() time.Time { return s.now() }
