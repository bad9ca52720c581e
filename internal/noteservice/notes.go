package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/ident"
	"github.com/starford/notegraph/internal/linkgraph"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/parser"
	"github.com/starford/notegraph/internal/sse"
)

// NotePatch is a partial note update. Nil fields are left unchanged.
// SetFolder distinguishes "move to FolderID (possibly unfiled)" from "leave
// the folder alone".
type NotePatch struct {
	Title      *string
	Content    *string
	SetFolder  bool
	FolderID   *string
	Tags       []string
	IsFavorite *bool
}

// CreateNote adds an empty note to folderID (nil for unfiled).
func (s *Service) CreateNote(ctx context.Context, folderID *string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if folderID != nil && s.folderIndex(*folderID) < 0 {
		return models.Note{}, fmt.Errorf("noteservice: folder %s: %w", *folderID, apperr.ErrNotFound)
	}
	now := s.nowMillis()
	n := models.Note{
		ID:        ident.New(),
		Title:     models.DefaultNoteTitle,
		FolderID:  folderID,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveNote(ctx, n); err != nil {
		return models.Note{}, fmt.Errorf("noteservice: create note: %w", err)
	}
	s.notes = append([]models.Note{n}, s.notes...)
	sortNotes(s.notes)
	s.events.PublishChange(sse.EntityNote, "created", n.ID)
	return n.Clone(), nil
}

// UpdateNote applies p to the note. A title change rewrites [[old title]]
// links in every other note so existing backlinks keep resolving. Tag names
// take the spelling of an existing tag record; unknown names get a new one.
func (s *Service) UpdateNote(ctx context.Context, id string, p NotePatch) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.noteIndex(id)
	if i < 0 {
		return models.Note{}, fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
	}
	old := s.notes[i]
	n := old.Clone()

	if p.Title != nil {
		n.Title = models.NormalizeTitle(*p.Title)
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.SetFolder {
		if p.FolderID != nil && s.folderIndex(*p.FolderID) < 0 {
			return models.Note{}, fmt.Errorf("noteservice: folder %s: %w", *p.FolderID, apperr.ErrNotFound)
		}
		n.FolderID = p.FolderID
	}
	if p.Tags != nil {
		tags, err := s.resolveTags(ctx, p.Tags)
		if err != nil {
			return models.Note{}, err
		}
		n.Tags = tags
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	s.touch(&n)

	if err := s.store.SaveNote(ctx, n); err != nil {
		return models.Note{}, fmt.Errorf("noteservice: update note: %w", err)
	}
	s.notes[i] = n

	if n.Title != old.Title {
		s.propagateRename(ctx, n.ID, old.Title, n.Title)
	}
	sortNotes(s.notes)
	s.events.PublishChange(sse.EntityNote, "updated", n.ID)
	return n.Clone(), nil
}

// propagateRename rewrites links to oldTitle in every other note. Each
// rewritten note is saved on its own; a failure is logged and leaves that
// note's links pointing at the old title.
func (s *Service) propagateRename(ctx context.Context, renamedID, oldTitle, newTitle string) {
	for i, other := range s.notes {
		if other.ID == renamedID || !linkgraph.HasLinkTo(other, oldTitle) {
			continue
		}
		updated := other.Clone()
		updated.Content = parser.ReplaceLinkTitle(other.Content, oldTitle, newTitle)
		if updated.Content == other.Content {
			continue
		}
		s.touch(&updated)
		if err := s.store.SaveNote(ctx, updated); err != nil {
			s.logger.Error("noteservice: rename propagation failed",
				slog.String("note_id", other.ID),
				slog.String("error", err.Error()))
			continue
		}
		s.notes[i] = updated
		s.events.PublishChange(sse.EntityNote, "updated", updated.ID)
	}
}

// DeleteNote removes the note. Deleting an unknown id is a no-op.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("noteservice: delete note: %w", err)
	}
	i := s.noteIndex(id)
	if i < 0 {
		return nil
	}
	s.notes = slices.Delete(s.notes, i, i+1)
	s.events.PublishChange(sse.EntityNote, "deleted", id)
	return nil
}

// ToggleFavorite flips the note's favorite flag.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (models.Note, error) {
	n, err := s.Note(id)
	if err != nil {
		return models.Note{}, err
	}
	fav := !n.IsFavorite
	return s.UpdateNote(ctx, id, NotePatch{IsFavorite: &fav})
}

// SaveContent and SaveTitle let the autosave manager persist drafts.
func (s *Service) SaveContent(ctx context.Context, id, content string) error {
	_, err := s.UpdateNote(ctx, id, NotePatch{Content: &content})
	return err
}

func (s *Service) SaveTitle(ctx context.Context, id, title string) error {
	_, err := s.UpdateNote(ctx, id, NotePatch{Title: &title})
	return err
}

// AddTagToNote tags the note with name, creating the tag if needed. The
// existing tag's spelling wins when name differs only in case.
func (s *Service) AddTagToNote(ctx context.Context, noteID, name string) (models.Note, error) {
	tag, err := s.CreateTag(ctx, name, "")
	if err != nil {
		return models.Note{}, err
	}
	n, err := s.Note(noteID)
	if err != nil {
		return models.Note{}, err
	}
	if n.HasTag(tag.Name) {
		return n, nil
	}
	return s.UpdateNote(ctx, noteID, NotePatch{Tags: append(n.Tags, tag.Name)})
}

// RemoveTagFromNote drops name from the note's tags. The tag record stays.
func (s *Service) RemoveTagFromNote(ctx context.Context, noteID, name string) (models.Note, error) {
	n, err := s.Note(noteID)
	if err != nil {
		return models.Note{}, err
	}
	if !n.HasTag(name) {
		return n, nil
	}
	return s.UpdateNote(ctx, noteID, NotePatch{Tags: without(n.Tags, name)})
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func without(names []string, drop string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != drop {
			out = append(out, name)
		}
	}
	return out
}
