package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/ident"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/sse"
)

// FolderInput describes a new folder.
type FolderInput struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
	Color    string  `json:"color"`
	Icon     string  `json:"icon"`
}

// Validate implements validation.Validatable.
func (in FolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.By(notBlank)),
		validation.Field(&in.Color, validation.In(models.ColorValues()...)),
		validation.Field(&in.Icon, validation.In(models.FolderIconValues()...)),
	)
}

// FolderPatch is a partial folder update. Nil fields are left unchanged.
type FolderPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

// Validate implements validation.Validatable.
func (p FolderPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.By(notBlank)),
		validation.Field(&p.Color, validation.In(models.ColorValues()...)),
		validation.Field(&p.Icon, validation.In(models.FolderIconValues()...)),
	)
}

func notBlank(v any) error {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case *string:
		if x == nil {
			return nil
		}
		s = *x
	}
	if s != "" && strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
}

func invalid(op string, err error) error {
	return fmt.Errorf("noteservice: %s: %w: %w", op, apperr.ErrInvalidInput, err)
}

// CreateFolder adds a folder. Folders are flat; ParentID is stored as given.
// An empty icon becomes the default folder icon.
func (s *Service) CreateFolder(ctx context.Context, in FolderInput) (models.Folder, error) {
	if err := in.Validate(); err != nil {
		return models.Folder{}, invalid("create folder", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := models.Folder{
		ID:        ident.New(),
		Name:      strings.TrimSpace(in.Name),
		ParentID:  in.ParentID,
		Color:     in.Color,
		Icon:      models.FolderIcon(in.Icon),
		CreatedAt: s.nowMillis(),
	}
	if err := s.store.SaveFolder(ctx, f); err != nil {
		return models.Folder{}, fmt.Errorf("noteservice: create folder: %w", err)
	}
	s.folders = append(s.folders, f)
	s.events.PublishChange(sse.EntityFolder, "created", f.ID)
	return f, nil
}

// UpdateFolder renames or restyles a folder.
func (s *Service) UpdateFolder(ctx context.Context, id string, p FolderPatch) (models.Folder, error) {
	if err := p.Validate(); err != nil {
		return models.Folder{}, invalid("update folder", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.folderIndex(id)
	if i < 0 {
		return models.Folder{}, fmt.Errorf("noteservice: folder %s: %w", id, apperr.ErrNotFound)
	}
	f := s.folders[i]
	if p.Name != nil {
		f.Name = strings.TrimSpace(*p.Name)
	}
	if p.Color != nil {
		f.Color = *p.Color
	}
	if p.Icon != nil {
		f.Icon = *p.Icon
	}
	if err := s.store.SaveFolder(ctx, f); err != nil {
		return models.Folder{}, fmt.Errorf("noteservice: update folder: %w", err)
	}
	s.folders[i] = f
	s.events.PublishChange(sse.EntityFolder, "updated", f.ID)
	return f, nil
}

// DeleteFolder removes the folder and moves its notes to unfiled. The note
// saves are separate store writes; a failure part way leaves the remaining
// notes referencing the deleted folder until the next delete or edit.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("noteservice: delete folder: %w", err)
	}
	if i := s.folderIndex(id); i >= 0 {
		s.folders = slices.Delete(s.folders, i, i+1)
	}

	moved := 0
	for i, n := range s.notes {
		if n.FolderID == nil || *n.FolderID != id {
			continue
		}
		updated := n.Clone()
		updated.FolderID = nil
		s.touch(&updated)
		if err := s.store.SaveNote(ctx, updated); err != nil {
			sortNotes(s.notes)
			return fmt.Errorf("noteservice: unfile note %s: %w", n.ID, err)
		}
		s.notes[i] = updated
		moved++
		s.events.PublishChange(sse.EntityNote, "updated", updated.ID)
	}
	sortNotes(s.notes)
	s.logger.Info("noteservice: folder deleted", slog.String("folder_id", id), slog.Int("notes_unfiled", moved))
	s.events.PublishChange(sse.EntityFolder, "deleted", id)
	return nil
}
