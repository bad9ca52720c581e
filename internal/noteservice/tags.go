package noteservice

import (
	"context"
	"errors"
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

func validateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validation.NewError("validation_required", "tag name cannot be blank")
	}
	return nil
}

func validateColor(color string) error {
	return validation.Validate(color, validation.In(models.ColorValues()...))
}

// findTagByName matches case-insensitively. Caller holds mu.
func (s *Service) findTagByName(name string) int {
	return slices.IndexFunc(s.tags, func(t models.Tag) bool { return strings.EqualFold(t.Name, name) })
}

// resolveTags maps names onto tag records, creating records for unknown
// names. The result is deduplicated and uses each record's spelling.
// Caller holds mu.
func (s *Service) resolveTags(ctx context.Context, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range dedupe(names) {
		i := s.findTagByName(name)
		if i < 0 {
			t := models.Tag{ID: ident.New(), Name: name, Color: models.Colors[0], CreatedAt: s.nowMillis()}
			if err := s.store.SaveTag(ctx, t); err != nil {
				return nil, fmt.Errorf("noteservice: create tag: %w", err)
			}
			s.tags = append(s.tags, t)
			s.events.PublishChange(sse.EntityTag, "created", t.ID)
			i = len(s.tags) - 1
		}
		if canonical := s.tags[i].Name; !slices.Contains(out, canonical) {
			out = append(out, canonical)
		}
	}
	return out, nil
}

// CreateTag adds a tag. If a tag with the same name in any case exists, it
// is returned unchanged. An empty color picks the first palette entry.
func (s *Service) CreateTag(ctx context.Context, name, color string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if err := errors.Join(validateTagName(name), validateColor(color)); err != nil {
		return models.Tag{}, invalid("create tag", err)
	}
	if color == "" {
		color = models.Colors[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findTagByName(name); i >= 0 {
		return s.tags[i], nil
	}
	t := models.Tag{ID: ident.New(), Name: name, Color: color, CreatedAt: s.nowMillis()}
	if err := s.store.SaveTag(ctx, t); err != nil {
		return models.Tag{}, fmt.Errorf("noteservice: create tag: %w", err)
	}
	s.tags = append(s.tags, t)
	s.events.PublishChange(sse.EntityTag, "created", t.ID)
	return t, nil
}

// RenameTag renames a tag and rewrites the name on every note carrying it.
// It fails with apperr.ErrConflict, changing nothing, when another tag
// already has the new name.
func (s *Service) RenameTag(ctx context.Context, id, newName string) (models.Tag, error) {
	newName = strings.TrimSpace(newName)
	if err := validateTagName(newName); err != nil {
		return models.Tag{}, invalid("rename tag", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tagIndex(id)
	if i < 0 {
		return models.Tag{}, fmt.Errorf("noteservice: tag %s: %w", id, apperr.ErrNotFound)
	}
	if j := s.findTagByName(newName); j >= 0 && j != i {
		return models.Tag{}, fmt.Errorf("noteservice: tag %q already exists: %w", s.tags[j].Name, apperr.ErrConflict)
	}

	t := s.tags[i]
	oldName := t.Name
	if oldName == newName {
		return t, nil
	}
	t.Name = newName
	if err := s.store.SaveTag(ctx, t); err != nil {
		return models.Tag{}, fmt.Errorf("noteservice: rename tag: %w", err)
	}
	s.tags[i] = t

	if err := s.retag(ctx, oldName, newName); err != nil {
		return models.Tag{}, err
	}
	s.events.PublishChange(sse.EntityTag, "renamed", t.ID)
	return t, nil
}

// MergeTag folds source into target: notes tagged source end up tagged
// target (once), and source is deleted. Both tags must exist.
func (s *Service) MergeTag(ctx context.Context, sourceID, targetID string) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	si, ti := s.tagIndex(sourceID), s.tagIndex(targetID)
	if si < 0 {
		return models.Tag{}, fmt.Errorf("noteservice: merge source tag %s: %w", sourceID, apperr.ErrNotFound)
	}
	if ti < 0 {
		return models.Tag{}, fmt.Errorf("noteservice: merge target tag %s: %w", targetID, apperr.ErrNotFound)
	}
	if si == ti {
		return models.Tag{}, fmt.Errorf("noteservice: merge tag into itself: %w", apperr.ErrInvalidInput)
	}
	source, target := s.tags[si], s.tags[ti]

	if err := s.retag(ctx, source.Name, target.Name); err != nil {
		return models.Tag{}, err
	}
	if err := s.store.DeleteTag(ctx, source.ID); err != nil {
		return models.Tag{}, fmt.Errorf("noteservice: merge tag: %w", err)
	}
	s.tags = slices.Delete(s.tags, si, si+1)

	s.logger.Info("noteservice: tags merged", slog.String("source", source.Name), slog.String("target", target.Name))
	s.events.PublishChange(sse.EntityTag, "deleted", source.ID)
	s.events.PublishChange(sse.EntityTag, "updated", target.ID)
	return target, nil
}

// DeleteTag removes the tag and strips its name from every note. Deleting
// an unknown id is a no-op.
func (s *Service) DeleteTag(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tagIndex(id)
	if i < 0 {
		return nil
	}
	t := s.tags[i]
	if err := s.store.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("noteservice: delete tag: %w", err)
	}
	s.tags = slices.Delete(s.tags, i, i+1)

	if err := s.retag(ctx, t.Name, ""); err != nil {
		return err
	}
	s.events.PublishChange(sse.EntityTag, "deleted", id)
	return nil
}

// retag replaces oldName with newName on every note, or removes it when
// newName is empty. Caller holds mu. Each note is a separate store write.
func (s *Service) retag(ctx context.Context, oldName, newName string) error {
	changed := false
	for i, n := range s.notes {
		if !n.HasTag(oldName) {
			continue
		}
		updated := n.Clone()
		tags := make([]string, 0, len(n.Tags))
		for _, name := range n.Tags {
			if name == oldName {
				name = newName
			}
			if name != "" && !slices.Contains(tags, name) {
				tags = append(tags, name)
			}
		}
		updated.Tags = tags
		s.touch(&updated)
		if err := s.store.SaveNote(ctx, updated); err != nil {
			if changed {
				sortNotes(s.notes)
			}
			return fmt.Errorf("noteservice: retag note %s: %w", n.ID, err)
		}
		s.notes[i] = updated
		changed = true
		s.events.PublishChange(sse.EntityNote, "updated", updated.ID)
	}
	if changed {
		sortNotes(s.notes)
	}
	return nil
}
