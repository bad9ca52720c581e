package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/ident"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/reconcile"
	"github.com/starford/notegraph/internal/sse"
)

// dataset returns the current collections. Caller holds mu.
func (s *Service) dataset() models.Dataset {
	return models.Dataset{Notes: s.notes, Folders: s.folders, Tags: s.tags}
}

// ExportBackup snapshots the whole collection as a backup.
func (s *Service) ExportBackup() models.BackupData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codec.Export(s.notes, s.folders, s.tags)
}

// ImportBackup reconciles b with the current collection and writes the
// result to the store in one transaction. When reconciliation fails the
// returned error wraps apperr.ErrInvalidInput and nothing changes.
func (s *Service) ImportBackup(ctx context.Context, b models.BackupData, opts reconcile.Options) (reconcile.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, res := s.reconciler.Reconcile(b, opts, s.dataset())
	if !res.Success {
		return res, fmt.Errorf("noteservice: import: %s: %w", strings.Join(res.Errors, "; "), apperr.ErrInvalidInput)
	}

	res.Warnings = append(res.Warnings, s.ensureTags(&out)...)
	// Backups may name icons this version does not know.
	for i := range out.Folders {
		out.Folders[i].Icon = models.FolderIcon(out.Folders[i].Icon)
	}
	if err := s.store.ApplyImport(ctx, out, true); err != nil {
		res.Success = false
		res.Errors = append(res.Errors, err.Error())
		return res, fmt.Errorf("noteservice: import: %w", err)
	}

	s.notes, s.folders, s.tags = out.Notes, out.Folders, out.Tags
	sortNotes(s.notes)

	s.logger.Info("noteservice: imported",
		slog.String("mode", string(opts.Mode)),
		slog.Int("notes", len(s.notes)),
		slog.Int("folders", len(s.folders)),
		slog.Int("tags", len(s.tags)))
	s.events.PublishChange(sse.EntityImport, "completed", "")
	return res, nil
}

// ensureTags adds a tag record for every note tag name that has none and
// rewrites note tags to the spelling of the matching record, so every note
// tag names an existing tag exactly. It returns a warning per created tag.
func (s *Service) ensureTags(ds *models.Dataset) []string {
	var warnings []string
	canonical := make(map[string]string, len(ds.Tags))
	for _, t := range ds.Tags {
		if _, ok := canonical[strings.ToLower(t.Name)]; !ok {
			canonical[strings.ToLower(t.Name)] = t.Name
		}
	}
	for i, n := range ds.Notes {
		tags := make([]string, 0, len(n.Tags))
		for _, raw := range n.Tags {
			key := strings.ToLower(raw)
			name, ok := canonical[key]
			if !ok {
				name = raw
				canonical[key] = name
				ds.Tags = append(ds.Tags, models.Tag{ID: ident.New(), Name: name, Color: models.Colors[0], CreatedAt: s.nowMillis()})
				warnings = append(warnings, fmt.Sprintf("created missing tag %q", name))
			}
			if !slices.Contains(tags, name) {
				tags = append(tags, name)
			}
		}
		ds.Notes[i].Tags = tags
	}
	return warnings
}
