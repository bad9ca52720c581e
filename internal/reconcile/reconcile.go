// Package reconcile merges an imported backup into the current dataset.
package reconcile

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notegraph/internal/ident"
	"github.com/starford/notegraph/internal/models"
)

// Mode selects between merging into and replacing the current data.
type Mode string

const (
	ModeMerge   Mode = "merge"
	ModeReplace Mode = "replace"
)

// Duplicates is the policy for an incoming record whose id already exists.
type Duplicates string

const (
	DuplicatesSkip      Duplicates = "skip"
	DuplicatesOverwrite Duplicates = "overwrite"
	DuplicatesKeepBoth  Duplicates = "keepBoth"
)

// Options configures a reconciliation.
type Options struct {
	Mode             Mode       `json:"mode"`
	HandleDuplicates Duplicates `json:"handleDuplicates"`
}

// Validate implements validation.Validatable.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Mode, validation.Required, validation.In(ModeMerge, ModeReplace)),
		validation.Field(&o.HandleDuplicates, validation.Required, validation.In(DuplicatesSkip, DuplicatesOverwrite, DuplicatesKeepBoth)),
	)
}

// Counts tallies records per entity kind.
type Counts struct {
	Notes   int `json:"notes"`
	Folders int `json:"folders"`
	Tags    int `json:"tags"`
}

// Result reports the outcome of a reconciliation.
type Result struct {
	Success  bool     `json:"success"`
	Imported Counts   `json:"imported"`
	Skipped  Counts   `json:"skipped"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Reconciler applies import options to a backup and the current dataset.
type Reconciler struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Reconciler.
func New(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger, now: time.Now}
}

// Reconcile computes the dataset that results from importing b into current.
// The inputs are not modified. On any failure, including invalid options, it
// returns current unchanged with Success false: a merge is never partial.
func (r *Reconciler) Reconcile(b models.BackupData, opts Options, current models.Dataset) (out models.Dataset, res Result) {
	res = Result{Errors: []string{}, Warnings: []string{}}

	defer func() {
		if p := recover(); p != nil {
			out = current
			res = failed(fmt.Sprintf("reconcile: %v", p))
			r.logger.Error("reconcile: panic", slog.Any("panic", p), slog.String("mode", string(opts.Mode)))
		}
	}()

	if err := opts.Validate(); err != nil {
		r.logger.Warn("reconcile: invalid options", slog.String("error", err.Error()))
		return current, failed("invalid import options: " + err.Error())
	}

	if opts.Mode == ModeReplace {
		out = models.Dataset{
			Notes:   cloneNotes(b.Notes),
			Folders: append([]models.Folder{}, b.Folders...),
			Tags:    append([]models.Tag{}, b.Tags...),
		}
		res.Imported = Counts{Notes: len(b.Notes), Folders: len(b.Folders), Tags: len(b.Tags)}
	} else {
		now := r.now()
		out.Notes, res.Imported.Notes, res.Skipped.Notes = merge(cloneNotes(current.Notes), cloneNotes(b.Notes),
			func(n models.Note) string { return n.ID },
			func(n models.Note, id string) models.Note { n.ID = id; return n },
			opts.HandleDuplicates, now)

		out.Folders, res.Imported.Folders, res.Skipped.Folders = merge(append([]models.Folder{}, current.Folders...), b.Folders,
			func(f models.Folder) string { return f.ID },
			func(f models.Folder, id string) models.Folder { f.ID = id; return f },
			opts.HandleDuplicates, now)

		out.Tags, res.Imported.Tags, res.Skipped.Tags = merge(append([]models.Tag{}, current.Tags...), b.Tags,
			func(t models.Tag) string { return t.ID },
			func(t models.Tag, id string) models.Tag { t.ID = id; return t },
			opts.HandleDuplicates, now)
	}

	res.Success = true
	res.Warnings = danglingFolders(out)
	r.logger.Info("reconcile: prepared",
		slog.String("mode", string(opts.Mode)),
		slog.Any("imported", res.Imported),
		slog.Any("skipped", res.Skipped),
		slog.Int("warnings", len(res.Warnings)))
	return out, res
}

func failed(msg string) Result {
	return Result{Success: false, Errors: []string{msg}, Warnings: []string{}}
}

// merge applies the duplicate policy for one entity kind. Ids appended from
// incoming count as existing for later incoming records, so a backup that
// repeats an id never yields two records sharing a primary key.
func merge[T any](current, incoming []T, idOf func(T) string, withID func(T, string) T, dup Duplicates, now time.Time) (out []T, imported, skipped int) {
	out = current
	pos := make(map[string]int, len(current)+len(incoming))
	for i, v := range current {
		pos[idOf(v)] = i
	}

	for _, v := range incoming {
		id := idOf(v)
		i, exists := pos[id]
		switch {
		case !exists:
			pos[id] = len(out)
			out = append(out, v)
			imported++
		case dup == DuplicatesSkip:
			skipped++
		case dup == DuplicatesOverwrite:
			out[i] = v
			imported++
		default:
			newID := ident.Copy(id, now)
			for {
				if _, taken := pos[newID]; !taken {
					break
				}
				newID = ident.Copy(id, now)
			}
			pos[newID] = len(out)
			out = append(out, withID(v, newID))
			imported++
		}
	}
	return out, imported, skipped
}

// danglingFolders lists notes that reference a folder absent from ds.
func danglingFolders(ds models.Dataset) []string {
	folders := make(map[string]struct{}, len(ds.Folders))
	for _, f := range ds.Folders {
		folders[f.ID] = struct{}{}
	}
	out := []string{}
	for _, n := range ds.Notes {
		if n.FolderID == nil {
			continue
		}
		if _, ok := folders[*n.FolderID]; !ok {
			out = append(out, fmt.Sprintf("note %s references missing folder %s", n.ID, *n.FolderID))
		}
	}
	return out
}

func cloneNotes(in []models.Note) []models.Note {
	out := make([]models.Note, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
