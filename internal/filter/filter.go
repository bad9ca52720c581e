// Package filter narrows and orders a note collection for display.
package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notegraph/internal/models"
)

// DateRange limits notes by how recently they were modified.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

// window is the sliding lookback for each range. Ranges are measured back
// from now, not aligned to calendar boundaries.
var window = map[DateRange]time.Duration{
	RangeToday: 24 * time.Hour,
	RangeWeek:  7 * 24 * time.Hour,
	RangeMonth: 30 * 24 * time.Hour,
	RangeYear:  365 * 24 * time.Hour,
}

// SortBy names an ordering of the filtered notes.
type SortBy string

const (
	ModifiedDesc SortBy = "modified-desc"
	ModifiedAsc  SortBy = "modified-asc"
	CreatedDesc  SortBy = "created-desc"
	CreatedAsc   SortBy = "created-asc"
	TitleAsc     SortBy = "title-asc"
	TitleDesc    SortBy = "title-desc"
)

// State is the current view selection. A nil FolderID means all folders.
type State struct {
	FolderID  *string   `json:"folderId"`
	Tags      []string  `json:"tags"`
	DateRange DateRange `json:"dateRange"`
	Query     string    `json:"query"`
	SortBy    SortBy    `json:"sortBy"`
}

// DefaultState shows everything, most recently modified first.
func DefaultState() State {
	return State{Tags: []string{}, DateRange: RangeAll, SortBy: ModifiedDesc}
}

// SortKeys lists the accepted SortBy values.
func SortKeys() []any {
	return []any{ModifiedDesc, ModifiedAsc, CreatedDesc, CreatedAsc, TitleAsc, TitleDesc}
}

// Validate implements validation.Validatable. Empty range and sort fall back
// to their defaults in Apply.
func (s State) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.DateRange, validation.In(RangeAll, RangeToday, RangeWeek, RangeMonth, RangeYear)),
		validation.Field(&s.SortBy, validation.In(SortKeys()...)),
		validation.Field(&s.Tags, validation.Each(validation.Required)),
	)
}

// Apply returns the notes that pass every predicate of st, ordered by
// st.SortBy. The input slice is left untouched.
func Apply(notes []models.Note, st State, now time.Time) []models.Note {
	out := make([]models.Note, 0, len(notes))
	query := strings.ToLower(st.Query)
	var cutoff int64
	if d, ok := window[st.DateRange]; ok {
		cutoff = now.Add(-d).UnixMilli()
	}

	for _, n := range notes {
		if st.FolderID != nil && !n.InFolder(st.FolderID) {
			continue
		}
		if !hasAllTags(n, st.Tags) {
			continue
		}
		if cutoff != 0 && n.UpdatedAt < cutoff {
			continue
		}
		if query != "" && !matches(n, query) {
			continue
		}
		out = append(out, n)
	}

	Sort(out, st.SortBy)
	return out
}

// Sort orders notes in place. Equal keys keep their relative order.
func Sort(notes []models.Note, by SortBy) {
	var order func(a, b models.Note) int
	switch by {
	case ModifiedAsc:
		order = func(a, b models.Note) int { return cmp.Compare(a.UpdatedAt, b.UpdatedAt) }
	case CreatedDesc:
		order = func(a, b models.Note) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) }
	case CreatedAsc:
		order = func(a, b models.Note) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	case TitleAsc:
		order = func(a, b models.Note) int { return strings.Compare(a.Title, b.Title) }
	case TitleDesc:
		order = func(a, b models.Note) int { return strings.Compare(b.Title, a.Title) }
	default:
		order = func(a, b models.Note) int { return cmp.Compare(b.UpdatedAt, a.UpdatedAt) }
	}
	slices.SortStableFunc(notes, order)
}

func hasAllTags(n models.Note, tags []string) bool {
	for _, t := range tags {
		if !n.HasTag(t) {
			return false
		}
	}
	return true
}

func matches(n models.Note, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(n.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Content), lowerQuery)
}
