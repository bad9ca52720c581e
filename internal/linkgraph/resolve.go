// Package linkgraph resolves wiki links between notes by title.
//
// Links resolve by case-insensitive exact title equality. The plain
// functions rescan content on every call (O(N·L)); Index precomputes the
// same relation for callers that ask many questions of one note set.
package linkgraph

import (
	"strings"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/parser"
)

// Backlinks returns every note other than target whose content links to
// target's title.
func Backlinks(target models.Note, all []models.Note) []models.Note {
	title := strings.ToLower(target.Title)
	var out []models.Note
	for _, n := range all {
		if n.ID == target.ID {
			continue
		}
		if linksTo(n.Content, title) {
			out = append(out, n)
		}
	}
	return out
}

// OutboundLinks returns every note whose title matches one of source's link
// titles. A note linking to its own title is included.
func OutboundLinks(source models.Note, all []models.Note) []models.Note {
	titles := parser.ExtractUniqueTitles(source.Content)
	if len(titles) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		want[t] = struct{}{}
	}
	var out []models.Note
	for _, n := range all {
		if _, ok := want[strings.ToLower(n.Title)]; ok {
			out = append(out, n)
		}
	}
	return out
}

// BacklinkCount returns len(Backlinks(target, all)).
func BacklinkCount(target models.Note, all []models.Note) int {
	return len(Backlinks(target, all))
}

// HasLinkTo reports whether source links to title.
func HasLinkTo(source models.Note, title string) bool {
	return linksTo(source.Content, strings.ToLower(title))
}

// OrphanNotes returns the notes with neither backlinks nor outbound links.
func OrphanNotes(all []models.Note) []models.Note {
	var out []models.Note
	for _, n := range all {
		if len(Backlinks(n, all)) == 0 && len(OutboundLinks(n, all)) == 0 {
			out = append(out, n)
		}
	}
	return out
}

func linksTo(content, lowerTitle string) bool {
	for _, l := range parser.Parse(content) {
		if strings.ToLower(l.Title) == lowerTitle {
			return true
		}
	}
	return false
}
