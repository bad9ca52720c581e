package linkgraph

import (
	"strings"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/parser"
)

// Index is a snapshot of the link relation over one note set.
type Index struct {
	notes []models.Note
	// byTitle: lowercase title -> positions in notes (titles may repeat)
	byTitle map[string][]int
	// titles: position -> lowercase titles linked from that note
	titles [][]string
}

// NewIndex scans every note once.
func NewIndex(all []models.Note) *Index {
	idx := &Index{
		notes:   all,
		byTitle: make(map[string][]int, len(all)),
		titles:  make([][]string, len(all)),
	}
	for i, n := range all {
		key := strings.ToLower(n.Title)
		idx.byTitle[key] = append(idx.byTitle[key], i)
		idx.titles[i] = parser.ExtractUniqueTitles(n.Content)
	}
	return idx
}

// Backlinks matches the package-level Backlinks for a note in the set.
func (idx *Index) Backlinks(target models.Note) []models.Note {
	key := strings.ToLower(target.Title)
	var out []models.Note
	for i, n := range idx.notes {
		if n.ID == target.ID {
			continue
		}
		if contains(idx.titles[i], key) {
			out = append(out, n)
		}
	}
	return out
}

// Outbound matches the package-level OutboundLinks, preserving set order.
func (idx *Index) Outbound(source models.Note) []models.Note {
	titles := parser.ExtractUniqueTitles(source.Content)
	if len(titles) == 0 {
		return nil
	}
	hit := make(map[int]struct{})
	for _, t := range titles {
		for _, pos := range idx.byTitle[t] {
			hit[pos] = struct{}{}
		}
	}
	var out []models.Note
	for i, n := range idx.notes {
		if _, ok := hit[i]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Orphans matches the package-level OrphanNotes.
func (idx *Index) Orphans() []models.Note {
	// inbound: lowercase titles that some other note links to, per linker id
	linkedBy := make(map[string]map[string]struct{})
	for i, n := range idx.notes {
		for _, t := range idx.titles[i] {
			if linkedBy[t] == nil {
				linkedBy[t] = make(map[string]struct{})
			}
			linkedBy[t][n.ID] = struct{}{}
		}
	}

	var out []models.Note
	for i, n := range idx.notes {
		if idx.hasOutbound(i) {
			continue
		}
		inbound := false
		for id := range linkedBy[strings.ToLower(n.Title)] {
			if id != n.ID {
				inbound = true
				break
			}
		}
		if !inbound {
			out = append(out, n)
		}
	}
	return out
}

func (idx *Index) hasOutbound(pos int) bool {
	for _, t := range idx.titles[pos] {
		if len(idx.byTitle[t]) > 0 {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
