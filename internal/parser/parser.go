// Package parser extracts [[wiki links]] from note content.
//
// Content is treated as plain text: the rich-text markup around a link is
// never interpreted. A literal ']' inside a title ends the match at that
// point; there is no escaping.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/notegraph/internal/models"
)

var (
	// regexp.Regexp carries no match cursor, so sharing it between calls
	// and goroutines is safe.
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	exactRe    = regexp.MustCompile(`^\[\[(.+)\]\]$`)
)

// Parse returns every wiki link in content, left to right, non-overlapping.
// Titles are trimmed of surrounding whitespace.
func Parse(content string) []models.Link {
	idx := wikilinkRe.FindAllStringSubmatchIndex(content, -1)
	if len(idx) == 0 {
		return nil
	}
	links := make([]models.Link, 0, len(idx))
	for _, m := range idx {
		links = append(links, models.Link{
			Raw:   content[m[0]:m[1]],
			Title: strings.TrimSpace(content[m[2]:m[3]]),
			Start: m[0],
			End:   m[1],
		})
	}
	return links
}

// HasLinks reports whether content contains at least one wiki link.
func HasLinks(content string) bool {
	return wikilinkRe.MatchString(content)
}

// ExtractUniqueTitles returns the lower-cased titles linked from content,
// deduplicated, in order of first appearance.
func ExtractUniqueTitles(content string) []string {
	links := Parse(content)
	seen := make(map[string]struct{}, len(links))
	var out []string
	for _, l := range links {
		key := strings.ToLower(l.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// ReplaceLinkTitle rewrites every link whose title case-insensitively equals
// oldTitle to [[newTitle]]. All other content is left byte-for-byte intact.
func ReplaceLinkTitle(content, oldTitle, newTitle string) string {
	target := strings.ToLower(strings.TrimSpace(oldTitle))
	if target == "" {
		return content
	}
	links := Parse(content)
	if len(links) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, l := range links {
		if strings.ToLower(l.Title) != target {
			continue
		}
		b.WriteString(content[last:l.Start])
		b.WriteString(ToWikiLink(newTitle))
		last = l.End
	}
	if last == 0 {
		return content
	}
	b.WriteString(content[last:])
	return b.String()
}

// IsValidWikiLink reports whether text is exactly one [[...]] link.
func IsValidWikiLink(text string) bool {
	return exactRe.MatchString(text)
}

// ToWikiLink formats title as a wiki link.
func ToWikiLink(title string) string {
	return "[[" + title + "]]"
}

// FromWikiLink extracts the trimmed title from a [[...]] string. ok is false
// when text is not a wiki link.
func FromWikiLink(text string) (title string, ok bool) {
	m := exactRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
