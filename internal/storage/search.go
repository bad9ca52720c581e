package storage

import (
	"strings"
	"unicode/utf8"
)

// SearchHit is one ranked full-text match.
type SearchHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const defaultSearchLimit = 20

// excerpt returns up to width bytes of content centred on the first
// case-insensitive occurrence of query, cut on rune boundaries.
func excerpt(content, query string, width int) string {
	if content == "" {
		return ""
	}
	at := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if at < 0 || query == "" {
		at = 0
	}
	start := max(at-width/2, 0)
	end := min(start+width, len(content))
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	out := content[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(content) {
		out += "..."
	}
	return out
}
