package models

// UTF16Len returns the length of s in UTF-16 code units, the unit the editor
// counts characters in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// TruncateUTF16 cuts s to at most limit UTF-16 code units without splitting
// a surrogate pair.
func TruncateUTF16(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	units := 0
	for i, r := range s {
		w := runeUnits(r)
		if units+w > limit {
			return s[:i]
		}
		units += w
	}
	return s
}

func runeUnits(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

// NormalizeTitle applies the save-time title rules: an empty title becomes
// DefaultNoteTitle and long titles are truncated.
func NormalizeTitle(title string) string {
	if title == "" {
		return DefaultNoteTitle
	}
	return TruncateUTF16(title, MaxTitleLength)
}
