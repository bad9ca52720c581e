// Package models defines the domain types for notegraph.
package models

// DefaultNoteTitle is assigned to freshly created notes.
const DefaultNoteTitle = "Untitled Note"

// MaxTitleLength is the title limit in UTF-16 code units.
const MaxTitleLength = 100

// Note is a rich-text document. Content is an opaque serialized blob owned by
// the editor; the core only scans it as text.
type Note struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	FolderID   *string  `json:"folderId"`
	Tags       []string `json:"tags"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
	IsFavorite bool     `json:"isFavorite"`
}

// InFolder reports whether the note is filed under folderID (nil means unfiled).
func (n Note) InFolder(folderID *string) bool {
	if n.FolderID == nil || folderID == nil {
		return n.FolderID == nil && folderID == nil
	}
	return *n.FolderID == *folderID
}

// HasTag reports whether name is in the note's tag list (case-sensitive).
func (n Note) HasTag(name string) bool {
	for _, t := range n.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	c := n
	if n.FolderID != nil {
		id := *n.FolderID
		c.FolderID = &id
	}
	c.Tags = append([]string{}, n.Tags...)
	return c
}

// Folder groups notes. ParentID is stored but folders are treated as flat.
type Folder struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	Color     string  `json:"color,omitempty"`
	Icon      string  `json:"icon,omitempty"`
	CreatedAt int64   `json:"createdAt"`
}

// Tag names are denormalized onto notes; Name is unique case-insensitively.
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Link is a wiki link extracted from note content. Start and End are byte
// offsets into the content.
type Link struct {
	Raw   string `json:"raw"`
	Title string `json:"title"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
