package models

// BackupData is the versioned exchange format for export and import.
type BackupData struct {
	Version    string         `json:"version"`
	ExportedAt string         `json:"exportedAt"`
	AppVersion string         `json:"appVersion"`
	Notes      []Note         `json:"notes"`
	Folders    []Folder       `json:"folders"`
	Tags       []Tag          `json:"tags"`
	Metadata   BackupMetadata `json:"metadata"`
}

// BackupMetadata summarises a backup. TotalSize is the approximate
// serialized size in bytes.
type BackupMetadata struct {
	NoteCount   int `json:"noteCount"`
	FolderCount int `json:"folderCount"`
	TagCount    int `json:"tagCount"`
	TotalSize   int `json:"totalSize"`
}

// Dataset is the full note collection: the unit import and replace work on.
type Dataset struct {
	Notes   []Note   `json:"notes"`
	Folders []Folder `json:"folders"`
	Tags    []Tag    `json:"tags"`
}
