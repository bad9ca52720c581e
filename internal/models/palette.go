package models

// Colors is the fixed palette for folders and tags.
var Colors = []string{
	"#6b7280", // gray
	"#ef4444", // red
	"#f97316", // orange
	"#f59e0b", // amber
	"#eab308", // yellow
	"#84cc16", // lime
	"#10b981", // green
	"#059669", // emerald
	"#14b8a6", // teal
	"#06b6d4", // cyan
	"#0ea5e9", // sky
	"#3b82f6", // blue
	"#6366f1", // indigo
	"#8b5cf6", // violet
	"#a855f7", // purple
	"#d946ef", // fuchsia
	"#ec4899", // pink
	"#f43f5e", // rose
}

// FolderIcons is the fixed set of folder icon names.
var FolderIcons = []string{
	"Folder", "Briefcase", "BookOpen", "Code", "Heart", "Star", "Lightbulb", "Target",
	"Rocket", "Coffee", "Music", "Camera", "Palette", "Globe", "Zap", "Package",
}

// DefaultFolderIcon is used when a folder has no icon or an unknown one.
const DefaultFolderIcon = "Folder"

// FolderIcon resolves name to a known icon, falling back to DefaultFolderIcon.
func FolderIcon(name string) string {
	for _, icon := range FolderIcons {
		if icon == name {
			return icon
		}
	}
	return DefaultFolderIcon
}

// ColorValues returns the palette as []any for use with validation.In.
func ColorValues() []any {
	out := make([]any, len(Colors))
	for i, c := range Colors {
		out[i] = c
	}
	return out
}

// FolderIconValues returns the icon names as []any for use with validation.In.
func FolderIconValues() []any {
	out := make([]any, len(FolderIcons))
	for i, c := range FolderIcons {
		out[i] = c
	}
	return out
}
