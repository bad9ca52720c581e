package backup

import (
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"

	"github.com/starford/notegraph/internal/models"
)

var (
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscoreRe = regexp.MustCompile(`_{2,}`)
)

var htmlConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		strikethrough.NewStrikethroughPlugin(),
	),
)

// HTMLToMarkdown is a best-effort conversion of editor HTML to Markdown.
// Input the converter rejects is returned trimmed but otherwise unchanged.
func HTMLToMarkdown(html string) string {
	md, err := htmlConverter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(md)
}

// Markdown renders a single note: title heading, optional tag line, body,
// and a footer with created and modified dates.
func Markdown(n models.Note) string {
	var b strings.Builder
	b.WriteString("# " + n.Title + "\n\n")
	if len(n.Tags) > 0 {
		b.WriteString("**Tags:** " + strings.Join(n.Tags, ", ") + "\n\n")
	}
	b.WriteString(HTMLToMarkdown(n.Content))
	b.WriteString("\n\n---\n")
	b.WriteString("*Created: " + formatDate(n.CreatedAt) + "*\n")
	b.WriteString("*Modified: " + formatDate(n.UpdatedAt) + "*\n")
	return b.String()
}

// MarkdownFilename names the file for a single exported note.
func MarkdownFilename(n models.Note) string {
	return sanitizeFilename(n.Title) + ".md"
}

// FolderMarkdownFilename names a note's file in a bulk export, prefixed with
// its folder name. A nil folder means the note is unfiled.
func FolderMarkdownFilename(n models.Note, folder *models.Folder) string {
	folderName := "Unorganized"
	if folder != nil && folder.Name != "" {
		folderName = folder.Name
	}
	return sanitizeFilename(folderName) + "_" + sanitizeFilename(n.Title) + ".md"
}

func sanitizeFilename(name string) string {
	s := unsafeNameRe.ReplaceAllString(name, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

func formatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}
