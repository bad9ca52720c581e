// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notegraph tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
)

const linkSyntaxURI = "notegraph://link-syntax"

// Server wraps the MCP server with notegraph tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notegraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles and content, case-insensitive. Most recently updated first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("search_fulltext",
		mcp.WithDescription("Ranked full-text search returning an excerpt around each match."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchFulltext)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by id or exact title (case-insensitive)."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id or title")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Link other notes with [[Title]]; see the "+
			"get_link_syntax tool or the "+linkSyntaxURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title (max 100 characters)")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("folder_id", mcp.Description("Optional folder id")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Optional tag names")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_link_syntax",
		mcp.WithDescription("Returns the wiki-link and tag conventions used by notes."),
	), s.getLinkSyntax)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id or title")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_orphans",
		mcp.WithDescription("List notes with no links in or out."),
	), s.listOrphans)

	s.mcp.AddTool(mcp.NewTool("export_backup",
		mcp.WithDescription("Export every note, folder, and tag as a versioned JSON backup."),
	), s.exportBackup)

	s.mcp.AddResource(
		mcp.NewResource(linkSyntaxURI, "Link Syntax",
			mcp.WithResourceDescription("How notes link to each other and how tags behave."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// noteSummary is the list form of a note.
type noteSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	UpdatedAt int64    `json:"updatedAt"`
}

func summaries(notes []models.Note) []noteSummary {
	out := make([]noteSummary, len(notes))
	for i, n := range notes {
		out[i] = noteSummary{ID: n.ID, Title: n.Title, Tags: n.Tags, UpdatedAt: n.UpdatedAt}
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// resolve finds a note by id, then by title.
func (s *Server) resolve(ref string) (models.Note, bool) {
	if n, err := s.svc.Note(ref); err == nil {
		return n, true
	}
	return s.svc.FindByTitle(strings.TrimSpace(ref))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 20)
	return jsonResult(summaries(s.svc.Search(query, limit))), nil
}

func (s *Server) searchFulltext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.SearchSnippets(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.resolve(ref)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	return jsonResult(n), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")
	tags := req.GetStringSlice("tags", nil)

	var folderID *string
	if f := req.GetString("folder_id", ""); f != "" {
		folderID = &f
	}

	n, err := s.svc.CreateNote(ctx, folderID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err = s.svc.UpdateNote(ctx, n.ID, noteservice.NotePatch{Title: &title, Content: &content})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, tag := range tags {
		if n, err = s.svc.AddTagToNote(ctx, n.ID, tag); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", n.Title, n.ID)), nil
}

func (s *Server) getLinkSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkSyntax), nil
}

func (s *Server) readLinkSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      linkSyntaxURI,
			MIMEType: "text/markdown",
			Text:     LinkSyntax,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.resolve(ref)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	bl, err := s.svc.Backlinks(n.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	titles := make([]string, len(bl))
	for i, b := range bl {
		titles[i] = b.Title
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) listOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(summaries(s.svc.Orphans())), nil
}

func (s *Server) exportBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.ExportBackup()), nil
}
