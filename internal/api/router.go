package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/aigateway"
	"github.com/starford/notegraph/internal/autosave"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/prefs"
)

// Deps are the components the API serves.
type Deps struct {
	Service  *noteservice.Service
	Autosave *autosave.Manager
	Codec    *backup.Codec
	AI       *aigateway.Client
	Settings prefs.Store
	Logger   *slog.Logger

	// ImportMaxSize bounds backup uploads; zero uses backup.MaxFileSize.
	ImportMaxSize int64

	AuthEnabled bool
	Token       string

	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// Handler holds API route handlers.
type Handler struct {
	svc       *noteservice.Service
	autosave  *autosave.Manager
	codec     *backup.Codec
	ai        *aigateway.Client
	settings  prefs.Store
	logger    *slog.Logger
	importMax int64
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:       d.Service,
		autosave:  d.Autosave,
		codec:     d.Codec,
		ai:        d.AI,
		settings:  d.Settings,
		logger:    logger,
		importMax: d.ImportMaxSize,
	}
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.Token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Post("/favorite", h.ToggleFavorite)
			r.Put("/draft", h.PushDraft)
			r.Post("/flush", h.FlushDraft)
			r.Post("/tags", h.AddNoteTag)
			r.Delete("/tags/{name}", h.RemoveNoteTag)
			r.Get("/backlinks", h.Backlinks)
			r.Get("/outbound", h.OutboundLinks)
			r.Get("/markdown", h.ExportMarkdown)
		})
	})

	r.Get("/search", h.Search)
	r.Get("/orphans", h.Orphans)
	r.Get("/graph", h.Graph)

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", h.ListFolders)
		r.Post("/", h.CreateFolder)
		r.Patch("/{id}", h.UpdateFolder)
		r.Delete("/{id}", h.DeleteFolder)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Patch("/{id}", h.RenameTag)
		r.Post("/{id}/merge", h.MergeTag)
		r.Delete("/{id}", h.DeleteTag)
	})

	r.Route("/backup", func(r chi.Router) {
		r.Get("/export", h.ExportBackup)
		r.Get("/stats", h.BackupStats)
		r.Post("/import", h.ImportBackup)
	})

	if h.ai != nil {
		r.Route("/ai", func(r chi.Router) {
			r.Post("/transform", h.Transform)
			r.Get("/status", h.AIStatus)
			r.Post("/test", h.TestAIConnection)
			r.Delete("/cache", h.ClearAICache)
		})
	}

	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.SavePreferences)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
