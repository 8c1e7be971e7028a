package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockpad/internal/docservice"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/session"
	"github.com/starford/blockpad/internal/sse"
)

// Options holds everything the router serves.
type Options struct {
	Docs     *docservice.Service
	Sessions *session.Manager
	Tools    *plugin.Table
	// Broker, if non-nil, is mounted at GET /events and feeds websocket
	// clients.
	Broker *sse.Broker

	AuthEnabled bool
	Token       string
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(opts Options) chi.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &Handler{docs: opts.Docs, sessions: opts.Sessions, tools: opts.Tools, broker: opts.Broker, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	// Stored documents.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Patch("/documents/*", h.RenameDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	r.Get("/search", h.Search)
	r.Get("/block-types", h.BlockTypes)
	r.Get("/languages", h.Languages)

	// Editing sessions.
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.OpenSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)
			r.Get("/blocks", h.ListBlocks)
			r.Post("/blocks", h.InsertBlock)
			r.Patch("/blocks/{blockID}", h.UpdateBlock)
			r.Delete("/blocks/{blockID}", h.DeleteBlock)
			r.Post("/blocks/{blockID}/move", h.MoveBlock)
			r.Post("/blocks/{blockID}/focus", h.FocusBlock)
			r.Put("/document", h.RenderDocument)
			r.Delete("/document", h.ClearDocument)
			r.Post("/save", h.Save)
			r.Post("/click", h.Click)
			r.Get("/output", h.Output)
			r.Get("/page", h.Page)
			r.Post("/commands", h.Command)
			r.Get("/ws", h.handleWS)
		})
	})

	if opts.Broker != nil {
		r.Get("/events", opts.Broker.ServeHTTP)
	}

	return r
}

// Handler holds API route handlers.
type Handler struct {
	docs     *docservice.Service
	sessions *session.Manager
	tools    *plugin.Table
	broker   *sse.Broker
	logger   *slog.Logger
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get session", err)
		return nil, false
	}
	return s, true
}
