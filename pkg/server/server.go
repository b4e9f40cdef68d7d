// Package server exposes the concept-map application over HTTP: a JSON
// API for session lifecycle events, a WebSocket feed of live session
// snapshots, and the embedded single-page UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/graph"
	"github.com/elieapp/elie/pkg/state"
	"github.com/elieapp/elie/pkg/store"
)

var validate = validator.New()

// Server serves the web UI, REST API, and live session feed.
type Server struct {
	state          *state.Manager
	sessions       store.SessionStore
	graph          *graph.Engine
	distFS         fs.FS
	allowedOrigins []string
	started        time.Time
	srv            *http.Server
}

// New creates a new Server. distFS must be rooted at the built UI
// assets (index.html at the top level).
func New(
	st *state.Manager,
	sessions store.SessionStore,
	eng *graph.Engine,
	distFS fs.FS,
	allowedOrigins []string,
) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{
		state:          st,
		sessions:       sessions,
		graph:          eng,
		distFS:         distFS,
		allowedOrigins: allowedOrigins,
		started:        time.Now(),
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Post("/import", s.handleImportSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/nodes/{nodeID}", s.handleExpandNode)
			r.Put("/mode", s.handleSetMode)
			r.Post("/reload", s.handleReload)
			r.Get("/figure", s.handleFigure)
			r.Get("/suggestions", s.handleSuggestions)
			r.Get("/export", s.handleExportSession)
			r.Get("/live", s.handleLiveWebSocket)
		})
	})

	// Static assets (SPA fallback)
	r.NotFound(s.handleStatic)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	slog.Info("Starting web server", "addr", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "elie",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if len(r.URL.Path) >= 4 && r.URL.Path[:4] == "/api" {
		http.NotFound(w, r)
		return
	}

	path := r.URL.Path
	if path == "/" {
		path = "index.html"
	} else if path[0] == '/' {
		path = path[1:]
	}

	// Try serving the exact file.
	f, err := s.distFS.Open(path)
	if err == nil {
		defer f.Close()
		stat, _ := f.Stat()
		if !stat.IsDir() {
			http.FileServer(http.FS(s.distFS)).ServeHTTP(w, r)
			return
		}
	}

	// Fallback to index.html for SPA routing.
	index, err := s.distFS.Open("index.html")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer index.Close()

	if seeker, ok := index.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "index.html", time.Time{}, seeker)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.Copy(w, index)
}

// decodeRequest unmarshals a JSON body into dst and validates it.
func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return validate.Struct(dst)
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownConcept):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRootConcept):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEmptyTopic), errors.Is(err, domain.ErrMalformedImport):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, err error) {
	slog.Error("API Error", "status", status, "error", err)
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}
