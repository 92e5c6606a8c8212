// Package web serves kotoba's JSON API: review sessions over both decks, the
// personal vocabulary list, flashcards and the JLPT library.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/conorfennell/kotoba/internal/catalog"
	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/library"
	"github.com/conorfennell/kotoba/internal/observe"
	"github.com/conorfennell/kotoba/internal/review"
)

// Deps are the collaborators of a Server. Reload, Metrics and MetricsHandler
// are optional.
type Deps struct {
	Cards   review.Store[*domain.FlashCard]
	Words   review.Store[*domain.VocabularyItem]
	Catalog *catalog.Service
	Library *library.Library

	// Reload fetches the library source again and parses it.
	Reload func(ctx context.Context) (*library.Library, error)

	// SessionOptions are applied to every review session.
	SessionOptions []review.Option

	Metrics        *observe.Metrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	deps    Deps
	logger  *slog.Logger
	router  *http.ServeMux
	handler http.Handler

	// mu guards decks and lib. Review sessions are not safe for concurrent
	// use, so every session call happens with mu held.
	mu    sync.Mutex
	decks map[string]deck
	lib   *library.Library
}

// NewServer creates and configures a new server.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lib := deps.Library
	if lib == nil {
		lib = &library.Library{}
	}

	s := &Server{
		deps:   deps,
		logger: logger,
		router: http.NewServeMux(),
		decks:  make(map[string]deck),
		lib:    lib,
	}
	s.routes()
	s.handler = observe.Middleware(deps.Metrics, logger)(s.router)
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth())
	if s.deps.MetricsHandler != nil {
		s.router.Handle("GET /metrics", s.deps.MetricsHandler)
	}

	s.router.HandleFunc("GET /api/review/{deck}", s.handleGetReview())
	s.router.HandleFunc("POST /api/review/{deck}", s.handlePostReview())
	s.router.HandleFunc("POST /api/review/{deck}/reset", s.handleResetReview())

	s.router.HandleFunc("GET /api/words", s.handleListWords())
	s.router.HandleFunc("POST /api/words", s.handleAddWord())
	s.router.HandleFunc("PUT /api/words/{id}", s.handleUpdateWord())
	s.router.HandleFunc("DELETE /api/words/{id}", s.handleDeleteWord())
	s.router.HandleFunc("POST /api/words/{id}/card", s.handleMakeCard())
	s.router.HandleFunc("POST /api/cards", s.handleAddCard())

	s.router.HandleFunc("GET /api/library", s.handleGetLibrary())
	s.router.HandleFunc("GET /api/library/categories", s.handleGetCategories())
	s.router.HandleFunc("POST /api/library/import", s.handleImportLibrary())
	s.router.HandleFunc("POST /api/library/sync", s.handleSyncLibrary())
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type errorResponse struct {
	Error   string       `json:"error"`
	Session *sessionView `json:"session,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err to a status code and writes it. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, review.ErrNoCurrentItem):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
