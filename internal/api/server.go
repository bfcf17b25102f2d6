package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/readmeter/readmeter/internal/config"
	"github.com/readmeter/readmeter/internal/stats"
	"github.com/readmeter/readmeter/internal/store"
)

// Server is the HTTP API server for readmeter.
type Server struct {
	router chi.Router
	store  *store.Store
	stats  *stats.AnalysisStats
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, as *stats.AnalysisStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store: st,
		stats: as,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/analyze/batch", s.handleBatchAnalyze)

		r.Get("/api/articles", s.handleListArticles)
		r.Get("/api/articles/{articleID}", s.handleGetArticle)
		r.Delete("/api/articles/{articleID}", s.handleDeleteArticle)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
