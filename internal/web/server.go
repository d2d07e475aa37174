package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/database"
	"github.com/kozaktomas/stock-metadata/internal/metrics"
	"github.com/kozaktomas/stock-metadata/internal/title"
	"github.com/kozaktomas/stock-metadata/internal/web/handlers"
	"github.com/kozaktomas/stock-metadata/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	jobManager *handlers.JobManager
	runs       database.RunStore
	registry   *prometheus.Registry
	logger     zerolog.Logger

	providerFactory handlers.ProviderFactory
	vocab           *title.Vocabulary
}

// Option customizes a Server.
type Option func(*Server)

// WithProviderFactory replaces the AI provider construction.
func WithProviderFactory(factory handlers.ProviderFactory) Option {
	return func(s *Server) {
		s.providerFactory = factory
	}
}

// WithRunStore sets the run history store. Without it runs are kept in memory.
func WithRunStore(store database.RunStore) Option {
	return func(s *Server) {
		s.runs = store
	}
}

// WithVocabulary sets the title vocabulary.
func WithVocabulary(vocab *title.Vocabulary) Option {
	return func(s *Server) {
		s.vocab = vocab
	}
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, logger zerolog.Logger, opts ...Option) *Server {
	r := chi.NewRouter()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.MustRegister(registry)

	s := &Server{
		config:     cfg,
		router:     r,
		jobManager: handlers.NewJobManager(),
		registry:   registry,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runs == nil {
		s.runs = database.NewMemoryStore(cfg.Database.HistorySize)
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Observe(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // Long timeout for SSE and synchronous AI runs
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and cancels running jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down web server")

	for _, job := range s.jobManager.ListJobs() {
		if job.GetStatus() == handlers.JobStatusRunning || job.GetStatus() == handlers.JobStatusPending {
			job.Cancel()
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
