package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/stock-metadata/internal/web/handlers"
)

// syncGenerateTimeout bounds synchronous generation requests; async jobs are not limited.
const syncGenerateTimeout = 5 * time.Minute

func (s *Server) setupRoutes() {
	// Create handlers
	configHandler := handlers.NewConfigHandler(s.config)
	generateHandler := handlers.NewGenerateHandler(s.config, s.jobManager, s.runs, s.vocab, s.providerFactory, s.logger)
	runsHandler := handlers.NewRunsHandler(s.runs, s.logger)

	// Health check and metrics
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)
		r.Get("/categories", handlers.Categories)

		// Synchronous generation
		r.With(chiMiddleware.Timeout(syncGenerateTimeout)).Post("/generate", generateHandler.Generate)

		// Generation jobs (long-running operations)
		r.Get("/jobs", generateHandler.List)
		r.Post("/jobs", generateHandler.Start)
		r.Get("/jobs/{jobId}", generateHandler.Status)
		r.Get("/jobs/{jobId}/events", generateHandler.Events)
		r.Get("/jobs/{jobId}/csv", generateHandler.Download)
		r.Delete("/jobs/{jobId}", generateHandler.Cancel)

		// Run history
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{runId}", runsHandler.Get)
		r.Get("/runs/{runId}/csv", runsHandler.Download)
		r.Delete("/runs/{runId}", runsHandler.Delete)
	})
}
