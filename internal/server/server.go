// Package server provides the HTTP server and routing for the FAIR risk service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantrisk/fairsim/internal/config"
	"github.com/quantrisk/fairsim/internal/database"
	"github.com/quantrisk/fairsim/internal/modules/benchmarks"
	benchmarkhandlers "github.com/quantrisk/fairsim/internal/modules/benchmarks/handlers"
	fairhandlers "github.com/quantrisk/fairsim/internal/modules/fair/handlers"
	"github.com/quantrisk/fairsim/internal/modules/scenarios"
	scenariohandlers "github.com/quantrisk/fairsim/internal/modules/scenarios/handlers"
)

// ServiceName is reported by the root and health endpoints.
const ServiceName = "FAIR Risk Quantification Service"

// Version is the service version reported by the root endpoint.
const Version = "1.0.0"

// Config holds server configuration.
type Config struct {
	Log         zerolog.Logger
	Config      *config.Config
	ScenariosDB *database.DB
	CacheDB     *database.DB
	Repo        *scenarios.Repository
	Cache       *scenarios.ResultCache
	Library     *benchmarks.Library
}

// Server represents the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	scenariosDB    *database.DB
	cacheDB        *database.DB
	repo           *scenarios.Repository
	cache          *scenarios.ResultCache
	library        *benchmarks.Library
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		cfg:         cfg.Config,
		scenariosDB: cfg.ScenariosDB,
		cacheDB:     cfg.CacheDB,
		repo:        cfg.Repo,
		cache:       cfg.Cache,
		library:     cfg.Library,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.ScenariosDB, cfg.CacheDB)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout; large simulation batches can take a while
	s.router.Use(middleware.Timeout(120 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	fairHandler := fairhandlers.NewHandler(
		s.cfg.DefaultSimulations,
		s.cfg.DefaultSeed,
		s.cache,
		s.log,
	)
	scenarioHandler := scenariohandlers.NewHandler(
		s.repo,
		s.cache,
		s.cfg.DefaultSimulations,
		s.cfg.DefaultSeed,
		s.log,
	)
	benchmarkHandler := benchmarkhandlers.NewHandler(s.library, s.log)

	s.router.Route("/api", func(r chi.Router) {
		fairHandler.RegisterRoutes(r)
		scenarioHandler.RegisterRoutes(r)
		benchmarkHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/databases", s.systemHandlers.HandleDatabaseStats)
		})
	})
}

// handleRoot returns service identification
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": ServiceName,
		"version": Version,
		"status":  "operational",
	})
}

// handleHealth returns a minimal liveness response with database checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	for _, db := range []*database.DB{s.scenariosDB, s.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(r.Context()); err != nil {
			s.log.Error().Err(err).Str("database", db.Name()).Msg("Health check failed")
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]interface{}{"status": status})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the underlying router, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
