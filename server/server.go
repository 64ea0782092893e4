// Package server provides HTTP server management and lifecycle handling for the anemia API.
// It includes server setup, middleware configuration, route management, and graceful shutdown
// capabilities with proper error handling and logging.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/giygas/anemia-api/config"
	"github.com/giygas/anemia-api/data"
	"github.com/giygas/anemia-api/handlers"
	"github.com/giygas/anemia-api/health"
	"github.com/giygas/anemia-api/interfaces"
	"github.com/giygas/anemia-api/logging"
	"github.com/giygas/anemia-api/metrics"
	"github.com/giygas/anemia-api/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server        *http.Server
	router        chi.Router
	dataContainer *data.DataContainer
	config        *config.Config
	httpHandler   interfaces.HTTPHandler
	healthChecker interfaces.HealthChecker
	rateLimiter   *RateLimiter
	profiler      *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, dataContainer *data.DataContainer) *Server {
	router := chi.NewRouter()

	healthChecker := health.NewHealthChecker(dataContainer, cfg.CatalogReloadTimes)
	httpHandler := handlers.NewHTTPHandler(dataContainer, validation.NewDataValidator(), healthChecker)

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:        router,
		dataContainer: dataContainer,
		config:        cfg,
		httpHandler:   httpHandler,
		healthChecker: healthChecker,
		rateLimiter:   NewRateLimiter(),
	}

	if cfg.Env == config.EnvDevelopment {
		server.profiler = newProfilingServer()
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	allowDirect := s.config.Env == config.EnvDevelopment || s.config.Env == config.EnvTest

	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware(allowDirect)) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/diagnosis", s.httpHandler.Diagnose)
		r.Post("/prescriptions", s.httpHandler.Prescribe)
		r.Post("/screenings", s.httpHandler.Screen)

		r.Get("/supplements", s.httpHandler.ServeSupplements)
		r.Get("/supplements/{id}", s.httpHandler.FindSupplementByID)
		r.Get("/locations/{name}", s.httpHandler.FindLocation)
		r.Get("/adult-supplement", s.httpHandler.SelectAdultSupplement)
	})

	s.router.Get("/health", s.httpHandler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.NotFound(s.httpHandler.ServeHTTP)
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, errorBody(http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path)))
	})
}

// Handler returns the router with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	s.rateLimiter.startCleanup(bucketIdleInterval)

	if s.profiler != nil {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.rateLimiter.Stop()

	if s.profiler != nil {
		_ = s.profiler.Close()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// newProfilingServer serves pprof on localhost only, for development
func newProfilingServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &http.Server{Addr: "localhost:6060", Handler: mux}
}

// startProfilingServer starts the pprof profiling server
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := s.profiler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
