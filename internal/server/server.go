// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on every request
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → github.Client (oauth2 transport, retry policy, metrics observer)
//	  → Coordinators (one per cached resource, metrics observer)
//	  → ProfileService / LanguageService
//	  → GitHubHandler → routes
//
// Everything stateful (caches, in-flight sets, collectors) is created here
// once and injected. There are no package-level globals, so tests can build
// as many independent servers as they need.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gh-profile-dashboard/internal/config"
	"github.com/sakif/gh-profile-dashboard/internal/github"
	"github.com/sakif/gh-profile-dashboard/internal/handler"
	"github.com/sakif/gh-profile-dashboard/internal/metrics"
	"github.com/sakif/gh-profile-dashboard/internal/middleware"
	"github.com/sakif/gh-profile-dashboard/internal/service"
)

// Services is the service layer shared by the HTTP server and the CLI.
type Services struct {
	Profiles  *service.ProfileService
	Languages *service.LanguageService
}

// NewServices builds the upstream client, both coordinators and the
// services on top of them. Every component reports to m.
func NewServices(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Services {
	client := github.NewClient(
		cfg.GitHubClientConfig(),
		cfg.TokenSource(),
		cfg.RetryPolicy(),
		logger.With(slog.String("component", "github")),
		github.WithObserver(m),
	)

	svcLogger := logger.With(slog.String("component", "service"))
	profiles := service.NewProfileCoordinator(cfg.Cache.TTL, cfg.Cache.MaxEntries, svcLogger,
		service.WithObserver(m.ForCache("profiles")))
	languages := service.NewLanguageCoordinator(cfg.Cache.TTL, cfg.Cache.MaxEntries, svcLogger,
		service.WithObserver(m.ForCache("languages")))

	return &Services{
		Profiles:  service.NewProfileService(client, profiles, svcLogger),
		Languages: service.NewLanguageService(client, languages, svcLogger),
	}
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Server with its own metrics registry and services.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	m := metrics.New(metrics.NewRegistry())

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
	s.setupRoutes(NewServices(cfg, logger, m))
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET /github-data?username=      → aggregated profile (JSON)
// GET /github-summary?username=   → derived dashboard view (JSON)
// GET /repo-languages?owner=&repo= → language breakdown (JSON)
// GET /healthz                    → liveness
// GET /metrics                    → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an id that Logger includes in every line
// 2. RealIP: extracts the client IP from proxy headers
// 3. Recoverer: turns a handler panic into a 500
// 4. Logger, Metrics: see the final status code
func (s *Server) setupRoutes(svcs *Services) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))

	gh := handler.NewGitHubHandler(svcs.Profiles, svcs.Languages, s.logger)

	s.router.Get("/github-data", gh.HandleGitHubData)
	s.router.Get("/github-summary", gh.HandleSummary)
	s.router.Get("/repo-languages", gh.HandleLanguages)
	s.router.Get("/healthz", gh.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a fatal
// listen error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait up to ShutdownTimeout for in-flight requests
//
// An aggregation that is still running when its request is dropped keeps
// going in the background and is abandoned with the process.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.Duration("cache_ttl", s.config.Cache.TTL),
			slog.Int("cache_max_entries", s.config.Cache.MaxEntries),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
