// Package server provides the HTTP server for the HTMX frontend and JSON API
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/recipebook/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipebook/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipebook/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	frontend *handlers.FrontendHandlers
	api      *handlers.APIHandlers
	health   *healthcheck.HealthCheck
	metrics  *monitoring.Metrics
	limiter  *middleware.RateLimiter
	handler  http.Handler
	server   *http.Server
}

// NewServer creates a new HTTP server instance. A nil metrics disables the
// metrics middleware and the /metrics endpoint.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	frontend *handlers.FrontendHandlers,
	api *handlers.APIHandlers,
	health *healthcheck.HealthCheck,
	metrics *monitoring.Metrics,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("server"),
		frontend: frontend,
		api:      api,
		health:   health,
		metrics:  metrics,
	}
	if cfg.RateLimit.Enable {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.handler = otelhttp.NewHandler(s.setupRouter(), "recipebook.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port)),
		Handler:           s.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}

	// Ops endpoints are neither rate limited nor compressed
	r.Get("/health", s.health.Handler())
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}

		// Websockets outlive the request timeout
		r.Get("/recipes/{id}/live", s.frontend.HandleLive)

		r.Group(func(r chi.Router) {
			timeout := s.config.Server.RequestTimeout
			if timeout <= 0 {
				timeout = defaultRequestTimeout
			}
			r.Use(chimiddleware.Timeout(timeout))
			if s.config.Server.EnableCompression {
				r.Use(chimiddleware.Compress(5))
			}

			s.setupFrontendRoutes(r)
			r.Route("/api/v1", s.setupAPIRoutes)
		})
	})

	return r
}

func (s *Server) setupFrontendRoutes(r chi.Router) {
	h := s.frontend

	r.Get("/", h.HandleHome)
	r.Get("/recipes", h.HandleRecipes)
	r.Get("/recipes/search", h.HandleRecipes)
	r.Get("/recipes/{id}", h.HandleRecipeDetail)
	r.Get("/recipes/{id}/modal", h.HandleRecipeModal)
	r.Post("/recipes/{id}/ask_ai", h.HandleAskAI)
}

func (s *Server) setupAPIRoutes(r chi.Router) {
	h := s.api

	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.ListRecipes)
		r.Get("/{id}", h.GetRecipe)
		r.Post("/{id}/ai_instructions", h.RequestInstructions)
		r.Get("/{id}/ai_instructions", h.GetInstructions)
	})
	r.Get("/ingredients", h.ListIngredients)
	r.Get("/categories/popular", h.PopularCategories)
	r.Post("/categories/popular/refresh", h.RefreshPopularCategories)
	r.Post("/caches/clear", h.ClearCaches)
	r.NotFound(h.NotFound)
}

// Start listens in the background. Listen errors are returned directly;
// later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("Starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.String("environment", s.config.App.Environment),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
