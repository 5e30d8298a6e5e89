// Package web serves the ETL over HTTP: workbook uploads start async runs
// whose status, progress and result are polled or streamed by run id.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/JonMunkholm/statsetl/internal/config"
	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/web/middleware"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries optional collaborators.
type Options struct {
	Pinger  Pinger       // checked by /healthz; nil reports healthy
	Metrics http.Handler // served at /metrics when non-nil
}

// Server is the HTTP API server.
type Server struct {
	svc    *etl.Service
	cfg    *config.Config
	opts   Options
	router *chi.Mux
	server *http.Server
}

// NewServer wires the router.
func NewServer(svc *etl.Service, cfg *config.Config, opts Options) *Server {
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: s.cfg.Security.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader},
			ExposedHeaders: []string{"Retry-After", "X-Request-Id"},
		})
		s.router.Use(c.Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Get("/template", s.handleTemplate)
		r.Get("/queue", s.handleQueueStatus)

		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(middleware.NewRateLimiter(s.cfg.Rate.UploadsPerMinute, s.cfg.Rate.Burst).Handler)
			}
			r.Post("/uploads", s.handleUpload)
			r.Post("/validate", s.handleValidate)
		})

		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/", s.handleRunStatus)
			r.Get("/result", s.handleRunResult)
			r.Get("/events", s.handleRunEvents)
			r.Post("/cancel", s.handleCancelRun)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
