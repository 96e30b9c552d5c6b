package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config carries the listener settings the serve binary resolves from the
// environment.
type Config struct {
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server wraps the HTTP server and its router.
type Server struct {
	server *http.Server
	router *chi.Mux
}

// New assembles the router, middleware stack and CORS policy around the
// handler and returns a ready-to-run server.
func New(cfg Config, h *Handler) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	h.RegisterRoutes(router)

	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		},
		router: router,
	}
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
