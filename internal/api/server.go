// Package api provides the HTTP API server and handlers for the Bookea Reads
// sync server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lilizblack/bookeareads-server/internal/ratelimit"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/store"
)

const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	services    *Services
	searchIndex *search.SearchIndex
	router      *chi.Mux
	api         huma.API
	authLimiter *ratelimit.Keyed
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured. The search
// index may be nil; search endpoints then report unavailable.
func NewServer(st *store.Store, services *Services, searchIndex *search.SearchIndex, logger *slog.Logger) *Server {
	s := &Server{
		store:       st,
		services:    services,
		searchIndex: searchIndex,
		router:      chi.NewRouter(),
		authLimiter: ratelimit.New(authRequestsPerSecond, authBurst),
		logger:      logger,
	}

	s.setupMiddleware()

	RegisterErrorHandler()
	s.api = humachi.New(s.router, huma.DefaultConfig("Bookea Reads API", apiVersion))

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerSessionRoutes()
	s.registerGoalRoutes()
	s.registerStatsRoutes()
	s.registerSearchRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack. Order matters: request
// metadata first, then recovery, then auth.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Clients are PWAs served from a different origin than the sync server.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(s.authRateLimit)
	s.router.Use(authMiddleware(s.services.Auth))
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.authLimiter.Stop()
}
