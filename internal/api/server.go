// Package api provides the HTTP API server and handlers for the reelnotes favorites service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/domain"
	"github.com/reelnotes/reelnotes-server/internal/service"
	"github.com/reelnotes/reelnotes-server/internal/store"
	"github.com/reelnotes/reelnotes-server/internal/validation"
)

// SessionVerifier turns a bearer token into a session.
type SessionVerifier interface {
	VerifyAccessToken(token string) (*domain.Session, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	favorites *service.FavoritesService
	pinger    store.Pinger
	sessions  SessionVerifier
	validator *validation.Validator
	cfg       config.ServerConfig
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(favorites *service.FavoritesService, pinger store.Pinger, sessions SessionVerifier, cfg config.ServerConfig, logger *slog.Logger) *Server {
	s := &Server{
		favorites: favorites,
		pinger:    pinger,
		sessions:  sessions,
		validator: validation.New(),
		cfg:       cfg,
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(recordMetrics)
	s.router.Use(middleware.Compress(5))

	if len(s.cfg.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/health/keep-alive", s.handleKeepAlive)
	s.router.Head("/health/keep-alive", s.handleKeepAlive)
	s.router.Handle("/metrics", promhttp.Handler())

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/favorites", s.handleListFavorites)

			r.Group(func(r chi.Router) {
				r.Use(s.limitMutations())

				r.Post("/favorites", s.handleAddFavorite)
				r.Put("/favorites/{externalId}", s.handleUpdateNote)
				r.Delete("/favorites/{externalId}", s.handleRemoveFavorite)
			})
		})
	})
}
