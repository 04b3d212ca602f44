// Package api provides the HTTP review API for tag curation.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/ratelimit"
	"github.com/listenupapp/tagcurator/internal/search"
	"github.com/listenupapp/tagcurator/internal/service"
	"github.com/listenupapp/tagcurator/internal/similarity"
	"github.com/listenupapp/tagcurator/internal/store"
)

// Services groups the engine components the handlers call.
type Services struct {
	Curation     *service.CurationService
	Consolidator *consolidator.Consolidator
	Analyzer     *analyzer.Analyzer
	Similarity   *similarity.Engine
	Search       *search.TagIndex
}

// Config holds the API settings that are not engine dependencies.
type Config struct {
	AllowedOrigins    []string
	ClusterMinSize    int
	ClusterResolution float64

	// WriteRate is the per-client limit on mutating requests, per second.
	// Zero disables limiting.
	WriteRate  float64
	WriteBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	services *Services
	config   Config
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		store:    st,
		services: services,
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()

	s.api = humachi.New(s.router, huma.DefaultConfig("tagcurator API", "1.0.0"))
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerTagRoutes()
	s.registerRecordRoutes()
	s.registerRuleRoutes()
	s.registerMergeRoutes()
	s.registerRejectionRoutes()
	s.registerGraphRoutes()

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
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	if s.config.WriteRate > 0 {
		s.limiter = ratelimit.New(s.config.WriteRate, max(s.config.WriteBurst, 1))
		s.router.Use(s.limitWrites)
	}

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}
