// Package api provides the HTTP API server and handlers for CourseDeck.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coursedeck/coursedeck-server/internal/ratelimit"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	Version            string
	CORSAllowedOrigins []string
	// AuthRateLimiter throttles register and login per client IP. Nil disables throttling.
	AuthRateLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	index           *search.CourseIndex
	services        *Services
	router          *chi.Mux
	api             huma.API
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, index *search.CourseIndex, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	router := chi.NewRouter()

	s := &Server{
		store:           st,
		index:           index,
		services:        services,
		router:          router,
		authRateLimiter: opts.AuthRateLimiter,
		logger:          logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("CourseDeck API", opts.Version)
	humaConfig.Info.Description = "Course catalog, chapters and enrollment"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack. It must run before any route is registered.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(requestID)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(opts.CORSAllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderRequestID},
			ExposedHeaders:   []string{HeaderRequestID},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(clientInfo)
	s.router.Use(authMiddleware(s.services.Auth))
}

// registerRoutes registers every operation under /api/v1.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCategoryRoutes()
	s.registerCourseRoutes()
	s.registerChapterRoutes()
	s.registerEnrollmentRoutes()
	s.registerAdminRoutes()
}

// bearerAuth marks an operation as requiring a bearer token in the OpenAPI document.
var bearerAuth = []map[string][]string{{"bearer": {}}}
