// Package api provides the HTTP API server and handlers for the metadata aggregator.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/listenup-metadata/internal/analytics"
	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/http/response"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	router   *chi.Mux
	api      huma.API
	limiter  *RateLimiter
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, cfg config.ServerConfig, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		router:   chi.NewRouter(),
		limiter:  NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:   logger,
	}

	s.setupMiddleware(cfg.CORSOrigins)

	humaConfig := huma.DefaultConfig("ListenUp Metadata API", "1.0.0")
	humaConfig.Info.Description = "Audiobook metadata aggregation across Audible, iTunes, Goodreads, Penguin Random House, Hardcover and Google Books."
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used to dump the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(clientAddrMiddleware)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Cache"},
			MaxAge:         300,
		}))
	}

	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerSearchRoutes()
	s.registerBookRoutes()
	s.registerLibraryRoutes()
	s.registerListRoutes()
	s.registerAdminRoutes()
	s.registerSettingsRoutes()
}

type clientAddrKey struct{}

// clientAddrMiddleware records the client address before RealIP rewrites
// RemoteAddr, so attribution sees the same address rate limiting does.
func clientAddrMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientAddrKey{}, getClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// caller attributes the current request to an anonymized device and country.
func (s *Server) caller(ctx context.Context) domain.Caller {
	addr, _ := ctx.Value(clientAddrKey{}).(string)
	if s.services.Callers == nil {
		return domain.Caller{DeviceToken: analytics.DeviceToken(addr, ""), Country: analytics.Unknown}
	}
	return s.services.Callers.Caller(ctx, addr)
}
