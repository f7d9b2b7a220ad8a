// Package server builds the HTTP and gRPC servers and the shared chi router.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/products-api/internal/platform/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPConfig has the configuration for the HTTP server.
type HTTPConfig struct {
	Port           int
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	ReadHeader     time.Duration
}

// NewHTTPServer creates and configures a new HTTP server instance.
func NewHTTPServer(cfg HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// RouterConfig toggles the optional middleware of NewChiRouter.
type RouterConfig struct {
	AllowedOrigins    []string
	ExposeErrorDetail bool
	// RateLimiter is applied per client address when set.
	RateLimiter *web.RateLimiter
	// Instrument records otel HTTP server metrics.
	Instrument bool
}

// NewChiRouter creates a new Chi router with a set of
// middleware for request ID injection, structured logging, recovery, CORS and rate limiting.
func NewChiRouter(logger *slog.Logger, cfg RouterConfig) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.Recoverer(logger, cfg.ExposeErrorDetail))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimiter != nil {
		mux.Use(cfg.RateLimiter.Middleware(logger))
	}
	if cfg.Instrument {
		mux.Use(otelhttp.NewMiddleware("products-api"))
	}
	return mux
}
