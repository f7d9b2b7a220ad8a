// Package app contains the application setup for the products API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/products-api/internal/bootstrap"
	"github.com/abgdnv/products-api/internal/config"
	"github.com/abgdnv/products-api/internal/platform/messaging"
	"github.com/abgdnv/products-api/internal/platform/server"
	"github.com/abgdnv/products-api/internal/platform/web"
	"github.com/abgdnv/products-api/internal/product/events"
	"github.com/abgdnv/products-api/internal/product/handler"
	"github.com/abgdnv/products-api/internal/product/service"
	"github.com/abgdnv/products-api/internal/product/store"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	Store          store.ProductStore
	ProductService service.ProductService
	Logger         *slog.Logger
	Router         server.RouterConfig
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// SetupDependencies builds the service layer on top of an opened store.
func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	policy, err := service.ParsePricePolicy(cfg.Validation.PriceBound)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{
		Store:          productStore,
		ProductService: service.NewService(productStore, publisher, policy, logger),
		Logger:         logger,
		Router: server.RouterConfig{
			AllowedOrigins:    cfg.CORS.AllowedOrigins,
			ExposeErrorDetail: !cfg.App.IsProduction(),
			Instrument:        cfg.Metrics.Enabled,
		},
	}
	if cfg.RateLimit.Enabled {
		deps.Router.RateLimiter = web.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return deps, nil
}

// SetupHttpHandler initializes the router and routes of the products API.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, deps.Router)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes of the products API.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := handler.NewHandler(deps.ProductService, deps.Store, deps.Router.ExposeErrorDetail, deps.Logger)
	productHandler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures an HTTP server for the products API.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server exposing the standard health service.
func SetupGrpcServer(healthServer *health.Server, reflectionEnabled bool, logger *slog.Logger) *grpc.Server {
	return server.NewGRPCServer(logger, reflectionEnabled, server.WithHealth(healthServer))
}

// OpenStore connects the executor selected by the database URL.
// The returned close function releases the connection resource.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.ProductStore, func(), error) {
	switch cfg.Driver() {
	case config.DriverPostgres:
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			logger.Error("Database connection failed", "hint", bootstrap.DescribeConnectError(err), "error", err)
			return nil, nil, err
		}
		return store.NewPgStore(dbPool), dbPool.Close, nil
	case config.DriverSQLite:
		openCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		db, err := store.OpenSQLite(openCtx, cfg.SQLiteDSN())
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteStore(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database URL scheme")
	}
}

// SetupPublisher connects to NATS JetStream when events are enabled.
// The returned close function drains the connection.
func SetupPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := messaging.NewClient(cfg.URL, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := messaging.NewJetStream(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := messaging.EnsureStream(streamCtx, js, events.StreamName, events.SubjectWildcard); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Publishing product events", "stream", events.StreamName)
	return messaging.NewNatsPublisher(js), func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("failed to drain NATS connection", "error", err)
		}
	}, nil
}
