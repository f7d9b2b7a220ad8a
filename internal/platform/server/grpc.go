package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// RegistrationFunc attaches one service to the server.
type RegistrationFunc func(*grpc.Server)

// WithHealth registers grpc.health.v1.Health backed by hs.
func WithHealth(hs *health.Server) RegistrationFunc {
	return func(s *grpc.Server) {
		healthpb.RegisterHealthServer(s, hs)
	}
}

// NewGRPCServer builds a server with call logging, the given services and, optionally, reflection.
func NewGRPCServer(logger *slog.Logger, enableReflection bool, registrations ...RegistrationFunc) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger.With("component", "grpc"))))
	for _, register := range registrations {
		register(srv)
	}
	if enableReflection {
		reflection.Register(srv)
	}
	return srv
}

// unaryLogger records every unary call at debug level; failed calls are logged as warnings.
func unaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "gRPC call completed",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
