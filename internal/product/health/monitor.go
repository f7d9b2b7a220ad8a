// Package health mirrors store reachability into the gRPC health service.
package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported through grpc.health.v1.Health.
const ServiceName = "products"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor periodically pings the store and updates the serving status.
type Monitor struct {
	pinger   Pinger
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewMonitor(pinger Pinger, server *health.Server, interval time.Duration, logger *slog.Logger) *Monitor {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		pinger:   pinger,
		server:   server,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "health"),
	}
}

// Check pings the store once and publishes the resulting status for ServiceName and the server as a whole.
func (m *Monitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := m.pinger.Ping(ctx); err != nil {
		m.logger.Warn("store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus(ServiceName, status)
	m.server.SetServingStatus("", status)
	return status
}

// Run checks immediately and then on every interval until ctx is done.
// On exit every service is reported NOT_SERVING.
func (m *Monitor) Run(ctx context.Context) {
	defer m.server.Shutdown()
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
