package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/products-api/internal/platform/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type switchPinger struct {
	down atomic.Bool
}

func (p *switchPinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func newHealthClient(t *testing.T, hs *health.Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(slog.New(slog.NewTextHandler(io.Discard, nil)), false, server.WithHealth(hs))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestMonitor_Check(t *testing.T) {
	// given
	pinger := &switchPinger{}
	hs := health.NewServer()
	client := newHealthClient(t, hs)
	monitor := NewMonitor(pinger, hs, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// when
	up := monitor.Check(ctx)
	respUp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	pinger.down.Store(true)
	down := monitor.Check(ctx)
	respDown, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)

	// then
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, up)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, respUp.GetStatus())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, down)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, respDown.GetStatus())
}

func TestMonitor_Run_StopsWithContext(t *testing.T) {
	// given
	hs := health.NewServer()
	monitor := NewMonitor(&switchPinger{}, hs, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// when
	go func() {
		monitor.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	// then
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
