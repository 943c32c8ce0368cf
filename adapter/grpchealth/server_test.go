package grpchealth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/quadra/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startServer serves s on an in-memory listener and returns a health client.
func startServer(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("health server did not stop")
		}
	})
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestServer_ReportsRegistryStatus(t *testing.T) {
	var dbDown atomic.Bool
	registry := observability.NewHealthRegistry()
	registry.Register("database", observability.TaskStoreHealthChecker("sqlite", func(context.Context) error {
		if dbDown.Load() {
			return errors.New("connection refused")
		}
		return nil
	}))

	s := New(registry, slog.New(slog.DiscardHandler), WithInterval(time.Hour))
	client := startServer(t, s)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, observability.ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, "database"))

	dbDown.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s.Refresh(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, "database"))

	dbDown.Store(false)
	s.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
}

func TestServer_UnknownService(t *testing.T) {
	s := New(observability.NewHealthRegistry(), slog.New(slog.DiscardHandler))
	client := startServer(t, s)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "billing"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestNew_NotServingBeforeRefresh(t *testing.T) {
	s := New(observability.NewHealthRegistry(), nil)

	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestServingStatus(t *testing.T) {
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(observability.HealthStatusHealthy))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(observability.HealthStatusDegraded))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(observability.HealthStatusUnhealthy))
}
