// Package grpchealth exposes the health registry over the standard gRPC
// health checking protocol for orchestrators that check readiness over
// gRPC.
package grpchealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/felixgeelhaar/quadra/pkg/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultInterval = 10 * time.Second
	defaultTimeout  = 2 * time.Second
)

// Server mirrors the health registry into a gRPC health service. The
// overall status is published under "" and the service name; each
// registered check is published under its own name.
type Server struct {
	registry *observability.HealthRegistry
	health   *health.Server
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// Option customizes a Server.
type Option func(*Server)

// WithInterval sets how often the registry is re-checked.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds one round of checks.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Server for registry. Every service reports NOT_SERVING
// until the first Refresh.
func New(registry *observability.HealthRegistry, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: registry,
		health:   health.NewServer(),
		logger:   logger,
		interval: defaultInterval,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(observability.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Register adds the health service to g.
func (s *Server) Register(g *grpc.Server) {
	healthpb.RegisterHealthServer(g, s.health)
}

// Refresh runs every check once and publishes the results. It returns the
// overall serving status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	overall := s.registry.GetOverallHealth(ctx)
	for name, result := range overall.Checks {
		s.health.SetServingStatus(name, servingStatus(result.Status))
	}

	status := servingStatus(overall.Status)
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(observability.ServiceName, status)
	return status
}

// Run serves the health service on addr and refreshes it until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g := grpc.NewServer()
	s.Register(g)

	s.Refresh(ctx)
	go s.poll(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting gRPC health server", "addr", lis.Addr().String())
		errCh <- g.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		g.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func (s *Server) poll(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := s.Refresh(ctx)
			if status != last {
				s.logger.Info("health status changed", observability.StatusKey, status.String())
				last = status
			}
		}
	}
}

// servingStatus treats degraded as serving: the API still answers.
func servingStatus(status observability.HealthStatus) healthpb.HealthCheckResponse_ServingStatus {
	if status == observability.HealthStatusUnhealthy {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
