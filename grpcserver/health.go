package grpcserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall ("") status.
const ServiceName = "tokenproxy.TokenProxy"

// HealthServer serves grpc.health.v1.Health for liveness probes.
type HealthServer struct {
	addr   string
	server *grpc.Server
	health *health.Server
	logger Logger
	tls    *tls.Config
}

// HealthOption configures a HealthServer.
type HealthOption func(*HealthServer)

// WithHealthLogger sets a logger for lifecycle messages and failed calls.
func WithHealthLogger(logger Logger) HealthOption {
	return func(s *HealthServer) {
		s.logger = logger
	}
}

// WithHealthTLS serves the probe over TLS. A nil cfg keeps plaintext.
func WithHealthTLS(cfg *tls.Config) HealthOption {
	return func(s *HealthServer) {
		s.tls = cfg
	}
}

// NewHealthServer creates a probe server for addr. Both the overall status
// and ServiceName start as SERVING.
func NewHealthServer(addr string, opts ...HealthOption) *HealthServer {
	s := &HealthServer{
		addr:   addr,
		health: health.NewServer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	serverOpts := []grpc.ServerOption{
		grpc.UnaryInterceptor(UnaryLoggingInterceptor(s.logger, healthpb.Health_Check_FullMethodName)),
	}
	if s.tls != nil {
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(s.tls)))
	}

	s.server = grpc.NewServer(serverOpts...)
	healthpb.RegisterHealthServer(s.server, s.health)
	s.SetServing(true)

	return s
}

// SetServing updates the reported status.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HealthServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpcserver: listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled. On cancellation
// every service switches to NOT_SERVING before the server stops gracefully.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	s.logf("grpcserver: health probe serving on %s", lis.Addr())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("grpcserver: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logf("grpcserver: health probe shutting down")
	s.health.Shutdown()
	s.server.GracefulStop()

	if err := <-errCh; err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpcserver: serve: %w", err)
	}
	return nil
}

func (s *HealthServer) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
