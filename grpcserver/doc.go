// Package grpcserver serves the token proxy's gRPC liveness probe.
//
// HealthServer exposes the standard grpc.health.v1.Health service so that
// orchestrators with native gRPC probes can check the proxy without the
// shared key. Both the overall status ("") and ServiceName report SERVING
// while the process runs and switch to NOT_SERVING when Run's context is
// cancelled, before the server stops.
//
//	probe := grpcserver.NewHealthServer(":9090", grpcserver.WithHealthLogger(logger))
//	go probe.Run(ctx)
//
// Successful Check calls are not logged; failures and other methods are.
package grpcserver
