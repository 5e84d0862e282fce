package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Logger is the minimal logging interface used by this package.
type Logger interface {
	Printf(format string, args ...any)
}

// UnaryLoggingInterceptor logs the method, status code and duration of
// every unary call. Methods listed in quiet are only logged when they fail,
// which keeps frequent probe traffic out of the logs.
func UnaryLoggingInterceptor(logger Logger, quiet ...string) grpc.UnaryServerInterceptor {
	quietMethods := make(map[string]bool, len(quiet))
	for _, method := range quiet {
		quietMethods[method] = true
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if logger == nil || (err == nil && quietMethods[info.FullMethod]) {
			return resp, err
		}

		logger.Printf("grpcserver: %s %s (%s)", info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}
