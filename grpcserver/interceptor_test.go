package grpcserver

import (
	"context"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		err       error
		wantLog   bool
		wantInLog string
	}{
		{name: "logged success", method: "/svc/Call", wantLog: true, wantInLog: "/svc/Call OK"},
		{name: "quiet success", method: "/svc/Probe"},
		{name: "quiet failure", method: "/svc/Probe", err: status.Error(codes.Unavailable, "down"), wantLog: true, wantInLog: "/svc/Probe Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			interceptor := UnaryLoggingInterceptor(logger, "/svc/Probe")

			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return "response", tt.err
			}

			resp, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			if err != tt.err {
				t.Errorf("expected error %v, got %v", tt.err, err)
			}
			if resp != "response" {
				t.Errorf("expected response to pass through, got %v", resp)
			}

			messages := logger.getMessages()
			if !tt.wantLog {
				if len(messages) != 0 {
					t.Errorf("expected no log output, got %v", messages)
				}
				return
			}
			if len(messages) != 1 || !strings.Contains(messages[0], tt.wantInLog) {
				t.Errorf("expected log containing %q, got %v", tt.wantInLog, messages)
			}
		})
	}
}

func TestUnaryLoggingInterceptor_NilLogger(t *testing.T) {
	interceptor := UnaryLoggingInterceptor(nil)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "response", nil
	}

	if _, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Call"}, handler); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
