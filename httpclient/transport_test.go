package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/AmmannChristian/go-tokenproxy/internal/testutil"
)

type staticSource string

func (s staticSource) Token(context.Context) (string, error) {
	return string(s), nil
}

type failingSource struct{}

func (failingSource) Token(context.Context) (string, error) {
	return "", errors.New("proxy unavailable")
}

// proxyRecorder keeps the requests seen by a fake proxy.
type proxyRecorder struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (r *proxyRecorder) all() []*http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*http.Request(nil), r.requests...)
}

func newProxyServer(t *testing.T, status int, body string) (*ProxyTokenSource, *proxyRecorder) {
	t.Helper()

	recorder := &proxyRecorder{}
	server := testutil.NewLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder.mu.Lock()
		recorder.requests = append(recorder.requests, r)
		recorder.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))

	return &ProxyTokenSource{URL: server.URL + "/token", Key: "shared-key", Client: server.Client()}, recorder
}

func TestProxyTokenSource_Token(t *testing.T) {
	source, seen := newProxyServer(t, http.StatusOK, `{"access_token":"abc"}`)

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	if token != "abc" {
		t.Errorf("expected abc, got %q", token)
	}

	requests := seen.all()
	if len(requests) != 1 {
		t.Fatalf("expected 1 proxy request, got %d", len(requests))
	}
	req := requests[0]
	if req.Method != http.MethodGet || req.URL.Path != "/token" {
		t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
	}
	if got := req.Header.Get(DefaultProxyKeyHeader); got != "shared-key" {
		t.Errorf("expected proxy key header, got %q", got)
	}
}

func TestProxyTokenSource_CustomHeader(t *testing.T) {
	source, seen := newProxyServer(t, http.StatusOK, `{"access_token":"abc"}`)
	source.HeaderName = "X-Api-Key"

	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	if got := seen.all()[0].Header.Get("X-Api-Key"); got != "shared-key" {
		t.Errorf("expected custom header, got %q", got)
	}
}

func TestProxyTokenSource_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"unauthorized"}`, wantStatus: 401, wantMessage: "unauthorized"},
		{name: "upstream failure", status: http.StatusInternalServerError, body: `{"error":"oauth2client: upstream token error (503): down"}`, wantStatus: 500, wantMessage: "upstream token error (503)"},
		{name: "non json error", status: http.StatusBadGateway, body: `bad gateway`, wantStatus: 502, wantMessage: "bad gateway"},
		{name: "missing token", status: http.StatusOK, body: `{}`},
		{name: "not json", status: http.StatusOK, body: `OK`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, _ := newProxyServer(t, tt.status, tt.body)

			_, err := source.Token(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.wantStatus == 0 {
				return
			}

			var proxyErr *ProxyError
			if !errors.As(err, &proxyErr) {
				t.Fatalf("expected ProxyError, got %T", err)
			}
			if proxyErr.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, proxyErr.StatusCode)
			}
			if !strings.Contains(proxyErr.Message, tt.wantMessage) {
				t.Errorf("expected message containing %q, got %q", tt.wantMessage, proxyErr.Message)
			}
		})
	}
}

func TestProxyTokenSource_MissingURL(t *testing.T) {
	source := &ProxyTokenSource{Key: "key"}

	if _, err := source.Token(context.Background()); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestNewProxyTransport(t *testing.T) {
	transport := NewProxyTransport(staticSource("abc"), nil)

	if transport.Base == nil {
		t.Error("Base should default to a transport")
	}

	customTransport := &http.Transport{}
	transport = NewProxyTransport(staticSource("abc"), customTransport)
	if transport.Base != customTransport {
		t.Error("Base should be set to custom transport")
	}
}

func TestProxyTransport_RoundTrip(t *testing.T) {
	baseTransport := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected Bearer abc, got %q", got)
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("success")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	})

	client := &http.Client{Transport: NewProxyTransport(staticSource("abc"), baseTransport)}

	req, _ := http.NewRequest(http.MethodGet, "https://api.ebay.com/buy/browse/v1/item_summary/search?q=drone", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	if req.Header.Get("Authorization") != "" {
		t.Error("original request should not be modified")
	}
}

func TestProxyTransport_TokenError(t *testing.T) {
	baseTransport := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Error("base transport should not be called when the token fetch fails")
		return nil, nil
	})

	transport := NewProxyTransport(failingSource{}, baseTransport)

	req, _ := http.NewRequest(http.MethodGet, "https://api.ebay.com", nil)
	_, err := transport.RoundTrip(req)
	if err == nil || !strings.Contains(err.Error(), "proxy unavailable") {
		t.Errorf("expected token error, got %v", err)
	}
}

func TestProxyTransport_NilSource(t *testing.T) {
	transport := &ProxyTransport{}

	req, _ := http.NewRequest(http.MethodGet, "https://api.ebay.com", nil)
	if _, err := transport.RoundTrip(req); err == nil {
		t.Error("expected error for nil source")
	}
}
