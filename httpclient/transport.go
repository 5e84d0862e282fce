package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultProxyKeyHeader is the request header carrying the shared proxy key.
const DefaultProxyKeyHeader = "x-proxy-key"

// TokenSource provides bearer tokens for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ProxyError is returned when the token proxy answers with a non-200 status.
type ProxyError struct {
	StatusCode int
	Message    string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("httpclient: token proxy returned %d: %s", e.StatusCode, e.Message)
}

// ProxyTokenSource obtains access tokens from a running token proxy.
// Each call makes one request; the proxy does the caching.
type ProxyTokenSource struct {
	// URL is the proxy token endpoint, e.g. "https://proxy.example.com/token".
	URL string

	// Key is the shared proxy key.
	Key string

	// HeaderName overrides DefaultProxyKeyHeader.
	HeaderName string

	// Client is used for the request. If nil, http.DefaultClient is used.
	Client *http.Client
}

// proxyResponse is the body of both successful and failed /token responses.
type proxyResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// Token implements TokenSource.
func (s *ProxyTokenSource) Token(ctx context.Context) (string, error) {
	if s.URL == "" {
		return "", errors.New("httpclient: proxy URL is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("httpclient: build proxy request: %w", err)
	}

	header := s.HeaderName
	if header == "" {
		header = DefaultProxyKeyHeader
	}
	req.Header.Set(header, s.Key)
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpclient: proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("httpclient: read proxy response: %w", err)
	}

	var decoded proxyResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode != http.StatusOK {
		message := decoded.Error
		if decodeErr != nil || message == "" {
			message = strings.TrimSpace(string(body))
		}
		return "", &ProxyError{StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return "", fmt.Errorf("httpclient: decode proxy response: %w", decodeErr)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("httpclient: proxy response missing access_token")
	}

	return decoded.AccessToken, nil
}

// ProxyTransport is an http.RoundTripper that adds Bearer tokens from a
// TokenSource to outgoing HTTP requests.
//
// It wraps an existing transport (typically http.DefaultTransport) and
// injects the Authorization header before each request.
type ProxyTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Source provides access tokens.
	Source TokenSource
}

// RoundTrip implements http.RoundTripper interface.
// It fetches a token and adds it as "Authorization: Bearer <token>"
// to the request headers before delegating to the base transport.
func (t *ProxyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil {
		return nil, errors.New("httpclient: token source is nil")
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}

	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewProxyTransport creates a new ProxyTransport with the given token source.
// The base transport defaults to http.DefaultTransport if not specified.
func NewProxyTransport(source TokenSource, base http.RoundTripper) *ProxyTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &ProxyTransport{
		Base:   base,
		Source: source,
	}
}
