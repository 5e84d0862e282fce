package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/AmmannChristian/go-tokenproxy/internal/metrics"
)

// DefaultRefreshMargin is how long before expiry a cached token stops being served.
// The margin covers the time between handing the token out and the caller using it.
const DefaultRefreshMargin = time.Minute

// refreshKey is the single-flight key of the one cache slot.
const refreshKey = "access_token"

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// cachedToken is replaced as a whole, never mutated in place.
type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenManager caches one OAuth2 access token obtained with the client credentials flow.
// It is safe for concurrent access; concurrent callers that find the cache stale share a
// single upstream exchange.
type TokenManager struct {
	config        *clientcredentials.Config
	token         *cachedToken
	mu            sync.RWMutex
	group         singleflight.Group
	ctx           context.Context // fallback context for GetToken
	refreshMargin time.Duration
	httpClient    *http.Client
	now           func() time.Time
	logger        Logger           // optional logger
	metrics       *metrics.Metrics // optional metrics
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// WithRefreshMargin overrides DefaultRefreshMargin. Negative values are treated as zero.
func WithRefreshMargin(margin time.Duration) Option {
	return func(tm *TokenManager) {
		if margin < 0 {
			margin = 0
		}
		tm.refreshMargin = margin
	}
}

// WithHTTPClient sets the HTTP client used for the credential exchange.
// By default the client stored under oauth2.HTTPClient in the constructor context is used,
// falling back to a client on http.DefaultTransport.
func WithHTTPClient(client *http.Client) Option {
	return func(tm *TokenManager) {
		tm.httpClient = client
	}
}

// WithClock replaces time.Now for freshness checks and expiry computation.
func WithClock(now func() time.Time) Option {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithMetrics records cache hits and refresh outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(tm *TokenManager) {
		tm.metrics = m
	}
}

// NewTokenManager creates a new OAuth2 token manager using client credentials flow.
//
// Parameters:
//   - ctx: Context for token requests (used as fallback by GetToken)
//   - tokenURL: OAuth2 token endpoint (e.g., "https://api.ebay.com/identity/v1/oauth2/token")
//   - clientID: OAuth2 client identifier, may be empty (GetToken then fails with AuthConfigError)
//   - clientSecret: OAuth2 client secret, may be empty (likewise)
//   - scopes: Space-separated list of OAuth2 scopes
//   - opts: Optional configuration options
//
// Client credentials are sent as HTTP Basic authentication; grant_type and scope are
// sent form-encoded in the request body.
func NewTokenManager(ctx context.Context, tokenURL, clientID, clientSecret, scopes string, opts ...Option) *TokenManager {
	// Split scopes by whitespace to avoid sending a single concatenated scope.
	scopesList := strings.Fields(scopes)

	// Keep token requests independent from caller cancellations while preserving values.
	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopesList,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tm := &TokenManager{
		config:        config,
		ctx:           ctx,
		refreshMargin: DefaultRefreshMargin,
		now:           time.Now,
	}

	// Apply options
	for _, opt := range opts {
		opt(tm)
	}

	client := tm.httpClient
	if client == nil {
		if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
			client = c
		} else {
			client = &http.Client{}
		}
	}
	tm.httpClient = wrapClient(client)

	return tm
}

// wrapClient returns a copy of client whose transport normalizes token lifetimes.
func wrapClient(client *http.Client) *http.Client {
	wrapped := *client
	wrapped.Transport = newLifetimeTransport(client.Transport)
	return &wrapped
}

// GetTokenWithContext returns a valid access token, fetching a new one if the cached token
// is missing or within the refresh margin of its expiry.
//
// Concurrent callers that miss the cache share one upstream exchange. The exchange runs
// detached from ctx cancellation so that one caller leaving does not fail the others.
// A failed exchange is returned as-is and leaves the cached token untouched; nothing is retried.
//
// Returns:
//   - string: Valid access token
//   - error: *AuthConfigError if credentials are not configured, *UpstreamError if the exchange fails
func (tm *TokenManager) GetTokenWithContext(ctx context.Context) (string, error) {
	// Use background context if nil
	if ctx == nil {
		ctx = context.Background()
	}

	if err := tm.checkCredentials(); err != nil {
		return "", err
	}

	// Fast path: serve from cache under the read lock
	if token, ok := tm.cachedValue(); ok {
		tm.metrics.RecordCacheHit()
		return token, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := tm.group.Do(refreshKey, func() (any, error) {
		// Double-check: a flight that finished after our read may have refreshed the cache
		if token, ok := tm.cachedValue(); ok {
			return token, nil
		}
		return tm.refresh(flightCtx)
	})
	if shared {
		tm.metrics.RecordSharedRefresh()
	}
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// GetToken returns a valid access token, fetching or refreshing if necessary.
//
// Deprecated: Use GetTokenWithContext instead to properly handle context values and deadlines.
// This method uses the constructor context.
func (tm *TokenManager) GetToken() (string, error) {
	return tm.GetTokenWithContext(tm.ctx)
}

// checkCredentials reports which client credentials are missing.
func (tm *TokenManager) checkCredentials() error {
	var missing []string
	if tm.config.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if tm.config.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return &AuthConfigError{Missing: missing}
	}
	return nil
}

// cachedValue returns the cached token if it is still usable with the refresh margin applied.
func (tm *TokenManager) cachedValue() (string, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.tokenValid()
}

// tokenValid reports whether the cached token outlives the refresh margin.
// Callers must hold tm.mu.
func (tm *TokenManager) tokenValid() (string, bool) {
	if tm.token == nil || tm.token.value == "" {
		return "", false
	}
	if tm.token.expiresAt.Sub(tm.now()) <= tm.refreshMargin {
		return "", false
	}
	return tm.token.value, true
}

// refresh performs one credential exchange and stores the result on success.
func (tm *TokenManager) refresh(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, tm.httpClient)

	started := time.Now()
	token, err := tm.config.Token(ctx)
	tm.metrics.RecordRefresh(err, time.Since(started))
	if err != nil {
		upstreamErr := newUpstreamError(err)
		if tm.logger != nil {
			tm.logger.Printf("oauth2client: token refresh failed: %v", upstreamErr)
		}
		return "", upstreamErr
	}

	lifetime := time.Duration(lifetimeSeconds(token.Extra("expires_in"))) * time.Second
	next := &cachedToken{
		value:     token.AccessToken,
		expiresAt: tm.now().Add(lifetime),
	}

	tm.mu.Lock()
	tm.token = next
	tm.mu.Unlock()

	tm.metrics.SetTokenExpiry(next.expiresAt)

	// Log only if logger is configured
	if tm.logger != nil {
		tm.logger.Printf("oauth2client: obtained new access token (expires: %s)", next.expiresAt.Format(time.RFC3339))
	}

	return next.value, nil
}

// newUpstreamError converts an x/oauth2 error into an UpstreamError.
func newUpstreamError(err error) *UpstreamError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		upstreamErr := &UpstreamError{
			Body: strings.TrimSpace(string(retrieveErr.Body)),
			Err:  err,
		}
		if retrieveErr.Response != nil {
			upstreamErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return upstreamErr
	}
	return &UpstreamError{Err: fmt.Errorf("exchange failed: %w", err)}
}
