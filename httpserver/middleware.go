package httpserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// DefaultKeyHeader is the request header carrying the shared proxy key.
const DefaultKeyHeader = "x-proxy-key"

// Reasons reported by UnauthorizedError.
var (
	ErrKeyNotConfigured = errors.New("proxy key not configured")
	ErrMissingKey       = errors.New("missing proxy key")
	ErrKeyMismatch      = errors.New("proxy key mismatch")
)

// UnauthorizedError is returned to UnauthorizedHandler when a request fails the key check.
type UnauthorizedError struct {
	Reason error
}

func (e *UnauthorizedError) Error() string {
	return "httpserver: unauthorized: " + e.Reason.Error()
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Reason
}

// Logger is the minimal logging interface used by the middleware.
// logrus.FieldLogger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// MiddlewareConfig holds configuration for the key-check middleware.
type MiddlewareConfig struct {
	secret              string
	headerName          string
	exemptPaths         map[string]bool // Exact path matches
	exemptPathPrefixes  []string        // Prefix matches
	logger              Logger          // optional logger
	unauthorizedHandler UnauthorizedHandler
}

// MiddlewareOption is a functional option for configuring middleware.
type MiddlewareOption func(*MiddlewareConfig)

// UnauthorizedHandler writes the response for a rejected request.
type UnauthorizedHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithHeaderName reads the proxy key from a different header.
func WithHeaderName(name string) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		if name != "" {
			c.headerName = name
		}
	}
}

// WithExemptPaths specifies HTTP paths that don't require the proxy key.
// These paths must match exactly.
//
// Example:
//
//	WithExemptPaths("/", "/metrics")
func WithExemptPaths(paths ...string) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		if c.exemptPaths == nil {
			c.exemptPaths = make(map[string]bool)
		}
		for _, path := range paths {
			c.exemptPaths[path] = true
		}
	}
}

// WithExemptPathPrefixes specifies HTTP path prefixes that don't require the proxy key.
func WithExemptPathPrefixes(prefixes ...string) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.exemptPathPrefixes = append(c.exemptPathPrefixes, prefixes...)
	}
}

// WithMiddlewareLogger sets a logger for the middleware.
func WithMiddlewareLogger(logger Logger) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.logger = logger
	}
}

// WithUnauthorizedHandler sets a custom handler for rejected requests.
// By default, the middleware answers 401 with {"error":"unauthorized"}.
func WithUnauthorizedHandler(handler UnauthorizedHandler) MiddlewareOption {
	return func(c *MiddlewareConfig) {
		c.unauthorizedHandler = handler
	}
}

// Middleware returns an HTTP middleware that admits a request only when its
// proxy key header equals secret.
//
// An empty secret rejects every non-exempt request, so an unconfigured
// gateway never hands out tokens. The comparison runs in constant time.
//
// Usage:
//
//	protected := httpserver.Middleware(os.Getenv("PROXY_KEY"),
//	    httpserver.WithExemptPaths("/"),
//	)(mux)
func Middleware(secret string, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	config := &MiddlewareConfig{
		secret:              secret,
		headerName:          DefaultKeyHeader,
		exemptPaths:         make(map[string]bool),
		unauthorizedHandler: writeUnauthorized,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			if err := checkKey(r, config); err != nil {
				if config.logger != nil {
					config.logger.Printf("httpserver: rejected %s %s: %v", r.Method, r.URL.Path, err)
				}
				config.unauthorizedHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isExempt checks if a path is exempt from the key check.
func isExempt(path string, config *MiddlewareConfig) bool {
	if config.exemptPaths[path] {
		return true
	}

	for _, prefix := range config.exemptPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

func checkKey(r *http.Request, config *MiddlewareConfig) error {
	if config.secret == "" {
		return &UnauthorizedError{Reason: ErrKeyNotConfigured}
	}

	key := r.Header.Get(config.headerName)
	if key == "" {
		return &UnauthorizedError{Reason: ErrMissingKey}
	}

	if subtle.ConstantTimeCompare([]byte(key), []byte(config.secret)) != 1 {
		return &UnauthorizedError{Reason: ErrKeyMismatch}
	}

	return nil
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	writeError(w, http.StatusUnauthorized, "unauthorized")
}
