package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/AmmannChristian/go-tokenproxy/internal/metrics"
)

// Route paths served by the gateway.
const (
	PathHealth  = "/"
	PathToken   = "/token"
	PathMetrics = "/metrics"
)

// RouterConfig wires the gateway's dependencies.
type RouterConfig struct {
	// Tokens supplies the access token for GET /token.
	Tokens TokenProvider

	// ProxyKey is the shared secret expected in the key header.
	// Empty rejects every GET /token.
	ProxyKey string

	// HeaderName overrides DefaultKeyHeader.
	HeaderName string

	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics

	// Gatherer exposes GET /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gateway router: GET / and GET /metrics are open,
// GET /token requires the proxy key.
func NewRouter(cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}

	handler := NewHandler(cfg.Tokens, logger)

	router := mux.NewRouter()
	router.Use(accessLog(logger, cfg.Metrics))
	router.Use(Middleware(cfg.ProxyKey,
		WithHeaderName(cfg.HeaderName),
		WithExemptPaths(PathHealth, PathMetrics),
		WithMiddlewareLogger(logger),
	))

	router.HandleFunc(PathHealth, handler.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc(PathToken, handler.Token).Methods(http.MethodGet)

	if cfg.Gatherer != nil {
		router.Handle(PathMetrics, promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return router
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(logger logrus.FieldLogger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			m.RecordRequest(route, rec.status)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Debug("request handled")
		})
	}
}
