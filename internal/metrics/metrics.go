// Package metrics provides Prometheus metrics for the token proxy.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tokenproxy"

// Result labels for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the collectors of one proxy instance.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	// CacheHits counts token requests served from the in-memory cache.
	CacheHits prometheus.Counter

	// RefreshTotal counts upstream credential exchanges by result.
	RefreshTotal *prometheus.CounterVec

	// RefreshDuration observes the latency of upstream credential exchanges.
	RefreshDuration prometheus.Histogram

	// SharedRefreshes counts callers whose refresh result was shared with at least one other caller.
	SharedRefreshes prometheus.Counter

	// TokenExpiry is the unix time at which the cached token stops being served.
	TokenExpiry prometheus.Gauge

	// RequestsTotal counts gateway requests by route and status code.
	RequestsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil registerer leaves the collectors unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "cache_hits_total",
			Help:      "Total number of token requests served from cache",
		}),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "token",
				Name:      "refresh_total",
				Help:      "Total number of upstream token exchanges",
			},
			[]string{"result"},
		),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of upstream token exchanges in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SharedRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "shared_refreshes_total",
			Help:      "Total number of token requests answered by a refresh shared with other callers",
		}),
		TokenExpiry: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "expiry_timestamp_seconds",
			Help:      "Unix time at which the cached token expires",
		}),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of gateway requests",
			},
			[]string{"route", "code"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheHits,
			m.RefreshTotal,
			m.RefreshDuration,
			m.SharedRefreshes,
			m.TokenExpiry,
			m.RequestsTotal,
		)
	}

	return m
}

// RecordCacheHit increments the cache hit counter.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordRefresh records the outcome and duration of an upstream exchange.
func (m *Metrics) RecordRefresh(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
	m.RefreshDuration.Observe(duration.Seconds())
}

// RecordSharedRefresh counts a caller whose refresh result was shared.
func (m *Metrics) RecordSharedRefresh() {
	if m == nil {
		return
	}
	m.SharedRefreshes.Inc()
}

// SetTokenExpiry publishes the expiry of the cached token.
func (m *Metrics) SetTokenExpiry(expiresAt time.Time) {
	if m == nil {
		return
	}
	m.TokenExpiry.Set(float64(expiresAt.Unix()))
}

// RecordRequest counts a gateway request.
func (m *Metrics) RecordRequest(route string, code int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
