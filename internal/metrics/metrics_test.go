package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.RecordCacheHit()
	m.RecordRefresh(nil, 10*time.Millisecond)
	m.RecordRequest("/token", 200)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["tokenproxy_token_cache_hits_total"])
	assert.True(t, names["tokenproxy_token_refresh_total"])
	assert.True(t, names["tokenproxy_token_refresh_duration_seconds"])
	assert.True(t, names["tokenproxy_http_requests_total"])
}

func TestRecordRefresh_Results(t *testing.T) {
	m := New(nil)

	m.RecordRefresh(nil, time.Millisecond)
	m.RecordRefresh(nil, time.Millisecond)
	m.RecordRefresh(errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(ResultFailure)))
}

func TestSetTokenExpiry(t *testing.T) {
	m := New(nil)
	expiry := time.Unix(1_700_000_000, 0)

	m.SetTokenExpiry(expiry)

	assert.Equal(t, float64(1_700_000_000), testutil.ToFloat64(m.TokenExpiry))
}

func TestRecordRequest_Labels(t *testing.T) {
	m := New(nil)

	m.RecordRequest("/token", 401)
	m.RecordRequest("/token", 401)
	m.RecordRequest("/", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/token", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/", "200")))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordCacheHit()
		m.RecordRefresh(nil, time.Second)
		m.RecordSharedRefresh()
		m.SetTokenExpiry(time.Now())
		m.RecordRequest("/", 200)
	})
}
