package oauth2client

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// lifetimeTransport rewrites the "expires_in" member of successful token
// responses to a plain integer so that golang.org/x/oauth2 accepts responses
// carrying a string, fractional, null or otherwise non-numeric lifetime.
// Values that do not parse as a number become 0.
type lifetimeTransport struct {
	base http.RoundTripper
}

func newLifetimeTransport(base http.RoundTripper) *lifetimeTransport {
	return &lifetimeTransport{base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *lifetimeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Resolve the default lazily so tests can swap http.DefaultTransport.
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	body = normalizeLifetime(body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Del("Content-Length")

	return resp, nil
}

// normalizeLifetime returns body with a non-integer expires_in replaced by its
// lenient integer value. Bodies that are not JSON objects are returned as is.
func normalizeLifetime(body []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}

	raw, ok := fields["expires_in"]
	if !ok {
		return body
	}
	if _, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return body
	}

	var value any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		value = nil
	}

	fields["expires_in"] = json.RawMessage(strconv.FormatInt(lifetimeSeconds(value), 10))
	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return out
}

// lifetimeSeconds converts a token lifetime in any of the shapes a token
// endpoint may send into whole seconds. Unusable values yield 0.
func lifetimeSeconds(value any) int64 {
	var secs float64

	switch v := value.(type) {
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	case int:
		secs = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		secs = f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		secs = f
	default:
		return 0
	}

	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0
	}
	// Bound like x/oauth2 does so the duration arithmetic cannot overflow.
	if secs > math.MaxInt32 {
		return math.MaxInt32
	}
	if secs < math.MinInt32 {
		return math.MinInt32
	}
	return int64(secs)
}
