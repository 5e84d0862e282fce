package oauth2client

import (
	"errors"
	"fmt"
	"strings"
)

// AuthConfigError indicates the client credentials are not configured on this process.
// It is returned before any network call is attempted.
type AuthConfigError struct {
	Missing []string // e.g. "client_id", "client_secret"
}

func (e *AuthConfigError) Error() string {
	return fmt.Sprintf("oauth2client: missing %s on proxy", strings.Join(e.Missing, " / "))
}

// IsAuthConfigError returns true if the error is an AuthConfigError.
func IsAuthConfigError(err error) bool {
	var configErr *AuthConfigError
	return errors.As(err, &configErr)
}

// UpstreamError indicates the token endpoint rejected the exchange or returned
// a response that could not be used.
type UpstreamError struct {
	StatusCode int    // 0 when no response was received
	Body       string // raw response body, if any
	Err        error  // underlying cause, if any
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("oauth2client: upstream token error (%d): %s", e.StatusCode, e.Body)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("oauth2client: upstream token error (%d): %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("oauth2client: upstream token error (%d)", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("oauth2client: upstream token error: %v", e.Err)
	default:
		return "oauth2client: upstream token error"
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamError returns true if the error is an UpstreamError.
func IsUpstreamError(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
