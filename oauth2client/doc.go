// Package oauth2client holds the token cache of the proxy: one OAuth2 access token obtained with
// the client credentials flow and served until it comes within a refresh margin of its expiry.
//
// # Behavior
//
//   - Missing client id or secret fails with *AuthConfigError before any network call
//   - A cached token with more than the refresh margin (default one minute) left is returned without I/O
//   - Otherwise one exchange is made: HTTP Basic client credentials, form-encoded grant_type and scope
//   - Concurrent callers that find the cache stale share a single exchange (single-flight)
//   - A failed exchange returns *UpstreamError and leaves the previous token in place; nothing is retried
//   - A missing or non-numeric expires_in counts as zero, so the token is not reused
//
// # Quick Start
//
//	tm := oauth2client.NewTokenManager(
//	    ctx,
//	    "https://api.ebay.com/identity/v1/oauth2/token",
//	    os.Getenv("EBAY_CLIENT_ID"),
//	    os.Getenv("EBAY_CLIENT_SECRET"),
//	    "https://api.ebay.com/oauth/api_scope",
//	    oauth2client.WithLoggingEnabled(),
//	)
//
//	token, err := tm.GetTokenWithContext(ctx)
//
// # Notes
//
//   - GetTokenWithContext is preferred; GetToken is kept for callers without a context.
//   - TokenManager is safe for concurrent use. The cached (value, expiry) pair is replaced as a whole.
package oauth2client
