// Package testutil provides test helpers for go-tokenproxy packages.
//
// It includes utilities to spin up IPv4-only local HTTP servers (avoiding IPv6 in sandboxes),
// mock OAuth2 token endpoints without real sockets, and generate self-signed certificates for TLS tests.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - MockOAuth2Server: stub token endpoint that counts calls and records Basic auth and form fields
//   - StaticJSONResponse / JSONResponse: canned token endpoint responses
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - WriteTestCACert: generate a temporary CA certificate
//   - WriteTestServerCert: generate a self-signed localhost certificate and key
package testutil
