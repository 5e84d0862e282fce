// Package httpserver implements the access gateway of the token proxy.
//
// The gateway exposes three routes:
//
//	GET /         200 "OK", no key required
//	GET /token    200 {"access_token":"..."}, requires the shared proxy key
//	GET /metrics  Prometheus exposition, no key required (only with a Gatherer)
//
// Callers present the shared secret in the x-proxy-key header. The
// comparison is constant time, and a gateway started without a secret
// rejects every GET /token with 401 {"error":"unauthorized"}. Failures of the
// TokenProvider become 500 {"error":"<message>"}.
//
// # Quick Start
//
//	manager := oauth2client.NewTokenManager(ctx, tokenURL, clientID, clientSecret, scope)
//
//	router := httpserver.NewRouter(httpserver.RouterConfig{
//	    Tokens:   manager,
//	    ProxyKey: os.Getenv("PROXY_KEY"),
//	    Logger:   logrus.StandardLogger(),
//	})
//
//	server := httpserver.NewServer(":8080", router)
//	if err := server.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Middleware Only
//
// Middleware can guard any http.Handler on its own:
//
//	protected := httpserver.Middleware(secret,
//	    httpserver.WithExemptPaths("/"),
//	    httpserver.WithHeaderName("X-Api-Key"),
//	)(mux)
//
// # TLS
//
// LoadTLSConfig reads a certificate pair; pass the result to WithServerTLS to
// serve HTTPS instead of plain HTTP.
package httpserver
