// Package httpclient builds HTTP clients for both sides of the token proxy.
//
// On the proxy side, Builder produces the client used for the upstream credential exchange
// (TLS 1.2+, optional extra CA bundle, timeout). On the consumer side, ProxyTokenSource fetches
// the current access token from the proxy's /token endpoint with the shared key, and
// ProxyTransport injects it as a Bearer token into requests to the downstream API.
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithProxy("https://proxy.example.com/token", os.Getenv("PROXY_KEY")).
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get("https://api.ebay.com/buy/browse/v1/item_summary/search?q=drone")
//
// # Manual Transport Wrapping
//
//	source := &httpclient.ProxyTokenSource{URL: proxyURL, Key: key}
//	client := &http.Client{Transport: httpclient.NewProxyTransport(source, nil)}
package httpclient
