package oauth2client_test

import (
	"context"
	"fmt"
	"time"

	"github.com/AmmannChristian/go-tokenproxy/oauth2client"
)

// ExampleNewTokenManager demonstrates creating a new token manager.
func ExampleNewTokenManager() {
	ctx := context.Background()

	tm := oauth2client.NewTokenManager(
		ctx,
		"https://api.ebay.com/identity/v1/oauth2/token",
		"my-client-id",
		"my-client-secret",
		"https://api.ebay.com/oauth/api_scope",
		oauth2client.WithRefreshMargin(2*time.Minute),
	)

	fmt.Printf("TokenManager created for client: %s\n", "my-client-id")
	_ = tm // Use the token manager

	// Output: TokenManager created for client: my-client-id
}

// ExampleTokenManager_GetTokenWithContext shows the error returned when credentials are not configured.
func ExampleTokenManager_GetTokenWithContext() {
	ctx := context.Background()

	tm := oauth2client.NewTokenManager(
		ctx,
		"https://api.ebay.com/identity/v1/oauth2/token",
		"",
		"",
		"https://api.ebay.com/oauth/api_scope",
	)

	_, err := tm.GetTokenWithContext(ctx)
	fmt.Println(oauth2client.IsAuthConfigError(err))
	fmt.Println(err)

	// Output:
	// true
	// oauth2client: missing client_id / client_secret on proxy
}
