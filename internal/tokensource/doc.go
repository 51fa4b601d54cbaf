// Package tokensource obtains application-only bearer tokens through the
// OAuth2 client-credentials grant.
//
// The token endpoint expects a form-encoded body with Basic authentication
// built from the API key and secret. The exchange is done with a hand-built
// request instead of golang.org/x/oauth2/clientcredentials because the
// endpoint is sensitive to the exact Content-Type (including the charset),
// User-Agent and Accept-Encoding headers.
//
// # Token Reuse
//
// A Provider performs at most one successful exchange during its lifetime and
// hands out the same token afterwards. Build one Provider per fetch cycle:
//
//	p := tokensource.New(tokensource.Credentials{APIKey: key, APISecret: secret})
//	token, err := p.Token(ctx)
//	// token.AccessToken is sent as "Authorization: Bearer ..." on API calls
//
// # Custom HTTP Client
//
// Timeouts, proxies and transports are governed by the injected client; the
// package imposes none of its own:
//
//	p := tokensource.New(
//		credentials,
//		tokensource.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
//		tokensource.WithEndpoint(oauth2.Endpoint{TokenURL: testServer.URL}),
//	)
package tokensource
