package tokensource

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/FeyP/drupal-twitter-feed/internal/apierror"
)

const (
	// DefaultTokenURL is the client-credentials token endpoint.
	DefaultTokenURL = "https://api.twitter.com/oauth2/token"

	// DefaultUserAgent identifies this client on every upstream request.
	DefaultUserAgent = "twitterfeed/1.0"

	grantRequestBody = "grant_type=client_credentials"
	formContentType  = "application/x-www-form-urlencoded;charset=UTF-8"
)

// Endpoint is the default token endpoint. Credentials travel in the
// Authorization header.
var Endpoint = oauth2.Endpoint{
	TokenURL:  DefaultTokenURL,
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Credentials are the application key and secret issued by the API.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// Valid reports whether both halves of the credentials are present.
func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Provider exchanges credentials for a bearer token and reuses it for the
// rest of its lifetime. It is safe for concurrent use.
type Provider struct {
	credentials Credentials
	endpoint    oauth2.Endpoint
	client      *http.Client
	userAgent   string

	mu    sync.Mutex
	token *oauth2.Token
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithEndpoint overrides the token endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(p *Provider) {
		if endpoint.TokenURL != "" {
			p.endpoint = endpoint
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(p *Provider) {
		if userAgent != "" {
			p.userAgent = userAgent
		}
	}
}

// New creates a Provider for the given credentials.
func New(credentials Credentials, opts ...Option) *Provider {
	p := &Provider{
		credentials: credentials,
		endpoint:    Endpoint,
		client:      &http.Client{},
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns the bearer token, performing the exchange on first use.
// Failed exchanges are not cached, but Token never retries on its own.
//
// Errors are *apierror.NetworkError for transport failures and
// *apierror.AuthError when the endpoint returned no usable token.
func (p *Provider) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil {
		return p.token, nil
	}

	token, err := p.exchange(ctx)
	if err != nil {
		return nil, err
	}

	p.token = token
	return token, nil
}

// exchange performs a single client-credentials request.
func (p *Provider) exchange(ctx context.Context) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.TokenURL, strings.NewReader(grantRequestBody))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.SetBasicAuth(p.credentials.APIKey, p.credentials.APISecret)
	req.Header.Set("Content-Type", formContentType)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", p.userAgent)
	req.ContentLength = int64(len(grantRequestBody))

	slog.DebugContext(ctx, "requesting bearer token", "token_url", p.endpoint.TokenURL)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &apierror.NetworkError{Op: "token", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readBody(resp)
	if err != nil {
		return nil, &apierror.NetworkError{Op: "token", Err: err}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &apierror.AuthError{
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("decoding token response: %v", err),
		}
	}

	if tr.AccessToken == "" {
		return nil, &apierror.AuthError{Status: resp.StatusCode, Reason: tr.reason()}
	}

	return &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
	}, nil
}

// readBody reads the response body. Accept-Encoding is set explicitly on the
// request, so net/http leaves gzip decoding to us.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	return body, nil
}

// tokenResponse is the token endpoint's response body. Failed exchanges carry
// an errors array instead of a token.
type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	Errors      []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (tr tokenResponse) reason() string {
	if len(tr.Errors) == 0 {
		return "response contained no access_token"
	}
	msgs := make([]string, 0, len(tr.Errors))
	for _, e := range tr.Errors {
		msgs = append(msgs, fmt.Sprintf("%s (code %d)", e.Message, e.Code))
	}
	return strings.Join(msgs, "; ")
}
