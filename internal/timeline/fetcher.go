// Package timeline fetches a user's recent posts with an application-only
// bearer token.
package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/FeyP/drupal-twitter-feed/internal/apierror"
	"github.com/FeyP/drupal-twitter-feed/internal/tokensource"
)

const (
	// DefaultBaseURL is the API host the timeline endpoint lives on.
	DefaultBaseURL = "https://api.twitter.com"

	userTimelinePath = "/1.1/statuses/user_timeline.json"
)

// Post is a single timeline entry. Only the fields the block renders are decoded.
type Post struct {
	ID        string `json:"id_str"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      User   `json:"user"`
}

// User is the author embedded in a Post.
type User struct {
	ScreenName string `json:"screen_name"`
}

// Fetcher requests user timelines. It holds no per-request state and is safe
// for concurrent use.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for timeline requests. Its Transport is
// wrapped to add the bearer token; Timeout and redirect policy are kept.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithBaseURL overrides the API host, e.g. for tests or a forwarding proxy.
func WithBaseURL(baseURL string) Option {
	return func(f *Fetcher) {
		if baseURL != "" {
			f.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		baseURL:   DefaultBaseURL,
		userAgent: tokensource.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns up to count recent posts of username, newest first as
// returned upstream. count is passed through unchanged; the API enforces its
// own bounds.
//
// Transport failures return *apierror.NetworkError. A response that is not a
// JSON array of posts is logged and yields no posts and a nil error.
func (f *Fetcher) Fetch(ctx context.Context, token *oauth2.Token, username string, count int) ([]Post, error) {
	if token == nil || token.AccessToken == "" {
		return nil, &apierror.AuthError{Reason: "bearer token is required"}
	}

	endpoint, err := url.Parse(f.baseURL + userTimelinePath)
	if err != nil {
		return nil, fmt.Errorf("parsing timeline url: %w", err)
	}
	endpoint.RawQuery = url.Values{
		"screen_name": {username},
		"count":       {strconv.Itoa(count)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating timeline request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.bearerClient(token).Do(req)
	if err != nil {
		return nil, &apierror.NetworkError{Op: "timeline", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.WarnContext(ctx, "discarding timeline response",
			"username", username,
			"error", &apierror.ParseError{Status: resp.StatusCode, Err: errors.New("non-success status")},
		)
		return nil, nil
	}

	var posts []Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		slog.WarnContext(ctx, "discarding timeline response",
			"username", username,
			"error", &apierror.ParseError{Status: resp.StatusCode, Err: err},
		)
		return nil, nil
	}

	slog.DebugContext(ctx, "timeline fetched", "username", username, "posts", len(posts))
	return posts, nil
}

// bearerClient derives a client that sends token as a Bearer credential on
// top of the configured transport.
func (f *Fetcher) bearerClient(token *oauth2.Token) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   f.client.Transport,
		},
		CheckRedirect: f.client.CheckRedirect,
		Jar:           f.client.Jar,
		Timeout:       f.client.Timeout,
	}
}
