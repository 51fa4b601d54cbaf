package block

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/FeyP/drupal-twitter-feed/internal/linkify"
	"github.com/FeyP/drupal-twitter-feed/internal/timeline"
	"github.com/FeyP/drupal-twitter-feed/internal/tokensource"
)

// CredentialSource supplies API credentials at the start of every cycle.
type CredentialSource interface {
	Read(ctx context.Context) (tokensource.Credentials, error)
}

// RenderedPost is a post whose text has been linkified.
type RenderedPost struct {
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// View is the result of one cycle, ready for a template or JSON encoder.
type View struct {
	Username string         `json:"username"`
	Posts    []RenderedPost `json:"posts"`
}

// Config wires a Renderer to the upstream API.
type Config struct {
	Credentials CredentialSource
	// HTTPClient carries timeouts and transport settings for both calls.
	HTTPClient  *http.Client
	TokenURL    string
	APIBaseURL  string
	UserAgent   string
	LinkBaseURL string
}

// Renderer runs fetch cycles. It keeps no token between cycles, so it is safe
// for concurrent use by independent requests.
type Renderer struct {
	credentials CredentialSource
	client      *http.Client
	tokenURL    string
	userAgent   string
	fetcher     *timeline.Fetcher
	linkifier   *linkify.Linkifier
}

// NewRenderer creates a Renderer from cfg.
func NewRenderer(cfg Config) *Renderer {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Renderer{
		credentials: cfg.Credentials,
		client:      client,
		tokenURL:    cfg.TokenURL,
		userAgent:   cfg.UserAgent,
		fetcher: timeline.NewFetcher(
			timeline.WithHTTPClient(client),
			timeline.WithBaseURL(cfg.APIBaseURL),
			timeline.WithUserAgent(cfg.UserAgent),
		),
		linkifier: linkify.New(cfg.LinkBaseURL),
	}
}

// Render performs one cycle for req.
//
// Invalid requests fail with ErrInvalidRequest before any I/O. Token failures
// abort the cycle and are returned. Timeline failures degrade to a view
// without posts.
func (r *Renderer) Render(ctx context.Context, req Request) (*View, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	credentials, err := r.credentials.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	// Scoped to this cycle: the next Render exchanges credentials again.
	tokens := tokensource.New(credentials,
		tokensource.WithHTTPClient(r.client),
		tokensource.WithEndpoint(oauth2.Endpoint{TokenURL: r.tokenURL, AuthStyle: oauth2.AuthStyleInHeader}),
		tokensource.WithUserAgent(r.userAgent),
	)

	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining bearer token: %w", err)
	}

	posts, err := r.fetcher.Fetch(ctx, token, req.Username, req.Count)
	if err != nil {
		slog.WarnContext(ctx, "timeline unavailable, rendering without posts",
			"username", req.Username,
			"error", err,
		)
		posts = nil
	}

	view := &View{
		Username: req.Username,
		Posts:    make([]RenderedPost, 0, len(posts)),
	}
	for _, p := range posts {
		view.Posts = append(view.Posts, RenderedPost{
			Text:      r.linkifier.Linkify(p.Text),
			CreatedAt: p.CreatedAt,
		})
	}

	return view, nil
}

// ProfileURL returns the link to username's profile page.
func (r *Renderer) ProfileURL(username string) string {
	return r.linkifier.ProfileURL(username)
}
