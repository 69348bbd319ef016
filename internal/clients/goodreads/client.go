// Package goodreads talks to the Goodreads API: the OAuth 1.0a handshake,
// book search, and adding a book to a shelf.
package goodreads

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/utils"
	"github.com/MrSnakeDoc/readbot/internal/version"
)

const (
	// DefaultBaseURL is the Goodreads site root
	DefaultBaseURL = "https://www.goodreads.com"
	// DefaultRequestInterval is the minimum spacing between API calls required by the Goodreads terms
	DefaultRequestInterval = time.Second
)

// Options configures a Client.
type Options struct {
	DeveloperKey    string
	DeveloperSecret string
	BaseURL         string        // overridable for tests
	RequestInterval time.Duration // 0 => DefaultRequestInterval, <0 => unlimited
}

// Client is a Goodreads API client.
//
// It holds no user state: the request-token callback and the access
// credentials are arguments of each call, so concurrent flows for different
// users never share a session.
type Client struct {
	key     string
	baseURL string
	config  oauth1.Config
	limiter *rate.Limiter
}

// NewClient creates a Goodreads client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base := strings.TrimRight(opts.BaseURL, "/")

	limit := rate.Inf
	switch {
	case opts.RequestInterval == 0:
		limit = rate.Every(DefaultRequestInterval)
	case opts.RequestInterval > 0:
		limit = rate.Every(opts.RequestInterval)
	}

	return &Client{
		key:     opts.DeveloperKey,
		baseURL: base,
		config: oauth1.Config{
			ConsumerKey:    opts.DeveloperKey,
			ConsumerSecret: opts.DeveloperSecret,
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: base + "/oauth/request_token",
				AuthorizeURL:    base + "/oauth/authorize",
				AccessTokenURL:  base + "/oauth/access_token",
			},
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// RequestToken obtains a request token whose authorization redirects to callbackURL.
func (c *Client) RequestToken(ctx context.Context, callbackURL string) (domain.RequestGrant, error) {
	cfg := c.config
	cfg.CallbackURL = callbackURL

	token, secret, err := c.handshake(ctx, cfg.RequestToken)
	if err != nil {
		return domain.RequestGrant{}, err
	}

	authURL, err := cfg.AuthorizationURL(token)
	if err != nil {
		return domain.RequestGrant{}, fmt.Errorf("failed to build authorization url: %w", err)
	}
	q := authURL.Query()
	q.Set("oauth_callback", callbackURL)
	authURL.RawQuery = q.Encode()

	return domain.RequestGrant{Token: token, Secret: secret, AuthURL: authURL.String()}, nil
}

// ExchangeToken trades an authorized request token for access credentials.
// Goodreads does not issue a verifier, the authorization is implied by the callback.
func (c *Client) ExchangeToken(ctx context.Context, requestToken, requestSecret string) (domain.AccessGrant, error) {
	token, secret, err := c.handshake(ctx, func() (string, string, error) {
		return c.config.AccessToken(requestToken, requestSecret, "")
	})
	if err != nil {
		return domain.AccessGrant{}, err
	}
	return domain.AccessGrant{Token: token, Secret: secret}, nil
}

// Search looks books up by title, author or ISBN/ASIN.
// Results keep the remote ranking; an empty slice means no match.
func (c *Client) Search(ctx context.Context, creds domain.Credentials, query string) ([]domain.Book, error) {
	params := url.Values{"key": {c.key}, "q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/index.xml?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(ctx, creds, req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return parseSearchResults(body)
}

// AddToShelf puts bookID on the named shelf of the user owning creds.
func (c *Client) AddToShelf(ctx context.Context, creds domain.Credentials, bookID, shelf string) error {
	form := url.Values{"name": {shelf}, "book_id": {bookID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shelf/add_to_shelf.xml", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = c.do(ctx, creds, req, http.StatusOK, http.StatusCreated)
	return err
}

// BookURL is the public page of a book.
func (c *Client) BookURL(bookID string) string {
	return c.baseURL + "/book/show/" + url.PathEscape(bookID)
}

// SearchURL is the public search page for query, offered when automatic lookup fails.
func (c *Client) SearchURL(query string) string {
	return c.baseURL + "/search?" + url.Values{"q": {query}}.Encode()
}

// do signs req with the user's access credentials and returns the body of an accepted response.
func (c *Client) do(ctx context.Context, creds domain.Credentials, req *http.Request, accept ...int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())
	httpClient := c.config.Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	for _, code := range accept {
		if resp.StatusCode == code {
			return body, nil
		}
	}
	return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// handshake runs a blocking token call once the rate limiter admits it, and
// gives up when ctx is done. The oauth1 token calls take no context.
func (c *Client) handshake(ctx context.Context, call func() (string, string, error)) (string, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	type result struct {
		token, secret string
		err           error
	}
	done := make(chan result, 1)
	go func() {
		token, secret, err := call()
		done <- result{token, secret, err}
	}()

	select {
	case r := <-done:
		return r.token, r.secret, r.err
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

// searchResponse mirrors GoodreadsResponse/search/results/work.
type searchResponse struct {
	XMLName xml.Name `xml:"GoodreadsResponse"`
	Works   []struct {
		BestBook struct {
			ID    string `xml:"id"`
			Title string `xml:"title"`
		} `xml:"best_book"`
	} `xml:"search>results>work"`
}

// parseSearchResults normalizes a search response into an ordered slice,
// whether the remote returned zero, one or many works.
func parseSearchResults(body []byte) ([]domain.Book, error) {
	var resp searchResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	books := make([]domain.Book, 0, len(resp.Works))
	for _, w := range resp.Works {
		id := strings.TrimSpace(w.BestBook.ID)
		if id == "" {
			continue
		}
		books = append(books, domain.Book{ID: id, Title: strings.TrimSpace(w.BestBook.Title)})
	}
	return books, nil
}
