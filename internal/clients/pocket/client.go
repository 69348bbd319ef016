// Package pocket talks to the Pocket v3 API: the request/authorize token
// exchange and adding URLs to a user's list.
package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/utils"
	"github.com/MrSnakeDoc/readbot/internal/version"
)

const (
	// DefaultAPIBase is the Pocket v3 API root
	DefaultAPIBase = "https://getpocket.com/v3"
	// DefaultAuthorizeURL is where users approve the application
	DefaultAuthorizeURL = "https://getpocket.com/auth/authorize"
)

// Options configures a Client.
type Options struct {
	ConsumerKey  string
	APIBase      string // overridable for tests
	AuthorizeURL string // overridable for tests
	HTTPClient   *http.Client
}

// Client is a stateless Pocket API client. User credentials are passed to
// every call, so one Client is shared by all users.
type Client struct {
	consumerKey  string
	apiBase      string
	authorizeURL string
	http         *http.Client
}

// NewClient creates a Pocket client
func NewClient(opts Options) *Client {
	if opts.APIBase == "" {
		opts.APIBase = DefaultAPIBase
	}
	if opts.AuthorizeURL == "" {
		opts.AuthorizeURL = DefaultAuthorizeURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		consumerKey:  opts.ConsumerKey,
		apiBase:      strings.TrimRight(opts.APIBase, "/"),
		authorizeURL: opts.AuthorizeURL,
		http:         opts.HTTPClient,
	}
}

// RequestToken starts the handshake and returns the request token ("code").
func (c *Client) RequestToken(ctx context.Context, redirectURI string) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	err := c.post(ctx, "/oauth/request", map[string]string{
		"consumer_key": c.consumerKey,
		"redirect_uri": redirectURI,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Code == "" {
		return "", fmt.Errorf("empty request token in response")
	}
	return resp.Code, nil
}

// AuthURL returns the page the user visits to approve the request token.
func (c *Client) AuthURL(requestToken, redirectURI string) string {
	params := url.Values{
		"request_token": {requestToken},
		"redirect_uri":  {redirectURI},
	}
	return c.authorizeURL + "?" + params.Encode()
}

// ExchangeToken trades an approved request token for an access token.
func (c *Client) ExchangeToken(ctx context.Context, requestToken string) (domain.AccessGrant, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	err := c.post(ctx, "/oauth/authorize", map[string]string{
		"consumer_key": c.consumerKey,
		"code":         requestToken,
	}, &resp)
	if err != nil {
		return domain.AccessGrant{}, err
	}
	if resp.AccessToken == "" {
		return domain.AccessGrant{}, fmt.Errorf("empty access token in response")
	}
	return domain.AccessGrant{Token: resp.AccessToken, Username: resp.Username}, nil
}

// AddURL saves url to the list of the user owning accessToken.
func (c *Client) AddURL(ctx context.Context, accessToken, rawURL string) error {
	return c.post(ctx, "/add", map[string]string{
		"consumer_key": c.consumerKey,
		"access_token": accessToken,
		"url":          rawURL,
	}, nil)
}

// post sends a JSON request and decodes the JSON response into out (if non-nil).
// Pocket reports failures through the X-Error header, which is kept in the error text.
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if xerr := resp.Header.Get("X-Error"); xerr != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, xerr)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
