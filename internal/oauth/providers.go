package oauth

import (
	"context"

	"github.com/MrSnakeDoc/readbot/internal/domain"
)

// Provider runs the remote half of a service's authorization handshake.
type Provider interface {
	// RequestToken asks the service for a request token bound to callbackURL.
	RequestToken(ctx context.Context, callbackURL string) (domain.RequestGrant, error)
	// ExchangeToken trades an authorized request token for access credentials.
	ExchangeToken(ctx context.Context, pending domain.Credentials) (domain.AccessGrant, error)
}

type goodreadsHandshake interface {
	RequestToken(ctx context.Context, callbackURL string) (domain.RequestGrant, error)
	ExchangeToken(ctx context.Context, requestToken, requestSecret string) (domain.AccessGrant, error)
}

type goodreadsProvider struct {
	client goodreadsHandshake
}

// Goodreads adapts the Goodreads client (OAuth 1.0a) to Provider.
func Goodreads(client goodreadsHandshake) Provider {
	return goodreadsProvider{client: client}
}

func (p goodreadsProvider) RequestToken(ctx context.Context, callbackURL string) (domain.RequestGrant, error) {
	return p.client.RequestToken(ctx, callbackURL)
}

func (p goodreadsProvider) ExchangeToken(ctx context.Context, pending domain.Credentials) (domain.AccessGrant, error) {
	return p.client.ExchangeToken(ctx, pending.RequestToken, pending.RequestTokenSecret)
}

type pocketHandshake interface {
	RequestToken(ctx context.Context, redirectURI string) (string, error)
	AuthURL(requestToken, redirectURI string) string
	ExchangeToken(ctx context.Context, requestToken string) (domain.AccessGrant, error)
}

type pocketProvider struct {
	client pocketHandshake
}

// Pocket adapts the Pocket client to Provider. Pocket request tokens have no secret.
func Pocket(client pocketHandshake) Provider {
	return pocketProvider{client: client}
}

func (p pocketProvider) RequestToken(ctx context.Context, callbackURL string) (domain.RequestGrant, error) {
	code, err := p.client.RequestToken(ctx, callbackURL)
	if err != nil {
		return domain.RequestGrant{}, err
	}
	return domain.RequestGrant{Token: code, AuthURL: p.client.AuthURL(code, callbackURL)}, nil
}

func (p pocketProvider) ExchangeToken(ctx context.Context, pending domain.Credentials) (domain.AccessGrant, error) {
	return p.client.ExchangeToken(ctx, pending.RequestToken)
}
