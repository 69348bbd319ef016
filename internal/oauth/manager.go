// Package oauth drives the per-user, per-service authorization state machine:
// Disconnected -> RequestTokenObtained -> Connected.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/metrics"
)

var (
	// ErrUnknownService is returned for a service with no registered provider.
	ErrUnknownService = errors.New("unknown service")
	// ErrNoPendingRequest means the callback arrived without a stored request token.
	ErrNoPendingRequest = errors.New("no pending authorization request")
	// ErrTokenMismatch means the callback token is not the one we issued.
	ErrTokenMismatch = errors.New("authorization token does not match the pending request")
	// ErrAuthorizationDenied means the user declined on the service's page.
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// CredentialStore persists user records.
type CredentialStore interface {
	ReadUser(ctx context.Context, userID string) (domain.UserRecord, error)
	MergeUser(ctx context.Context, userID string, patch domain.UserPatch) (domain.UserRecord, error)
}

// Callback carries what the service sent back to the redirect URL.
// Token is empty for services that do not echo it.
type Callback struct {
	Token      string
	Authorized bool
}

// Manager runs the handshake for every registered service.
type Manager struct {
	store     CredentialStore
	providers map[domain.ServiceKind]Provider
	baseURL   string
	log       logger.Logger
	metrics   metrics.Recorder
}

// Options configures a Manager.
type Options struct {
	Store     CredentialStore
	Providers map[domain.ServiceKind]Provider
	BaseURL   string // public root of this bot, e.g. https://readbot.example.com
	Logger    logger.Logger
	Metrics   metrics.Recorder
}

// NewManager creates a Manager
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Manager{
		store:     opts.Store,
		providers: opts.Providers,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
}

// CallbackURL is the redirect target for userID's handshake with kind.
// The user id travels in the path because the services do not echo state back.
func CallbackURL(baseURL string, kind domain.ServiceKind, userID string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/" + url.PathEscape(kind.String()) + "/" + url.PathEscape(userID)
}

// Connect starts a handshake and returns the URL the user must visit.
// A previous access token stays valid until the new exchange succeeds.
func (m *Manager) Connect(ctx context.Context, userID string, kind domain.ServiceKind) (string, error) {
	provider, err := m.provider(kind)
	if err != nil {
		return "", err
	}

	grant, err := provider.RequestToken(ctx, CallbackURL(m.baseURL, kind, userID))
	if err != nil {
		m.metrics.RecordOAuth(kind.String(), "connect", "failure")
		return "", &domain.RemoteError{Service: kind, Op: domain.OpRequestToken, Err: err}
	}

	_, err = m.store.MergeUser(ctx, userID, domain.UserPatch{
		kind: {
			RequestToken:       domain.Value(grant.Token),
			RequestTokenSecret: domain.Value(grant.Secret),
		},
	})
	if err != nil {
		m.metrics.RecordOAuth(kind.String(), "connect", "failure")
		return "", fmt.Errorf("failed to store request token: %w", err)
	}

	m.metrics.RecordOAuth(kind.String(), "connect", "success")
	m.log.Info("authorization started",
		logger.String("user_id", userID),
		logger.String("service", kind.String()))
	return grant.AuthURL, nil
}

// Complete finishes the handshake started by Connect.
func (m *Manager) Complete(ctx context.Context, userID string, kind domain.ServiceKind, cb Callback) error {
	err := m.complete(ctx, userID, kind, cb)
	result := "success"
	if err != nil {
		result = "failure"
		m.log.Warn("authorization failed",
			logger.String("user_id", userID),
			logger.String("service", kind.String()),
			logger.Error(err))
	} else {
		m.log.Info("authorization completed",
			logger.String("user_id", userID),
			logger.String("service", kind.String()))
	}
	m.metrics.RecordOAuth(kind.String(), "complete", result)
	return err
}

func (m *Manager) complete(ctx context.Context, userID string, kind domain.ServiceKind, cb Callback) error {
	provider, err := m.provider(kind)
	if err != nil {
		return err
	}

	user, err := m.store.ReadUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read user: %w", err)
	}
	pending := user.For(kind)
	if pending.RequestToken == "" {
		return ErrNoPendingRequest
	}
	if cb.Token != "" && cb.Token != pending.RequestToken {
		return ErrTokenMismatch
	}

	clearRequest := domain.CredentialPatch{
		RequestToken:       domain.Value(""),
		RequestTokenSecret: domain.Value(""),
	}

	if !cb.Authorized {
		if _, err := m.store.MergeUser(ctx, userID, domain.UserPatch{kind: clearRequest}); err != nil {
			return fmt.Errorf("failed to clear request token: %w", err)
		}
		return ErrAuthorizationDenied
	}

	grant, err := provider.ExchangeToken(ctx, pending)
	if err != nil {
		return &domain.RemoteError{Service: kind, Op: domain.OpAccessToken, Err: err}
	}

	patch := clearRequest
	patch.AccessToken = domain.Value(grant.Token)
	patch.AccessTokenSecret = domain.Value(grant.Secret)
	patch.Username = domain.Value(grant.Username)
	if _, err := m.store.MergeUser(ctx, userID, domain.UserPatch{kind: patch}); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

// Credentials returns the access credentials of userID for kind, or a
// *domain.NotConnectedError. It never changes stored state.
func (m *Manager) Credentials(ctx context.Context, userID string, kind domain.ServiceKind) (domain.Credentials, error) {
	user, err := m.store.ReadUser(ctx, userID)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to read user: %w", err)
	}
	creds := user.For(kind)
	if !creds.Connected() {
		return domain.Credentials{}, &domain.NotConnectedError{Service: kind}
	}
	return creds, nil
}

// Status reports which registered services userID is connected to.
func (m *Manager) Status(ctx context.Context, userID string) (map[domain.ServiceKind]bool, error) {
	user, err := m.store.ReadUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	status := make(map[domain.ServiceKind]bool, len(m.providers))
	for kind := range m.providers {
		status[kind] = user.Connected(kind)
	}
	return status, nil
}

// Disconnect forgets every credential userID holds for kind.
func (m *Manager) Disconnect(ctx context.Context, userID string, kind domain.ServiceKind) error {
	if _, err := m.provider(kind); err != nil {
		return err
	}
	empty := domain.Value("")
	_, err := m.store.MergeUser(ctx, userID, domain.UserPatch{kind: {
		RequestToken:       empty,
		RequestTokenSecret: empty,
		AccessToken:        empty,
		AccessTokenSecret:  empty,
		Username:           empty,
	}})
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	m.log.Info("service disconnected",
		logger.String("user_id", userID),
		logger.String("service", kind.String()))
	return nil
}

func (m *Manager) provider(kind domain.ServiceKind) (Provider, error) {
	p, ok := m.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, kind)
	}
	return p, nil
}
