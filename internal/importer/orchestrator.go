// Package importer turns one (user, url) pair into a single ImportOutcome.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/metrics"
	"github.com/MrSnakeDoc/readbot/internal/sources/services"
)

// DefaultRemoteTimeout bounds each remote call when none is configured.
const DefaultRemoteTimeout = 10 * time.Second

// CredentialSource yields access credentials or a *domain.NotConnectedError.
type CredentialSource interface {
	Credentials(ctx context.Context, userID string, kind domain.ServiceKind) (domain.Credentials, error)
}

// CatalogClient is the book-cataloging service.
type CatalogClient interface {
	Search(ctx context.Context, creds domain.Credentials, query string) ([]domain.Book, error)
	AddToShelf(ctx context.Context, creds domain.Credentials, bookID, shelf string) error
	BookURL(bookID string) string
	SearchURL(query string) string
}

// ReadLaterClient is the read-it-later service.
type ReadLaterClient interface {
	AddURL(ctx context.Context, accessToken, rawURL string) error
}

// Options configures an Orchestrator.
type Options struct {
	Classifier    *domain.Classifier
	Credentials   CredentialSource
	Catalog       CatalogClient
	ReadLater     ReadLaterClient
	Settings      services.Settings
	RemoteTimeout time.Duration
	Logger        logger.Logger
	Metrics       metrics.Recorder
}

// Orchestrator imports links into the user's services.
// It holds no per-user state and is safe for concurrent use.
type Orchestrator struct {
	classifier *domain.Classifier
	creds      CredentialSource
	catalog    CatalogClient
	readLater  ReadLaterClient
	settings   services.Settings
	timeout    time.Duration
	log        logger.Logger
	metrics    metrics.Recorder
}

// New creates an Orchestrator
func New(opts Options) *Orchestrator {
	if opts.Classifier == nil {
		opts.Classifier = domain.NewClassifier(opts.Settings.Retailers)
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Settings.DefaultShelf == "" {
		opts.Settings.DefaultShelf = services.DefaultShelf
	}
	return &Orchestrator{
		classifier: opts.Classifier,
		creds:      opts.Credentials,
		catalog:    opts.Catalog,
		readLater:  opts.ReadLater,
		settings:   opts.Settings,
		timeout:    opts.RemoteTimeout,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
}

// attempt records how far one import got, for the failure message.
type attempt struct {
	url  string
	kind domain.ServiceKind
	ref  domain.ItemRef
	book domain.Book
}

// Import runs the whole flow for rawURL on behalf of userID.
// Every error is turned into a Failure outcome; nothing is returned as error.
func (o *Orchestrator) Import(ctx context.Context, userID, rawURL string) domain.ImportOutcome {
	start := time.Now()
	a := &attempt{url: rawURL}
	log := o.log.With(
		logger.String("import_id", uuid.NewString()),
		logger.String("user_id", userID),
		logger.String("url", rawURL),
	)
	log.Info("import started")

	text, err := o.run(ctx, userID, a)

	outcome := domain.Success(text)
	if err != nil {
		outcome = domain.Failure(o.failureText(a, err))
		log.Warn("import failed",
			logger.String("service", a.kind.String()),
			logger.Error(err))
	} else {
		log.Info("import succeeded",
			logger.String("service", a.kind.String()),
			logger.Duration("duration", time.Since(start)))
	}

	service := a.kind.String()
	if service == "" {
		service = "none"
	}
	o.metrics.RecordImport(service, string(outcome.Status), time.Since(start))
	return outcome
}

func (o *Orchestrator) run(ctx context.Context, userID string, a *attempt) (string, error) {
	if !domain.IsWellFormed(a.url) {
		return "", domain.ErrUnsupportedURL
	}
	a.kind = o.classifier.Classify(a.url)

	creds, err := o.creds.Credentials(ctx, userID, a.kind)
	if err != nil {
		return "", err
	}

	a.ref, err = domain.ResolveItem(a.kind, a.url)
	if err != nil {
		return "", err
	}

	switch a.kind {
	case domain.ReadLaterService:
		return o.addReadLater(ctx, creds, a)
	case domain.CatalogService:
		return o.addToCatalog(ctx, creds, a)
	default:
		return "", domain.ErrUnsupportedURL
	}
}

func (o *Orchestrator) addReadLater(ctx context.Context, creds domain.Credentials, a *attempt) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.readLater.AddURL(callCtx, creds.AccessToken, a.ref.URL); err != nil {
		return "", &domain.RemoteError{Service: a.kind, Op: domain.OpAdd, Err: err}
	}
	return fmt.Sprintf("Added %s to %s", a.ref.URL, o.settings.DisplayName(a.kind)), nil
}

func (o *Orchestrator) addToCatalog(ctx context.Context, creds domain.Credentials, a *attempt) (string, error) {
	searchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	books, err := o.catalog.Search(searchCtx, creds, a.ref.Code)
	cancel()
	if err != nil {
		return "", &domain.RemoteError{Service: a.kind, Op: domain.OpSearch, Err: err}
	}
	if len(books) == 0 {
		return "", domain.ErrItemNotFound
	}

	// First match wins; the remote ranking is trusted as-is.
	a.book = books[0]

	addCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.catalog.AddToShelf(addCtx, creds, a.book.ID, o.settings.DefaultShelf); err != nil {
		return "", &domain.RemoteError{Service: a.kind, Op: domain.OpAdd, Err: err}
	}

	return fmt.Sprintf("Added %s to your %s %s shelf: %s",
		sanitizeTitle(a.book.Title),
		o.settings.DisplayName(a.kind),
		o.settings.DefaultShelf,
		o.catalog.BookURL(a.book.ID),
	), nil
}

func (o *Orchestrator) failureText(a *attempt, err error) string {
	name := o.settings.DisplayName(a.kind)

	var notConnected *domain.NotConnectedError
	var remote *domain.RemoteError

	switch {
	case errors.Is(err, domain.ErrUnsupportedURL):
		return fmt.Sprintf("Sorry, I can't import %s: it is not a web link I understand.", a.url)

	case errors.As(err, &notConnected):
		return fmt.Sprintf("You haven't connected your %s account yet. Run `/readbot connect %s` and try again.",
			o.settings.DisplayName(notConnected.Service), notConnected.Service)

	case errors.Is(err, domain.ErrNoIdentifierFound):
		return fmt.Sprintf("I couldn't find a product code in %s. You can search %s yourself: %s",
			a.url, name, o.catalog.SearchURL(domain.SearchHint(a.url)))

	case errors.Is(err, domain.ErrItemNotFound):
		return fmt.Sprintf("Book not found on %s for %s. You can search manually: %s",
			name, a.url, o.catalog.SearchURL(a.ref.Code))

	case errors.As(err, &remote):
		detail := remote.Detail()
		if errors.Is(err, context.DeadlineExceeded) {
			detail = fmt.Sprintf("no answer within %s", o.timeout)
		}
		if remote.Op == domain.OpSearch {
			return fmt.Sprintf("%s search failed for %s: %s", name, a.url, detail)
		}
		if a.kind == domain.CatalogService {
			return fmt.Sprintf("Couldn't add %s to your %s %s shelf: %s",
				sanitizeTitle(a.book.Title), name, o.settings.DefaultShelf, detail)
		}
		return fmt.Sprintf("Couldn't add %s to %s: %s", a.url, name, detail)

	default:
		return fmt.Sprintf("Sorry, importing %s failed: %v", a.url, err)
	}
}
