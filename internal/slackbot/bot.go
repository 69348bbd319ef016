// Package slackbot reacts to Slack events: it remembers the links posted in
// channels and imports them when a user bookmarks the message.
package slackbot

import (
	"context"
	"sync"

	"github.com/slack-go/slack/slackevents"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/metrics"
)

// DefaultReaction is the emoji name that triggers an import.
const DefaultReaction = "bookmark"

// MessageStore remembers the links of each message.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg domain.BookmarkedMessage) error
	GetMessageURLs(ctx context.Context, channel, timestamp string) ([]string, error)
}

// Importer imports one link for one user.
type Importer interface {
	Import(ctx context.Context, userID, rawURL string) domain.ImportOutcome
}

// Poster delivers a private message to a user.
type Poster interface {
	PostEphemeral(ctx context.Context, channel, userID, text string) error
}

// Options configures a Bot.
type Options struct {
	Store    MessageStore
	Importer Importer
	Notifier Poster
	Reaction string
	Logger   logger.Logger
	Metrics  metrics.Recorder
}

// Bot handles the inner events of Slack event callbacks.
type Bot struct {
	store    MessageStore
	importer Importer
	notifier Poster
	reaction string
	log      logger.Logger
	metrics  metrics.Recorder

	wg sync.WaitGroup
}

// New creates a Bot
func New(opts Options) *Bot {
	if opts.Reaction == "" {
		opts.Reaction = DefaultReaction
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Bot{
		store:    opts.Store,
		importer: opts.Importer,
		notifier: opts.Notifier,
		reaction: opts.Reaction,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Dispatch handles ev in the background and returns immediately.
// ctx must not be tied to the HTTP request: work outlives the acknowledgement.
func (b *Bot) Dispatch(ctx context.Context, ev slackevents.EventsAPIInnerEvent) {
	b.Go(func() { b.HandleEvent(ctx, ev) })
}

// Go runs fn in the background and tracks it like an event handler, so Wait drains it too.
func (b *Bot) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// HandleEvent handles ev. Imports triggered by a bookmark still run in the
// background; use Wait to drain them.
func (b *Bot) HandleEvent(ctx context.Context, ev slackevents.EventsAPIInnerEvent) {
	b.metrics.RecordSlackEvent(ev.Type)

	switch e := ev.Data.(type) {
	case *slackevents.MessageEvent:
		b.handleMessage(ctx, e)
	case *slackevents.ReactionAddedEvent:
		b.handleReactionAdded(ctx, e)
	case *slackevents.ReactionRemovedEvent:
		if e.Reaction == b.reaction {
			// Imported items are left in place.
			b.log.Info("bookmark removed",
				logger.String("user_id", e.User),
				logger.String("channel", e.Item.Channel),
				logger.String("ts", e.Item.Timestamp))
		}
	default:
		b.log.Debug("ignoring slack event", logger.String("type", ev.Type))
	}
}

// Wait blocks until every background handler has finished or ctx is done.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) handleMessage(ctx context.Context, e *slackevents.MessageEvent) {
	msg := domain.BookmarkedMessage{
		Channel:   e.Channel,
		Timestamp: e.TimeStamp,
		User:      e.User,
	}
	text := e.Text

	// Edits carry the new message nested; it keeps the original ts.
	if e.SubType == "message_changed" {
		if e.Message == nil {
			return
		}
		msg.Timestamp = e.Message.TimeStamp
		msg.User = e.Message.User
		text = e.Message.Text
	}

	msg.URLs = ExtractURLs(text)
	if len(msg.URLs) == 0 || msg.Channel == "" || msg.Timestamp == "" {
		return
	}

	if err := b.store.SaveMessage(ctx, msg); err != nil {
		b.log.Error("failed to save message links",
			logger.String("channel", msg.Channel),
			logger.String("ts", msg.Timestamp),
			logger.Error(err))
		return
	}
	b.log.Debug("message links saved",
		logger.String("channel", msg.Channel),
		logger.String("ts", msg.Timestamp),
		logger.Strings("urls", msg.URLs))
}

func (b *Bot) handleReactionAdded(ctx context.Context, e *slackevents.ReactionAddedEvent) {
	if e.Reaction != b.reaction || e.Item.Type != "message" {
		return
	}

	urls, err := b.store.GetMessageURLs(ctx, e.Item.Channel, e.Item.Timestamp)
	if err != nil {
		b.log.Error("failed to load message links",
			logger.String("channel", e.Item.Channel),
			logger.String("ts", e.Item.Timestamp),
			logger.Error(err))
		return
	}
	if len(urls) == 0 {
		b.log.Debug("bookmarked message has no known links",
			logger.String("channel", e.Item.Channel),
			logger.String("ts", e.Item.Timestamp))
		return
	}

	b.log.Info("bookmark added",
		logger.String("user_id", e.User),
		logger.String("channel", e.Item.Channel),
		logger.Int("links", len(urls)))

	// Flows are independent: one slow or failing link never holds back another.
	for _, u := range urls {
		u := u
		b.Go(func() { b.importAndNotify(ctx, e.User, e.Item.Channel, u) })
	}
}

func (b *Bot) importAndNotify(ctx context.Context, userID, channel, rawURL string) {
	outcome := b.importer.Import(ctx, userID, rawURL)
	if err := b.notifier.PostEphemeral(ctx, channel, userID, outcome.Text); err != nil {
		b.log.Warn("failed to notify user",
			logger.String("user_id", userID),
			logger.String("channel", channel),
			logger.Error(err))
	}
}
