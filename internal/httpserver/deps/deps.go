package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack/slackevents"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/oauth"
	"github.com/MrSnakeDoc/readbot/internal/sources/services"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventMarker records Slack event ids; false means the id was already seen.
type EventMarker interface {
	MarkEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// EventDispatcher handles Slack events and other background work after the HTTP ack.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev slackevents.EventsAPIInnerEvent)
	Go(fn func())
}

// CommandRunner answers slash command text.
type CommandRunner interface {
	Run(ctx context.Context, userID, text string) string
}

// AuthCompleter finishes OAuth handshakes.
type AuthCompleter interface {
	Complete(ctx context.Context, userID string, kind domain.ServiceKind, cb oauth.Callback) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	AllowedHosts []string // Host headers allowed on the public routes
	AllowedCIDRS []string // IPs allowed to access readyz/metrics
	TrustProxy   bool     // true if running behind a trusted reverse proxy

	SigningSecret       string        // Slack signing secret
	EventTTL            time.Duration // how long event ids are remembered for retry dedupe
	CommandReplyTimeout time.Duration // inline reply budget before falling back to response_url
	CommandRateBurst    int
	CommandRatePerMin   int

	Store    Pinger
	Events   EventMarker
	Bot      EventDispatcher
	Commands CommandRunner
	OAuth    AuthCompleter
	Settings services.Settings
	Metrics  prometheus.Gatherer
}
