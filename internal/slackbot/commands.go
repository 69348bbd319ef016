package slackbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/sources/services"
)

// ConnectionManager starts and inspects service authorizations.
type ConnectionManager interface {
	Connect(ctx context.Context, userID string, kind domain.ServiceKind) (string, error)
	Disconnect(ctx context.Context, userID string, kind domain.ServiceKind) error
	Status(ctx context.Context, userID string) (map[domain.ServiceKind]bool, error)
}

// CommandOptions configures Commands.
type CommandOptions struct {
	Name     string // slash command as typed, e.g. "/readbot"
	Manager  ConnectionManager
	Settings services.Settings
	Reaction string
	Logger   logger.Logger
}

// Commands answers the slash command.
type Commands struct {
	name     string
	manager  ConnectionManager
	settings services.Settings
	reaction string
	log      logger.Logger
}

// NewCommands creates the slash command handler
func NewCommands(opts CommandOptions) *Commands {
	if opts.Name == "" {
		opts.Name = "/readbot"
	}
	if opts.Reaction == "" {
		opts.Reaction = DefaultReaction
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Commands{
		name:     opts.Name,
		manager:  opts.Manager,
		settings: opts.Settings,
		reaction: opts.Reaction,
		log:      opts.Logger,
	}
}

// Run executes the command text typed by userID and returns the reply.
func (c *Commands) Run(ctx context.Context, userID, text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return c.usage()
	}

	switch fields[0] {
	case "connect", "disconnect":
		if len(fields) != 2 {
			return c.usage()
		}
		kind, err := domain.ParseServiceKind(fields[1])
		if err != nil {
			return fmt.Sprintf("I don't know %q. %s", fields[1], c.usage())
		}
		if fields[0] == "connect" {
			return c.connect(ctx, userID, kind)
		}
		return c.disconnect(ctx, userID, kind)
	case "status":
		return c.status(ctx, userID)
	default:
		return c.usage()
	}
}

func (c *Commands) connect(ctx context.Context, userID string, kind domain.ServiceKind) string {
	name := c.settings.DisplayName(kind)
	authURL, err := c.manager.Connect(ctx, userID, kind)
	if err != nil {
		c.log.Warn("connect failed",
			logger.String("user_id", userID),
			logger.String("service", kind.String()),
			logger.Error(err))
		var remote *domain.RemoteError
		if errors.As(err, &remote) {
			return fmt.Sprintf("Couldn't reach %s: %s", name, remote.Detail())
		}
		return fmt.Sprintf("Couldn't start connecting %s, please try again later.", name)
	}
	return fmt.Sprintf("Please visit %s to connect your %s account.", authURL, name)
}

func (c *Commands) disconnect(ctx context.Context, userID string, kind domain.ServiceKind) string {
	name := c.settings.DisplayName(kind)
	if err := c.manager.Disconnect(ctx, userID, kind); err != nil {
		c.log.Warn("disconnect failed",
			logger.String("user_id", userID),
			logger.String("service", kind.String()),
			logger.Error(err))
		return fmt.Sprintf("Couldn't disconnect %s, please try again later.", name)
	}
	return fmt.Sprintf("Your %s account is disconnected.", name)
}

func (c *Commands) status(ctx context.Context, userID string) string {
	status, err := c.manager.Status(ctx, userID)
	if err != nil {
		c.log.Warn("status failed", logger.String("user_id", userID), logger.Error(err))
		return "Couldn't read your connections, please try again later."
	}

	var sb strings.Builder
	for i, kind := range domain.ServiceKinds {
		if i > 0 {
			sb.WriteString("\n")
		}
		state := "not connected"
		if status[kind] {
			state = "connected"
		}
		fmt.Fprintf(&sb, "%s: %s", c.settings.DisplayName(kind), state)
	}
	return sb.String()
}

func (c *Commands) usage() string {
	pad := strings.Repeat(" ", len(c.name)+1)
	return fmt.Sprintf("```Usage:\n"+
		"%s connect goodreads    connect your %s account\n"+
		"%sconnect pocket       connect your %s account\n"+
		"%sdisconnect <service> forget a connected account\n"+
		"%sstatus               show your connections\n"+
		"%shelp                 this message\n"+
		"React with :%s: to a message to save its links.```",
		c.name, c.settings.DisplayName(domain.CatalogService),
		pad, c.settings.DisplayName(domain.ReadLaterService),
		pad, pad, pad, c.reaction)
}
