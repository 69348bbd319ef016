package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Notifier posts import results privately to the user who asked.
type Notifier struct {
	api *slack.Client
}

// NewNotifier creates a Notifier using the bot token. apiURL overrides the
// Slack API root (tests); leave empty in production.
func NewNotifier(botToken, apiURL string) *Notifier {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Notifier{api: slack.New(botToken, opts...)}
}

// PostEphemeral shows text to userID only, in channel.
func (n *Notifier) PostEphemeral(ctx context.Context, channel, userID, text string) error {
	_, err := n.api.PostEphemeralContext(ctx, channel, userID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post ephemeral message: %w", err)
	}
	return nil
}
