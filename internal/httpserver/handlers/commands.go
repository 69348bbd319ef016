package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/logger"
)

// DefaultCommandReplyTimeout leaves headroom under Slack's 3 second limit.
const DefaultCommandReplyTimeout = 2500 * time.Millisecond

const (
	// maxCommandRun bounds a command that had to be answered through response_url.
	maxCommandRun = time.Minute
	// webhookTimeout bounds the delivery of a delayed reply.
	webhookTimeout = 10 * time.Second
)

const pendingReply = "Working on it, I'll get back to you in a moment."

// SlackCommands answers the slash command. Replies are ephemeral. A command
// that cannot finish in time gets a placeholder now and its real answer
// through the command's response_url.
func SlackCommands(d deps.Deps) http.HandlerFunc {
	timeout := d.CommandReplyTimeout
	if timeout <= 0 {
		timeout = DefaultCommandReplyTimeout
	}

	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		d.Logger.Info("slash command",
			logger.String("user_id", cmd.UserID),
			logger.String("command", cmd.Command),
			logger.String("text", cmd.Text))

		replies := make(chan string, 1)
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), maxCommandRun)
		d.Bot.Go(func() {
			defer cancel()
			replies <- d.Commands.Run(runCtx, cmd.UserID, cmd.Text)
		})

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case text := <-replies:
			writeEphemeral(w, text)
		case <-timer.C:
			writeEphemeral(w, pendingReply)
			d.Bot.Go(func() {
				text := <-replies
				if cmd.ResponseURL == "" {
					return
				}
				postCtx, cancelPost := context.WithTimeout(context.WithoutCancel(r.Context()), webhookTimeout)
				defer cancelPost()
				err := slack.PostWebhookContext(postCtx, cmd.ResponseURL, &slack.WebhookMessage{
					Text:         text,
					ResponseType: slack.ResponseTypeEphemeral,
				})
				if err != nil {
					d.Logger.Warn("failed to deliver delayed command reply",
						logger.String("user_id", cmd.UserID),
						logger.Error(err))
				}
			})
		}
	}
}

// RateLimited is the slash command answer when a user types too fast.
// Slack only displays 200 responses, so the status stays OK.
func RateLimited(w http.ResponseWriter, _ *http.Request, retryAfterSec int) {
	writeEphemeral(w, "Slow down a little, try again in a minute.")
}

func writeEphemeral(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         text,
	})
}
