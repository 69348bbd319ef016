package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/slack-go/slack/slackevents"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/logger"
)

// SlackEvents receives Events API callbacks. The request is already signature
// checked. Slack expects an answer within 3 seconds, so events are
// acknowledged first and handled in the background.
func SlackEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
		if err != nil {
			d.Logger.Warn("invalid slack event", logger.Error(err))
			http.Error(w, "invalid event", http.StatusBadRequest)
			return
		}

		switch ev.Type {
		case slackevents.URLVerification:
			var challenge slackevents.ChallengeResponse
			if err := json.Unmarshal(body, &challenge); err != nil {
				http.Error(w, "invalid challenge", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(challenge.Challenge))

		case slackevents.CallbackEvent:
			if cb, ok := ev.Data.(*slackevents.EventsAPICallbackEvent); ok && cb.EventID != "" {
				fresh, err := d.Events.MarkEvent(r.Context(), cb.EventID, d.EventTTL)
				if err != nil {
					// Dedupe is best effort.
					d.Logger.Warn("event dedupe unavailable", logger.Error(err))
				} else if !fresh {
					d.Logger.Debug("duplicate slack event dropped", logger.String("event_id", cb.EventID))
					w.WriteHeader(http.StatusOK)
					return
				}
			}

			w.WriteHeader(http.StatusOK)
			d.Bot.Dispatch(context.WithoutCancel(r.Context()), ev.InnerEvent)

		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}
