package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/mw"
)

func init() { Register("slack", registerSlack) }

func registerSlack(r chi.Router, d deps.Deps) {
	r.Route("/slack", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger), mw.VerifySlack(d.SigningSecret, d.Logger))

		r.Post("/events", handlers.SlackEvents(d))
		r.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.CommandRateBurst,
			RefillPerMin: d.CommandRatePerMin,
			MaxEntries:   10000,
			Key:          mw.SlackUserKey,
			OnLimited:    handlers.RateLimited,
		})).Post("/commands", handlers.SlackCommands(d))
	})
}
