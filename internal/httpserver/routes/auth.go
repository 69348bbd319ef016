package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/mw"
)

func init() { Register("auth", registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{Burst: 10, RefillPerMin: 10, MaxEntries: 10000, TrustProxy: d.TrustProxy}),
	).Get("/auth/{service}/{userID}", handlers.OAuthCallback(d))
}
