package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/mw"
	"github.com/MrSnakeDoc/readbot/internal/metrics"
)

func init() { Register("metrics", registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	if d.Metrics == nil {
		return
	}
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Handle("/metrics", metrics.Handler(d.Metrics))
}
