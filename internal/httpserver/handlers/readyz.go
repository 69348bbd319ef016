package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/logger"
)

const readyzPingTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports whether the bot can serve: Redis holds every credential and
// message, so without it nothing works.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redisStatus := checkRedis(r.Context(), d)

		resp := readyzResponse{
			Ready:      redisStatus.OK,
			Components: map[string]componentStatus{"redis": redisStatus},
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if !resp.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "client not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, readyzPingTimeout)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		d.Logger.Warn("readiness check failed", logger.Error(err))
		return componentStatus{OK: false, Error: "unreachable"}
	}
	return componentStatus{OK: true}
}
