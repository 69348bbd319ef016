package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Build         buildInfo         `json:"build"`
	Services      map[string]string `json:"services"`
}

// Healthz is the liveness probe. It never touches Redis or the remote services;
// it only reports which services links are routed to.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	routedTo := map[string]string{
		"catalog":    d.Settings.CatalogName,
		"read_later": d.Settings.ReadLaterName,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(start).Seconds(),
			Build:         build,
			Services:      routedTo,
		})
	}
}
