package routes

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	group string
	reg   Registrar
}

var registry []entry

// Register adds a route group. Called from init() in each routes file.
func Register(group string, reg Registrar) {
	registry = append(registry, entry{group: group, reg: reg})
}

// RegisterAll mounts every group in name order, so the router does not depend on file init order.
// Called once from server.NewRouter().
func RegisterAll(r chi.Router, d deps.Deps) {
	entries := append([]entry(nil), registry...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].group < entries[j].group })

	for _, e := range entries {
		e.reg(r, d)
	}

	if d.Logger != nil {
		d.Logger.Debug("routes registered", logger.Strings("routes", List(r)))
	}
}

// List returns "METHOD /pattern" for every mounted route, sorted.
func List(r chi.Routes) []string {
	var out []string
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+strings.TrimSuffix(route, "/*"))
		return nil
	})
	sort.Strings(out)
	return out
}
