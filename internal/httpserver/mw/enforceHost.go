package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/utils"
)

// hostRules holds exact hosts and wildcard suffixes ("*.example.com" => ".example.com").
type hostRules struct {
	exact    map[string]struct{}
	suffixes []string
}

func newHostRules(patterns []string) hostRules {
	rules := hostRules{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
		case strings.HasPrefix(p, "*."):
			rules.suffixes = append(rules.suffixes, p[1:])
		default:
			rules.exact[utils.ParseHostNoPort(p)] = struct{}{}
		}
	}
	return rules
}

func (h hostRules) empty() bool { return len(h.exact) == 0 && len(h.suffixes) == 0 }

// match compares the Host header without its port, case-insensitively.
func (h hostRules) match(hostHeader string) bool {
	host := strings.ToLower(utils.ParseHostNoPort(hostHeader))
	if host == "" {
		return false
	}
	if _, ok := h.exact[host]; ok {
		return true
	}
	for _, s := range h.suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

// EnforceHost allows requests only if r.Host matches one of the allowed hosts.
// Supports wildcard patterns like "*.example.com". Guards the public routes
// (Slack and OAuth callbacks) against requests aimed at another virtual host.
// If allowedHosts is empty, it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	rules := newHostRules(allowedHosts)
	if rules.empty() {
		log.Debug("EnforceHost: no allowed hosts, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("EnforceHost: initialized", logger.Strings("hosts", allowedHosts))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rules.match(r.Host) {
				next.ServeHTTP(w, r)
				return
			}
			log.Warn("EnforceHost: request rejected",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
