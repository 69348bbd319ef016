package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/utils"
)

// AllowOnlyCIDRS guards the operator endpoints (/readyz, /metrics): only
// callers whose IP matches one of allowed (IPs or CIDRs) get through.
// Slack routes are protected by request signatures instead.
// An empty or fully invalid list disables the filter.
// trustProxy should be true when running behind a trusted reverse proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("AllowOnlyCIDRS: no rules, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("AllowOnlyCIDRS: initialized",
		logger.Strings("rules", allowed),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if m.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			log.Warn("AllowOnlyCIDRS: request rejected",
				logger.String("ip", ip),
				logger.String("remote_addr", r.RemoteAddr),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
