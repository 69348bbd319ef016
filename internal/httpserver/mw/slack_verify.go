package mw

import (
	"bytes"
	"io"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/MrSnakeDoc/readbot/internal/logger"
)

// maxSlackBody caps request bodies read for signature verification.
const maxSlackBody = 1 << 20

// VerifySlack rejects requests not signed with the Slack signing secret
// (v0 HMAC-SHA256 over timestamp and body, timestamp within 5 minutes).
// The body is restored for the next handler.
func VerifySlack(signingSecret string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxSlackBody))
			if err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			sv, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				log.Warn("slack request rejected",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
			if _, err := sv.Write(body); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			if err := sv.Ensure(); err != nil {
				log.Warn("slack signature mismatch",
					logger.String("path", r.URL.Path),
					logger.String("remote_ip", r.RemoteAddr))
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
