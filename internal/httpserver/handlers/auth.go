package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/oauth"
)

var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>readbot</title></head>
<body>
{{if .OK}}<p>Thank you, your {{.Service}} account is connected. You can close this now.</p>
<script type="text/javascript">window.close()</script>
{{else}}<p>Sorry, connecting your {{.Service}} account failed: {{.Reason}}</p>
<p>Run the connect command in Slack to try again.</p>{{end}}
</body></html>
`))

type callbackView struct {
	OK      bool
	Service string
	Reason  string
}

// OAuthCallback is where the services redirect the user after authorization.
// The user id is a path segment because neither service echoes state back.
func OAuthCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseServiceKind(chi.URLParam(r, "service"))
		userID := chi.URLParam(r, "userID")
		if err != nil || userID == "" {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		cb := oauth.Callback{Token: q.Get("oauth_token"), Authorized: true}
		if kind == domain.CatalogService {
			cb.Authorized = q.Get("authorize") == "1"
		}

		view := callbackView{OK: true, Service: d.Settings.DisplayName(kind)}
		status := http.StatusOK
		if err := d.OAuth.Complete(r.Context(), userID, kind, cb); err != nil {
			view.OK = false
			view.Reason = callbackReason(err)
			status = http.StatusBadRequest
			var remote *domain.RemoteError
			if errors.As(err, &remote) {
				status = http.StatusBadGateway
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = callbackPage.Execute(w, view)
	}
}

func callbackReason(err error) string {
	var remote *domain.RemoteError
	switch {
	case errors.Is(err, oauth.ErrAuthorizationDenied):
		return "access was not granted."
	case errors.Is(err, oauth.ErrNoPendingRequest), errors.Is(err, oauth.ErrTokenMismatch):
		return "this link has expired or was already used."
	case errors.As(err, &remote):
		return remote.Detail()
	default:
		return "an internal error occurred."
	}
}
