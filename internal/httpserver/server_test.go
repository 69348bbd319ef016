package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/metrics"
	"github.com/MrSnakeDoc/readbot/internal/oauth"
	"github.com/MrSnakeDoc/readbot/internal/sources/services"
)

const testSecret = "signing-secret"

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeEvents struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeEvents) MarkEvent(_ context.Context, id string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

type fakeBot struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	events []slackevents.EventsAPIInnerEvent
}

func (b *fakeBot) Dispatch(_ context.Context, ev slackevents.EventsAPIInnerEvent) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *fakeBot) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

type fakeCommands struct {
	delay time.Duration
}

func (c fakeCommands) Run(_ context.Context, userID, text string) string {
	time.Sleep(c.delay)
	return "ran " + text + " for " + userID
}

type fakeAuth struct {
	err    error
	userID string
	kind   domain.ServiceKind
	cb     oauth.Callback
}

func (a *fakeAuth) Complete(_ context.Context, userID string, kind domain.ServiceKind, cb oauth.Callback) error {
	a.userID, a.kind, a.cb = userID, kind, cb
	return a.err
}

type testEnv struct {
	handler http.Handler
	bot     *fakeBot
	auth    *fakeAuth
}

func newTestEnv(t *testing.T, mutate func(d *deps.Deps)) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordSlackEvent("message")

	env := &testEnv{bot: &fakeBot{}, auth: &fakeAuth{}}
	d := deps.Deps{
		Logger:            logger.NewNop(),
		StartTime:         time.Now(),
		Version:           "test",
		SigningSecret:     testSecret,
		EventTTL:          time.Minute,
		CommandRateBurst:  5,
		CommandRatePerMin: 5,
		Store:             fakePinger{},
		Events:            &fakeEvents{seen: map[string]bool{}},
		Bot:               env.bot,
		Commands:          fakeCommands{},
		OAuth:             env.auth,
		Settings:          services.Defaults(),
		Metrics:           reg,
	}
	if mutate != nil {
		mutate(&d)
	}
	env.handler = NewRouter(logger.NewNop(), 5*time.Second, d)
	return env
}

func signedRequest(path, contentType, body string) *http.Request {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSlackEvents_URLVerification(t *testing.T) {
	env := newTestEnv(t, nil)

	w := serve(env.handler, signedRequest("/slack/events", "application/json",
		`{"token":"t","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P" {
		t.Errorf("body = %q", w.Body.String())
	}
}

const reactionCallback = `{"token":"t","team_id":"T1","api_app_id":"A1","type":"event_callback","event_id":"Ev1","event_time":1,
"event":{"type":"reaction_added","user":"U2","reaction":"bookmark","item":{"type":"message","channel":"C1","ts":"1.0"},"event_ts":"1.1"}}`

func TestSlackEvents_CallbackDispatchedOnce(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 2; i++ {
		w := serve(env.handler, signedRequest("/slack/events", "application/json", reactionCallback))
		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d", i, w.Code)
		}
	}

	if len(env.bot.events) != 1 {
		t.Fatalf("dispatched %d events, want 1", len(env.bot.events))
	}
	ev, ok := env.bot.events[0].Data.(*slackevents.ReactionAddedEvent)
	if !ok || ev.Reaction != "bookmark" || ev.Item.Channel != "C1" || ev.Item.Timestamp != "1.0" {
		t.Errorf("event = %#v", env.bot.events[0].Data)
	}
}

func TestSlackEvents_RejectsUnsigned(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(reactionCallback))
	w := serve(env.handler, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(env.bot.events) != 0 {
		t.Error("unsigned event must not be dispatched")
	}
}

func commandBody(text, responseURL string) string {
	return url.Values{
		"command":      {"/readbot"},
		"text":         {text},
		"user_id":      {"U1"},
		"channel_id":   {"C1"},
		"response_url": {responseURL},
	}.Encode()
}

func TestSlackCommands_InlineReply(t *testing.T) {
	env := newTestEnv(t, nil)

	w := serve(env.handler, signedRequest("/slack/commands", "application/x-www-form-urlencoded", commandBody("status", "")))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var msg slack.Msg
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if msg.ResponseType != slack.ResponseTypeEphemeral || msg.Text != "ran status for U1" {
		t.Errorf("reply = %+v", msg)
	}
}

func TestSlackCommands_DelayedReply(t *testing.T) {
	delivered := make(chan slack.WebhookMessage, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg slack.WebhookMessage
		_ = json.NewDecoder(r.Body).Decode(&msg)
		delivered <- msg
	}))
	defer hook.Close()

	env := newTestEnv(t, func(d *deps.Deps) {
		d.Commands = fakeCommands{delay: 200 * time.Millisecond}
		d.CommandReplyTimeout = 20 * time.Millisecond
	})

	w := serve(env.handler, signedRequest("/slack/commands", "application/x-www-form-urlencoded", commandBody("connect pocket", hook.URL)))

	var msg slack.Msg
	_ = json.Unmarshal(w.Body.Bytes(), &msg)
	if !strings.Contains(msg.Text, "Working on it") {
		t.Errorf("placeholder = %q", msg.Text)
	}

	select {
	case got := <-delivered:
		if got.Text != "ran connect pocket for U1" || got.ResponseType != slack.ResponseTypeEphemeral {
			t.Errorf("delayed reply = %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("delayed reply never delivered")
	}
	env.bot.wg.Wait()
}

func TestSlackCommands_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.CommandRateBurst = 1
		d.CommandRatePerMin = 1
	})

	serve(env.handler, signedRequest("/slack/commands", "application/x-www-form-urlencoded", commandBody("help", "")))
	w := serve(env.handler, signedRequest("/slack/commands", "application/x-www-form-urlencoded", commandBody("help", "")))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Slow down") {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestOAuthCallback(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantCB     oauth.Callback
		wantBody   string
	}{
		{
			name:       "goodreads authorized",
			path:       "/auth/goodreads/U1?oauth_token=rt&authorize=1",
			wantStatus: http.StatusOK,
			wantCB:     oauth.Callback{Token: "rt", Authorized: true},
			wantBody:   "Goodreads account is connected",
		},
		{
			name:       "goodreads denied",
			path:       "/auth/goodreads/U1?oauth_token=rt&authorize=0",
			err:        oauth.ErrAuthorizationDenied,
			wantStatus: http.StatusBadRequest,
			wantCB:     oauth.Callback{Token: "rt"},
			wantBody:   "access was not granted",
		},
		{
			name:       "pocket",
			path:       "/auth/pocket/U1",
			wantStatus: http.StatusOK,
			wantCB:     oauth.Callback{Authorized: true},
			wantBody:   "Pocket account is connected",
		},
		{
			name: "remote failure",
			path: "/auth/pocket/U1",
			err: &domain.RemoteError{Service: domain.ReadLaterService, Op: domain.OpAccessToken,
				Err: errors.New("status 403: User rejected code.")},
			wantStatus: http.StatusBadGateway,
			wantCB:     oauth.Callback{Authorized: true},
			wantBody:   "status 403: User rejected code.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.auth.err = tt.err

			w := serve(env.handler, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if env.auth.userID != "U1" || env.auth.cb != tt.wantCB {
				t.Errorf("Complete(%q, %+v)", env.auth.userID, env.auth.cb)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestOAuthCallback_UnknownService(t *testing.T) {
	env := newTestEnv(t, nil)

	w := serve(env.handler, httptest.NewRequest(http.MethodGet, "/auth/myspace/U1", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if env.auth.userID != "" {
		t.Error("Complete must not be called for an unknown service")
	}
}

func TestProbesAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	if w := serve(env.handler, httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusOK ||
		!strings.Contains(w.Body.String(), `"read_later":"Pocket"`) {
		t.Errorf("healthz = %d %q", w.Code, w.Body.String())
	}
	if w := serve(env.handler, httptest.NewRequest(http.MethodGet, "/readyz", nil)); w.Code != http.StatusOK {
		t.Errorf("readyz = %d", w.Code)
	}

	w := serve(env.handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if w.Code != http.StatusOK || !strings.Contains(string(body), "readbot_slack_events_total") {
		t.Errorf("metrics = %d %q", w.Code, body)
	}

	down := newTestEnv(t, func(d *deps.Deps) { d.Store = fakePinger{err: errors.New("dial tcp: refused")} })
	if w := serve(down.handler, httptest.NewRequest(http.MethodGet, "/readyz", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with redis down = %d, want 503", w.Code)
	}
}
