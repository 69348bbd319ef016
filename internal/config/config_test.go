package config

import (
	"testing"
	"time"
)

func expectPanic(t *testing.T, name string) {
	t.Helper()
	if r := recover(); r == nil {
		t.Errorf("%s should have panicked", name)
	}
}

func TestRequireEnv(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	if got := requireEnv("SLACK_BOT_TOKEN"); got != "xoxb-1" {
		t.Errorf("requireEnv() = %q", got)
	}

	t.Setenv("POCKET_CONSUMER_KEY", "")
	defer expectPanic(t, "requireEnv()")
	requireEnv("POCKET_CONSUMER_KEY")
}

func TestRequireURL(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		want      string
		wantPanic bool
	}{
		{name: "trailing slash dropped", value: "https://readbot.example.com/", want: "https://readbot.example.com"},
		{name: "path kept", value: "http://10.0.0.5:8080/bot", want: "http://10.0.0.5:8080/bot"},
		{name: "no scheme", value: "readbot.example.com", wantPanic: true},
		{name: "unsupported scheme", value: "ftp://readbot.example.com", wantPanic: true},
		{name: "missing", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("READBOT_BASE_URL", tt.value)
			if tt.wantPanic {
				defer expectPanic(t, "requireURL()")
			}
			if got := requireURL("READBOT_BASE_URL"); got != tt.want {
				t.Errorf("requireURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{
			name:  "valid duration",
			value: "3s",
			check: func(t *testing.T) {
				if got := mustDuration("READBOT_REMOTE_TIMEOUT", time.Second); got != 3*time.Second {
					t.Errorf("mustDuration() = %v", got)
				}
			},
		},
		{
			name:  "invalid duration uses default",
			value: "soon",
			check: func(t *testing.T) {
				if got := mustDuration("READBOT_REMOTE_TIMEOUT", 10*time.Second); got != 10*time.Second {
					t.Errorf("mustDuration() = %v", got)
				}
			},
		},
		{
			name:  "valid bool",
			value: "true",
			check: func(t *testing.T) {
				if !mustBool("READBOT_REMOTE_TIMEOUT", false) {
					t.Error("mustBool() = false")
				}
			},
		},
		{
			name:  "invalid bool uses default",
			value: "yes please",
			check: func(t *testing.T) {
				if !mustBool("READBOT_REMOTE_TIMEOUT", true) {
					t.Error("mustBool() = false")
				}
			},
		},
		{
			name:  "invalid int uses default",
			value: "five",
			check: func(t *testing.T) {
				if got := getenvInt("READBOT_REMOTE_TIMEOUT", 5); got != 5 {
					t.Errorf("getenvInt() = %d", got)
				}
			},
		},
		{
			name:  "missing value uses default",
			value: "",
			check: func(t *testing.T) {
				if got := getenv("READBOT_REMOTE_TIMEOUT", "fallback"); got != "fallback" {
					t.Errorf("getenv() = %q", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("READBOT_REMOTE_TIMEOUT", tt.value)
			tt.check(t)
		})
	}
}


func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"READBOT_BASE_URL":           "https://readbot.example.com/",
		"SLACK_BOT_TOKEN":            "xoxb-1",
		"SLACK_SIGNING_SECRET":       "sign",
		"GOODREADS_DEVELOPER_KEY":    "grk",
		"GOODREADS_DEVELOPER_SECRET": "grs",
		"POCKET_CONSUMER_KEY":        "pk",
		"READBOT_REDIS_ADDR":         "localhost:6379",
		"READBOT_REDIS_PASSWORD":     "pw",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("READBOT_BOOKMARK_REACTION", ":books:")
	t.Setenv("READBOT_ALLOWED_CIDRS", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("READBOT_REMOTE_TIMEOUT", "3s")

	cfg := Load()

	if cfg.BaseURL != "https://readbot.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.BookmarkReaction != "books" {
		t.Errorf("BookmarkReaction = %q", cfg.BookmarkReaction)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[1] != "127.0.0.1" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if cfg.RemoteTimeout != 3*time.Second || cfg.EventTTL != 10*time.Minute {
		t.Errorf("timeouts = %v, %v", cfg.RemoteTimeout, cfg.EventTTL)
	}
	if cfg.SlashCommand != "/readbot" || cfg.ServiceFile != "" {
		t.Errorf("defaults = %q, %q", cfg.SlashCommand, cfg.ServiceFile)
	}
}

func TestLoad_PanicsOnInvalidBaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("READBOT_BASE_URL", "readbot.example.com")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should have panicked")
		}
	}()
	Load()
}

func TestRedacted(t *testing.T) {
	cfg := Config{SlackBotToken: "xoxb-secret", PocketKey: "pk", RedisAddr: "localhost:6379"}

	r := cfg.Redacted()

	if r.SlackBotToken == "xoxb-secret" || r.PocketKey == "pk" {
		t.Errorf("secrets not redacted: %+v", r)
	}
	if r.RedisAddr != "localhost:6379" || r.GoodreadsKey != "" {
		t.Errorf("non-secret fields changed: %+v", r)
	}
	if cfg.SlackBotToken != "xoxb-secret" {
		t.Error("Redacted must not modify the receiver")
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a.example.com , "b.example.com",, 'c' `)
	want := []string{"a.example.com", "b.example.com", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

