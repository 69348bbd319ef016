package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 10s, also bounds draining of in-flight imports

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	BaseURL          string        // public root of the bot, used in OAuth callback URLs (ex: https://readbot.domain.ext)
	ServiceFile      string        // optional services.yaml, empty => built-in defaults
	RemoteTimeout    time.Duration // bound on each Goodreads/Pocket call (default: 10s)
	BookmarkReaction string        // emoji name that triggers an import (default: bookmark)
	SlashCommand     string        // slash command name shown in help (default: /readbot)
	EventTTL         time.Duration // how long Slack event ids are remembered for dedupe (default: 10m)
	CommandReplyTime time.Duration // inline slash command budget before replying via response_url (default: 2.5s)

	// Slack
	SlackBotToken      string
	SlackSigningSecret string
	SlackAPIURL        string // optional, overrides https://slack.com/api/

	// Services
	GoodreadsKey    string
	GoodreadsSecret string
	PocketKey       string

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts      []string // optional, restrict Slack and OAuth routes to specific Host headers
	AllowedCIDRS      []string // optional, restrict readyz/metrics to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy        bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CommandRateBurst  int      // slash commands allowed in a burst, per Slack user
	CommandRatePerMin int      // slash command refill rate, per Slack user
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("READBOT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("READBOT_SHUTDOWN_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("READBOT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("READBOT_PRETTY_LOG", false),

		// Bot behaviour
		BaseURL:          requireURL("READBOT_BASE_URL"),
		ServiceFile:      getenv("READBOT_SERVICE_FILE", ""),
		RemoteTimeout:    mustDuration("READBOT_REMOTE_TIMEOUT", 10*time.Second),
		BookmarkReaction: strings.Trim(getenv("READBOT_BOOKMARK_REACTION", "bookmark"), ":"),
		SlashCommand:     getenv("READBOT_SLASH_COMMAND", "/readbot"),
		EventTTL:         mustDuration("READBOT_EVENT_TTL", 10*time.Minute),
		CommandReplyTime: mustDuration("READBOT_COMMAND_REPLY_TIMEOUT", 2500*time.Millisecond),

		// Slack
		SlackBotToken:      requireEnv("SLACK_BOT_TOKEN"),
		SlackSigningSecret: requireEnv("SLACK_SIGNING_SECRET"),
		SlackAPIURL:        getenv("SLACK_API_URL", ""),

		// Services
		GoodreadsKey:    requireEnv("GOODREADS_DEVELOPER_KEY"),
		GoodreadsSecret: requireEnv("GOODREADS_DEVELOPER_SECRET"),
		PocketKey:       requireEnv("POCKET_CONSUMER_KEY"),

		// Redis settings
		RedisAddr:             requireEnv("READBOT_REDIS_ADDR"),
		RedisUser:             getenv("READBOT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("READBOT_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("READBOT_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("READBOT_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:      splitAndTrim(getenv("READBOT_ALLOWED_HOSTS", "")),
		AllowedCIDRS:      parseAllowedIPs(getenv("READBOT_ALLOWED_CIDRS", "")),
		TrustProxy:        mustBool("READBOT_TRUST_PROXY", false),
		CommandRateBurst:  getenvInt("READBOT_COMMAND_RATE_BURST", 5),
		CommandRatePerMin: getenvInt("READBOT_COMMAND_RATE_PER_MIN", 10),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: READBOT_REDIS_PASSWORD is required when READBOT_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const hidden = "***REDACTED***"
	for _, s := range []*string{
		&c.RedisPassword,
		&c.SlackBotToken,
		&c.SlackSigningSecret,
		&c.GoodreadsKey,
		&c.GoodreadsSecret,
		&c.PocketKey,
	} {
		if *s != "" {
			*s = hidden
		}
	}
	if c.RedisUser != "" {
		c.RedisUser = hidden
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// requireURL reads an absolute http(s) URL and drops any trailing slash.
func requireURL(key string) string {
	v := requireEnv(key)
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("❌ FATAL: %s must be an absolute http(s) URL, got %q", key, v))
	}
	return strings.TrimRight(v, "/")
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
