package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/readbot/internal/clients/goodreads"
	"github.com/MrSnakeDoc/readbot/internal/clients/pocket"
	"github.com/MrSnakeDoc/readbot/internal/config"
	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/httpserver"
	"github.com/MrSnakeDoc/readbot/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readbot/internal/importer"
	"github.com/MrSnakeDoc/readbot/internal/logger"
	"github.com/MrSnakeDoc/readbot/internal/metrics"
	"github.com/MrSnakeDoc/readbot/internal/oauth"
	"github.com/MrSnakeDoc/readbot/internal/redis"
	"github.com/MrSnakeDoc/readbot/internal/slackbot"
	"github.com/MrSnakeDoc/readbot/internal/sources/services"
	redisstore "github.com/MrSnakeDoc/readbot/internal/store/redis"
	"github.com/MrSnakeDoc/readbot/internal/utils"
	"github.com/MrSnakeDoc/readbot/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	bot         *slackbot.Bot
	redisClient *goredis.Client
}

// New loads the configuration and wires every component. ctx only bounds startup.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	settings, err := services.Load(cfg.ServiceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load service file: %w", err)
	}
	if cfg.ServiceFile != "" {
		loggerClient.Info("service file loaded",
			logger.String("file", cfg.ServiceFile),
			logger.Strings("retailers", settings.Retailers))
	}

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	store := redisstore.NewStore(redisClient)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	goodreadsClient := goodreads.NewClient(goodreads.Options{
		DeveloperKey:    cfg.GoodreadsKey,
		DeveloperSecret: cfg.GoodreadsSecret,
		BaseURL:         settings.CatalogBaseURL,
	})
	pocketClient := pocket.NewClient(pocket.Options{
		ConsumerKey: cfg.PocketKey,
		APIBase:     settings.ReadLaterAPIBase,
	})

	manager := oauth.NewManager(oauth.Options{
		Store: store,
		Providers: map[domain.ServiceKind]oauth.Provider{
			domain.CatalogService:   oauth.Goodreads(goodreadsClient),
			domain.ReadLaterService: oauth.Pocket(pocketClient),
		},
		BaseURL: cfg.BaseURL,
		Logger:  loggerClient.With(logger.Component("oauth")),
		Metrics: collector,
	})

	imp := importer.New(importer.Options{
		Credentials:   manager,
		Catalog:       goodreadsClient,
		ReadLater:     pocketClient,
		Settings:      settings,
		RemoteTimeout: cfg.RemoteTimeout,
		Logger:        loggerClient.With(logger.Component("importer")),
		Metrics:       collector,
	})

	bot := slackbot.New(slackbot.Options{
		Store:    store,
		Importer: imp,
		Notifier: slackbot.NewNotifier(cfg.SlackBotToken, cfg.SlackAPIURL),
		Reaction: cfg.BookmarkReaction,
		Logger:   loggerClient.With(logger.Component("slackbot")),
		Metrics:  collector,
	})

	commands := slackbot.NewCommands(slackbot.CommandOptions{
		Name:     cfg.SlashCommand,
		Manager:  manager,
		Settings: settings,
		Reaction: cfg.BookmarkReaction,
		Logger:   loggerClient.With(logger.Component("commands")),
	})

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:              loggerClient,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		AllowedHosts:        cfg.AllowedHosts,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		TrustProxy:          cfg.TrustProxy,
		SigningSecret:       cfg.SlackSigningSecret,
		EventTTL:            cfg.EventTTL,
		CommandReplyTimeout: cfg.CommandReplyTime,
		CommandRateBurst:    cfg.CommandRateBurst,
		CommandRatePerMin:   cfg.CommandRatePerMin,
		Store:               store,
		Events:              store,
		Bot:                 bot,
		Commands:            commands,
		OAuth:               manager,
		Settings:            settings,
		Metrics:             registry,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		bot:         bot,
		redisClient: redisClient,
	}, nil
}

// Run serves until ctx is done, then drains in-flight work within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting readbot v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("readbot %s", version.String())

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		utils.CloseLogged(a.redisClient, a.logger, "redis")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
	}

	// Imports and delayed replies still need redis and the remote services.
	if err := a.bot.Wait(shutdownCtx); err != nil {
		a.logger.Warn("in-flight imports abandoned at shutdown", logger.Error(err))
	}

	if utils.CloseLogged(a.redisClient, a.logger, "redis") {
		a.logger.Info("✅ Redis closed cleanly")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("✅ readbot stopped cleanly")
	return nil
}
