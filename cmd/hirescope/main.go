package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hirescope/hirescope/internal/analyzer"
	"github.com/hirescope/hirescope/internal/cachestore"
	"github.com/hirescope/hirescope/internal/config"
	"github.com/hirescope/hirescope/internal/githubapi"
	"github.com/hirescope/hirescope/internal/health"
	"github.com/hirescope/hirescope/internal/llm"
	"github.com/hirescope/hirescope/internal/metrics"
	"github.com/hirescope/hirescope/internal/notify"
	"github.com/hirescope/hirescope/internal/promptcache"
	"github.com/hirescope/hirescope/internal/server"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Str("llm_model", cfg.LLMModel).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting hirescope")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Metrics
	m := metrics.New()

	// Prompt cache backing store
	store, err := cachestore.New(cfg.CacheDBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CacheDBPath).Msg("failed to open cache store")
	}
	defer store.Close()

	// GitHub GraphQL client
	github := githubapi.NewClient(cfg.GitHubToken,
		githubapi.WithEndpoint(cfg.GitHubGraphQLURL),
		githubapi.WithLogger(logger),
		githubapi.WithMetrics(m),
	)

	// LLM client wrapped in the prompt cache
	openai := llm.NewOpenAIClient(cfg.LLMAPIKey,
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithModel(cfg.LLMModel),
		llm.WithLogger(logger),
		llm.WithMetrics(m),
	)
	summarizer := promptcache.New(openai, store, cfg.CacheTTL,
		promptcache.WithHotSize(cfg.CacheHotSize),
		promptcache.WithLogger(logger),
		promptcache.WithMetrics(m),
	)

	// Health checks
	checker := health.NewChecker(logger)
	ghProbe := githubapi.NewRESTProbe(cfg.GitHubToken, logger)
	checker.Register("github", ghProbe.Check)
	checker.Register("cache", func(ctx context.Context) health.Status {
		if err := store.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Analyzer
	manifests, err := analyzer.LoadManifests(cfg.ManifestsFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.ManifestsFile).Msg("failed to load manifest list")
	}
	core := analyzer.New(github, summarizer, analyzer.Config{
		ReadmeBudget: cfg.ReadmeBudget,
		ConfigBudget: cfg.ConfigBudget,
		Manifests:    manifests,
	}, logger)

	if cfg.SlackEnabled() {
		core.SetNotifier(notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, logger))
		logger.Info().Str("channel", cfg.SlackChannel).Msg("Slack notifications enabled")
	}

	// Cache retention sweep
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.RunRetention(ctx); err != nil {
					logger.Warn().Err(err).Msg("cache retention sweep failed")
				}
			}
		}
	}()

	// HTTP server
	handlers := server.NewHandlers(github, core, checker, m, logger)
	srv := server.New(server.Config{
		ListenAddr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Auth: server.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		RateLimit: server.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Warm the readiness cache before traffic arrives.
	checker.RunAll(ctx)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server exited")
		}
	}

	cancel()
	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("hirescope stopped")
}
