// Package main is the entry point for the feed API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/mentorfeed/internal/api"
	"github.com/onnwee/mentorfeed/internal/auth"
	"github.com/onnwee/mentorfeed/internal/avatar"
	"github.com/onnwee/mentorfeed/internal/cache"
	"github.com/onnwee/mentorfeed/internal/candidate"
	"github.com/onnwee/mentorfeed/internal/config"
	"github.com/onnwee/mentorfeed/internal/db"
	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/health"
	"github.com/onnwee/mentorfeed/internal/middleware"
	"github.com/onnwee/mentorfeed/internal/ranking"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "optional YAML config file (environment variables take precedence)")
	flag.Parse()

	if *help {
		fmt.Println("Mentor Feed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if cfg == nil || len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run wires the components, serves until SIGINT or SIGTERM, then shuts down.
func run(cfg *config.Config, logger *slog.Logger) error {
	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporterType,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: cfg.TracingInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	database, err := db.Open(context.Background(), cfg.DatabaseURL, db.PoolConfig{})
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.VerifySchema(context.Background(), database, cfg.DatabaseSchema); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics()
	feedMetrics := feed.NewMetrics()
	rankingMetrics := ranking.NewMetrics()
	cacheMetrics := cache.NewMetrics()
	for name, m := range map[string]interface {
		Register(prometheus.Registerer) error
	}{
		"http":    httpMetrics,
		"feed":    feedMetrics,
		"ranking": rankingMetrics,
		"cache":   cacheMetrics,
	} {
		if err := m.Register(registry); err != nil {
			return fmt.Errorf("failed to register %s metrics: %w", name, err)
		}
	}

	repo := candidate.NewPostgresRepository(database, cfg.DatabaseSchema)

	feedCache, err := newFeedCache(cfg, redisClient, cacheMetrics, logger)
	if err != nil {
		return err
	}
	ranker, breaker, err := newRanker(cfg, rankingMetrics, logger)
	if err != nil {
		return err
	}
	avatars, err := newAvatarResolver(cfg)
	if err != nil {
		return err
	}

	service := feed.NewService(
		repo,
		ranker,
		feedCache,
		feed.NewPresenter(avatars, logger),
		feedMetrics,
		logger,
		feed.ServiceConfig{
			FetchLimit:     cfg.FeedFetchLimit,
			CacheKeyPrefix: cfg.CacheKeyPrefix,
		},
	)

	healthCfg := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(database)}
	if redisClient != nil {
		healthCfg.RedisChecker = health.NewRedisChecker(redisClient)
	}
	if breaker != nil {
		healthCfg.BreakerChecker = health.NewBreakerChecker(breaker)
	}

	deps := routerDeps{
		feeds:       api.NewFeedHandlers(service, api.NewViewerResolver(repo, logger), logger),
		health:      api.NewHealthHandlers(healthCfg),
		validator:   auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTSecretPrevious),
		logger:      logger,
		httpMetrics: httpMetrics,
		registry:    registry,
		cors:        middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins, MaxAge: 600},
	}
	if cfg.RateLimitEnabled && redisClient != nil {
		deps.rateStore = middleware.NewRedisRateLimitStore(redisClient).
			WithMetrics(httpMetrics).
			WithLogger(logger)
		deps.rateLimit = middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimitRequests,
			WindowDuration:    cfg.RateLimitWindow(),
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: newRouter(deps),
		// Ranked misses wait on the oracle, so writes get the oracle timeout on top.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RankingTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serve(server, logger)
}

// serve runs server until SIGINT or SIGTERM and then drains it.
func serve(server *http.Server, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// newFeedCache returns nil when caching is disabled.
func newFeedCache(cfg *config.Config, client *redis.Client, metrics *cache.Metrics, logger *slog.Logger) (feed.Cache, error) {
	if !cfg.CacheEnabled || client == nil {
		logger.Info("feed cache disabled")
		return nil, nil
	}
	codec, err := cache.NewCodec(cfg.CacheCodec)
	if err != nil {
		return nil, err
	}
	return cache.NewFeedCache(cache.NewRedisStore(client), cache.FeedCacheConfig{
		TTL:     cfg.CacheTTL(),
		Codec:   codec,
		Backend: "redis",
	}, metrics, logger), nil
}

// newRanker returns a nil ranker when no oracle is configured; feeds then keep store order.
func newRanker(cfg *config.Config, metrics *ranking.Metrics, logger *slog.Logger) (feed.Ranker, *ranking.Breaker, error) {
	if cfg.RankingAPIURL == "" {
		logger.Warn("RANKING_API_URL not set, feeds will not be ranked")
		return nil, nil, nil
	}

	prompts, err := ranking.LoadPrompts(cfg.RankingPromptsFile)
	if err != nil {
		logger.Warn("using default ranking prompts", "error", err)
	}
	prompts.Model = cfg.RankingModel

	var breaker *ranking.Breaker
	if cfg.RankingBreakerEnabled {
		breaker = ranking.NewBreaker(ranking.DefaultBreakerConfig(), metrics, logger)
	}

	client, err := ranking.NewClient(ranking.ClientConfig{
		URL:     cfg.RankingAPIURL,
		APIKey:  cfg.RankingAPIKey,
		Prompts: prompts,
		Timeout: cfg.RankingTimeout(),
		Breaker: breaker,
	}, metrics, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ranking client: %w", err)
	}
	return client, breaker, nil
}

func newAvatarResolver(cfg *config.Config) (feed.AvatarResolver, error) {
	if cfg.AvatarMode == config.AvatarModeR2 {
		resolver, err := avatar.NewPresignedResolver(avatar.R2Config{
			BucketName:       cfg.R2BucketName,
			AccessKeyID:      cfg.R2AccessKeyID,
			SecretAccessKey:  cfg.R2SecretAccessKey,
			Endpoint:         cfg.R2Endpoint,
			URLExpiryMinutes: cfg.R2URLExpiryMinutes,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create avatar resolver: %w", err)
		}
		return resolver, nil
	}
	resolver, err := feed.NewBaseURLAvatarResolver(cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_BASE_URL: %w", err)
	}
	return resolver, nil
}
