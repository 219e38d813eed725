package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jobhunterui/cvgen/api"
	"github.com/jobhunterui/cvgen/config"
	appconfig "github.com/jobhunterui/cvgen/core/config"
	"github.com/jobhunterui/cvgen/core/logger"
	"github.com/jobhunterui/cvgen/core/server"
	"github.com/jobhunterui/cvgen/integration/redis"
	"github.com/jobhunterui/cvgen/pkg/cvgen"
	"github.com/jobhunterui/cvgen/pkg/quota"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("service exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg config.Config
	if err := appconfig.Load(&cfg); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate configuration: %w", err)
	}

	logOpt := logger.WithDevelopment("cvgen")
	if cfg.IsProduction() {
		logOpt = logger.WithProduction("cvgen")
	}
	log := logger.New(logOpt)

	store, storeRun, readiness, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.QuotaTimezone)
	if err != nil {
		return fmt.Errorf("load quota timezone: %w", err)
	}

	policy, err := quota.NewPolicy(store, quota.Config{
		Limits: map[string]int{
			"free":    cfg.FreeDailyQuota,
			"premium": cfg.PremiumDailyQuota,
		},
		DefaultTier: "free",
		Location:    loc,
		Period:      cfg.QuotaPeriod,
		FailOpen:    cfg.QuotaFailOpen,
	}, quota.WithPolicyLogger(log))
	if err != nil {
		return fmt.Errorf("create quota policy: %w", err)
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create CV generator: %w", err)
	}

	handler := api.NewRouter(api.RouterConfig{
		Logger:          log,
		Generator:       gen,
		Policy:          policy,
		AllowOrigins:    cfg.AllowedOrigins,
		Registry:        prometheus.NewRegistry(),
		ReadinessChecks: []func(context.Context) error{readiness},
	})

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.InfoContext(ctx, "starting service",
		slog.String("addr", cfg.Server.Addr),
		slog.String("provider", cfg.Provider),
		slog.String("environment", cfg.Environment))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(ctx, handler))
	if storeRun != nil {
		g.Go(storeRun(ctx))
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newStore selects the quota backend. With REDIS_URL set the service uses
// Redis so counters survive restarts and are shared across instances;
// otherwise it falls back to the in-memory store, whose sweep loop is
// returned for the errgroup.
func newStore(ctx context.Context, cfg config.Config, log *slog.Logger) (quota.Store, func(context.Context) func() error, func(context.Context) error, error) {
	if cfg.Redis.ConnectionURL == "" {
		mem := quota.NewMemoryStore(quota.WithMemoryStoreLogger(log))
		return mem, mem.Run, mem.Healthcheck, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	rs, err := quota.NewRedisStore(client)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create redis quota store: %w", err)
	}
	return rs, nil, rs.Healthcheck, nil
}

func newGenerator(ctx context.Context, cfg config.Config) (cvgen.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return cvgen.NewOpenAI(cfg.OpenAIAPIKey, cvgen.WithOpenAIModel(cfg.OpenAIModel))
	default:
		return cvgen.NewGemini(ctx, cfg.GeminiAPIKey, cvgen.WithGeminiModel(cfg.GeminiModel))
	}
}
