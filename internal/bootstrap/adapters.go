package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/draftforge/draftforge/config"
	"github.com/draftforge/draftforge/internal/adapters/generation"
	"github.com/draftforge/draftforge/internal/adapters/mailgw"
	"github.com/draftforge/draftforge/internal/data"
	"github.com/draftforge/draftforge/internal/observability/statsd"
	"github.com/draftforge/draftforge/internal/store"
)

// BuildMetricsSink configures the StatsD client when metrics are enabled.
// Returns nil when disabled; callers treat a nil sink as a no-op.
func BuildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) statsd.Sink {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// BuildGenerationClient constructs the generation gateway client.
func BuildGenerationClient(
	logger *slog.Logger,
	cfg config.GenerationConfig,
) (*generation.Client, error) {
	return generation.NewClient(generation.Options{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
		TextPath: cfg.TextPath,
		RPS:      cfg.RPS,
		Burst:    cfg.Burst,
		Logger:   logger,
	})
}

// BuildMailGatewayClient constructs the mail gateway client.
func BuildMailGatewayClient(
	logger *slog.Logger,
	cfg config.MailGatewayConfig,
) (*mailgw.Client, error) {
	return mailgw.NewClient(mailgw.Options{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
}

// BuildRedisMirror constructs the terminal job snapshot mirror when Redis is
// enabled. Returns nil when disabled.
func BuildRedisMirror(cfg config.RedisConfig, sweeper config.SweeperConfig) *store.RedisMirror {
	if !cfg.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return store.NewRedisMirror(client, sweeper.Retention)
}

// BuildJobArchive opens the PostgreSQL pool and constructs the job archive
// when the database is enabled. Returns a nil archive when disabled; the
// caller owns closing the returned pool.
func BuildJobArchive(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.DBConfig,
) (*data.JobArchive, *pgxpool.Pool, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if cfg.RunMigrationsOnStart {
		if err := data.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply archive schema: %w", err)
		}
		logger.Info("job archive schema applied")
	}
	return data.NewJobArchive(pool), pool, nil
}
