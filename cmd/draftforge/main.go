package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/draftforge/draftforge/config"
	"github.com/draftforge/draftforge/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	app, err := bootstrap.BuildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(app)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting draftforge service",
		"services", cfg.Services,
		"quality_threshold", cfg.Pipeline.QualityThreshold,
		"max_iterations", cfg.Pipeline.MaxIterations,
		"inbox_interval", cfg.Inbox.CheckInterval.String())
}
