package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftforge/draftforge/config"
	"github.com/draftforge/draftforge/internal/adapters/poller"
	"github.com/draftforge/draftforge/internal/adapters/sweeper"
	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	"github.com/draftforge/draftforge/internal/domain/pipeline"
	"github.com/draftforge/draftforge/internal/guardrail"
	"github.com/draftforge/draftforge/internal/observability/statsd"
	"github.com/draftforge/draftforge/internal/service"
	"github.com/draftforge/draftforge/internal/store"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// App holds the wired application services.
type App struct {
	Config       *config.AppConfig
	Logger       *slog.Logger
	Store        *store.MemoryStore
	Orchestrator *service.Orchestrator
	Sweeper      *sweeper.Runner
	Metrics      statsd.Sink

	pool *pgxpool.Pool
}

// BuildApp wires adapters and services for the enabled service modes.
func BuildApp(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateServiceConfig(cfg); err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store.NewMemoryStore(),
		Metrics: BuildMetricsSink(logger, cfg.Observability.Metrics),
	}

	if cfg.IsOrchestratorEnabled() {
		if err := buildOrchestrator(ctx, app); err != nil {
			app.Close()
			return nil, err
		}
	}

	if cfg.IsSweeperEnabled() {
		sweepRunner, err := sweeper.NewRunner(sweeper.Options{
			Store:     app.Store,
			Interval:  cfg.Sweeper.Interval,
			Retention: cfg.Sweeper.Retention,
			Logger:    logger,
			Metrics:   app.Metrics,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("build sweeper: %w", err)
		}
		app.Sweeper = sweepRunner
	}

	return app, nil
}

// buildOrchestrator wires the guardrail, pipeline runner, orchestrator, and
// inbox poller.
func buildOrchestrator(ctx context.Context, app *App) error {
	cfg := app.Config
	logger := app.Logger

	genClient, err := BuildGenerationClient(logger, cfg.Generation)
	if err != nil {
		return fmt.Errorf("build generation client: %w", err)
	}
	mailClient, err := BuildMailGatewayClient(logger, cfg.MailGateway)
	if err != nil {
		return fmt.Errorf("build mail gateway client: %w", err)
	}

	var recorders []core.JobArchive
	if mirror := BuildRedisMirror(cfg.Redis, cfg.Sweeper); mirror != nil {
		recorders = append(recorders, mirror)
	}
	archive, pool, err := BuildJobArchive(ctx, logger, cfg.Postgres)
	if err != nil {
		return err
	}
	if archive != nil {
		app.pool = pool
		recorders = append(recorders, archive)
	}

	policy, err := pipeline.NewLoopPolicy(cfg.Pipeline.QualityThreshold, cfg.Pipeline.MaxIterations)
	if err != nil {
		return fmt.Errorf("build loop policy: %w", err)
	}

	checker := guardrail.NewChecker(guardrail.Options{
		Moderator: genClient,
		Logger:    logger,
		MinLength: cfg.Pipeline.MinTopicLength,
		MaxLength: cfg.Pipeline.MaxTopicLength,
	})

	runner, err := service.NewPipelineRunner(service.PipelineRunnerOptions{
		Generator: genClient,
		Sink:      mailClient,
		Store:     app.Store,
		Policy:    policy,
		CapState:  cfg.Pipeline.ParsedCapState(),
		Logger:    logger,
		Metrics:   app.Metrics,
		Recorders: recorders,
	})
	if err != nil {
		return fmt.Errorf("build pipeline runner: %w", err)
	}

	orch, err := service.NewOrchestrator(service.OrchestratorOptions{
		Store:         app.Store,
		Guardrail:     checker,
		Runner:        runner,
		Logger:        logger,
		Metrics:       app.Metrics,
		Recorders:     recorders,
		MaxConcurrent: int64(cfg.Orchestrator.MaxConcurrent),
	})
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	pollRunner, err := poller.NewRunner(poller.Options{
		Inbox:          mailClient,
		Submitter:      orch,
		Interval:       cfg.Inbox.CheckInterval,
		SubjectPrefix:  cfg.Inbox.SubjectPrefix,
		AllowedSenders: cfg.Inbox.AllowedSenders,
		DefaultFormat:  model.OutputFormat(cfg.Inbox.DefaultFormat),
		Logger:         logger,
		Metrics:        app.Metrics,
	})
	if err != nil {
		return fmt.Errorf("build inbox poller: %w", err)
	}
	orch.SetPoller(pollRunner)

	app.Orchestrator = orch
	return nil
}

// Close releases application resources. Safe to call more than once.
func (a *App) Close() {
	if a.Orchestrator != nil {
		a.Orchestrator.Close()
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// RunServicesWithShutdown starts the enabled services and blocks until a
// shutdown signal is received or a service fails.
func RunServicesWithShutdown(app *App) error {
	if app == nil {
		return errors.New("app is required")
	}
	logger := app.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	if app.Orchestrator != nil && app.Config.Orchestrator.PollOnStart {
		app.Orchestrator.StartPolling()
	}

	var sweeperDone chan struct{}
	if app.Sweeper != nil {
		sweeperDone = make(chan struct{})
		go func() {
			defer close(sweeperDone)
			if err := app.Sweeper.Run(ctx); err != nil {
				select {
				case errCh <- fmt.Errorf("sweeper failed: %w", err):
				default:
					logger.WarnContext(ctx, "dropping sweeper error", "error", err)
				}
			}
		}()
		logger.InfoContext(ctx, "background service started", "service", "sweeper")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down services...")
	case err := <-errCh:
		logger.Error("service error", "error", err)
		runErr = err
	}

	cancel()
	app.Close()
	waitForService(sweeperDone, "sweeper", logger)
	return runErr
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
