package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lonshanworld/inventory-forecasting/ai"
	"github.com/lonshanworld/inventory-forecasting/archive"
	"github.com/lonshanworld/inventory-forecasting/config"
	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/forecast"
	"github.com/lonshanworld/inventory-forecasting/handlers"
	"github.com/lonshanworld/inventory-forecasting/ingest"
	"github.com/lonshanworld/inventory-forecasting/metrics"
	"github.com/lonshanworld/inventory-forecasting/routes"
	"github.com/lonshanworld/inventory-forecasting/scheduler"
)

const shutdownTimeout = 10 * time.Second

// application holds the long-lived handles shared by every command.
type application struct {
	cfg          config.Config
	logger       zerolog.Logger
	store        database.Store
	metrics      *metrics.Metrics
	orchestrator *forecast.Orchestrator
	ingest       *ingest.Service
	closers      []func()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if cfg.ForecastSchedule != "" {
		if err := scheduler.ValidateSpec(cfg.ForecastSchedule); err != nil {
			return config.Config{}, zerolog.Nop(), err
		}
	}
	return cfg, newLogger(cfg.LogLevel), nil
}

// openStore connects the configured backend, migrating Postgres when asked.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger, migrate bool) (database.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		return database.NewMemoryStore(), nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.RunMigrations(ctx, database.Migrations()); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func newArchiver(ctx context.Context, cfg config.Config, logger zerolog.Logger) (archive.Archiver, error) {
	if cfg.ArchiveBucket == "" {
		logger.Info().Msg("ARCHIVE_BUCKET not set; uploads are not archived")
		return archive.Nop{}, nil
	}
	return archive.LoadS3Archiver(ctx, cfg.AWSRegion, cfg.ArchiveBucket, cfg.ArchivePrefix)
}

// newApplication wires the pipeline. generator may be nil, in which case the
// one selected by cfg is built.
func newApplication(ctx context.Context, cfg config.Config, logger zerolog.Logger, generator ai.Generator) (*application, error) {
	app := &application{cfg: cfg, logger: logger, metrics: metrics.New()}

	store, err := openStore(ctx, cfg, logger, cfg.RunMigrations)
	if err != nil {
		return nil, err
	}
	app.store = store
	app.closers = append(app.closers, store.Close)

	if generator == nil {
		generator, err = ai.NewFromConfig(ctx, cfg)
		if err != nil {
			app.close()
			return nil, err
		}
		if c, ok := generator.(io.Closer); ok {
			app.closers = append(app.closers, func() { _ = c.Close() })
		}
	}

	archiver, err := newArchiver(ctx, cfg, logger)
	if err != nil {
		app.close()
		return nil, err
	}

	app.ingest = ingest.NewService(ingest.NewValidator(), store, archiver, app.metrics)
	app.orchestrator = forecast.NewOrchestrator(
		forecast.NewBuilder(store, store, cfg.ForecastMaxHistory),
		generator,
		store,
		forecast.WithRecorder(app.metrics),
	)
	return app, nil
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *application) fiberApp() *fiber.App {
	h := handlers.New(handlers.Deps{
		Ingest:      a.ingest,
		Forecasts:   a.orchestrator,
		Store:       a.store,
		DefaultDays: a.cfg.ForecastDefaultDays,
	})
	return routes.NewApp(h, routes.AppOptions{
		BodyLimit:    a.cfg.MaxUploadBytes,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		Logger:       a.logger,
		Recorder:     a.metrics,
		Metrics:      a.metrics.Handler(),
	})
}

func (a *application) scheduler() *scheduler.Scheduler {
	return scheduler.New(a.store, a.orchestrator, a.cfg.ForecastDefaultDays, a.metrics, a.logger)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.close()

	server := app.fiberApp()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.ServerAddr).Str("store", cfg.StoreBackend).
			Str("provider", cfg.AIProvider).Msg("server listening")
		if err := server.Listen(cfg.ServerAddr); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		return server.ShutdownWithTimeout(shutdownTimeout)
	})

	if cfg.ForecastSchedule != "" {
		sched := app.scheduler()
		g.Go(func() error { return sched.Run(gctx, cfg.ForecastSchedule) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("migrate: STORE_BACKEND is %q, migrations only apply to %q", cfg.StoreBackend, config.BackendPostgres)
	}

	store, err := openStore(cmd.Context(), cfg, logger, true)
	if err != nil {
		return err
	}
	store.Close()
	logger.Info().Msg("migrations applied")
	return nil
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if days, _ := cmd.Flags().GetInt("days"); days != 0 {
		if err := forecast.ValidateHorizon(days); err != nil {
			return err
		}
		cfg.ForecastDefaultDays = days
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.close()

	summary, err := app.scheduler().RunOnce(ctx)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		total := summary.Generated + summary.Skipped + summary.Failed
		return fmt.Errorf("regenerate: %d of %d products failed", summary.Failed, total)
	}
	return nil
}
