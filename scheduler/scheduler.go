// Package scheduler periodically regenerates forecasts for the whole catalog.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/models"
)

// Catalog lists the products to regenerate.
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Generator produces one forecast version.
type Generator interface {
	Generate(ctx context.Context, productID string, horizonDays int) (models.ForecastRecord, error)
}

// Recorder observes per-product outcomes.
type Recorder interface {
	ObserveScheduledRun(outcome string)
}

// Outcome labels for a scheduled product run.
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Summary counts the outcomes of one regeneration pass.
type Summary struct {
	Generated int
	Skipped   int
	Failed    int
}

// Scheduler runs a regeneration pass on a cron schedule.
type Scheduler struct {
	catalog     Catalog
	generator   Generator
	horizonDays int
	recorder    Recorder
	logger      zerolog.Logger
}

// New returns a scheduler that regenerates horizonDays forecasts. recorder
// may be nil.
func New(catalog Catalog, generator Generator, horizonDays int, recorder Recorder, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		catalog:     catalog,
		generator:   generator,
		horizonDays: horizonDays,
		recorder:    recorder,
		logger:      logger.With().Str("component", "scheduler").Logger(),
	}
}

// RunOnce regenerates every catalog product sequentially. Products without
// enough history are skipped; other failures are logged and the pass
// continues. Only a catalog read failure aborts the pass.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	ctx = s.logger.WithContext(ctx)
	start := time.Now()

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("scheduler: list products: %w", err)
	}

	var summary Summary
	for _, p := range products {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		_, err := s.generator.Generate(ctx, p.ProductID, s.horizonDays)
		switch {
		case err == nil:
			summary.Generated++
			s.observe(OutcomeGenerated)
		case apperrors.KindOf(err) == apperrors.KindInsufficientData:
			summary.Skipped++
			s.observe(OutcomeSkipped)
			s.logger.Info().Err(err).Str("product_id", p.ProductID).Msg("skipping product")
		default:
			summary.Failed++
			s.observe(OutcomeFailed)
			s.logger.Error().Err(err).Str("product_id", p.ProductID).Msg("scheduled forecast failed")
		}
	}

	s.logger.Info().
		Int("products", len(products)).
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("regeneration pass finished")
	return summary, nil
}

func (s *Scheduler) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveScheduledRun(outcome)
	}
}

// Run registers RunOnce under spec and blocks until ctx is done. A pass
// still running when the next tick fires causes that tick to be skipped.
func (s *Scheduler) Run(ctx context.Context, spec string) error {
	c, err := s.cron(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("regeneration pass aborted")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info().Str("schedule", spec).Msg("scheduler started")

	<-ctx.Done()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("stop timeout waiting for running regeneration")
	}
	s.logger.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) cron(spec string, job func()) (*cron.Cron, error) {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return c, nil
}

// ValidateSpec reports whether spec is an accepted schedule expression.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
