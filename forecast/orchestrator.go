package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lonshanworld/inventory-forecasting/ai"
	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/models"
)

// Store is the append-only forecast history.
type Store interface {
	AppendForecast(ctx context.Context, record models.ForecastRecord) error
	LatestForecast(ctx context.Context, productID string) (models.ForecastRecord, error)
	LatestForecasts(ctx context.Context) ([]models.ForecastRecord, error)
	ForecastHistory(ctx context.Context, productID string, limit, offset int) ([]models.ForecastRecord, int, error)
}

// Recorder observes generation outcomes.
type Recorder interface {
	ObserveGeneration(outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(string, time.Duration) {}

// Outcome label for a successful generation. Failures use the error kind.
const OutcomeSuccess = "success"

// Orchestrator runs build, generate, parse and persist for one forecast.
type Orchestrator struct {
	builder   *Builder
	generator ai.Generator
	store     Store
	recorder  Recorder
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the source of generated_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRecorder sets the metrics recorder. A nil recorder is ignored.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// NewOrchestrator wires the forecasting pipeline.
func NewOrchestrator(builder *Builder, generator ai.Generator, store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		builder:   builder,
		generator: generator,
		store:     store,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate produces and stores a new forecast version for productID. Each
// stage's error is returned as is; nothing is retried.
func (o *Orchestrator) Generate(ctx context.Context, productID string, horizonDays int) (models.ForecastRecord, error) {
	// Postgres keeps microseconds; truncating keeps the version key stable
	// across a round trip.
	start := time.Now()
	generatedAt := o.now().UTC().Truncate(time.Microsecond)
	logger := zerolog.Ctx(ctx).With().
		Str("component", "forecast").
		Str("product_id", productID).
		Int("forecast_days", horizonDays).
		Logger()

	record, err := o.generate(ctx, logger, productID, horizonDays, generatedAt)
	elapsed := time.Since(start)
	if err != nil {
		o.recorder.ObserveGeneration(string(apperrors.KindOf(err)), elapsed)
		event := logger.Error()
		if apperrors.HTTPStatus(err) < 500 {
			event = logger.Info()
		}
		event.Err(err).Str("kind", string(apperrors.KindOf(err))).Msg("forecast generation failed")
		return models.ForecastRecord{}, err
	}

	o.recorder.ObserveGeneration(OutcomeSuccess, elapsed)
	logger.Info().
		Int("data_points_used", record.DataPointsUsed).
		Dur("duration", elapsed).
		Msg("forecast generated")
	return record, nil
}

func (o *Orchestrator) generate(ctx context.Context, logger zerolog.Logger, productID string, horizonDays int, generatedAt time.Time) (models.ForecastRecord, error) {
	logger.Debug().Msg("building forecast request")
	req, err := o.builder.Build(ctx, productID, horizonDays)
	if err != nil {
		return models.ForecastRecord{}, err
	}

	logger.Debug().Int("records", len(req.Records)).Int("prompt_bytes", len(req.Prompt)).Msg("calling forecasting model")
	raw, err := o.generator.Generate(ctx, req.Prompt)
	if err != nil {
		return models.ForecastRecord{}, apperrors.NewDependencyError("forecasting model", err)
	}

	result, err := Parse(raw, Expectation{HorizonDays: req.HorizonDays, StartDate: req.StartDate})
	if err != nil {
		logger.Debug().Str("response", raw).Msg("unusable model response")
		return models.ForecastRecord{}, err
	}

	record := models.ForecastRecord{
		ProductID:      productID,
		GeneratedAt:    generatedAt,
		ForecastDays:   req.HorizonDays,
		DataPointsUsed: len(req.Records),
		Forecast:       result,
		SchemaVersion:  models.SchemaVersion,
	}
	if err := o.store.AppendForecast(ctx, record); err != nil {
		return models.ForecastRecord{}, apperrors.NewDependencyError("forecast store", err)
	}
	return record, nil
}

// Latest returns the newest forecast version for productID.
func (o *Orchestrator) Latest(ctx context.Context, productID string) (models.ForecastRecord, error) {
	record, err := o.store.LatestForecast(ctx, productID)
	if errors.Is(err, database.ErrNotFound) {
		return models.ForecastRecord{}, &apperrors.NotFoundError{
			Resource: "forecast for product",
			ID:       productID,
			Message:  "No forecast found for this product",
		}
	}
	if err != nil {
		return models.ForecastRecord{}, apperrors.NewDependencyError("forecast store", err)
	}
	return record, nil
}

// LatestAll returns the newest version of every product's forecast.
func (o *Orchestrator) LatestAll(ctx context.Context) ([]models.ForecastRecord, error) {
	records, err := o.store.LatestForecasts(ctx)
	if err != nil {
		return nil, apperrors.NewDependencyError("forecast store", err)
	}
	return records, nil
}

// History pages through a product's forecast versions, newest first.
func (o *Orchestrator) History(ctx context.Context, productID string, limit, offset int) ([]models.ForecastRecord, int, error) {
	records, total, err := o.store.ForecastHistory(ctx, productID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.NewDependencyError("forecast store", err)
	}
	return records, total, nil
}
