package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonshanworld/inventory-forecasting/ai"
	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/forecast/forecasttest"
	"github.com/lonshanworld/inventory-forecasting/models"
)

type outcomes []string

func (o *outcomes) ObserveGeneration(outcome string, _ time.Duration) { *o = append(*o, outcome) }

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestOrchestrator(t *testing.T, gen ai.Generator, recorder Recorder) (*Orchestrator, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	clock := &testClock{t: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)}
	o := NewOrchestrator(NewBuilder(store, store, 0), gen, store, WithClock(clock.now), WithRecorder(recorder))
	return o, store
}

func TestGenerate_PersistsNewVersion(t *testing.T) {
	ctx := context.Background()
	gen := ai.NewStaticGenerator(forecasttest.Fenced(forecasttest.Day("2024-01-11"), 7))
	var seen outcomes
	o, store := newTestOrchestrator(t, gen, &seen)
	seedSales(t, store, "P1", 10)

	record, err := o.Generate(ctx, "P1", 7)
	require.NoError(t, err)

	assert.Equal(t, "P1", record.ProductID)
	assert.Equal(t, 7, record.ForecastDays)
	assert.Equal(t, 10, record.DataPointsUsed)
	assert.Equal(t, models.SchemaVersion, record.SchemaVersion)
	assert.Equal(t, time.Date(2024, 2, 1, 8, 0, 1, 0, time.UTC), record.GeneratedAt)
	assert.Equal(t, forecasttest.Result(forecasttest.Day("2024-01-11"), 7), record.Forecast)
	assert.Equal(t, outcomes{OutcomeSuccess}, seen)
	require.Len(t, gen.Prompts(), 1)
	assert.Contains(t, gen.Prompts()[0], "(10 data points)")

	latest, err := o.Latest(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, record, latest)
}

func TestGenerate_AppendsRatherThanOverwrites(t *testing.T) {
	ctx := context.Background()
	gen := ai.NewStaticGenerator(forecasttest.JSON(forecasttest.Day("2024-01-08"), 7))
	o, store := newTestOrchestrator(t, gen, nil)
	seedSales(t, store, "P1", 7)

	first, err := o.Generate(ctx, "P1", 7)
	require.NoError(t, err)
	second, err := o.Generate(ctx, "P1", 7)
	require.NoError(t, err)
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt))

	history, total, err := o.History(ctx, "P1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, second.GeneratedAt, history[0].GeneratedAt)

	a, err := o.Latest(ctx, "P1")
	require.NoError(t, err)
	b, err := o.Latest(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, second.GeneratedAt, a.GeneratedAt)

	all, err := o.LatestAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGenerate_InsufficientDataSkipsModel(t *testing.T) {
	gen := ai.NewStaticGenerator("unused")
	var seen outcomes
	o, store := newTestOrchestrator(t, gen, &seen)
	seedSales(t, store, "P1", 5)

	_, err := o.Generate(context.Background(), "P1", 30)
	var insufficient *apperrors.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.CurrentDataPoints)
	assert.Empty(t, gen.Prompts())
	assert.Equal(t, outcomes{string(apperrors.KindInsufficientData)}, seen)
}

func TestGenerate_StageFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  ai.Generator
		kind apperrors.Kind
	}{
		{"model transport", ai.NewFailingGenerator(errors.New("throttled")), apperrors.KindDependency},
		{"prose only", ai.NewStaticGenerator("I am unable to forecast this."), apperrors.KindResponseFormat},
		{"wrong horizon", ai.NewStaticGenerator(forecasttest.JSON(forecasttest.Day("2024-01-11"), 30)), apperrors.KindResponseFormat},
		{"wrong start date", ai.NewStaticGenerator(forecasttest.JSON(forecasttest.Day("2024-01-12"), 7)), apperrors.KindResponseFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			o, store := newTestOrchestrator(t, tt.gen, nil)
			seedSales(t, store, "P1", 10)

			_, err := o.Generate(ctx, "P1", 7)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))

			_, err = o.Latest(ctx, "P1")
			assert.True(t, apperrors.IsNotFound(err), "failed generation must not persist")
		})
	}
}

func TestLatest_NotFound(t *testing.T) {
	o, _ := newTestOrchestrator(t, ai.NewStaticGenerator(), nil)

	_, err := o.Latest(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "forecast for product nope not found", err.Error())
}
