package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonshanworld/inventory-forecasting/models"
)

var ingested = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sale(productID, date string, qty int64, price string) models.SalesRecord {
	return models.NewSalesRecord(productID, date, qty, decimal.RequireFromString(price), ingested)
}

func TestMemoryStore_UpsertOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.UpsertSalesRecords(ctx, []models.SalesRecord{
		sale("P001", "2024-01-02", 5, "10.00"),
		sale("P001", "2024-01-01", 3, "10.00"),
		sale("P001", "2024-01-02", 9, "11.00"),
	}))

	records, err := store.SalesRecordsByProduct(ctx, "P001")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-01", records[0].Date)
	assert.Equal(t, "2024-01-02", records[1].Date)
	assert.Equal(t, int64(9), records[1].QuantitySold)
	assert.True(t, records[1].Revenue.Equal(decimal.RequireFromString("99")))
}

func TestMemoryStore_UpsertRejectsBadDate(t *testing.T) {
	store := NewMemoryStore()
	err := store.UpsertSalesRecords(context.Background(), []models.SalesRecord{sale("P001", "01/02/2024", 1, "1")})
	assert.Error(t, err)
}

func TestMemoryStore_SalesSummary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	empty, err := store.SalesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRecords)
	assert.Nil(t, empty.DateRange.Earliest)

	require.NoError(t, store.UpsertSalesRecords(ctx, []models.SalesRecord{
		sale("P001", "2024-01-03", 2, "1.50"),
		sale("P002", "2024-01-01", 1, "4.00"),
		sale("P002", "2024-01-05", 3, "4.00"),
	}))

	summary, err := store.SalesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 2, summary.UniqueProducts)
	assert.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("19")))
	require.NotNil(t, summary.DateRange.Earliest)
	assert.Equal(t, "2024-01-01", *summary.DateRange.Earliest)
	assert.Equal(t, "2024-01-05", *summary.DateRange.Latest)
}

func TestMemoryStore_ForecastVersions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.LatestForecast(ctx, "P001")
	assert.ErrorIs(t, err, ErrNotFound)

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, days := range []int{30, 14, 60} {
		require.NoError(t, store.AppendForecast(ctx, models.ForecastRecord{
			ProductID:     "P001",
			GeneratedAt:   base.Add(time.Duration(i) * time.Hour),
			ForecastDays:  days,
			SchemaVersion: models.SchemaVersion,
		}))
	}
	require.NoError(t, store.AppendForecast(ctx, models.ForecastRecord{ProductID: "P002", GeneratedAt: base}))

	err = store.AppendForecast(ctx, models.ForecastRecord{ProductID: "P001", GeneratedAt: base})
	assert.Error(t, err, "duplicate generated_at must not overwrite")

	latest, err := store.LatestForecast(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 60, latest.ForecastDays)

	all, err := store.LatestForecasts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P001", all[0].ProductID)
	assert.Equal(t, 60, all[0].ForecastDays)

	page, total, err := store.ForecastHistory(ctx, "P001", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, 60, page[0].ForecastDays)
	assert.Equal(t, 14, page[1].ForecastDays)

	page, _, err = store.ForecastHistory(ctx, "P001", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 30, page[0].ForecastDays)

	page, _, err = store.ForecastHistory(ctx, "P001", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryStore_ForecastsAreCopiedOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	generatedAt := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	record := models.ForecastRecord{
		ProductID:   "P001",
		GeneratedAt: generatedAt,
		Forecast: models.ForecastResult{
			DailyForecasts: []models.DailyForecast{{Date: "2024-02-02", PredictedDemand: 5}},
			ModelInsights: models.ModelInsights{
				KeyPatterns: []string{"weekend peaks"},
				RiskFactors: []string{},
			},
		},
	}
	require.NoError(t, store.AppendForecast(ctx, record))
	record.Forecast.DailyForecasts[0].PredictedDemand = 99

	latest, err := store.LatestForecast(ctx, "P001")
	require.NoError(t, err)
	latest.Forecast.DailyForecasts[0].PredictedDemand = 42
	latest.Forecast.ModelInsights.KeyPatterns[0] = "changed"

	all, err := store.LatestForecasts(ctx)
	require.NoError(t, err)
	all[0].Forecast.ModelInsights.KeyPatterns[0] = "changed again"

	history, _, err := store.ForecastHistory(ctx, "P001", 10, 0)
	require.NoError(t, err)
	history[0].Forecast.DailyForecasts[0].Date = "1999-01-01"

	stored, err := store.LatestForecast(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 5.0, stored.Forecast.DailyForecasts[0].PredictedDemand)
	assert.Equal(t, "2024-02-02", stored.Forecast.DailyForecasts[0].Date)
	assert.Equal(t, []string{"weekend peaks"}, stored.Forecast.ModelInsights.KeyPatterns)
	assert.NotNil(t, stored.Forecast.ModelInsights.RiskFactors)
	assert.Empty(t, stored.Forecast.ModelInsights.RiskFactors)
}

func TestMemoryStore_Products(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.GetProduct(ctx, "P001")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutProduct(ctx, models.Product{
		ProductID: "P001", Name: "Widget", Category: "Tools",
		CurrentPrice: decimal.RequireFromString("9.99"), CreatedAt: now, UpdatedAt: now,
	}))

	name := "Super Widget"
	later := now.Add(time.Hour)
	updated, err := store.UpdateProduct(ctx, "P001", models.ProductUpdate{Name: &name}, later)
	require.NoError(t, err)
	assert.Equal(t, "Super Widget", updated.Name)
	assert.Equal(t, "Tools", updated.Category)
	assert.True(t, updated.CurrentPrice.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, now, updated.CreatedAt)

	_, err = store.UpdateProduct(ctx, "missing", models.ProductUpdate{Name: &name}, later)
	assert.ErrorIs(t, err, ErrNotFound)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	require.NoError(t, store.DeleteProduct(ctx, "P001"))
	require.NoError(t, store.DeleteProduct(ctx, "P001"))
	_, err = store.GetProduct(ctx, "P001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
	_, err := store.SalesRecordsByProduct(ctx, "P001")
	assert.ErrorIs(t, err, context.Canceled)
}
