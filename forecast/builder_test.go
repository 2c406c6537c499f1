package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/models"
)

// seedSales stores n consecutive days of sales for productID starting on
// 2024-01-01, inserted newest first.
func seedSales(t *testing.T, store *database.MemoryStore, productID string, n int) {
	t.Helper()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.SalesRecord, 0, n)
	for i := n - 1; i >= 0; i-- {
		date := first.AddDate(0, 0, i).Format(models.DateLayout)
		records = append(records, models.NewSalesRecord(productID, date, int64(i+1), decimal.RequireFromString("2.5"), first))
	}
	require.NoError(t, store.UpsertSalesRecords(context.Background(), records))
}

func TestBuild_InsufficientData(t *testing.T) {
	store := database.NewMemoryStore()
	seedSales(t, store, "P1", 5)
	b := NewBuilder(store, store, 0)

	for _, horizon := range []int{7, 30, 365} {
		_, err := b.Build(context.Background(), "P1", horizon)
		var insufficient *apperrors.InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 5, insufficient.CurrentDataPoints)
	}

	seedSales(t, store, "P2", 7)
	_, err := b.Build(context.Background(), "P2", 30)
	assert.NoError(t, err)
}

func TestBuild_RendersSortedHistoryWithUnknownProduct(t *testing.T) {
	store := database.NewMemoryStore()
	seedSales(t, store, "P1", 8)

	req, err := NewBuilder(store, store, 0).Build(context.Background(), "P1", 14)
	require.NoError(t, err)

	assert.Equal(t, 8, req.TotalRecords)
	assert.Len(t, req.Records, 8)
	assert.Equal(t, "2024-01-09", req.StartDate.Format(models.DateLayout))
	assert.Contains(t, req.Prompt, "- Product ID: P1\n- Product Name: Unknown\n- Category: Unknown\n- Current Price: $Unknown\n")
	assert.Contains(t, req.Prompt, "Historical Sales Data (8 data points):\n"+
		"Date: 2024-01-01, Quantity Sold: 1, Revenue: $2.50\n"+
		"Date: 2024-01-02, Quantity Sold: 2, Revenue: $5.00\n")
	assert.Contains(t, req.Prompt, "Please provide a 14-day demand forecast covering 2024-01-09 through 2024-01-22")
	assert.Contains(t, req.Prompt, `"daily_forecasts": [`)
	assert.Less(t, strings.Index(req.Prompt, "2024-01-01,"), strings.Index(req.Prompt, "2024-01-08,"))
}

func TestBuild_UsesCatalogMetadata(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	seedSales(t, store, "P1", 7)
	require.NoError(t, store.PutProduct(ctx, models.Product{
		ProductID: "P1", Name: "Espresso Beans", Category: "Coffee", CurrentPrice: decimal.RequireFromString("12.5"),
	}))

	req, err := NewBuilder(store, store, 0).Build(ctx, "P1", 7)
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "- Product Name: Espresso Beans\n- Category: Coffee\n- Current Price: $12.50\n")
}

func TestBuild_IsDeterministic(t *testing.T) {
	store := database.NewMemoryStore()
	seedSales(t, store, "P1", 10)
	b := NewBuilder(store, store, 0)

	first, err := b.Build(context.Background(), "P1", 30)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), "P1", 30)
	require.NoError(t, err)
	assert.Equal(t, first.Prompt, second.Prompt)
}

func TestBuild_HistoryCapKeepsMostRecent(t *testing.T) {
	store := database.NewMemoryStore()
	seedSales(t, store, "P1", 20)

	req, err := NewBuilder(store, store, 10).Build(context.Background(), "P1", 7)
	require.NoError(t, err)

	assert.Equal(t, 20, req.TotalRecords)
	require.Len(t, req.Records, 10)
	assert.Equal(t, "2024-01-11", req.Records[0].Date)
	assert.NotContains(t, req.Prompt, "Date: 2024-01-10,")
	assert.Contains(t, req.Prompt, "(10 data points)")
	assert.Equal(t, "2024-01-21", req.StartDate.Format(models.DateLayout))
}

func TestBuild_RejectsBadInput(t *testing.T) {
	store := database.NewMemoryStore()
	b := NewBuilder(store, store, 0)

	for _, horizon := range []int{0, 6, 366} {
		_, err := b.Build(context.Background(), "P1", horizon)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), fmt.Sprint(horizon))
	}
	_, err := b.Build(context.Background(), " ", 30)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

type brokenCatalog struct{}

func (brokenCatalog) GetProduct(context.Context, string) (models.Product, error) {
	return models.Product{}, errors.New("timeout")
}

func TestBuild_CatalogFailureIsDependencyError(t *testing.T) {
	store := database.NewMemoryStore()
	seedSales(t, store, "P1", 7)

	_, err := NewBuilder(store, brokenCatalog{}, 0).Build(context.Background(), "P1", 7)
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))
}
