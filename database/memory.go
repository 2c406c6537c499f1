package database

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lonshanworld/inventory-forecasting/models"
)

// MemoryStore is an in-process Store. Each operation holds the lock for its
// whole duration, so single-key writes are atomic to concurrent readers.
type MemoryStore struct {
	mu        sync.RWMutex
	sales     map[string]map[string]models.SalesRecord
	forecasts map[string][]models.ForecastRecord
	products  map[string]models.Product
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sales:     make(map[string]map[string]models.SalesRecord),
		forecasts: make(map[string][]models.ForecastRecord),
		products:  make(map[string]models.Product),
	}
}

func (m *MemoryStore) UpsertSalesRecords(ctx context.Context, records []models.SalesRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if _, err := r.Day(); err != nil {
			return fmt.Errorf("database: sales record %s/%s: %w", r.ProductID, r.Date, err)
		}
		byDate, ok := m.sales[r.ProductID]
		if !ok {
			byDate = make(map[string]models.SalesRecord)
			m.sales[r.ProductID] = byDate
		}
		byDate[r.Date] = r
	}
	return nil
}

func (m *MemoryStore) SalesRecordsByProduct(ctx context.Context, productID string) ([]models.SalesRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]models.SalesRecord, 0, len(m.sales[productID]))
	for _, r := range m.sales[productID] {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}

func (m *MemoryStore) SalesSummary(ctx context.Context) (models.SalesSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.SalesSummary{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := models.SalesSummary{TotalRevenue: decimal.Zero}
	var earliest, latest string
	for _, byDate := range m.sales {
		if len(byDate) > 0 {
			summary.UniqueProducts++
		}
		for date, r := range byDate {
			summary.TotalRecords++
			summary.TotalRevenue = summary.TotalRevenue.Add(r.Revenue)
			if earliest == "" || date < earliest {
				earliest = date
			}
			if latest == "" || date > latest {
				latest = date
			}
		}
	}
	if summary.TotalRecords > 0 {
		summary.DateRange = models.DateRange{Earliest: &earliest, Latest: &latest}
	}
	return summary, nil
}

func (m *MemoryStore) AppendForecast(ctx context.Context, record models.ForecastRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.forecasts[record.ProductID] {
		if existing.GeneratedAt.Equal(record.GeneratedAt) {
			return fmt.Errorf("database: forecast %s@%s already exists",
				record.ProductID, record.GeneratedAt.Format(time.RFC3339Nano))
		}
	}
	m.forecasts[record.ProductID] = append(m.forecasts[record.ProductID], cloneForecast(record))
	return nil
}

func (m *MemoryStore) LatestForecast(ctx context.Context, productID string) (models.ForecastRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.ForecastRecord{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest, ok := latestOf(m.forecasts[productID])
	if !ok {
		return models.ForecastRecord{}, ErrNotFound
	}
	return cloneForecast(latest), nil
}

func (m *MemoryStore) LatestForecasts(ctx context.Context) ([]models.ForecastRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]models.ForecastRecord, 0, len(m.forecasts))
	for _, versions := range m.forecasts {
		if latest, ok := latestOf(versions); ok {
			records = append(records, cloneForecast(latest))
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ProductID < records[j].ProductID })
	return records, nil
}

func (m *MemoryStore) ForecastHistory(ctx context.Context, productID string, limit, offset int) ([]models.ForecastRecord, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	versions := make([]models.ForecastRecord, 0, len(m.forecasts[productID]))
	for _, v := range m.forecasts[productID] {
		versions = append(versions, cloneForecast(v))
	}
	m.mu.RUnlock()

	sort.Slice(versions, func(i, j int) bool { return versions[i].GeneratedAt.After(versions[j].GeneratedAt) })

	total := len(versions)
	if offset >= total {
		return []models.ForecastRecord{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return versions[offset:end], total, nil
}

func latestOf(versions []models.ForecastRecord) (models.ForecastRecord, bool) {
	if len(versions) == 0 {
		return models.ForecastRecord{}, false
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if v.GeneratedAt.After(latest.GeneratedAt) {
			latest = v
		}
	}
	return latest, true
}

// cloneForecast copies the slices of r so stored versions never alias
// caller memory.
func cloneForecast(r models.ForecastRecord) models.ForecastRecord {
	f := &r.Forecast
	f.DailyForecasts = slices.Clone(f.DailyForecasts)
	f.ModelInsights.KeyPatterns = slices.Clone(f.ModelInsights.KeyPatterns)
	f.ModelInsights.RiskFactors = slices.Clone(f.ModelInsights.RiskFactors)
	return r
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ProductID < products[j].ProductID })
	return products, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) PutProduct(ctx context.Context, p models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[p.ProductID] = p
	return nil
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, productID string, update models.ProductUpdate, now time.Time) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Category != nil {
		p.Category = *update.Category
	}
	if update.CurrentPrice != nil {
		p.CurrentPrice = *update.CurrentPrice
	}
	p.UpdatedAt = now
	m.products[productID] = p
	return p, nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.products, productID)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close() {}
