package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lonshanworld/inventory-forecasting/models"
)

const upsertSalesRecordSQL = `
	INSERT INTO sales_records (product_id, sale_date, quantity_sold, price, revenue, ingested_at, schema_version)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (product_id, sale_date) DO UPDATE SET
		quantity_sold  = EXCLUDED.quantity_sold,
		price          = EXCLUDED.price,
		revenue        = EXCLUDED.revenue,
		ingested_at    = EXCLUDED.ingested_at,
		schema_version = EXCLUDED.schema_version
`

// UpsertSalesRecords writes each record keyed by (product_id, date),
// overwriting any existing row. Records are applied in order, so a later
// record for the same key wins.
func (db *DB) UpsertSalesRecords(ctx context.Context, records []models.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		day, err := r.Day()
		if err != nil {
			return fmt.Errorf("database: sales record %s/%s: %w", r.ProductID, r.Date, err)
		}
		batch.Queue(upsertSalesRecordSQL,
			r.ProductID, day, r.QuantitySold, r.Price, r.Revenue, r.IngestedAt, r.SchemaVersion)
	}

	br := db.pool.SendBatch(ctx, batch)
	for i := range records {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("database: upsert sales record %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("database: upsert sales records: %w", err)
	}
	return nil
}

// SalesRecordsByProduct returns every record for productID, oldest first.
func (db *DB) SalesRecordsByProduct(ctx context.Context, productID string) ([]models.SalesRecord, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT product_id, sale_date, quantity_sold, price, revenue, ingested_at, schema_version
		FROM sales_records
		WHERE product_id = $1
		ORDER BY sale_date ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("database: query sales records: %w", err)
	}
	defer rows.Close()

	records := make([]models.SalesRecord, 0)
	for rows.Next() {
		var (
			r   models.SalesRecord
			day time.Time
		)
		if err := rows.Scan(&r.ProductID, &day, &r.QuantitySold, &r.Price, &r.Revenue, &r.IngestedAt, &r.SchemaVersion); err != nil {
			return nil, fmt.Errorf("database: scan sales record: %w", err)
		}
		r.Date = day.Format(models.DateLayout)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: iterate sales records: %w", err)
	}
	return records, nil
}

// SalesSummary aggregates record count, revenue, product count and date range.
func (db *DB) SalesSummary(ctx context.Context) (models.SalesSummary, error) {
	var (
		summary          models.SalesSummary
		revenue          decimal.Decimal
		earliest, latest *time.Time
	)
	err := db.pool.QueryRow(ctx, `
		SELECT count(*), coalesce(sum(revenue), 0), count(DISTINCT product_id), min(sale_date), max(sale_date)
		FROM sales_records
	`).Scan(&summary.TotalRecords, &revenue, &summary.UniqueProducts, &earliest, &latest)
	if err != nil {
		return models.SalesSummary{}, fmt.Errorf("database: sales summary: %w", err)
	}

	summary.TotalRevenue = revenue
	if earliest != nil && latest != nil {
		e, l := earliest.Format(models.DateLayout), latest.Format(models.DateLayout)
		summary.DateRange = models.DateRange{Earliest: &e, Latest: &l}
	}
	return summary, nil
}
