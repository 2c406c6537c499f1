package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lonshanworld/inventory-forecasting/models"
)

const forecastColumns = `product_id, generated_at, forecast_days, data_points_used, forecast, schema_version`

// AppendForecast inserts a new forecast version. Existing versions are never
// touched; a duplicate (product_id, generated_at) is an error.
func (db *DB) AppendForecast(ctx context.Context, record models.ForecastRecord) error {
	payload, err := json.Marshal(record.Forecast)
	if err != nil {
		return fmt.Errorf("database: encode forecast: %w", err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO forecasts (`+forecastColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, record.ProductID, record.GeneratedAt, record.ForecastDays, record.DataPointsUsed, payload, record.SchemaVersion)
	if err != nil {
		return fmt.Errorf("database: insert forecast: %w", err)
	}
	return nil
}

// LatestForecast returns the version with the greatest generated_at.
func (db *DB) LatestForecast(ctx context.Context, productID string) (models.ForecastRecord, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT `+forecastColumns+`
		FROM forecasts
		WHERE product_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`, productID)

	record, err := scanForecast(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ForecastRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ForecastRecord{}, fmt.Errorf("database: latest forecast: %w", err)
	}
	return record, nil
}

// LatestForecasts returns the newest version of every product's forecast.
func (db *DB) LatestForecasts(ctx context.Context) ([]models.ForecastRecord, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT DISTINCT ON (product_id) `+forecastColumns+`
		FROM forecasts
		ORDER BY product_id, generated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("database: query latest forecasts: %w", err)
	}
	defer rows.Close()
	return collectForecasts(rows)
}

// ForecastHistory pages through a product's versions, newest first, and
// reports the total number of versions.
func (db *DB) ForecastHistory(ctx context.Context, productID string, limit, offset int) ([]models.ForecastRecord, int, error) {
	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM forecasts WHERE product_id = $1`, productID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("database: count forecasts: %w", err)
	}

	rows, err := db.pool.Query(ctx, `
		SELECT `+forecastColumns+`
		FROM forecasts
		WHERE product_id = $1
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3
	`, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("database: query forecast history: %w", err)
	}
	defer rows.Close()

	records, err := collectForecasts(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func collectForecasts(rows pgx.Rows) ([]models.ForecastRecord, error) {
	records := make([]models.ForecastRecord, 0)
	for rows.Next() {
		r, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan forecast: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: iterate forecasts: %w", err)
	}
	return records, nil
}

func scanForecast(row pgx.Row) (models.ForecastRecord, error) {
	var (
		r       models.ForecastRecord
		payload []byte
	)
	if err := row.Scan(&r.ProductID, &r.GeneratedAt, &r.ForecastDays, &r.DataPointsUsed, &payload, &r.SchemaVersion); err != nil {
		return models.ForecastRecord{}, err
	}
	if err := json.Unmarshal(payload, &r.Forecast); err != nil {
		return models.ForecastRecord{}, fmt.Errorf("decode forecast payload: %w", err)
	}
	return r, nil
}
