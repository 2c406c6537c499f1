// Package database holds the durable stores behind the service: the sales
// ledger, the append-only forecast store and the product catalog.
//
// Two backends implement Store: a PostgreSQL one built on a pgx connection
// pool, and an in-memory one for local runs and tests. Both only perform
// single-key reads and writes; no operation spans a multi-key transaction.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lonshanworld/inventory-forecasting/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("database: not found")

// Store is the full set of operations each backend provides.
type Store interface {
	UpsertSalesRecords(ctx context.Context, records []models.SalesRecord) error
	SalesRecordsByProduct(ctx context.Context, productID string) ([]models.SalesRecord, error)
	SalesSummary(ctx context.Context) (models.SalesSummary, error)

	AppendForecast(ctx context.Context, record models.ForecastRecord) error
	LatestForecast(ctx context.Context, productID string) (models.ForecastRecord, error)
	LatestForecasts(ctx context.Context) ([]models.ForecastRecord, error)
	ForecastHistory(ctx context.Context, productID string, limit, offset int) ([]models.ForecastRecord, int, error)

	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	PutProduct(ctx context.Context, product models.Product) error
	UpdateProduct(ctx context.Context, productID string, update models.ProductUpdate, now time.Time) (models.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	Ping(ctx context.Context) error
	Close()
}

// DB is the PostgreSQL-backed Store.
type DB struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ Store = (*DB)(nil)

// Connect sets up the database connection pool and checks it is reachable.
func Connect(ctx context.Context, databaseURL string, logger zerolog.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	logger.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Msg("connected to the database")

	return &DB{pool: pool, logger: logger}, nil
}

// Ping checks connectivity to the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
	db.logger.Info().Msg("database connection pool closed")
}
