package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lonshanworld/inventory-forecasting/models"
)

const productColumns = `product_id, name, category, current_price, created_at, updated_at`

// ListProducts returns the whole catalog ordered by product id.
func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("database: query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: iterate products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product or ErrNotFound.
func (db *DB) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("database: get product: %w", err)
	}
	return p, nil
}

// PutProduct writes a product, replacing any existing entry with the same id.
func (db *DB) PutProduct(ctx context.Context, p models.Product) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO UPDATE SET
			name          = EXCLUDED.name,
			category      = EXCLUDED.category,
			current_price = EXCLUDED.current_price,
			created_at    = EXCLUDED.created_at,
			updated_at    = EXCLUDED.updated_at
	`, p.ProductID, p.Name, p.Category, p.CurrentPrice, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("database: put product: %w", err)
	}
	return nil
}

// UpdateProduct applies the non-nil fields of update and stamps updated_at.
func (db *DB) UpdateProduct(ctx context.Context, productID string, update models.ProductUpdate, now time.Time) (models.Product, error) {
	row := db.pool.QueryRow(ctx, `
		UPDATE products SET
			name          = coalesce($2, name),
			category      = coalesce($3, category),
			current_price = coalesce($4, current_price),
			updated_at    = $5
		WHERE product_id = $1
		RETURNING `+productColumns,
		productID, update.Name, update.Category, update.CurrentPrice, now)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("database: update product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes a product. Deleting a missing product is not an error.
func (db *DB) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("database: delete product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ProductID, &p.Name, &p.Category, &p.CurrentPrice, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
