package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/pkg/database"
)

// ProductRepository implements product tracking using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// RecordImport upserts the product identified by (platform, productID). The
// review count accumulates across imports and last_imported always moves
// forward; an empty name never overwrites a previously stored one.
func (r *ProductRepository) RecordImport(ctx context.Context, platform, productID, name string, n int, at time.Time) error {
	query := `
		INSERT INTO products (id, platform, product_id, product_name, review_count, last_imported)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (platform, product_id) DO UPDATE
		SET product_name = COALESCE(NULLIF(EXCLUDED.product_name, ''), products.product_name),
		    review_count = products.review_count + EXCLUDED.review_count,
		    last_imported = EXCLUDED.last_imported`

	_, err := r.pool.Exec(ctx, query, uuid.New().String(), platform, productID, name, n, at)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

// List returns all tracked products, most recently imported first.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, platform, product_id, product_name, review_count, last_imported
		FROM products
		ORDER BY last_imported DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Platform,
			&p.ProductID,
			&p.ProductName,
			&p.ReviewCount,
			&p.LastImported,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}
