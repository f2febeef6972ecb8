package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/jmoiron/sqlx"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `sku, name, brand, category, location, supplier_name, stock, daily_sales,
	weekly_sales, lead_time, reorder_level, stock_status, risk_level, updated_at`

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`

	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("product %s not found", sku)
		}
		return nil, fmt.Errorf("error getting product %s: %w", sku, err)
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sku`

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return products, nil
}

// UpdateRisk writes the refreshed alert status back to the product.
func (r *productRepository) UpdateRisk(ctx context.Context, sku, status, riskLevel string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_status = $2, risk_level = $3, updated_at = NOW()
			WHERE sku = $1
		`, sku, status, riskLevel)
		if err != nil {
			return fmt.Errorf("error updating risk for %s: %w", sku, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFoundf("product %s not found", sku)
		}
		return nil
	})
}
