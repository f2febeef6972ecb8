package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
)

const defaultSupplierHistoryLimit = 10

type supplierRepository struct {
	db *DB
}

func NewSupplierRepository(db *DB) repository.SupplierRepository {
	return &supplierRepository{db: db}
}

const transactionColumns = `id, supplier, category, order_date, ordered_qty, base_price,
	payment_risk, delay_days, fulfillment_ratio, rejection_ratio`

// ListTransactions returns every transaction in order-date order, so the first
// row of a supplier carries its earliest category.
func (r *supplierRepository) ListTransactions(ctx context.Context) ([]domain.SupplierTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM supplier_transactions ORDER BY order_date, id`

	var txns []domain.SupplierTransaction
	if err := r.db.SelectContext(ctx, &txns, query); err != nil {
		return nil, fmt.Errorf("error listing supplier transactions: %w", err)
	}
	return txns, nil
}

// RecentTransactions returns the latest limit transactions of a supplier,
// newest first.
func (r *supplierRepository) RecentTransactions(ctx context.Context, supplier string, limit int) ([]domain.SupplierTransaction, error) {
	if limit <= 0 {
		limit = defaultSupplierHistoryLimit
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM supplier_transactions
		WHERE supplier = $1
		ORDER BY order_date DESC, id DESC
		LIMIT $2
	`

	var txns []domain.SupplierTransaction
	if err := r.db.SelectContext(ctx, &txns, query, supplier, limit); err != nil {
		return nil, fmt.Errorf("error getting transactions for supplier %s: %w", supplier, err)
	}
	return txns, nil
}
