package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/jmoiron/sqlx"
)

type ingestRepository struct {
	db *DB
}

func NewIngestRepository(db *DB) repository.IngestRepository {
	return &ingestRepository{db: db}
}

// UpsertProducts inserts or refreshes product snapshots by SKU in a single
// transaction. Stored status and risk level are left for the refresher.
func (r *ingestRepository) UpsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	query := `
		INSERT INTO products (sku, name, brand, category, location, supplier_name, stock,
			daily_sales, weekly_sales, lead_time, reorder_level, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (sku)
		DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			location = EXCLUDED.location,
			supplier_name = EXCLUDED.supplier_name,
			stock = EXCLUDED.stock,
			daily_sales = EXCLUDED.daily_sales,
			weekly_sales = EXCLUDED.weekly_sales,
			lead_time = EXCLUDED.lead_time,
			reorder_level = EXCLUDED.reorder_level,
			updated_at = NOW()
	`

	written := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare product upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			if _, err := stmt.ExecContext(ctx, p.SKU, p.Name, p.Brand, p.Category, p.Location, p.SupplierName,
				p.Stock, p.DailySales, p.WeeklySales, p.LeadTime, p.ReorderLevel); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.SKU, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// InsertTransactions appends supplier transactions in a single transaction.
func (r *ingestRepository) InsertTransactions(ctx context.Context, txns []domain.SupplierTransaction) (int, error) {
	query := `
		INSERT INTO supplier_transactions (supplier, category, order_date, ordered_qty, base_price,
			payment_risk, delay_days, fulfillment_ratio, rejection_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	written := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare transaction insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range txns {
			if _, err := stmt.ExecContext(ctx, t.Supplier, t.Category, t.OrderDate, t.OrderedQty, t.BasePrice,
				t.PaymentRisk, t.DelayDays, t.FulfillmentRatio, t.RejectionRatio); err != nil {
				return fmt.Errorf("failed to insert transaction for %s: %w", t.Supplier, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
