// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// ForecastRepository persists one forecast record per SKU.
type ForecastRepository interface {
	Upsert(ctx context.Context, rec *domain.ForecastRecord) error
	GetBySKU(ctx context.Context, sku string) (*domain.ForecastRecord, error)
}

// ProductRepository reads stock snapshots and writes back refreshed risk.
type ProductRepository interface {
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	UpdateRisk(ctx context.Context, sku, status, riskLevel string) error
}

// SupplierRepository reads historical supplier transactions.
type SupplierRepository interface {
	ListTransactions(ctx context.Context) ([]domain.SupplierTransaction, error)
	RecentTransactions(ctx context.Context, supplier string, limit int) ([]domain.SupplierTransaction, error)
}

// IngestRepository bulk-loads products and supplier transactions.
type IngestRepository interface {
	UpsertProducts(ctx context.Context, products []domain.Product) (int, error)
	InsertTransactions(ctx context.Context, txns []domain.SupplierTransaction) (int, error)
}
