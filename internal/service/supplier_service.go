package service

import (
	"context"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/andresuchdata/stockrisk/internal/supplier"
	"github.com/pkg/errors"
)

var errNoSupplierStore = errors.New("supplier transaction store is not configured")

type SupplierService struct {
	scorer *supplier.Scorer
	repo   repository.SupplierRepository
}

func NewSupplierService(scorer *supplier.Scorer, repo repository.SupplierRepository) *SupplierService {
	return &SupplierService{scorer: scorer, repo: repo}
}

// ScoreSupplier scores one supplier/category/quantity/price context. Defaults
// for absent fields are resolved by SupplierScoreRequest.Input.
func (s *SupplierService) ScoreSupplier(in domain.SupplierScoreInput) (*domain.SupplierRiskProfile, error) {
	return s.scorer.Score(in)
}

// RiskOverview scores every supplier with transaction history.
func (s *SupplierService) RiskOverview(ctx context.Context) ([]domain.SupplierOverview, error) {
	if s.repo == nil {
		return nil, errNoSupplierStore
	}
	txns, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, domain.NotFoundf("no supplier data available")
	}
	return s.scorer.Overview(ctx, txns)
}

// History returns a supplier's recent delay, rejection and fulfilment trend.
func (s *SupplierService) History(ctx context.Context, name string) ([]domain.SupplierHistoryPoint, error) {
	if s.repo == nil {
		return nil, errNoSupplierStore
	}
	txns, err := s.repo.RecentTransactions(ctx, name, supplier.HistoryLimit)
	if err != nil {
		return nil, err
	}
	return supplier.History(name, txns)
}

// ModelsLoaded reports whether supplier scoring is available.
func (s *SupplierService) ModelsLoaded() bool {
	return s.scorer.Available()
}
