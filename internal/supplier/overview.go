package supplier

import (
	"context"
	"math"
	"sort"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	// OverviewOrderedQty is the order size every supplier is scored at in the overview.
	OverviewOrderedQty = 500

	// HistoryLimit is the number of recent transactions in a supplier trend.
	HistoryLimit = 10

	overviewConcurrency = 8
)

type aggregate struct {
	supplier    string
	category    string
	n           int
	delay       float64
	fulfillment float64
	rejection   float64
	price       float64
	paymentRisk float64
}

// Overview aggregates transactions per supplier and scores each supplier at
// OverviewOrderedQty. Suppliers keep their first-seen order.
func (s *Scorer) Overview(ctx context.Context, txns []domain.SupplierTransaction) ([]domain.SupplierOverview, error) {
	aggs := aggregateBySupplier(txns)
	out := make([]domain.SupplierOverview, len(aggs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, a := range aggs {
		i, a := i, a
		g.Go(func() error {
			n := float64(a.n)
			profile, err := s.Score(domain.SupplierScoreInput{
				SupplierID:  a.supplier,
				Category:    a.category,
				OrderedQty:  OverviewOrderedQty,
				BasePrice:   a.price / n,
				PaymentRisk: a.paymentRisk,
			})
			if err != nil {
				return err
			}
			out[i] = domain.SupplierOverview{
				Supplier:       a.supplier,
				Category:       a.category,
				AvgDelay:       round1(a.delay / n),
				AvgFulfillment: round1(a.fulfillment / n * 100),
				AvgRejection:   round1(a.rejection / n * 100),
				RiskScore:      profile.CompositeScore,
				RiskLevel:      profile.Label,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// aggregateBySupplier groups transactions by supplier: sums for the mean fields, the
// first category seen and the maximum payment risk.
func aggregateBySupplier(txns []domain.SupplierTransaction) []aggregate {
	index := map[string]int{}
	var aggs []aggregate
	for _, t := range txns {
		i, ok := index[t.Supplier]
		if !ok {
			i = len(aggs)
			index[t.Supplier] = i
			aggs = append(aggs, aggregate{supplier: t.Supplier, category: t.Category, paymentRisk: t.PaymentRisk})
		}
		a := &aggs[i]
		a.n++
		a.delay += t.DelayDays
		a.fulfillment += t.FulfillmentRatio
		a.rejection += t.RejectionRatio
		a.price += t.BasePrice
		a.paymentRisk = math.Max(a.paymentRisk, t.PaymentRisk)
	}
	return aggs
}

// History returns the latest HistoryLimit transactions in ascending order-date
// order as trend points, or ErrNotFound when there are none.
func History(supplier string, txns []domain.SupplierTransaction) ([]domain.SupplierHistoryPoint, error) {
	if len(txns) == 0 {
		return nil, domain.NotFoundf("supplier %q has no transactions", supplier)
	}
	sorted := append([]domain.SupplierTransaction(nil), txns...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderDate.Before(sorted[j].OrderDate) })
	if len(sorted) > HistoryLimit {
		sorted = sorted[len(sorted)-HistoryLimit:]
	}

	points := make([]domain.SupplierHistoryPoint, len(sorted))
	for i, t := range sorted {
		points[i] = domain.SupplierHistoryPoint{
			Date:        t.OrderDate.Format("2006-01-02"),
			Delay:       t.DelayDays,
			Rejection:   round2(t.RejectionRatio * 100),
			Fulfillment: round2(t.FulfillmentRatio * 100),
		}
	}
	return points, nil
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
