// Package ingest loads product snapshots and supplier transactions from CSV or
// XLSX exports into the store.
package ingest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/rs/zerolog/log"
)

// Payment status labels and their risk codes.
var paymentRisk = map[string]float64{
	"on-time":      0,
	"under review": 1,
	"delayed":      2,
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "01/02/2006", "02-01-2006"}

// Summary reports how many rows were read, written and rejected.
type Summary struct {
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func (s *Summary) skip(line int, err error) {
	s.Skipped++
	s.Errors = append(s.Errors, fmt.Sprintf("row %d: %v", line, err))
}

type Importer struct {
	repo repository.IngestRepository
}

func NewImporter(repo repository.IngestRepository) *Importer {
	return &Importer{repo: repo}
}

// ImportProducts upserts every valid product row of the table. Rows without a
// SKU or with unparsable numbers are skipped and reported.
func (im *Importer) ImportProducts(ctx context.Context, t *Table) (*Summary, error) {
	if !t.Has("sku") {
		return nil, domain.InvalidInputf("missing required column: sku")
	}

	sum := &Summary{Rows: len(t.Rows)}
	products := make([]domain.Product, 0, len(t.Rows))
	for i, row := range t.Rows {
		p, err := parseProduct(t, row)
		if err != nil {
			sum.skip(i+2, err)
			continue
		}
		products = append(products, p)
	}

	n, err := im.repo.UpsertProducts(ctx, products)
	if err != nil {
		return nil, err
	}
	sum.Imported = n
	log.Info().Int("rows", sum.Rows).Int("imported", n).Int("skipped", sum.Skipped).Msg("ingest: products loaded")
	return sum, nil
}

// ImportTransactions inserts supplier transactions. Derived measures are taken
// from their own columns when present, otherwise computed from the raw
// promised/actual dates and delivered/rejected quantities.
func (im *Importer) ImportTransactions(ctx context.Context, t *Table) (*Summary, error) {
	for _, col := range []string{"supplier", "order_date"} {
		if !t.Has(col) {
			return nil, domain.InvalidInputf("missing required column: %s", col)
		}
	}

	sum := &Summary{Rows: len(t.Rows)}
	txns := make([]domain.SupplierTransaction, 0, len(t.Rows))
	for i, row := range t.Rows {
		txn, err := parseTransaction(t, row)
		if err != nil {
			sum.skip(i+2, err)
			continue
		}
		txns = append(txns, txn)
	}

	n, err := im.repo.InsertTransactions(ctx, txns)
	if err != nil {
		return nil, err
	}
	sum.Imported = n
	log.Info().Int("rows", sum.Rows).Int("imported", n).Int("skipped", sum.Skipped).Msg("ingest: supplier transactions loaded")
	return sum, nil
}

func parseProduct(t *Table, row []string) (domain.Product, error) {
	p := domain.Product{
		SKU:          t.Get(row, "sku"),
		Name:         t.Get(row, "name", "product_name", "nama"),
		Brand:        t.Get(row, "brand"),
		Category:     t.Get(row, "category"),
		Location:     t.Get(row, "location", "store"),
		SupplierName: t.Get(row, "supplier_name", "supplier"),
	}
	if p.SKU == "" {
		return p, fmt.Errorf("sku is empty")
	}

	fields := []struct {
		dst     *float64
		aliases []string
	}{
		{&p.Stock, []string{"stock", "current_stock"}},
		{&p.DailySales, []string{"daily_sales"}},
		{&p.WeeklySales, []string{"weekly_sales"}},
		{&p.LeadTime, []string{"lead_time"}},
		{&p.ReorderLevel, []string{"reorder_level"}},
	}
	for _, f := range fields {
		v, err := parseNumber(t.Get(row, f.aliases...))
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.aliases[0], err)
		}
		*f.dst = v
	}
	return p, nil
}

func parseTransaction(t *Table, row []string) (domain.SupplierTransaction, error) {
	txn := domain.SupplierTransaction{
		Supplier: t.Get(row, "supplier"),
		Category: t.Get(row, "category"),
	}
	if txn.Supplier == "" {
		return txn, fmt.Errorf("supplier is empty")
	}

	var err error
	if txn.OrderDate, err = parseDate(t.Get(row, "order_date")); err != nil {
		return txn, fmt.Errorf("order_date: %w", err)
	}

	num := func(aliases ...string) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = parseNumber(t.Get(row, aliases...))
		if err != nil {
			err = fmt.Errorf("%s: %w", aliases[0], err)
		}
		return v
	}
	txn.OrderedQty = num("ordered_qty")
	txn.BasePrice = num("base_price")
	delivered := num("delivered_qty")
	rejected := num("rejected_qty")
	if err != nil {
		return txn, err
	}

	switch {
	case t.Has("delay_days"):
		txn.DelayDays = num("delay_days")
	case t.Has("promised_date") && t.Has("actual_date"):
		promised, perr := parseDate(t.Get(row, "promised_date"))
		actual, aerr := parseDate(t.Get(row, "actual_date"))
		if perr != nil || aerr != nil {
			return txn, fmt.Errorf("promised/actual date is invalid")
		}
		txn.DelayDays = math.Floor(actual.Sub(promised).Hours() / 24)
	}

	switch {
	case t.Has("fulfillment_ratio"):
		txn.FulfillmentRatio = num("fulfillment_ratio")
	case txn.OrderedQty > 0:
		txn.FulfillmentRatio = delivered / txn.OrderedQty
	}

	if t.Has("rejection_ratio") {
		txn.RejectionRatio = num("rejection_ratio")
	} else {
		txn.RejectionRatio = rejected / math.Max(delivered, 1)
	}

	if t.Has("payment_risk") {
		txn.PaymentRisk = num("payment_risk")
	} else if status := t.Get(row, "payment_status"); status != "" {
		risk, ok := paymentRisk[strings.ToLower(status)]
		if !ok {
			return txn, fmt.Errorf("unknown payment status %q", status)
		}
		txn.PaymentRisk = risk
	}
	return txn, err
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
