package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/google/uuid"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) repository.ForecastRepository {
	return &forecastRepository{db: db}
}

type forecastRow struct {
	ID           string    `db:"id"`
	SKU          string    `db:"sku"`
	ProductName  string    `db:"product_name"`
	CurrentStock float64   `db:"current_stock"`
	StockStatus  string    `db:"stock_status"`
	Priority     string    `db:"priority"`
	Alert        string    `db:"alert"`
	Method       string    `db:"method"`
	UsedFallback bool      `db:"used_fallback"`
	Insight      []byte    `db:"insight"`
	Points       []byte    `db:"points"`
	Historical   []byte    `db:"historical"`
	InputParams  []byte    `db:"input_params"`
	ModelFit     []byte    `db:"model_fit"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const upsertForecastQuery = `
	INSERT INTO forecasts (
		id, sku, product_name, current_stock, stock_status, priority, alert,
		method, used_fallback, insight, points, historical, input_params, model_fit,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	ON CONFLICT (sku) DO UPDATE SET
		product_name  = EXCLUDED.product_name,
		current_stock = EXCLUDED.current_stock,
		stock_status  = EXCLUDED.stock_status,
		priority      = EXCLUDED.priority,
		alert         = EXCLUDED.alert,
		method        = EXCLUDED.method,
		used_fallback = EXCLUDED.used_fallback,
		insight       = EXCLUDED.insight,
		points        = EXCLUDED.points,
		historical    = EXCLUDED.historical,
		input_params  = EXCLUDED.input_params,
		model_fit     = EXCLUDED.model_fit,
		updated_at    = NOW()
	RETURNING id, created_at, updated_at
`

// Upsert stores rec keyed by SKU and fills in its id and timestamps.
func (r *forecastRepository) Upsert(ctx context.Context, rec *domain.ForecastRecord) error {
	if rec.SKU == "" {
		return domain.InvalidInputf("forecast record needs a sku")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	insight, err := json.Marshal(rec.Insight)
	if err != nil {
		return fmt.Errorf("encode insight: %w", err)
	}
	points, err := json.Marshal(rec.Points)
	if err != nil {
		return fmt.Errorf("encode points: %w", err)
	}
	params, err := json.Marshal(rec.InputParams)
	if err != nil {
		return fmt.Errorf("encode input params: %w", err)
	}
	historical, err := nullableJSON(rec.Historical, len(rec.Historical) == 0)
	if err != nil {
		return fmt.Errorf("encode historical series: %w", err)
	}
	modelFit, err := nullableJSON(rec.ModelFit, rec.ModelFit == nil)
	if err != nil {
		return fmt.Errorf("encode model fit: %w", err)
	}

	release, err := r.db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	row := r.db.QueryRowxContext(ctx, upsertForecastQuery,
		rec.ID, rec.SKU, rec.ProductName, rec.CurrentStock, rec.StockStatus, rec.Priority, rec.Alert,
		rec.Method, rec.UsedFallback, insight, points, historical, params, modelFit,
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return fmt.Errorf("error upserting forecast for %s: %w", rec.SKU, err)
	}
	return nil
}

func (r *forecastRepository) GetBySKU(ctx context.Context, sku string) (*domain.ForecastRecord, error) {
	query := `
		SELECT id, sku, product_name, current_stock, stock_status, priority, alert,
		       method, used_fallback, insight, points, historical, input_params, model_fit,
		       created_at, updated_at
		FROM forecasts
		WHERE sku = $1
	`

	var row forecastRow
	if err := r.db.GetContext(ctx, &row, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("no forecast for sku %s", sku)
		}
		return nil, fmt.Errorf("error getting forecast for %s: %w", sku, err)
	}
	return row.record()
}

func (row forecastRow) record() (*domain.ForecastRecord, error) {
	rec := &domain.ForecastRecord{
		ID:           row.ID,
		SKU:          row.SKU,
		ProductName:  row.ProductName,
		CurrentStock: row.CurrentStock,
		StockStatus:  row.StockStatus,
		Priority:     row.Priority,
		Alert:        row.Alert,
		Method:       row.Method,
		UsedFallback: row.UsedFallback,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Insight, &rec.Insight); err != nil {
		return nil, fmt.Errorf("decode insight: %w", err)
	}
	if err := json.Unmarshal(row.Points, &rec.Points); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}
	if err := json.Unmarshal(row.InputParams, &rec.InputParams); err != nil {
		return nil, fmt.Errorf("decode input params: %w", err)
	}
	if len(row.Historical) > 0 {
		if err := json.Unmarshal(row.Historical, &rec.Historical); err != nil {
			return nil, fmt.Errorf("decode historical series: %w", err)
		}
	}
	if len(row.ModelFit) > 0 {
		if err := json.Unmarshal(row.ModelFit, &rec.ModelFit); err != nil {
			return nil, fmt.Errorf("decode model fit: %w", err)
		}
	}
	return rec, nil
}

// nullableJSON encodes v, or returns nil (SQL NULL) when empty is set.
func nullableJSON(v interface{}, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}
