package pipeline

import (
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Forecasting is the forecast-and-alert operation a refresh runs per product.
type Forecasting interface {
	ForecastAndAlert(req domain.ForecastRequest) (*domain.ForecastOutcome, error)
}

// Config holds configuration for a refresh run
type Config struct {
	Workers       int           // Number of concurrent workers
	HorizonDays   int           // Forecast horizon per product
	RetryAttempts int           // Attempts per risk write-back
	RetryBackoff  time.Duration // Backoff between write-back attempts
	Interval      time.Duration // Period of the scheduled refresh; zero disables it
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		HorizonDays:   30,
		RetryAttempts: 3,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// RunStatus represents the current state of a refresh run
type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// RefreshRun tracks a single risk refresh across the product catalogue.
type RefreshRun struct {
	ID           string     `json:"id" db:"id"`
	Status       RunStatus  `json:"status" db:"status"`
	Total        int        `json:"total" db:"total"`
	Processed    int        `json:"processed" db:"processed"`
	Failed       int        `json:"failed" db:"failed"`
	Fallback     int        `json:"fallback" db:"fallback"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
}

// ProductResult is the outcome of refreshing one product.
type ProductResult struct {
	SKU          string
	Status       domain.StockStatus
	RiskLevel    domain.RiskLevel
	UsedFallback bool
	Err          error
}
