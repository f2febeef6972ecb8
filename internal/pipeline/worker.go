package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Refresher recomputes the alert status and risk level of every product and
// writes them back to the product store.
type Refresher struct {
	forecasts Forecasting
	products  repository.ProductRepository
	runs      RunStore
	config    Config
	now       func() time.Time
}

// NewRefresher creates a new refresher. runs may be nil when run bookkeeping
// is not wanted.
func NewRefresher(forecasts Forecasting, products repository.ProductRepository, runs RunStore, config Config) *Refresher {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &Refresher{
		forecasts: forecasts,
		products:  products,
		runs:      runs,
		config:    config,
		now:       time.Now,
	}
}

// Run refreshes the whole catalogue. A single product failing is counted, not
// fatal; only listing products or a cancelled context fails the run.
func (r *Refresher) Run(ctx context.Context) (*RefreshRun, []ProductResult, error) {
	run := &RefreshRun{
		ID:        uuid.NewString(),
		Status:    StatusProcessing,
		StartedAt: r.now(),
	}
	logger := log.With().Str("run_id", run.ID).Logger()

	products, err := r.products.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list products: %w", err)
	}
	run.Total = len(products)

	if r.runs != nil {
		if err := r.runs.CreateRun(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("refresh: could not record run start")
		}
	}
	logger.Info().Int("products", run.Total).Int("workers", r.config.Workers).Msg("refresh: started")

	results := make([]ProductResult, len(products))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.refreshProduct(gctx, p)
			results[i] = res

			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.Err != nil:
				run.Failed++
				logger.Warn().Err(res.Err).Str("sku", p.SKU).Msg("refresh: product failed")
			default:
				run.Processed++
				if res.UsedFallback {
					run.Fallback++
				}
			}
			return nil
		})
	}
	waitErr := g.Wait()

	completed := r.now()
	run.CompletedAt = &completed
	run.Status = StatusCompleted
	if waitErr != nil {
		run.Status = StatusFailed
		run.ErrorMessage = waitErr.Error()
	}

	if r.runs != nil {
		// The caller's context may already be cancelled; the final write still matters.
		if err := r.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn().Err(err).Msg("refresh: could not record run completion")
		}
	}

	logger.Info().
		Str("status", string(run.Status)).
		Int("processed", run.Processed).
		Int("failed", run.Failed).
		Int("fallback", run.Fallback).
		Dur("took", completed.Sub(run.StartedAt)).
		Msg("refresh: finished")

	if waitErr != nil {
		return run, results, waitErr
	}
	return run, results, nil
}

func (r *Refresher) refreshProduct(ctx context.Context, p domain.Product) ProductResult {
	res := ProductResult{SKU: p.SKU}

	outcome, err := r.forecasts.ForecastAndAlert(p.ForecastRequest(r.config.HorizonDays))
	if err != nil {
		res.Err = err
		return res
	}
	res.Status = outcome.Insight.Status
	res.RiskLevel = outcome.Insight.RiskLevel
	res.UsedFallback = outcome.UsedFallback

	res.Err = r.withRetry(ctx, func() error {
		return r.products.UpdateRisk(ctx, p.SKU, string(res.Status), string(res.RiskLevel))
	})
	return res
}

// withRetry retries fn with a linear backoff. Not-found errors are not retried.
func (r *Refresher) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.config.RetryAttempts; attempt++ {
		if err = fn(); err == nil || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if attempt == r.config.RetryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * r.config.RetryBackoff):
		}
	}
	return err
}
