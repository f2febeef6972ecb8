package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Orchestrator runs the refresher on a fixed interval until its context ends.
type Orchestrator struct {
	refresher *Refresher
	interval  time.Duration
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(refresher *Refresher, interval time.Duration) *Orchestrator {
	return &Orchestrator{refresher: refresher, interval: interval}
}

// Start blocks, running one refresh per tick. A non-positive interval returns
// immediately.
func (o *Orchestrator) Start(ctx context.Context) {
	if o.interval <= 0 {
		return
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", o.interval).Msg("refresh scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("refresh scheduler stopped")
			return
		case <-ticker.C:
			if _, _, err := o.refresher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}
