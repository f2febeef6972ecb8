package model

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry holds the predictors loaded at process start. It is never mutated
// after LoadRegistry returns, so concurrent readers need no locking.
type Registry struct {
	StockStatus *Bundle
	Delay       *Bundle
	Quality     *Bundle
	Fulfillment *Bundle
	LoadedAt    time.Time
}

// ModelStatus reports whether one predictor is available.
type ModelStatus struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// LoadRegistry loads every known bundle. Missing or broken bundles are logged
// and left nil; callers decide whether that is fatal. When syncFirst is set the
// loader mirrors artefacts from object storage before reading them.
func LoadRegistry(ctx context.Context, loader *Loader, syncFirst bool) (*Registry, []ModelStatus) {
	if syncFirst {
		if n, err := loader.Sync(ctx); err != nil {
			log.Warn().Err(err).Msg("model sync failed, using local artefacts")
		} else {
			log.Info().Int("count", n).Msg("model artefacts synced")
		}
	}

	reg := &Registry{LoadedAt: time.Now()}
	targets := []struct {
		name string
		file string
		dst  **Bundle
	}{
		{"stock_status", StockStatusFile, &reg.StockStatus},
		{"delay_risk", DelayRiskFile, &reg.Delay},
		{"quality_risk", QualityRiskFile, &reg.Quality},
		{"fulfillment_risk", FulfillmentFile, &reg.Fulfillment},
	}

	statuses := make([]ModelStatus, 0, len(targets))
	for _, t := range targets {
		st := ModelStatus{Name: t.name, File: t.file}
		b, err := loader.Load(t.file)
		if err != nil {
			st.Error = err.Error()
			log.Warn().Err(err).Str("model", t.name).Msg("predictor not loaded")
		} else {
			*t.dst = b
			st.Loaded = true
			log.Info().Str("model", t.name).Msg("predictor loaded")
		}
		statuses = append(statuses, st)
	}

	return reg, statuses
}

// SupplierModelsLoaded reports whether all three supplier sub-predictors are present.
func (r *Registry) SupplierModelsLoaded() bool {
	return r != nil && r.Delay != nil && r.Quality != nil && r.Fulfillment != nil
}
