package scenario

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockrisk/internal/alert"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Forecaster produces a demand projection for a request.
type Forecaster interface {
	Forecast(req domain.ForecastRequest) (*domain.ForecastResult, error)
}

// Evaluator turns a projection into an alert decision.
type Evaluator interface {
	Evaluate(currentStock, leadTimeDays float64, result *domain.ForecastResult) domain.AlertInsight
}

// Planner runs the forecast and alert pipeline for a baseline and an adjusted
// request and diffs the two.
type Planner struct {
	forecaster Forecaster
	evaluator  Evaluator
}

func NewPlanner(forecaster Forecaster, evaluator Evaluator) *Planner {
	return &Planner{forecaster: forecaster, evaluator: evaluator}
}

// Compare runs both pipelines. The runs are independent and share nothing, so
// they execute concurrently.
func (p *Planner) Compare(ctx context.Context, baseline domain.ForecastRequest, adj domain.ScenarioAdjustments) (*domain.ScenarioComparison, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}
	if err := baseline.Validate(); err != nil {
		return nil, err
	}
	scenarioReq := adj.Apply(baseline)
	if err := scenarioReq.Validate(); err != nil {
		return nil, err
	}

	var base, scen domain.ScenarioRun
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		base, err = p.run(baseline)
		return err
	})
	g.Go(func() (err error) {
		scen, err = p.run(scenarioReq)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &domain.ScenarioComparison{
		Baseline:           base,
		Scenario:           scen,
		Adjustments:        adj,
		DemandChangeDelta:  alert.Round(scen.TotalDemand-base.TotalDemand, 2),
		StockoutRiskChange: fmt.Sprintf("%s → %s", base.StockoutRisk, scen.StockoutRisk),
		RecommendedAction:  scen.Insight.Message,
		Narrative:          Narrate(adj, scen),
	}
	if base.TotalDemand > 0 {
		cmp.DemandChangePercent = alert.Round((scen.TotalDemand-base.TotalDemand)/base.TotalDemand*100, 2)
	}
	if base.Insight.ETADays != nil && scen.Insight.ETADays != nil {
		change := alert.Round(*scen.Insight.ETADays-*base.Insight.ETADays, 1)
		cmp.ETADaysChange = &change
	}

	log.Debug().
		Str("sku", baseline.SKU).
		Float64("demand_change_pct", cmp.DemandChangePercent).
		Str("risk_change", cmp.StockoutRiskChange).
		Msg("scenario: comparison complete")

	return cmp, nil
}

func (p *Planner) run(req domain.ForecastRequest) (domain.ScenarioRun, error) {
	res, err := p.forecaster.Forecast(req)
	if err != nil {
		return domain.ScenarioRun{}, err
	}
	insight := p.evaluator.Evaluate(req.CurrentStock, req.LeadTimeDays, res)
	return domain.ScenarioRun{
		Request:      req,
		Forecast:     res,
		Insight:      insight,
		TotalDemand:  res.TotalDemand(),
		StockoutRisk: insight.RiskLevel,
	}, nil
}
