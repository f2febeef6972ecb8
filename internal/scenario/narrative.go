package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/alert"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Narrate explains a scenario run in three parts: the simulated situation, the
// stock-out risk against the scenario lead time, and the action to take.
func Narrate(adj domain.ScenarioAdjustments, run domain.ScenarioRun) domain.ScenarioNarrative {
	var situation strings.Builder
	fmt.Fprintf(&situation, "With demand at %sx baseline, total projected consumption is %d units over %d days.",
		formatMultiplier(adj.DemandMultiplier*adj.SalesSpike), int(run.TotalDemand), run.Request.HorizonDays)
	if adj.LeadTimeDelta > 0 {
		fmt.Fprintf(&situation, " Supply chain delays of %s days are exacerbating stock pressure.", alert.FormatDays(adj.LeadTimeDelta))
	}

	eta := run.Insight.ETA(alert.NoDemandETA)
	days := alert.FormatDays(eta)
	reorder := run.Insight.RecommendedReorderQty

	n := domain.ScenarioNarrative{Situation: situation.String()}
	switch status, _ := alert.Classify(run.Request.CurrentStock, eta, run.Request.LeadTimeDays); status {
	case domain.StatusOutOfStock, domain.StatusAtRisk:
		n.Risk = fmt.Sprintf("CRITICAL: Stock exhaustion predicted in %s days, which is less than your %s-day lead time. A stock-out is highly likely.",
			days, alert.FormatDays(run.Request.LeadTimeDays))
		n.Action = fmt.Sprintf("Immediate reorder of %d units required to minimize service interruption.", reorder)
	case domain.StatusWarning:
		n.Risk = fmt.Sprintf("WARNING: Stock will reach critical levels in %s days. Current buffers may not be sufficient for the simulated demand spike.", days)
		n.Action = fmt.Sprintf("Place a proactive order of %d units within the next 48 hours.", reorder)
	default:
		n.Risk = fmt.Sprintf("Information: Current inventory and simulated restocks provide a %s-day safety window.", days)
		n.Action = "Maintain regular monitoring. No immediate emergency action required."
	}
	return n
}

// formatMultiplier always shows at least one decimal, so 1 reads "1.0".
func formatMultiplier(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
