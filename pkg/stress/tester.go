// Package stress applies named shock scenarios to portfolio snapshots and
// classifies the damage. Scenarios live in a registry so callers can add
// their own beside the builtin set.
package stress

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/pkg/portfolio"
)

// ErrUnknownScenario is returned when a scenario name is not in the
// registry.
var ErrUnknownScenario = errors.New("unknown stress scenario")

// Risk levels assigned by the magnitude of portfolio impact.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
	LevelSevere = "severe"
)

var recommendations = map[string]string{
	LevelLow:    "Exposure is manageable; no action required.",
	LevelMedium: "Review position concentration and consider partial hedges.",
	LevelHigh:   "Reduce exposure to the affected asset classes and add hedges.",
	LevelSevere: "Portfolio is critically exposed to this scenario; de-risk immediately.",
}

// Result is the outcome of one scenario applied to a portfolio snapshot.
// DollarImpact and PortfolioImpact keep their sign; the risk level
// classifies by magnitude.
type Result struct {
	Scenario          string   `json:"scenario"`
	Description       string   `json:"description,omitempty"`
	PortfolioValue    float64  `json:"portfolio_value"`
	DollarImpact      float64  `json:"dollar_impact"`
	PortfolioImpact   float64  `json:"portfolio_impact"`
	AffectedPositions []string `json:"affected_positions,omitempty"`
	RiskLevel         string   `json:"risk_level"`
	Recommendation    string   `json:"recommendation"`
}

// Tester applies stress scenarios to portfolio snapshots. It holds no
// mutable state beyond the registry, so one instance serves concurrent
// callers.
type Tester struct {
	registry *Registry
	log      zerolog.Logger
}

// New creates a tester over the given registry; nil means the builtin set.
func New(registry *Registry, log zerolog.Logger) *Tester {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Tester{
		registry: registry,
		log:      log.With().Str("component", "stress_tester").Logger(),
	}
}

// Registry exposes the tester's scenario registry, for custom registration.
func (t *Tester) Registry() *Registry {
	return t.registry
}

// Run applies one named scenario to the portfolio. Positions with an
// unrecognized asset class take no shock; that is a valid no-op, not an
// error. An unknown scenario name is an error.
func (t *Tester) Run(p portfolio.Portfolio, scenarioName string) (*Result, error) {
	scenario, ok := t.registry.Get(scenarioName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, scenarioName)
	}

	totalValue := p.TotalValue()
	result := &Result{
		Scenario:       scenario.Name,
		Description:    scenario.Description,
		PortfolioValue: totalValue,
	}

	if totalValue <= 0 {
		result.RiskLevel = LevelLow
		result.Recommendation = recommendations[LevelLow]
		return result, nil
	}

	totalImpact := 0.0
	var affected []string
	for _, id := range p.IDs() {
		pos := p[id]
		shock, ok := scenario.Shocks[pos.AssetClass]
		if !ok || shock == 0 {
			continue
		}
		totalImpact += pos.Value * shock
		affected = append(affected, id)
	}

	result.DollarImpact = totalImpact
	result.PortfolioImpact = totalImpact / totalValue
	result.AffectedPositions = affected
	result.RiskLevel = classify(result.PortfolioImpact)
	result.Recommendation = recommendations[result.RiskLevel]

	t.log.Debug().
		Str("scenario", scenario.Name).
		Float64("portfolio_impact", result.PortfolioImpact).
		Str("risk_level", result.RiskLevel).
		Msg("stress scenario applied")

	return result, nil
}

// RunAll applies every registered scenario in name order, skipping any
// that fails.
func (t *Tester) RunAll(p portfolio.Portfolio) []*Result {
	names := t.registry.Names()
	results := make([]*Result, 0, len(names))
	for _, name := range names {
		result, err := t.Run(p, name)
		if err != nil {
			t.log.Warn().Err(err).Str("scenario", name).Msg("stress scenario failed")
			continue
		}
		results = append(results, result)
	}
	return results
}

// classify maps |impact| to a risk level: below 5% low, below 15% medium,
// below 30% high, anything beyond severe.
func classify(impact float64) string {
	switch pct := math.Abs(impact); {
	case pct < 0.05:
		return LevelLow
	case pct < 0.15:
		return LevelMedium
	case pct < 0.30:
		return LevelHigh
	default:
		return LevelSevere
	}
}
