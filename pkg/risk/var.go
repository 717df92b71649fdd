package risk

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/riskcore/pkg/formulas"
)

// defaultVaRSimulations is the Monte Carlo sample count used when the
// caller does not care.
const defaultVaRSimulations = 10000

// HistoricalVaR estimates Value at Risk from the empirical return
// distribution: the magnitude of the (1-confidence) lower percentile,
// scaled to the horizon by the square-root-of-time rule.
//
// Args:
//   - returns: Per-period returns as decimals (e.g., 0.01 = 1%)
//   - confidence: Confidence level (e.g., 0.95 for 95%)
//   - horizon: Holding period in return periods
//
// Returns:
//   - VaR as a non-negative fraction of portfolio value; 0 for empty input
func HistoricalVaR(returns []float64, confidence float64, horizon int) float64 {
	if len(returns) == 0 {
		return 0
	}
	if horizon < 1 {
		horizon = 1
	}

	q := formulas.Percentile(returns, 1-confidence)
	return varMagnitude(q) * math.Sqrt(float64(horizon))
}

// HistoricalVaRValue expresses HistoricalVaR in currency: the estimated
// maximum loss on a portfolio of the given value.
func HistoricalVaRValue(returns []float64, confidence float64, horizon int, portfolioValue float64) float64 {
	return HistoricalVaR(returns, confidence, horizon) * portfolioValue
}

// ParametricVaR estimates Value at Risk assuming normally distributed
// returns: VaR = -(mean + z(1-confidence) × stddev), scaled to the horizon
// by the square-root-of-time rule. The z score comes from the inverse
// normal CDF.
func ParametricVaR(returns []float64, confidence float64, horizon int) float64 {
	if len(returns) < 2 {
		return 0
	}
	if horizon < 1 {
		horizon = 1
	}

	mean := formulas.Mean(returns)
	std := formulas.StdDev(returns)

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - confidence)
	return varMagnitude(mean+z*std) * math.Sqrt(float64(horizon))
}

// MonteCarloVaR estimates Value at Risk by sampling horizon-aggregated
// returns from Normal(mean×horizon, stddev×sqrt(horizon)) and taking the
// magnitude of the (1-confidence) sample percentile.
//
// src selects the random source: nil uses the process entropy source, a
// seeded source (e.g. rand.NewPCG) makes the estimate reproducible for
// tests.
func MonteCarloVaR(returns []float64, confidence float64, horizon, simulations int, src rand.Source) float64 {
	if len(returns) < 2 {
		return 0
	}
	if horizon < 1 {
		horizon = 1
	}
	if simulations < 1 {
		simulations = defaultVaRSimulations
	}

	dist := distuv.Normal{
		Mu:    formulas.Mean(returns) * float64(horizon),
		Sigma: formulas.StdDev(returns) * math.Sqrt(float64(horizon)),
		Src:   src,
	}

	samples := make([]float64, simulations)
	for i := range samples {
		samples[i] = dist.Rand()
	}

	return varMagnitude(formulas.Percentile(samples, 1-confidence))
}

// CVaR calculates Conditional Value at Risk (expected shortfall): the
// average of the returns at or below the (1-confidence) percentile,
// reported as a non-negative magnitude. With an empty tail the result
// degenerates to the percentile threshold itself.
func CVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	if len(returns) == 1 {
		return varMagnitude(returns[0])
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// For 95% confidence, average the worst 5% of returns.
	tailCount := int(math.Ceil(float64(len(sorted)) * (1 - confidence)))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}

	return varMagnitude(sum / float64(tailCount))
}

// Compute runs the requested VaR method and wraps the result. When
// portfolioValue is positive the VaR is expressed in currency, otherwise as
// a fraction. The Monte Carlo method draws from the entropy source; use
// MonteCarloVaR directly for seeded runs.
func Compute(method Method, returns []float64, confidence float64, horizon int, portfolioValue float64) (VaRResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, fmt.Errorf("confidence must be in (0, 1), got %v", confidence)
	}
	if horizon < 1 {
		return VaRResult{}, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	var value float64
	switch method {
	case MethodHistorical:
		value = HistoricalVaR(returns, confidence, horizon)
	case MethodParametric:
		value = ParametricVaR(returns, confidence, horizon)
	case MethodMonteCarlo:
		value = MonteCarloVaR(returns, confidence, horizon, defaultVaRSimulations, nil)
	default:
		return VaRResult{}, fmt.Errorf("unknown VaR method: %q", method)
	}

	result := VaRResult{
		Value:      value,
		Confidence: confidence,
		Horizon:    horizon,
		Method:     method,
	}
	if portfolioValue > 0 {
		result.Value *= portfolioValue
		result.PortfolioValue = portfolioValue
	}
	return result, nil
}

// varMagnitude maps a signed tail return to a loss magnitude: losses become
// positive VaR, gains clamp to zero.
func varMagnitude(tail float64) float64 {
	if tail >= 0 {
		return 0
	}
	return -tail
}
