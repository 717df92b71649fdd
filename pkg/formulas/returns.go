package formulas

import "math"

// CalculateReturns converts prices to fractional per-period returns.
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// CalculateEquityCurve compounds fractional returns into an equity curve.
// The result has len(returns)+1 points and starts at initial.
func CalculateEquityCurve(initial float64, returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = initial
	for i, r := range returns {
		curve[i+1] = curve[i] * (1 + r)
	}
	return curve
}

// CalculateAnnualReturn calculates the compound annual growth rate from
// per-period returns.
//
// Formula: ((1+r1)*(1+r2)*...*(1+rN))^(periodsPerYear/N) - 1
//
// For very short series (fewer than 3 periods) the simple cumulative return
// is returned instead, to avoid extreme annualization.
//
// Args:
//   - returns: Per-period returns as decimals (e.g., 0.01 = 1%)
//   - periodsPerYear: 252 for daily data, 12 for monthly
//
// Returns:
//   - Annualized return as decimal (e.g., 0.15 = 15% annual return)
func CalculateAnnualReturn(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 || periodsPerYear <= 0 {
		return 0
	}

	cumulative := 1.0
	for _, r := range returns {
		cumulative *= (1 + r)
	}

	numPeriods := float64(len(returns))
	if numPeriods < 3 {
		return cumulative - 1
	}

	// Total loss: the CAGR formula is undefined for non-positive cumulative value.
	if cumulative <= 0 {
		return -1
	}

	years := numPeriods / float64(periodsPerYear)
	return math.Pow(cumulative, 1.0/years) - 1
}
