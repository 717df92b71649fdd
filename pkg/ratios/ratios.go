// Package ratios computes risk-adjusted performance ratios. Inputs are
// fractional per-period returns; all ratios are annualized. Degenerate
// inputs map to deterministic values (0 or +Inf), never errors.
package ratios

import (
	"math"

	"github.com/aristath/riskcore/pkg/drawdown"
	"github.com/aristath/riskcore/pkg/formulas"
)

// Sharpe calculates the annualized Sharpe ratio.
//
// Formula: sqrt(periodsPerYear) × mean(returns − rf/periodsPerYear) / stddev(returns)
//
// Returns 0 when the return series has no spread (stddev 0) or fewer than
// two observations.
func Sharpe(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0
	}

	std := formulas.StdDev(returns)
	if std == 0 {
		return 0
	}

	excess := formulas.Mean(returns) - riskFreeRate/float64(periodsPerYear)
	return math.Sqrt(float64(periodsPerYear)) * excess / std
}

// Sortino calculates the annualized Sortino ratio: the Sharpe numerator over
// the standard deviation of the strictly negative returns.
//
// A degenerate downside (no negative returns, or a single repeated value)
// makes the denominator 0; the result is then +Inf when the excess return is
// positive and 0 otherwise.
func Sortino(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) == 0 || periodsPerYear <= 0 {
		return 0
	}

	excess := formulas.Mean(returns) - riskFreeRate/float64(periodsPerYear)
	downside := downsideDeviation(returns)
	if downside == 0 {
		if excess > 0 {
			return math.Inf(1)
		}
		return 0
	}

	return math.Sqrt(float64(periodsPerYear)) * excess / downside
}

// Calmar calculates the Calmar ratio: annualized return over the magnitude
// of the maximum drawdown of the equity curve the returns reconstruct.
//
// A flat-or-rising curve has no drawdown; the result is then +Inf when the
// annualized return is positive and 0 otherwise.
func Calmar(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 || periodsPerYear <= 0 {
		return 0
	}

	annual := formulas.CalculateAnnualReturn(returns, periodsPerYear)

	equity := formulas.CalculateEquityCurve(1.0, returns)
	analysis, err := drawdown.Analyze(equity)
	if err != nil {
		return 0
	}

	maxDD := math.Abs(analysis.MaxDrawdown)
	if maxDD == 0 {
		if annual > 0 {
			return math.Inf(1)
		}
		return 0
	}

	return annual / maxDD
}

// downsideDeviation is the population standard deviation of the strictly
// negative returns, 0 when there are none.
func downsideDeviation(returns []float64) float64 {
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	if len(neg) == 0 {
		return 0
	}

	mean := formulas.Mean(neg)
	sumSq := 0.0
	for _, r := range neg {
		d := r - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(neg)))
}
