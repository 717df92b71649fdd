package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns(nil))
	assert.Empty(t, CalculateReturns([]float64{100}))

	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestCalculateEquityCurve(t *testing.T) {
	curve := CalculateEquityCurve(100, []float64{0.10, -0.10})
	require.Len(t, curve, 3)
	assert.InDelta(t, 100.0, curve[0], 1e-12)
	assert.InDelta(t, 110.0, curve[1], 1e-12)
	assert.InDelta(t, 99.0, curve[2], 1e-12)

	// No returns: the curve is just the starting point.
	assert.Equal(t, []float64{500}, CalculateEquityCurve(500, nil))
}

func TestCalculateEquityCurveRoundTrip(t *testing.T) {
	prices := []float64{100, 104, 102, 108, 105}
	returns := CalculateReturns(prices)
	curve := CalculateEquityCurve(prices[0], returns)

	require.Len(t, curve, len(prices))
	for i := range prices {
		assert.InDelta(t, prices[i], curve[i], 1e-9)
	}
}

func TestCalculateAnnualReturn(t *testing.T) {
	assert.Equal(t, 0.0, CalculateAnnualReturn(nil, 252))
	assert.Equal(t, 0.0, CalculateAnnualReturn([]float64{0.01}, 0))

	// Short series fall back to the simple cumulative return.
	assert.InDelta(t, 0.21, CalculateAnnualReturn([]float64{0.10, 0.10}, 252), 1e-12)

	// A full year of 1% daily returns compounds to (1.01^252)-1.
	daily := make([]float64, 252)
	for i := range daily {
		daily[i] = 0.01
	}
	assert.InDelta(t, 11.274, CalculateAnnualReturn(daily, 252), 0.01)

	// Total wipeout stays at -100%, not NaN.
	assert.Equal(t, -1.0, CalculateAnnualReturn([]float64{0.5, -1.0, 0.2, 0.1}, 252))
}
