package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateATR(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 105
		lows[i] = 95
		closes[i] = 100
	}

	atr := CalculateATR(highs, lows, closes, 14)
	require.NotNil(t, atr)
	// Constant 10-point bar range smooths to an ATR of exactly 10.
	assert.InDelta(t, 10.0, *atr, 1e-9)
}

func TestCalculateATRInsufficientData(t *testing.T) {
	short := []float64{100, 101, 102}

	assert.Nil(t, CalculateATR(short, short, short, 14))
	assert.Nil(t, CalculateATR(short, short, []float64{100, 101}, 2), "mismatched lengths")
	assert.Nil(t, CalculateATR(short, short, short, 0), "non-positive period")
}
