package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateATR calculates the Average True Range
//
// ATR measures volatility in price units and is the basis for
// volatility-scaled stop placement.
//
// Args:
//   - highs: Array of high prices
//   - lows: Array of low prices
//   - closes: Array of closing prices
//   - period: ATR period (typically 14)
//
// Returns:
//   - Current ATR value or nil if insufficient data
func CalculateATR(highs, lows, closes []float64, period int) *float64 {
	if period <= 0 {
		return nil
	}
	if len(highs) != len(lows) || len(highs) != len(closes) {
		return nil
	}
	if len(closes) < period+1 {
		return nil
	}

	atr := talib.Atr(highs, lows, closes, period)

	if len(atr) > 0 && !isNaN(atr[len(atr)-1]) {
		result := atr[len(atr)-1]
		return &result
	}

	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
