package risk

import (
	"errors"
	"fmt"
)

// minBacktestWindow is the smallest rolling window that still produces a
// meaningful VaR estimate.
const minBacktestWindow = 20

// ErrInsufficientData is returned when an input series is too short for the
// requested computation.
var ErrInsufficientData = errors.New("not enough observations")

// BacktestResult summarizes a rolling out-of-sample VaR backtest. A sound
// model produces an exception rate close to (1 - confidence).
type BacktestResult struct {
	Method        Method  `json:"method"`
	Confidence    float64 `json:"confidence_level"`
	Window        int     `json:"window"`
	Observations  int     `json:"observations"`
	Exceptions    int     `json:"exceptions"`
	ExceptionRate float64 `json:"exception_rate"`
	ExpectedRate  float64 `json:"expected_rate"`
}

// BacktestVaR walks the return series with a rolling window, estimates
// one-period VaR on each window and counts exceptions: realized returns
// that fell below the estimated -VaR. The Monte Carlo method is backtested
// through its parametric equivalent so results stay deterministic.
func BacktestVaR(returns []float64, confidence float64, window int, method Method) (*BacktestResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence must be in (0, 1), got %v", confidence)
	}
	if window < minBacktestWindow {
		return nil, fmt.Errorf("window must be at least %d, got %d", minBacktestWindow, window)
	}
	if len(returns) <= window {
		return nil, fmt.Errorf("%w: need more than %d, got %d", ErrInsufficientData, window, len(returns))
	}

	estimate := HistoricalVaR
	switch method {
	case MethodHistorical:
	case MethodParametric, MethodMonteCarlo:
		estimate = ParametricVaR
	default:
		return nil, fmt.Errorf("unknown VaR method: %q", method)
	}

	exceptions := 0
	observations := 0
	for i := window; i < len(returns); i++ {
		est := estimate(returns[i-window:i], confidence, 1)
		observations++
		if returns[i] < -est {
			exceptions++
		}
	}

	return &BacktestResult{
		Method:        method,
		Confidence:    confidence,
		Window:        window,
		Observations:  observations,
		Exceptions:    exceptions,
		ExceptionRate: float64(exceptions) / float64(observations),
		ExpectedRate:  1 - confidence,
	}, nil
}
