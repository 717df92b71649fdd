// Package drawdown decomposes an equity curve into drawdown metrics: running
// peak-relative declines, threshold-crossing drawdown events with recovery
// tracking, and the finer-grained underwater periods.
package drawdown

import (
	"errors"
	"math"
)

// EventThreshold is the drawdown depth a decline must cross before it is
// recorded as a drawdown event. Shallower dips still appear as underwater
// periods.
const EventThreshold = -0.05

// ErrInsufficientData is returned when the equity curve is too short to
// analyze.
var ErrInsufficientData = errors.New("equity curve needs at least two points")

// Event is one drawdown event: a decline that crossed EventThreshold.
// Duration is the number of periods from the threshold crossing to recovery
// (or to the end of the series for an open event).
type Event struct {
	StartIndex  int     `json:"start_index"`
	EndIndex    int     `json:"end_index"`
	Duration    int     `json:"duration"`
	MaxDrawdown float64 `json:"max_drawdown"` // Deepest drawdown within the event (negative)
	Recovered   bool    `json:"recovered"`
}

// UnderwaterPeriod is a contiguous run of strictly negative drawdown,
// regardless of depth. Duration counts the underwater points in the run.
type UnderwaterPeriod struct {
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
	Duration   int `json:"duration"`
}

// Analysis is the full drawdown decomposition of an equity curve.
type Analysis struct {
	CurrentDrawdown         float64            `json:"current_drawdown"`          // Drawdown at the last point (<= 0)
	MaxDrawdown             float64            `json:"max_drawdown"`              // Deepest drawdown in the series (<= CurrentDrawdown)
	MaxDrawdownDuration     int                `json:"max_drawdown_duration"`     // Periods from the preceding peak to the trough
	CurrentDrawdownDuration int                `json:"current_drawdown_duration"` // Periods since the most recent peak
	RecoveryRate            float64            `json:"recovery_rate"`             // Recovered events / total events, 1.0 when no events
	Events                  []Event            `json:"drawdown_events"`
	UnderwaterPeriods       []UnderwaterPeriod `json:"underwater_periods"`
}

// Series computes the drawdown series of an equity curve:
// dd[i] = (equity[i] - runningMax[i]) / runningMax[i], always <= 0.
func Series(equity []float64) []float64 {
	dd := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd[i] = (v - peak) / peak
		}
	}
	return dd
}

// Analyze decomposes an equity curve of at least two points.
func Analyze(equity []float64) (*Analysis, error) {
	n := len(equity)
	if n < 2 {
		return nil, ErrInsufficientData
	}

	dd := Series(equity)

	maxDD := 0.0
	troughIdx := 0
	lastPeakIdx := 0
	for i, d := range dd {
		if d < maxDD {
			maxDD = d
			troughIdx = i
		}
		if d == 0 {
			lastPeakIdx = i
		}
	}

	// Walk back from the trough to the peak that preceded it.
	peakBeforeTrough := troughIdx
	for peakBeforeTrough > 0 && dd[peakBeforeTrough] < 0 {
		peakBeforeTrough--
	}

	analysis := &Analysis{
		CurrentDrawdown:         dd[n-1],
		MaxDrawdown:             maxDD,
		MaxDrawdownDuration:     troughIdx - peakBeforeTrough,
		CurrentDrawdownDuration: (n - 1) - lastPeakIdx,
		Events:                  detectEvents(dd),
		UnderwaterPeriods:       underwaterPeriods(dd),
	}

	recovered := 0
	for _, ev := range analysis.Events {
		if ev.Recovered {
			recovered++
		}
	}
	if len(analysis.Events) == 0 {
		analysis.RecoveryRate = 1.0
	} else {
		analysis.RecoveryRate = float64(recovered) / float64(len(analysis.Events))
	}

	return analysis, nil
}

// UlcerIndex computes the Ulcer Index over the whole equity curve:
// the root mean square of the drawdown series. Deeper and longer drawdowns
// both raise it. Returns 0 for curves shorter than two points.
func UlcerIndex(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	dd := Series(equity)
	sumSq := 0.0
	for _, d := range dd {
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(dd)))
}

// detectEvents scans the drawdown series for threshold crossings. An event
// opens when drawdown drops below EventThreshold and closes when it returns
// to zero or better; an event still open at the end is not recovered.
func detectEvents(dd []float64) []Event {
	var events []Event
	inEvent := false
	start := 0
	worst := 0.0

	for i, d := range dd {
		if !inEvent {
			if d < EventThreshold {
				inEvent = true
				start = i
				worst = d
			}
			continue
		}

		if d < worst {
			worst = d
		}
		if d >= 0 {
			events = append(events, Event{
				StartIndex:  start,
				EndIndex:    i,
				Duration:    i - start,
				MaxDrawdown: worst,
				Recovered:   true,
			})
			inEvent = false
		}
	}

	if inEvent {
		last := len(dd) - 1
		events = append(events, Event{
			StartIndex:  start,
			EndIndex:    last,
			Duration:    last - start,
			MaxDrawdown: worst,
			Recovered:   false,
		})
	}

	return events
}

// underwaterPeriods collects contiguous runs of negative drawdown.
func underwaterPeriods(dd []float64) []UnderwaterPeriod {
	var periods []UnderwaterPeriod
	start := -1

	for i, d := range dd {
		if d < 0 {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			periods = append(periods, UnderwaterPeriod{
				StartIndex: start,
				EndIndex:   i - 1,
				Duration:   i - start,
			})
			start = -1
		}
	}

	if start != -1 {
		last := len(dd) - 1
		periods = append(periods, UnderwaterPeriod{
			StartIndex: start,
			EndIndex:   last,
			Duration:   last - start + 1,
		})
	}

	return periods
}
