// Package montecarlo simulates portfolio value paths by Monte Carlo
// sampling. Paths are independent, so the sampling loop fans out over a
// worker pool; per-path seeding keeps seeded runs reproducible regardless
// of scheduling.
package montecarlo

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/riskcore/pkg/formulas"
	"github.com/aristath/riskcore/pkg/risk"
)

const (
	defaultSimulations = 10000
	tradingDaysPerYear = 252
)

// Config controls a simulation run.
type Config struct {
	Simulations int     // Independent paths (default 10000)
	Horizon     int     // Trading periods per path (default 252)
	Workers     int     // Parallel workers (default runtime.NumCPU())
	KeepPaths   bool    // Retain the full per-path series on the Result
	Seed        *uint64 // Fixed seed for reproducible runs; nil draws from entropy
}

// Result summarizes the terminal-value distribution of a single-asset run.
// Return figures are fractions of the initial value; MaxGain and MaxLoss
// are the best and worst terminal returns observed.
type Result struct {
	ExpectedReturn     float64     `json:"expected_return"`
	ExpectedVolatility float64     `json:"expected_volatility"`
	VaR95              float64     `json:"var_95"`
	VaR99              float64     `json:"var_99"`
	CVaR95             float64     `json:"cvar_95"`
	MaxGain            float64     `json:"max_gain"`
	MaxLoss            float64     `json:"max_loss"`
	NumSimulations     int         `json:"num_simulations"`
	Paths              [][]float64 `json:"paths,omitempty"`
}

// Simulator runs Monte Carlo simulations with a fixed configuration.
// Runs are read-only on the simulator, so one instance can serve
// concurrent callers.
type Simulator struct {
	cfg Config
	log zerolog.Logger
}

// New creates a simulator, filling config defaults.
func New(cfg Config, log zerolog.Logger) *Simulator {
	if cfg.Simulations <= 0 {
		cfg.Simulations = defaultSimulations
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = tradingDaysPerYear
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return &Simulator{
		cfg: cfg,
		log: log.With().Str("component", "montecarlo").Logger(),
	}
}

// Run simulates independent daily paths for a single asset: each period
// draws a return from Normal(annualReturn/252, annualVol/sqrt(252)) and
// compounds it multiplicatively. The result summarizes the terminal
// distribution; full paths are retained only when the config asks.
func (s *Simulator) Run(initialValue, annualReturn, annualVol float64) (*Result, error) {
	if initialValue <= 0 {
		return nil, fmt.Errorf("initial value must be positive, got %v", initialValue)
	}
	if annualVol < 0 {
		return nil, fmt.Errorf("volatility must not be negative, got %v", annualVol)
	}

	dailyMu := annualReturn / tradingDaysPerYear
	dailyVol := annualVol / math.Sqrt(tradingDaysPerYear)
	seedBase := s.seedBase()

	type pathResult struct {
		index    int
		terminal float64
		path     []float64
	}

	jobs := make(chan int, s.cfg.Simulations)
	results := make(chan pathResult, s.cfg.Simulations)

	workers := s.cfg.Workers
	if workers > s.cfg.Simulations {
		workers = s.cfg.Simulations
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// One source per path, keyed by path index, so the
				// draw sequence is independent of which worker runs it.
				dist := distuv.Normal{
					Mu:    dailyMu,
					Sigma: dailyVol,
					Src:   rand.NewPCG(seedBase, uint64(idx)),
				}

				value := initialValue
				var path []float64
				if s.cfg.KeepPaths {
					path = make([]float64, s.cfg.Horizon)
				}
				for t := 0; t < s.cfg.Horizon; t++ {
					value *= 1 + dist.Rand()
					if path != nil {
						path[t] = value
					}
				}
				results <- pathResult{index: idx, terminal: value, path: path}
			}
		}()
	}

	for i := 0; i < s.cfg.Simulations; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	terminals := make([]float64, s.cfg.Simulations)
	var paths [][]float64
	if s.cfg.KeepPaths {
		paths = make([][]float64, s.cfg.Simulations)
	}
	for r := range results {
		terminals[r.index] = r.terminal
		if paths != nil {
			paths[r.index] = r.path
		}
	}

	res := summarize(initialValue, terminals)
	res.Paths = paths

	s.log.Debug().
		Int("simulations", s.cfg.Simulations).
		Int("horizon", s.cfg.Horizon).
		Float64("expected_return", res.ExpectedReturn).
		Float64("var_95", res.VaR95).
		Msg("single-asset simulation complete")

	return res, nil
}

// summarize reduces terminal values to distribution statistics in return
// space.
func summarize(initialValue float64, terminals []float64) *Result {
	returns := make([]float64, len(terminals))
	for i, v := range terminals {
		returns[i] = v/initialValue - 1
	}

	maxGain, maxLoss := returns[0], returns[0]
	for _, r := range returns[1:] {
		if r > maxGain {
			maxGain = r
		}
		if r < maxLoss {
			maxLoss = r
		}
	}

	return &Result{
		ExpectedReturn:     formulas.Mean(returns),
		ExpectedVolatility: formulas.StdDev(returns),
		VaR95:              risk.HistoricalVaR(returns, 0.95, 1),
		VaR99:              risk.HistoricalVaR(returns, 0.99, 1),
		CVaR95:             risk.CVaR(returns, 0.95),
		MaxGain:            maxGain,
		MaxLoss:            maxLoss,
		NumSimulations:     len(terminals),
	}
}

func (s *Simulator) seedBase() uint64 {
	if s.cfg.Seed != nil {
		return *s.cfg.Seed
	}
	return rand.Uint64()
}
