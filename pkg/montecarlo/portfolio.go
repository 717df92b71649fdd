package montecarlo

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/riskcore/pkg/formulas"
	"github.com/aristath/riskcore/pkg/portfolio"
	"github.com/aristath/riskcore/pkg/risk"
)

// ErrNotPositiveDefinite is returned when the supplied correlation matrix
// has no Cholesky factorization. Impossible correlation structures fail
// here instead of leaking NaNs into the simulation.
var ErrNotPositiveDefinite = errors.New("correlation matrix is not positive definite")

// defaultGainThreshold is the terminal return above which a path counts
// toward ProbGainAbove.
const defaultGainThreshold = 0.10

// Asset is one simulated portfolio component. Return and volatility are
// annualized decimals.
type Asset struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
}

// PortfolioResult summarizes the terminal portfolio-value distribution of a
// correlated multi-asset run. VaR figures are in currency; BestCase and
// WorstCase are the 95th and 5th percentiles of terminal value.
type PortfolioResult struct {
	InitialValue       float64 `json:"initial_value"`
	ExpectedValue      float64 `json:"expected_value"`
	ExpectedReturn     float64 `json:"expected_return"`
	ExpectedVolatility float64 `json:"expected_volatility"`
	VaR95              float64 `json:"var_95"`
	VaR99              float64 `json:"var_99"`
	BestCase           float64 `json:"best_case"`
	WorstCase          float64 `json:"worst_case"`
	ProbLoss           float64 `json:"probability_of_loss"`
	ProbGainAbove      float64 `json:"probability_of_gain"`
	GainThreshold      float64 `json:"gain_threshold"`
	NumSimulations     int     `json:"num_simulations"`
}

// RunPortfolio simulates correlated daily paths for a multi-asset
// portfolio. Standard-normal shocks are drawn per asset and period, then
// transformed through the lower Cholesky factor of the correlation matrix
// to induce the target correlation; each asset compounds its own path and
// the dollar-weighted sum forms the portfolio path. A nil matrix means
// independent assets.
func (s *Simulator) RunPortfolio(assets []Asset, corr *mat.SymDense) (*PortfolioResult, error) {
	if len(assets) == 0 {
		return nil, errors.New("at least one asset is required")
	}

	totalValue := 0.0
	for _, a := range assets {
		if a.Value <= 0 {
			return nil, fmt.Errorf("asset %q must have positive value, got %v", a.Name, a.Value)
		}
		if a.Volatility < 0 {
			return nil, fmt.Errorf("asset %q volatility must not be negative, got %v", a.Name, a.Volatility)
		}
		totalValue += a.Value
	}

	n := len(assets)
	if corr == nil {
		corr = identityCorrelation(n)
	} else if r := corr.SymmetricDim(); r != n {
		return nil, fmt.Errorf("correlation matrix is %dx%d, want %dx%d", r, r, n, n)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(corr); !ok {
		return nil, fmt.Errorf("%w: Cholesky factorization failed", ErrNotPositiveDefinite)
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	dailyMu := make([]float64, n)
	dailyVol := make([]float64, n)
	for i, a := range assets {
		dailyMu[i] = a.ExpectedReturn / tradingDaysPerYear
		dailyVol[i] = a.Volatility / math.Sqrt(tradingDaysPerYear)
	}

	seedBase := s.seedBase()

	type pathResult struct {
		index    int
		terminal float64
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
				stdNormal := distuv.Normal{
					Mu:    0,
					Sigma: 1,
					Src:   rand.NewPCG(seedBase, uint64(idx)),
				}

				values := make([]float64, n)
				for i, a := range assets {
					values[i] = a.Value
				}

				shocks := make([]float64, n)
				for t := 0; t < s.cfg.Horizon; t++ {
					for i := range shocks {
						shocks[i] = stdNormal.Rand()
					}
					for a := 0; a < n; a++ {
						// Row a of L mixes the independent shocks into
						// a shock with the target correlation.
						corrShock := 0.0
						for b := 0; b <= a; b++ {
							corrShock += lower.At(a, b) * shocks[b]
						}
						values[a] *= 1 + (dailyMu[a] + dailyVol[a]*corrShock)
					}
				}

				terminal := 0.0
				for _, v := range values {
					terminal += v
				}
				results <- pathResult{index: idx, terminal: terminal}
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
	for r := range results {
		terminals[r.index] = r.terminal
	}

	returns := make([]float64, len(terminals))
	lossCount, gainCount := 0, 0
	for i, v := range terminals {
		returns[i] = v/totalValue - 1
		if v < totalValue {
			lossCount++
		}
		if returns[i] > defaultGainThreshold {
			gainCount++
		}
	}

	res := &PortfolioResult{
		InitialValue:       totalValue,
		ExpectedValue:      formulas.Mean(terminals),
		ExpectedReturn:     formulas.Mean(returns),
		ExpectedVolatility: formulas.StdDev(returns),
		VaR95:              risk.HistoricalVaR(returns, 0.95, 1) * totalValue,
		VaR99:              risk.HistoricalVaR(returns, 0.99, 1) * totalValue,
		BestCase:           formulas.Percentile(terminals, 0.95),
		WorstCase:          formulas.Percentile(terminals, 0.05),
		ProbLoss:           float64(lossCount) / float64(len(terminals)),
		ProbGainAbove:      float64(gainCount) / float64(len(terminals)),
		GainThreshold:      defaultGainThreshold,
		NumSimulations:     len(terminals),
	}

	s.log.Debug().
		Int("simulations", s.cfg.Simulations).
		Int("assets", n).
		Float64("expected_value", res.ExpectedValue).
		Float64("var_95", res.VaR95).
		Msg("portfolio simulation complete")

	return res, nil
}

// AssetsFromPortfolio converts a portfolio snapshot into the ordered asset
// slice the simulator consumes, sorted by position id so shock assignment
// is deterministic under a fixed seed.
func AssetsFromPortfolio(p portfolio.Portfolio) []Asset {
	ids := p.IDs()
	assets := make([]Asset, 0, len(ids))
	for _, id := range ids {
		pos := p[id]
		name := pos.Symbol
		if name == "" {
			name = id
		}
		assets = append(assets, Asset{
			Name:           name,
			Value:          pos.Value,
			ExpectedReturn: pos.ExpectedReturn,
			Volatility:     pos.Volatility,
		})
	}
	return assets
}

func identityCorrelation(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}
