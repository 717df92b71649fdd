package montecarlo

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/riskcore/pkg/portfolio"
)

func testAssets() []Asset {
	return []Asset{
		{Name: "SPY", Value: 60000, ExpectedReturn: 0.08, Volatility: 0.18},
		{Name: "TLT", Value: 30000, ExpectedReturn: 0.03, Volatility: 0.10},
		{Name: "GLD", Value: 10000, ExpectedReturn: 0.05, Volatility: 0.15},
	}
}

func TestRunPortfolioIndependentAssets(t *testing.T) {
	sim := New(Config{Simulations: 2000, Horizon: 252, Seed: seedPtr(11)}, zerolog.Nop())

	res, err := sim.RunPortfolio(testAssets(), nil)
	require.NoError(t, err)

	assert.Equal(t, 100000.0, res.InitialValue)
	assert.Equal(t, 2000, res.NumSimulations)

	// Value-weighted compounded drift: 0.6*8% + 0.3*3% + 0.1*5% ~ 6.5%.
	assert.InDelta(t, 0.065, res.ExpectedReturn, 0.02)
	assert.Greater(t, res.ExpectedValue, res.InitialValue)

	assert.Greater(t, res.VaR99, res.VaR95)
	assert.Greater(t, res.VaR95, 0.0)
	assert.Greater(t, res.BestCase, res.WorstCase)

	assert.GreaterOrEqual(t, res.ProbLoss, 0.0)
	assert.LessOrEqual(t, res.ProbLoss, 1.0)
	assert.GreaterOrEqual(t, res.ProbGainAbove, 0.0)
	assert.LessOrEqual(t, res.ProbGainAbove, 1.0)
	assert.Equal(t, 0.10, res.GainThreshold)
}

func TestRunPortfolioReproducibleWithSeed(t *testing.T) {
	cfg := Config{Simulations: 800, Horizon: 126, Workers: 3, Seed: seedPtr(23)}

	a, err := New(cfg, zerolog.Nop()).RunPortfolio(testAssets(), nil)
	require.NoError(t, err)
	b, err := New(cfg, zerolog.Nop()).RunPortfolio(testAssets(), nil)
	require.NoError(t, err)

	assert.Equal(t, a.ExpectedValue, b.ExpectedValue)
	assert.Equal(t, a.VaR95, b.VaR95)
	assert.Equal(t, a.ProbLoss, b.ProbLoss)
}

func TestRunPortfolioCorrelationRaisesRisk(t *testing.T) {
	assets := []Asset{
		{Name: "A", Value: 50000, ExpectedReturn: 0.05, Volatility: 0.20},
		{Name: "B", Value: 50000, ExpectedReturn: 0.05, Volatility: 0.20},
	}
	cfg := Config{Simulations: 3000, Horizon: 126, Seed: seedPtr(5)}

	independent, err := New(cfg, zerolog.Nop()).RunPortfolio(assets, nil)
	require.NoError(t, err)

	corr := mat.NewSymDense(2, []float64{
		1, 0.95,
		0.95, 1,
	})
	coupled, err := New(cfg, zerolog.Nop()).RunPortfolio(assets, corr)
	require.NoError(t, err)

	// Near-perfect correlation removes diversification, widening the
	// terminal distribution and the VaR with it.
	assert.Greater(t, coupled.ExpectedVolatility, independent.ExpectedVolatility)
	assert.Greater(t, coupled.VaR95, independent.VaR95)
}

func TestRunPortfolioRejectsNonPositiveDefinite(t *testing.T) {
	assets := []Asset{
		{Name: "A", Value: 1000, Volatility: 0.20},
		{Name: "B", Value: 1000, Volatility: 0.20},
		{Name: "C", Value: 1000, Volatility: 0.20},
	}
	// These pairwise correlations cannot coexist: A tracks both B and C,
	// yet B and C move against each other.
	corr := mat.NewSymDense(3, []float64{
		1, 0.9, 0.9,
		0.9, 1, -0.9,
		0.9, -0.9, 1,
	})

	sim := New(Config{Simulations: 10, Horizon: 5, Seed: seedPtr(1)}, zerolog.Nop())
	_, err := sim.RunPortfolio(assets, corr)
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)
}

func TestRunPortfolioValidation(t *testing.T) {
	sim := New(Config{Simulations: 10, Horizon: 5, Seed: seedPtr(1)}, zerolog.Nop())

	_, err := sim.RunPortfolio(nil, nil)
	assert.Error(t, err)

	_, err = sim.RunPortfolio(testAssets(), mat.NewSymDense(2, nil))
	assert.Error(t, err)

	bad := testAssets()
	bad[0].Value = -5
	_, err = sim.RunPortfolio(bad, nil)
	assert.Error(t, err)

	bad = testAssets()
	bad[1].Volatility = -0.1
	_, err = sim.RunPortfolio(bad, nil)
	assert.Error(t, err)
}

func TestAssetsFromPortfolio(t *testing.T) {
	p := portfolio.Portfolio{
		"spy": {Symbol: "SPY", Value: 60000, AssetClass: portfolio.AssetClassEquities, ExpectedReturn: 0.08, Volatility: 0.18},
		"tlt": {Symbol: "TLT", Value: 30000, AssetClass: portfolio.AssetClassBonds, ExpectedReturn: 0.03, Volatility: 0.10},
	}

	assets := AssetsFromPortfolio(p)
	require.Len(t, assets, 2)

	// Sorted by position id.
	assert.Equal(t, "SPY", assets[0].Name)
	assert.Equal(t, 60000.0, assets[0].Value)
	assert.Equal(t, "TLT", assets[1].Name)
	assert.Equal(t, 0.10, assets[1].Volatility)
}
