package montecarlo

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPtr(v uint64) *uint64 { return &v }

func TestRunRecoversDriftAndVolatility(t *testing.T) {
	sim := New(Config{Simulations: 4000, Horizon: 252, Seed: seedPtr(42)}, zerolog.Nop())

	res, err := sim.Run(100000, 0.08, 0.20)
	require.NoError(t, err)

	assert.Equal(t, 4000, res.NumSimulations)
	// Compounded 8% annual drift lands near e^0.08 - 1.
	assert.InDelta(t, 0.083, res.ExpectedReturn, 0.02)
	assert.InDelta(t, 0.20, res.ExpectedVolatility, 0.04)
	assert.Greater(t, res.VaR99, res.VaR95)
	assert.GreaterOrEqual(t, res.CVaR95, res.VaR95)
	assert.Greater(t, res.MaxGain, 0.0)
	assert.Less(t, res.MaxLoss, 0.0)
	assert.Nil(t, res.Paths)
}

func TestRunReproducibleWithSeed(t *testing.T) {
	cfg := Config{Simulations: 500, Horizon: 64, Workers: 4, Seed: seedPtr(7)}

	a, err := New(cfg, zerolog.Nop()).Run(1000, 0.05, 0.15)
	require.NoError(t, err)
	b, err := New(cfg, zerolog.Nop()).Run(1000, 0.05, 0.15)
	require.NoError(t, err)

	// Paths are seeded by index, so worker scheduling cannot change the
	// outcome.
	assert.Equal(t, a.ExpectedReturn, b.ExpectedReturn)
	assert.Equal(t, a.VaR95, b.VaR95)
	assert.Equal(t, a.MaxLoss, b.MaxLoss)

	cfg.Seed = seedPtr(8)
	c, err := New(cfg, zerolog.Nop()).Run(1000, 0.05, 0.15)
	require.NoError(t, err)
	assert.NotEqual(t, a.ExpectedReturn, c.ExpectedReturn)
}

func TestRunKeepPaths(t *testing.T) {
	sim := New(Config{Simulations: 10, Horizon: 20, KeepPaths: true, Seed: seedPtr(1)}, zerolog.Nop())

	res, err := sim.Run(100, 0, 0.10)
	require.NoError(t, err)

	require.Len(t, res.Paths, 10)
	for _, path := range res.Paths {
		require.Len(t, path, 20)
		for _, v := range path {
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestRunZeroVolatilityIsDeterministic(t *testing.T) {
	sim := New(Config{Simulations: 50, Horizon: 252, Seed: seedPtr(3)}, zerolog.Nop())

	res, err := sim.Run(1000, 0.10, 0)
	require.NoError(t, err)

	expected := math.Pow(1+0.10/252, 252) - 1
	assert.InDelta(t, expected, res.ExpectedReturn, 1e-9)
	assert.Zero(t, res.ExpectedVolatility)
	assert.Zero(t, res.VaR95)
	assert.Equal(t, res.MaxGain, res.MaxLoss)
}

func TestRunValidation(t *testing.T) {
	sim := New(Config{Simulations: 10, Horizon: 5, Seed: seedPtr(1)}, zerolog.Nop())

	_, err := sim.Run(0, 0.05, 0.20)
	assert.Error(t, err)

	_, err = sim.Run(100, 0.05, -0.20)
	assert.Error(t, err)
}

func TestNewFillsDefaults(t *testing.T) {
	sim := New(Config{}, zerolog.Nop())

	assert.Equal(t, defaultSimulations, sim.cfg.Simulations)
	assert.Equal(t, tradingDaysPerYear, sim.cfg.Horizon)
	assert.Greater(t, sim.cfg.Workers, 0)
}
