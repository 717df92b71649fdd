package stress

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcore/pkg/portfolio"
)

func TestMarketCrashOnAllEquities(t *testing.T) {
	p := portfolio.Portfolio{
		"spy": {Symbol: "SPY", Value: 100000, AssetClass: portfolio.AssetClassEquities},
	}
	tester := New(nil, zerolog.Nop())

	res, err := tester.Run(p, "market_crash_2008")
	require.NoError(t, err)

	assert.InDelta(t, -50000.0, res.DollarImpact, 1e-9)
	assert.InDelta(t, -0.50, res.PortfolioImpact, 1e-9)
	assert.Equal(t, LevelSevere, res.RiskLevel)
	assert.Equal(t, []string{"spy"}, res.AffectedPositions)
	assert.NotEmpty(t, res.Recommendation)
}

func TestMarketCrashOnDiversifiedPortfolio(t *testing.T) {
	p := portfolio.Portfolio{
		"spy": {Value: 60000, AssetClass: portfolio.AssetClassEquities},
		"tlt": {Value: 30000, AssetClass: portfolio.AssetClassBonds},
		"gld": {Value: 10000, AssetClass: portfolio.AssetClassGold},
	}
	tester := New(nil, zerolog.Nop())

	res, err := tester.Run(p, "market_crash_2008")
	require.NoError(t, err)

	// -30000 from equities, +3000 from bonds, +1500 from gold.
	assert.InDelta(t, -25500.0, res.DollarImpact, 1e-9)
	assert.InDelta(t, -0.255, res.PortfolioImpact, 1e-9)
	assert.Equal(t, LevelHigh, res.RiskLevel)
	assert.Len(t, res.AffectedPositions, 3)
}

func TestUnclassifiedPositionsTakeNoShock(t *testing.T) {
	p := portfolio.Portfolio{
		"spy":  {Value: 50000, AssetClass: portfolio.AssetClassEquities},
		"misc": {Value: 50000, AssetClass: "collectibles"},
	}
	tester := New(nil, zerolog.Nop())

	res, err := tester.Run(p, "market_crash_2008")
	require.NoError(t, err)

	assert.InDelta(t, -25000.0, res.DollarImpact, 1e-9)
	assert.InDelta(t, -0.25, res.PortfolioImpact, 1e-9)
	assert.Equal(t, []string{"spy"}, res.AffectedPositions)
}

func TestBullRunKeepsSign(t *testing.T) {
	p := portfolio.Portfolio{
		"spy": {Value: 100000, AssetClass: portfolio.AssetClassEquities},
	}
	tester := New(nil, zerolog.Nop())

	res, err := tester.Run(p, "bull_run")
	require.NoError(t, err)

	assert.InDelta(t, 25000.0, res.DollarImpact, 1e-9)
	assert.InDelta(t, 0.25, res.PortfolioImpact, 1e-9)
	// Classification goes by magnitude, even for gains.
	assert.Equal(t, LevelHigh, res.RiskLevel)
}

func TestRunUnknownScenario(t *testing.T) {
	tester := New(nil, zerolog.Nop())

	_, err := tester.Run(portfolio.Portfolio{}, "alien_invasion")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestRunEmptyPortfolio(t *testing.T) {
	tester := New(nil, zerolog.Nop())

	res, err := tester.Run(portfolio.Portfolio{}, "market_crash_2008")
	require.NoError(t, err)

	assert.Zero(t, res.DollarImpact)
	assert.Zero(t, res.PortfolioImpact)
	assert.Equal(t, LevelLow, res.RiskLevel)
	assert.Empty(t, res.AffectedPositions)
}

func TestRunAllCoversRegistry(t *testing.T) {
	p := portfolio.Portfolio{
		"spy": {Value: 100000, AssetClass: portfolio.AssetClassEquities},
	}
	tester := New(nil, zerolog.Nop())

	results := tester.RunAll(p)
	names := tester.Registry().Names()

	require.Len(t, results, len(names))
	for i, res := range results {
		assert.Equal(t, names[i], res.Scenario)
		assert.NotEmpty(t, res.RiskLevel)
	}
}

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	builtins := []string{
		"market_crash_2008",
		"flash_crash",
		"rate_hike_200bp",
		"geopolitical_crisis",
		"tech_selloff",
		"currency_crisis",
		"bull_run",
	}
	assert.Len(t, r.Names(), len(builtins))
	for _, name := range builtins {
		_, ok := r.Get(name)
		assert.True(t, ok, "missing builtin scenario %s", name)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Scenario{
		Name:        "stagflation",
		Description: "Persistent inflation with stagnant growth",
		Shocks: map[string]float64{
			portfolio.AssetClassEquities: -0.18,
			portfolio.AssetClassGold:     0.12,
		},
	})
	require.NoError(t, err)

	s, ok := r.Get("stagflation")
	require.True(t, ok)
	assert.InDelta(t, -0.18, s.Shocks[portfolio.AssetClassEquities], 1e-12)

	// Duplicates, unnamed and empty scenarios are rejected.
	assert.Error(t, r.Register(Scenario{Name: "stagflation", Shocks: map[string]float64{"x": 1}}))
	assert.Error(t, r.Register(Scenario{Name: "", Shocks: map[string]float64{"x": 1}}))
	assert.Error(t, r.Register(Scenario{Name: "empty"}))

	// A custom scenario runs like a builtin.
	tester := New(r, zerolog.Nop())
	res, err := tester.Run(portfolio.Portfolio{
		"spy": {Value: 100000, AssetClass: portfolio.AssetClassEquities},
	}, "stagflation")
	require.NoError(t, err)
	assert.InDelta(t, -0.18, res.PortfolioImpact, 1e-9)
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, LevelLow, classify(0.049))
	assert.Equal(t, LevelMedium, classify(0.05))
	assert.Equal(t, LevelMedium, classify(-0.149))
	assert.Equal(t, LevelHigh, classify(0.15))
	assert.Equal(t, LevelHigh, classify(-0.299))
	assert.Equal(t, LevelSevere, classify(0.30))
	assert.Equal(t, LevelSevere, classify(-0.50))
}
