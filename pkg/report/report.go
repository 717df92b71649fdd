// Package report assembles the consolidated risk report: every analytics
// package run against one return series and portfolio snapshot, collected
// into a single value for the API layer to serialize.
package report

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/pkg/drawdown"
	"github.com/aristath/riskcore/pkg/formulas"
	"github.com/aristath/riskcore/pkg/montecarlo"
	"github.com/aristath/riskcore/pkg/portfolio"
	"github.com/aristath/riskcore/pkg/ratios"
	"github.com/aristath/riskcore/pkg/risk"
	"github.com/aristath/riskcore/pkg/stress"
)

// Config holds the report parameters.
type Config struct {
	RiskFreeRate   float64 // Annualized risk-free rate for Sharpe/Sortino
	PeriodsPerYear int     // Return periodicity (default 252)
}

// Report is the consolidated risk picture for one portfolio. VaR and CVaR
// figures are in currency. Ratio fields may be +Inf for loss-free
// histories; guard before serializing.
type Report struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	Observations     int                `json:"observations"`
	PortfolioValue   float64            `json:"portfolio_value"`
	VaR              []risk.VaRResult   `json:"var"`
	CVaR95           float64            `json:"cvar_95"`
	AnnualReturn     float64            `json:"annual_return"`
	AnnualVolatility float64            `json:"annual_volatility"`
	Sharpe           float64            `json:"sharpe_ratio"`
	Sortino          float64            `json:"sortino_ratio"`
	Calmar           float64            `json:"calmar_ratio"`
	UlcerIndex       float64            `json:"ulcer_index"`
	Drawdown         *drawdown.Analysis `json:"drawdown"`
	MonteCarlo       *montecarlo.Result `json:"monte_carlo,omitempty"`
	StressTests      []*stress.Result   `json:"stress_tests,omitempty"`
}

// Builder generates reports. It is stateless across calls; one instance
// serves concurrent callers.
type Builder struct {
	cfg    Config
	sim    *montecarlo.Simulator
	tester *stress.Tester
	log    zerolog.Logger
}

// New creates a builder. A nil simulator gets default Monte Carlo settings;
// a nil tester gets the builtin scenario registry.
func New(cfg Config, sim *montecarlo.Simulator, tester *stress.Tester, log zerolog.Logger) *Builder {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = 252
	}
	if sim == nil {
		sim = montecarlo.New(montecarlo.Config{}, log)
	}
	if tester == nil {
		tester = stress.New(nil, log)
	}

	return &Builder{
		cfg:    cfg,
		sim:    sim,
		tester: tester,
		log:    log.With().Str("component", "report_builder").Logger(),
	}
}

// Generate runs every analytics engine over the return series: the three
// VaR methods at 95% and 99%, CVaR, drawdown analysis, the performance
// ratios and a Monte Carlo projection seeded with the series' annualized
// return and volatility. A nil equity curve is derived from the returns.
func (b *Builder) Generate(returns, equity []float64, portfolioValue float64) (*Report, error) {
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 returns, got %d", risk.ErrInsufficientData, len(returns))
	}
	if portfolioValue <= 0 {
		return nil, fmt.Errorf("portfolio value must be positive, got %v", portfolioValue)
	}
	if len(equity) == 0 {
		equity = formulas.CalculateEquityCurve(portfolioValue, returns)
	}

	dd, err := drawdown.Analyze(equity)
	if err != nil {
		return nil, fmt.Errorf("drawdown analysis: %w", err)
	}

	methods := []risk.Method{risk.MethodHistorical, risk.MethodParametric, risk.MethodMonteCarlo}
	varResults := make([]risk.VaRResult, 0, len(methods)*2)
	for _, method := range methods {
		for _, confidence := range []float64{0.95, 0.99} {
			res, err := risk.Compute(method, returns, confidence, 1, portfolioValue)
			if err != nil {
				return nil, fmt.Errorf("%s VaR: %w", method, err)
			}
			varResults = append(varResults, res)
		}
	}

	report := &Report{
		GeneratedAt:      time.Now().UTC(),
		Observations:     len(returns),
		PortfolioValue:   portfolioValue,
		VaR:              varResults,
		CVaR95:           risk.CVaR(returns, 0.95) * portfolioValue,
		AnnualReturn:     formulas.CalculateAnnualReturn(returns, b.cfg.PeriodsPerYear),
		AnnualVolatility: formulas.AnnualizedVolatility(returns, b.cfg.PeriodsPerYear),
		Sharpe:           ratios.Sharpe(returns, b.cfg.RiskFreeRate, b.cfg.PeriodsPerYear),
		Sortino:          ratios.Sortino(returns, b.cfg.RiskFreeRate, b.cfg.PeriodsPerYear),
		Calmar:           ratios.Calmar(returns, b.cfg.PeriodsPerYear),
		UlcerIndex:       drawdown.UlcerIndex(equity),
		Drawdown:         dd,
	}

	mc, err := b.sim.Run(portfolioValue, report.AnnualReturn, report.AnnualVolatility)
	if err != nil {
		return nil, fmt.Errorf("monte carlo projection: %w", err)
	}
	report.MonteCarlo = mc

	b.log.Info().
		Int("observations", report.Observations).
		Float64("portfolio_value", portfolioValue).
		Float64("annual_volatility", report.AnnualVolatility).
		Msg("report generated")

	return report, nil
}

// GenerateWithStress builds the full report and attaches the complete
// stress-scenario sweep for the portfolio.
func (b *Builder) GenerateWithStress(returns, equity []float64, p portfolio.Portfolio) (*Report, error) {
	report, err := b.Generate(returns, equity, p.TotalValue())
	if err != nil {
		return nil, err
	}
	report.StressTests = b.tester.RunAll(p)
	return report, nil
}
