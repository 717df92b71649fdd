// Package risk implements the Value-at-Risk engine and the stateful
// position-sizing and limit-enforcement manager. The VaR and CVaR functions
// are pure; Manager is the only mutable component and guards its state with
// a mutex so concurrent strategies can share one instance.
package risk

import "time"

// Method identifies a VaR computation method.
type Method string

const (
	MethodHistorical Method = "historical"
	MethodParametric Method = "parametric"
	MethodMonteCarlo Method = "monte_carlo"
)

// VaRResult is one VaR computation. Value is the estimated maximum loss at
// the given confidence over the horizon: a fraction of portfolio value, or
// currency when PortfolioValue was supplied.
type VaRResult struct {
	Value          float64 `json:"var_value"`
	Confidence     float64 `json:"confidence_level"`
	Horizon        int     `json:"time_horizon"`
	Method         Method  `json:"method"`
	PortfolioValue float64 `json:"portfolio_value,omitempty"`
}

// PositionSize is the sizing recommendation for a proposed trade.
// Size follows the configured sizing method's convention: units for
// risk_based, notional for the other methods.
type PositionSize struct {
	Size            float64 `json:"size"`
	RiskAmount      float64 `json:"risk_amount"`
	StopLossPrice   float64 `json:"stop_loss_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	Notes           string  `json:"notes,omitempty"`
}

// Position is an open position tracked by the Manager.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol,omitempty"`
	Size       float64   `json:"size"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Violation codes reported by Manager.CheckRiskLimits.
const (
	ViolationMaxOpenPositions = "max_open_positions"
	ViolationMaxPositionSize  = "max_position_size"
	ViolationMaxDailyLoss     = "max_daily_loss"
	ViolationMaxDrawdown      = "max_drawdown"
	ViolationMaxLeverage      = "max_leverage"
)

// Violation is one breached risk limit. Limit violations are reported as
// values, never as errors or panics.
type Violation struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Value   float64 `json:"value"`
	Limit   float64 `json:"limit"`
}

// State is a read-only copy of the Manager's session counters.
type State struct {
	CurrentBalance float64 `json:"current_balance"`
	PeakBalance    float64 `json:"peak_balance"`
	DailyPnL       float64 `json:"daily_pnl"`
	TotalPnL       float64 `json:"total_pnl"`
	OpenPositions  int     `json:"open_positions"`
	ClosedTrades   int     `json:"closed_trades"`
}
