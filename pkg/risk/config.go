package risk

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// SizeMethod selects the position sizing formula.
type SizeMethod string

const (
	SizeFixed          SizeMethod = "fixed"
	SizePercentBalance SizeMethod = "percent_balance"
	SizeKelly          SizeMethod = "kelly"
	SizeRiskBased      SizeMethod = "risk_based"
)

// Config holds the per-session risk limits and sizing parameters. All
// percentage fields are fractions (0.02 = 2%); Normalized converts
// percent-style values once at the boundary so everything downstream
// operates on fractions only.
type Config struct {
	MaxRiskPerTrade    float64    // Fraction of balance risked per trade
	MaxPositionSize    float64    // Cap applied to every sizing result
	MaxLeverage        float64    // Total exposure / balance ceiling
	MaxOpenPositions   int        // Open position count ceiling
	MaxDailyLoss       float64    // Daily loss fraction that halts trading
	MaxDrawdown        float64    // Peak-to-balance drawdown fraction that halts trading
	PositionSizeMethod SizeMethod // fixed | percent_balance | kelly | risk_based

	FixedTradeAmount float64 // Size used by the fixed method
	PercentOfBalance float64 // Fraction used by the percent_balance method

	DefaultStopLossPct   float64 // Stop distance fraction when no stop is supplied
	DefaultTakeProfitPct float64 // Take-profit distance fraction when none is supplied

	StopLossATRMultiplier   float64 // ATR multiples below entry for derived stops
	TakeProfitATRMultiplier float64 // ATR multiples above entry for derived targets
}

// DefaultConfig returns a conservative baseline configuration.
func DefaultConfig() Config {
	return Config{
		MaxRiskPerTrade:         0.02,
		MaxPositionSize:         10000,
		MaxLeverage:             3.0,
		MaxOpenPositions:        5,
		MaxDailyLoss:            0.05,
		MaxDrawdown:             0.20,
		PositionSizeMethod:      SizeRiskBased,
		FixedTradeAmount:        1000,
		PercentOfBalance:        0.10,
		DefaultStopLossPct:      0.02,
		DefaultTakeProfitPct:    0.04,
		StopLossATRMultiplier:   1.5,
		TakeProfitATRMultiplier: 3.0,
	}
}

// ConfigFromEnv reads configuration from environment variables (loading a
// .env file first if one exists), normalizes percent-style values to
// fractions and validates the result.
func ConfigFromEnv() (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	def := DefaultConfig()
	cfg := Config{
		MaxRiskPerTrade:         getEnvAsFloat("RISK_MAX_RISK_PER_TRADE", def.MaxRiskPerTrade),
		MaxPositionSize:         getEnvAsFloat("RISK_MAX_POSITION_SIZE", def.MaxPositionSize),
		MaxLeverage:             getEnvAsFloat("RISK_MAX_LEVERAGE", def.MaxLeverage),
		MaxOpenPositions:        getEnvAsInt("RISK_MAX_OPEN_POSITIONS", def.MaxOpenPositions),
		MaxDailyLoss:            getEnvAsFloat("RISK_MAX_DAILY_LOSS", def.MaxDailyLoss),
		MaxDrawdown:             getEnvAsFloat("RISK_MAX_DRAWDOWN", def.MaxDrawdown),
		PositionSizeMethod:      SizeMethod(getEnv("RISK_POSITION_SIZE_METHOD", string(def.PositionSizeMethod))),
		FixedTradeAmount:        getEnvAsFloat("RISK_FIXED_TRADE_AMOUNT", def.FixedTradeAmount),
		PercentOfBalance:        getEnvAsFloat("RISK_PERCENT_OF_BALANCE", def.PercentOfBalance),
		DefaultStopLossPct:      getEnvAsFloat("RISK_DEFAULT_STOP_LOSS_PCT", def.DefaultStopLossPct),
		DefaultTakeProfitPct:    getEnvAsFloat("RISK_DEFAULT_TAKE_PROFIT_PCT", def.DefaultTakeProfitPct),
		StopLossATRMultiplier:   getEnvAsFloat("RISK_STOP_LOSS_ATR_MULT", def.StopLossATRMultiplier),
		TakeProfitATRMultiplier: getEnvAsFloat("RISK_TAKE_PROFIT_ATR_MULT", def.TakeProfitATRMultiplier),
	}

	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalized converts percent-style values (anything above 1, e.g. "2.0"
// meaning 2%) to fractions. Values already expressed as fractions pass
// through unchanged, so normalizing twice is harmless.
func (c Config) Normalized() Config {
	c.MaxRiskPerTrade = normalizeFraction(c.MaxRiskPerTrade)
	c.MaxDailyLoss = normalizeFraction(c.MaxDailyLoss)
	c.MaxDrawdown = normalizeFraction(c.MaxDrawdown)
	c.PercentOfBalance = normalizeFraction(c.PercentOfBalance)
	c.DefaultStopLossPct = normalizeFraction(c.DefaultStopLossPct)
	c.DefaultTakeProfitPct = normalizeFraction(c.DefaultTakeProfitPct)
	return c
}

// Validate rejects malformed configurations. It expects fraction convention,
// so call it on a Normalized config.
func (c Config) Validate() error {
	if c.MaxRiskPerTrade <= 0 || c.MaxRiskPerTrade > 1 {
		return fmt.Errorf("max risk per trade must be in (0, 1], got %v", c.MaxRiskPerTrade)
	}
	if c.MaxPositionSize <= 0 {
		return fmt.Errorf("max position size must be positive, got %v", c.MaxPositionSize)
	}
	if c.MaxLeverage <= 0 {
		return fmt.Errorf("max leverage must be positive, got %v", c.MaxLeverage)
	}
	if c.MaxOpenPositions < 1 {
		return fmt.Errorf("max open positions must be at least 1, got %d", c.MaxOpenPositions)
	}
	if c.MaxDailyLoss <= 0 || c.MaxDailyLoss > 1 {
		return fmt.Errorf("max daily loss must be in (0, 1], got %v", c.MaxDailyLoss)
	}
	if c.MaxDrawdown <= 0 || c.MaxDrawdown > 1 {
		return fmt.Errorf("max drawdown must be in (0, 1], got %v", c.MaxDrawdown)
	}
	switch c.PositionSizeMethod {
	case SizeFixed, SizePercentBalance, SizeKelly, SizeRiskBased:
	default:
		return fmt.Errorf("unknown position size method: %q", c.PositionSizeMethod)
	}
	if c.FixedTradeAmount <= 0 {
		return fmt.Errorf("fixed trade amount must be positive, got %v", c.FixedTradeAmount)
	}
	if c.PercentOfBalance <= 0 || c.PercentOfBalance > 1 {
		return fmt.Errorf("percent of balance must be in (0, 1], got %v", c.PercentOfBalance)
	}
	if c.DefaultStopLossPct < 0 || c.DefaultStopLossPct >= 1 {
		return fmt.Errorf("default stop loss must be in [0, 1), got %v", c.DefaultStopLossPct)
	}
	if c.DefaultTakeProfitPct < 0 {
		return fmt.Errorf("default take profit must not be negative, got %v", c.DefaultTakeProfitPct)
	}
	if c.StopLossATRMultiplier <= 0 || c.TakeProfitATRMultiplier <= 0 {
		return fmt.Errorf("ATR multipliers must be positive, got %v / %v",
			c.StopLossATRMultiplier, c.TakeProfitATRMultiplier)
	}
	return nil
}

// normalizeFraction maps percent-style inputs to fractions: 2.0 becomes
// 0.02, while 0.02 stays 0.02.
func normalizeFraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
