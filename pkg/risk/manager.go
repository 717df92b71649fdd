package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/pkg/formulas"
)

const (
	// minKellyTrades is how many closed trades the Kelly method needs
	// before it trusts the observed win/loss statistics.
	minKellyTrades = 10

	// maxKellyFraction caps the half-Kelly fraction of balance.
	maxKellyFraction = 0.25

	// atrPeriod is the lookback for ATR-derived stops.
	atrPeriod = 14
)

// Manager sizes proposed trades and enforces the session risk limits. It is
// the only stateful component: balance, peak balance, daily PnL and the open
// position set live here, guarded by a mutex so concurrent strategies can
// share one instance. Check-then-register sequences stay atomic because
// RegisterPosition re-checks every limit under the same lock that mutates.
type Manager struct {
	mu  sync.Mutex
	cfg Config
	log zerolog.Logger

	currentBalance float64
	peakBalance    float64
	dailyPnL       float64
	totalPnL       float64
	positions      map[string]Position

	// Closed-trade tallies feeding the Kelly sizing method.
	wins      int
	losses    int
	sumWins   float64
	sumLosses float64
}

// NewManager creates a risk manager for one trading session. The config is
// normalized to fraction convention and validated; a malformed config or a
// non-positive starting balance is rejected here, not at first use.
func NewManager(cfg Config, initialBalance float64, log zerolog.Logger) (*Manager, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk config: %w", err)
	}
	if initialBalance <= 0 {
		return nil, fmt.Errorf("initial balance must be positive, got %v", initialBalance)
	}

	return &Manager{
		cfg:            cfg,
		log:            log.With().Str("component", "risk_manager").Logger(),
		currentBalance: initialBalance,
		peakBalance:    initialBalance,
		positions:      make(map[string]Position),
	}, nil
}

// Config returns a copy of the normalized session configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// CalculatePositionSize sizes a proposed trade at the given entry price.
//
// The risk budget is balance × maxRiskPerTrade × confidence; the configured
// sizing method turns it into a size, which is then clamped to
// [0, MaxPositionSize]. Pass stopLossPrice 0 to derive the stop from the
// configured default distance; confidence is clamped to [0, 1].
func (m *Manager) CalculatePositionSize(entryPrice, stopLossPrice, confidence float64) (*PositionSize, error) {
	if entryPrice <= 0 {
		return nil, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	riskAmount := m.currentBalance * m.cfg.MaxRiskPerTrade * confidence

	var size float64
	var notes string
	switch m.cfg.PositionSizeMethod {
	case SizeFixed:
		size = math.Min(m.cfg.FixedTradeAmount, riskAmount*10)
		notes = "fixed amount capped by risk budget"

	case SizePercentBalance:
		size = m.currentBalance * m.cfg.PercentOfBalance
		notes = fmt.Sprintf("%.1f%% of balance", m.cfg.PercentOfBalance*100)

	case SizeKelly:
		if f, ok := m.kellyFractionLocked(); ok {
			size = m.currentBalance * f * confidence
			notes = fmt.Sprintf("half-kelly fraction %.4f from %d closed trades", f, m.wins+m.losses)
		} else {
			size = m.currentBalance * m.cfg.PercentOfBalance
			notes = "kelly fallback to percent_balance: insufficient trade history"
		}

	case SizeRiskBased:
		stopDistance := math.Abs(entryPrice - stopLossPrice)
		if stopLossPrice > 0 && stopDistance > 0 {
			size = riskAmount / stopDistance
			notes = fmt.Sprintf("risk-based size from %.4f stop distance", stopDistance)
		} else {
			size = riskAmount * 10
			notes = "risk-based fallback: no usable stop distance"
		}
	}

	if size > m.cfg.MaxPositionSize {
		size = m.cfg.MaxPositionSize
		notes += "; clamped to max position size"
	}
	if size < 0 {
		size = 0
	}

	stop := stopLossPrice
	if stop <= 0 {
		stop = entryPrice * (1 - m.cfg.DefaultStopLossPct)
	}
	take := entryPrice * (1 + m.cfg.DefaultTakeProfitPct)

	m.log.Debug().
		Str("method", string(m.cfg.PositionSizeMethod)).
		Float64("entry_price", entryPrice).
		Float64("size", size).
		Float64("risk_amount", riskAmount).
		Msg("position size calculated")

	return &PositionSize{
		Size:            size,
		RiskAmount:      riskAmount,
		StopLossPrice:   stop,
		TakeProfitPrice: take,
		Notes:           notes,
	}, nil
}

// DeriveStopsATR derives stop-loss and take-profit prices from recent OHLC
// data: entry minus/plus the configured multiples of the 14-period ATR.
func (m *Manager) DeriveStopsATR(entryPrice float64, highs, lows, closes []float64) (stop, take float64, err error) {
	if entryPrice <= 0 {
		return 0, 0, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	atr := formulas.CalculateATR(highs, lows, closes, atrPeriod)
	if atr == nil {
		return 0, 0, fmt.Errorf("%w: need at least %d aligned bars for ATR", ErrInsufficientData, atrPeriod+1)
	}

	stop = entryPrice - *atr*m.cfg.StopLossATRMultiplier
	if stop < 0 {
		stop = 0
	}
	take = entryPrice + *atr*m.cfg.TakeProfitATRMultiplier
	return stop, take, nil
}

// CanOpenPosition reports whether a position of the proposed size may be
// opened right now, with the first failing limit as the reason.
func (m *Manager) CanOpenPosition(size float64) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canOpenLocked(size, false)
}

// ValidateTrade is the full pre-trade gate: the CanOpenPosition checks plus
// the total-exposure leverage check.
func (m *Manager) ValidateTrade(size float64) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canOpenLocked(size, true)
}

// CheckRiskLimits returns every currently breached limit, for reporting.
// An empty slice means the session is inside all limits.
func (m *Manager) CheckRiskLimits() []Violation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.violationsLocked(0, true)
}

// RegisterPosition adds an open position after re-checking every limit
// under the lock, so a stale CanOpenPosition answer can never over-commit
// the session. A missing id is assigned a UUID; the stored position is
// returned.
func (m *Manager) RegisterPosition(pos Position) (Position, error) {
	if pos.Size <= 0 {
		return Position{}, fmt.Errorf("position size must be positive, got %v", pos.Size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ok, reason := m.canOpenLocked(pos.Size, true); !ok {
		m.log.Warn().
			Str("symbol", pos.Symbol).
			Float64("size", pos.Size).
			Str("reason", reason).
			Msg("position rejected")
		return Position{}, fmt.Errorf("cannot open position: %s", reason)
	}

	if pos.ID == "" {
		pos.ID = uuid.New().String()
	} else if _, exists := m.positions[pos.ID]; exists {
		return Position{}, fmt.Errorf("position already registered: %s", pos.ID)
	}
	if pos.OpenedAt.IsZero() {
		pos.OpenedAt = time.Now().UTC()
	}

	m.positions[pos.ID] = pos
	m.log.Info().
		Str("position_id", pos.ID).
		Str("symbol", pos.Symbol).
		Float64("size", pos.Size).
		Int("open_positions", len(m.positions)).
		Msg("position registered")

	return pos, nil
}

// ClosePosition removes an open position and applies its realized PnL to
// the session counters, raising the peak balance on a new high.
func (m *Manager) ClosePosition(id string, pnl float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.positions[id]; !ok {
		return fmt.Errorf("position not found: %s", id)
	}
	delete(m.positions, id)

	m.applyPnLLocked(pnl)

	if pnl > 0 {
		m.wins++
		m.sumWins += pnl
	} else if pnl < 0 {
		m.losses++
		m.sumLosses += -pnl
	}

	m.log.Info().
		Str("position_id", id).
		Float64("pnl", pnl).
		Float64("balance", m.currentBalance).
		Int("open_positions", len(m.positions)).
		Msg("position closed")

	return nil
}

// UpdateDailyPnL applies a PnL adjustment outside of a position close, such
// as fees or end-of-day marks.
func (m *Manager) UpdateDailyPnL(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyPnLLocked(pnl)
}

// ResetDailyStats zeroes the daily PnL counter. The caller decides when a
// trading day rolls over; the manager never schedules resets itself.
func (m *Manager) ResetDailyStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyPnL = 0
	m.log.Debug().Msg("daily stats reset")
}

// State returns a copy of the session counters.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		CurrentBalance: m.currentBalance,
		PeakBalance:    m.peakBalance,
		DailyPnL:       m.dailyPnL,
		TotalPnL:       m.totalPnL,
		OpenPositions:  len(m.positions),
		ClosedTrades:   m.wins + m.losses,
	}
}

// CurrentDrawdown returns the drawdown from the session's peak balance as a
// non-negative fraction.
func (m *Manager) CurrentDrawdown() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawdownLocked()
}

func (m *Manager) applyPnLLocked(pnl float64) {
	m.currentBalance += pnl
	m.dailyPnL += pnl
	m.totalPnL += pnl
	if m.currentBalance > m.peakBalance {
		m.peakBalance = m.currentBalance
	}
}

func (m *Manager) drawdownLocked() float64 {
	if m.peakBalance <= 0 {
		return 0
	}
	return (m.peakBalance - m.currentBalance) / m.peakBalance
}

func (m *Manager) exposureLocked() float64 {
	total := 0.0
	for _, pos := range m.positions {
		total += pos.Size
	}
	return total
}

func (m *Manager) canOpenLocked(size float64, includeLeverage bool) (bool, string) {
	if violations := m.violationsLocked(size, includeLeverage); len(violations) > 0 {
		m.log.Debug().Str("reason", violations[0].Message).Msg("trade rejected")
		return false, violations[0].Message
	}
	return true, ""
}

// violationsLocked collects breached limits in a fixed order: position
// count, size, daily loss, drawdown, then leverage.
func (m *Manager) violationsLocked(size float64, includeLeverage bool) []Violation {
	var violations []Violation

	if len(m.positions) >= m.cfg.MaxOpenPositions {
		violations = append(violations, Violation{
			Code:    ViolationMaxOpenPositions,
			Message: fmt.Sprintf("max open positions reached (%d/%d)", len(m.positions), m.cfg.MaxOpenPositions),
			Value:   float64(len(m.positions)),
			Limit:   float64(m.cfg.MaxOpenPositions),
		})
	}

	if size > m.cfg.MaxPositionSize {
		violations = append(violations, Violation{
			Code:    ViolationMaxPositionSize,
			Message: fmt.Sprintf("position size %.2f exceeds limit %.2f", size, m.cfg.MaxPositionSize),
			Value:   size,
			Limit:   m.cfg.MaxPositionSize,
		})
	}

	if m.dailyPnL < 0 && m.currentBalance > 0 {
		lossPct := -m.dailyPnL / m.currentBalance
		if lossPct >= m.cfg.MaxDailyLoss {
			violations = append(violations, Violation{
				Code:    ViolationMaxDailyLoss,
				Message: fmt.Sprintf("daily loss %.2f%% at or above limit %.2f%%", lossPct*100, m.cfg.MaxDailyLoss*100),
				Value:   lossPct,
				Limit:   m.cfg.MaxDailyLoss,
			})
		}
	}

	if dd := m.drawdownLocked(); dd >= m.cfg.MaxDrawdown {
		violations = append(violations, Violation{
			Code:    ViolationMaxDrawdown,
			Message: fmt.Sprintf("drawdown %.2f%% at or above limit %.2f%%", dd*100, m.cfg.MaxDrawdown*100),
			Value:   dd,
			Limit:   m.cfg.MaxDrawdown,
		})
	}

	if includeLeverage && m.currentBalance > 0 {
		leverage := (m.exposureLocked() + size) / m.currentBalance
		if leverage > m.cfg.MaxLeverage {
			violations = append(violations, Violation{
				Code:    ViolationMaxLeverage,
				Message: fmt.Sprintf("total exposure %.2fx balance exceeds %.2fx leverage limit", leverage, m.cfg.MaxLeverage),
				Value:   leverage,
				Limit:   m.cfg.MaxLeverage,
			})
		}
	}

	return violations
}

// kellyFractionLocked derives the half-Kelly fraction from observed trade
// statistics: f = W - (1-W)/R with W the win rate and R the win/loss ratio,
// halved and clamped to [0, maxKellyFraction]. It reports false until
// enough trades have closed.
func (m *Manager) kellyFractionLocked() (float64, bool) {
	total := m.wins + m.losses
	if total < minKellyTrades {
		return 0, false
	}
	if m.wins == 0 {
		return 0, true
	}
	if m.losses == 0 {
		return maxKellyFraction, true
	}

	winRate := float64(m.wins) / float64(total)
	ratio := (m.sumWins / float64(m.wins)) / (m.sumLosses / float64(m.losses))

	f := (winRate - (1-winRate)/ratio) / 2
	if f < 0 {
		f = 0
	}
	if f > maxKellyFraction {
		f = maxKellyFraction
	}
	return f, true
}
