// Package position owns the simulated account: balance, open trades,
// history, cooldowns, and daily counters. All monetary values are int64
// cents, rounded once at the float boundary, so repeated settlement cannot
// drift.
//
// The scheduler is the only writer; the mutex exists so read-side surfaces
// (health, metrics) stay safe if they ever run off the tick goroutine.
package position

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"signal-enginev1/internal/model"
)

// TradingDay is the fixed civil calendar the daily cap rolls over on.
var TradingDay = time.FixedZone("UTC+7", 7*3600)

// DayKey returns the civil date of t in the trading-day zone.
func DayKey(t time.Time) string {
	return t.In(TradingDay).Format("2006-01-02")
}

// Stake sizing / open errors. Both are no-ops for the caller: no trade is
// created and no state mutates.
var (
	ErrStakeBelowMinimum = errors.New("stake below minimum")
	ErrStakeExceedsFunds = errors.New("stake exceeds balance")
	ErrUnknownTimeframe  = errors.New("no payout for timeframe")
)

// Config holds the account and risk parameters.
type Config struct {
	StartingBalance int64   // cents
	RiskFraction    float64 // of balance per trade
	MinStake        int64   // cents
	CooldownMinutes int
	MaxTradesPerDay int
	Payouts         map[string]float64 // timeframe label → payout fraction
}

// DefaultPayouts returns the stock per-timeframe payout fractions.
func DefaultPayouts() map[string]float64 {
	return map[string]float64{
		"3m":  0.75,
		"5m":  0.75,
		"10m": 0.82,
		"30m": 0.87,
		"1h":  0.87,
		"1d":  0.87,
	}
}

// DaySummary aggregates a finished trading day.
type DaySummary struct {
	Day     string
	Trades  int // opened
	Settled int
	Wins    int
	PnL     int64 // cents
}

// Manager is the position state machine. Trades go Open → Settled with no
// intermediate states and no manual early close.
type Manager struct {
	mu  sync.Mutex
	cfg Config

	balance     int64
	tradesToday int
	dayKey      string
	lastTrade   map[string]time.Time // "symbol:timeframe" → last open
	open        []model.OpenTrade
	history     []model.TradeRecord
	nextID      int64

	settledToday int
	winsToday    int
	pnlToday     int64

	now func() time.Time // injectable clock for tests

	// Hooks fire after state is committed and the lock is released, on
	// the caller's goroutine, so they may call back into the manager.
	// Set them before the scheduler starts.
	OnOpen    func(model.OpenTrade)
	OnSettle  func(model.TradeRecord)
	OnDayRoll func(DaySummary)
}

// NewManager creates a Manager with the starting balance.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		cfg:       cfg,
		balance:   cfg.StartingBalance,
		lastTrade: make(map[string]time.Time),
		now:       time.Now,
	}
	m.dayKey = DayKey(m.now())
	return m
}

// SeedNextID advances the id counter so ids stay unique across restarts
// when the journal already holds trades.
func (m *Manager) SeedNextID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id > m.nextID {
		m.nextID = id
	}
}

// SetNow overrides the clock and realigns the trading day. Test hook.
func (m *Manager) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	m.dayKey = DayKey(now())
}

// Balance returns the current balance in cents.
func (m *Manager) Balance() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// OpenCount returns the number of live trades.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// StakeSize returns the stake the next trade would use:
// max(minStake, round(balance·riskFraction)) clamped to the balance.
func (m *Manager) StakeSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stakeSizeLocked()
}

func (m *Manager) stakeSizeLocked() int64 {
	stake := int64(math.Round(float64(m.balance) * m.cfg.RiskFraction))
	if stake < m.cfg.MinStake {
		stake = m.cfg.MinStake
	}
	if stake > m.balance {
		stake = m.balance
	}
	return stake
}

// CanTrade reports whether a new trade on (symbol, timeframe) is allowed:
// outside the cooldown window and under the daily cap.
func (m *Manager) CanTrade(symbol, timeframe string) bool {
	m.mu.Lock()
	now := m.now()
	roll := m.rollDayLocked(now)

	ok := m.tradesToday < m.cfg.MaxTradesPerDay
	if ok {
		if last, exists := m.lastTrade[symbol+":"+timeframe]; exists {
			ok = now.Sub(last) >= time.Duration(m.cfg.CooldownMinutes)*time.Minute
		}
	}
	m.mu.Unlock()

	m.emitDayRoll(roll)
	return ok
}

// Open debits the stake and creates a live trade expiring after the
// timeframe's duration. Stake sizing failures return an error and leave
// all state untouched.
func (m *Manager) Open(symbol string, tf model.Timeframe, dir model.Direction, price float64) (model.OpenTrade, error) {
	m.mu.Lock()
	now := m.now()
	roll := m.rollDayLocked(now)

	if _, ok := m.cfg.Payouts[tf.Label]; !ok {
		m.mu.Unlock()
		m.emitDayRoll(roll)
		return model.OpenTrade{}, ErrUnknownTimeframe
	}

	stake := m.stakeSizeLocked()
	if stake < m.cfg.MinStake {
		m.mu.Unlock()
		m.emitDayRoll(roll)
		return model.OpenTrade{}, ErrStakeBelowMinimum
	}
	if stake > m.balance {
		m.mu.Unlock()
		m.emitDayRoll(roll)
		return model.OpenTrade{}, ErrStakeExceedsFunds
	}

	m.balance -= stake
	m.nextID++
	trade := model.OpenTrade{
		ID:         m.nextID,
		Symbol:     symbol,
		Timeframe:  tf.Label,
		Direction:  dir,
		EntryPrice: price,
		Stake:      stake,
		OpenTime:   now,
		ExpireTime: now.Add(tf.Duration()),
	}
	m.open = append(m.open, trade)
	m.lastTrade[trade.Key()] = now
	m.tradesToday++

	log.Printf("[position] open #%d %s %s %s stake=%s entry=%v expires=%s balance=%s",
		trade.ID, trade.Symbol, trade.Timeframe, trade.Direction,
		model.FormatCents(stake), price, trade.ExpireTime.Format(time.RFC3339),
		model.FormatCents(m.balance))
	m.mu.Unlock()

	m.emitDayRoll(roll)
	if m.OnOpen != nil {
		m.OnOpen(trade)
	}
	return trade, nil
}

// DueTrades returns the live trades for (symbol, timeframe) whose expiry
// has passed.
func (m *Manager) DueTrades(symbol, timeframe string) []model.OpenTrade {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()

	var due []model.OpenTrade
	for _, t := range m.open {
		if t.Symbol == symbol && t.Timeframe == timeframe && !now.Before(t.ExpireTime) {
			due = append(due, t)
		}
	}
	return due
}

// Settle closes the trade by id at exitPrice. Win means the price moved in
// the trade's direction; an unchanged price loses. Win credits
// stake·(1+payout) in cents; Lose credits nothing (the stake was forfeited
// at open). Returns false if the id is not a live trade.
func (m *Manager) Settle(id int64, exitPrice float64) (model.TradeRecord, bool) {
	m.mu.Lock()
	now := m.now()
	roll := m.rollDayLocked(now)

	idx := -1
	for i, t := range m.open {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		m.emitDayRoll(roll)
		return model.TradeRecord{}, false
	}
	t := m.open[idx]
	m.open = append(m.open[:idx], m.open[idx+1:]...)

	outcome := model.OutcomeLose
	if (t.Direction == model.DirectionUp && exitPrice > t.EntryPrice) ||
		(t.Direction == model.DirectionDown && exitPrice < t.EntryPrice) {
		outcome = model.OutcomeWin
	}

	var credit int64
	if outcome == model.OutcomeWin {
		payout := m.cfg.Payouts[t.Timeframe]
		credit = int64(math.Round(float64(t.Stake) * (1 + payout)))
	}
	m.balance += credit

	rec := model.TradeRecord{
		ID:         t.ID,
		Symbol:     t.Symbol,
		Timeframe:  t.Timeframe,
		Direction:  t.Direction,
		EntryPrice: t.EntryPrice,
		ExitPrice:  exitPrice,
		Stake:      t.Stake,
		PnL:        credit - t.Stake,
		Outcome:    outcome,
		OpenTime:   t.OpenTime,
		CloseTime:  now,
	}
	m.history = append(m.history, rec)

	m.settledToday++
	m.pnlToday += rec.PnL
	if outcome == model.OutcomeWin {
		m.winsToday++
	}

	log.Printf("[position] settle #%d %s %s %s exit=%v pnl=%s balance=%s",
		rec.ID, rec.Symbol, rec.Timeframe, rec.Outcome, exitPrice,
		model.FormatCents(rec.PnL), model.FormatCents(m.balance))
	m.mu.Unlock()

	m.emitDayRoll(roll)
	if m.OnSettle != nil {
		m.OnSettle(rec)
	}
	return rec, true
}

// History returns a copy of the append-only settled-trade history.
func (m *Manager) History() []model.TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.TradeRecord, len(m.history))
	copy(cp, m.history)
	return cp
}

// rollDayLocked resets the daily counters when the UTC+7 civil date
// changes and returns the finished day's summary for emitDayRoll.
// Balance and history persist across rollovers.
func (m *Manager) rollDayLocked(now time.Time) *DaySummary {
	key := DayKey(now)
	if key == m.dayKey {
		return nil
	}

	summary := DaySummary{
		Day:     m.dayKey,
		Trades:  m.tradesToday,
		Settled: m.settledToday,
		Wins:    m.winsToday,
		PnL:     m.pnlToday,
	}
	log.Printf("[position] day rollover %s → %s: trades=%d settled=%d wins=%d pnl=%s",
		m.dayKey, key, summary.Trades, summary.Settled, summary.Wins, model.FormatCents(summary.PnL))

	m.dayKey = key
	m.tradesToday = 0
	m.settledToday = 0
	m.winsToday = 0
	m.pnlToday = 0

	return &summary
}

// emitDayRoll fires OnDayRoll for a rollover captured under the lock.
// Must be called after the lock is released.
func (m *Manager) emitDayRoll(s *DaySummary) {
	if s != nil && m.OnDayRoll != nil {
		m.OnDayRoll(*s)
	}
}
