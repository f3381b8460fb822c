package position

import (
	"errors"
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

var tf5m, _ = model.TimeframeByLabel("5m")

// testClock is a manually advanced clock.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(balanceCents int64) (*Manager, *testClock) {
	clk := &testClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	m := NewManager(Config{
		StartingBalance: balanceCents,
		RiskFraction:    0.03,
		MinStake:        500, // 5.00
		CooldownMinutes: 15,
		MaxTradesPerDay: 3,
		Payouts:         DefaultPayouts(),
	})
	m.now = clk.now
	m.dayKey = DayKey(clk.t)
	return m, clk
}

func TestOpen_DebitsStake(t *testing.T) {
	m, _ := newTestManager(10000) // 100.00

	trade, err := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	// round(100·0.03)=3.00 < minStake 5.00 ⇒ stake 5.00
	if trade.Stake != 500 {
		t.Errorf("expected stake 500 cents, got %d", trade.Stake)
	}
	if m.Balance() != 9500 {
		t.Errorf("expected balance 9500 after debit, got %d", m.Balance())
	}
	if trade.ExpireTime.Sub(trade.OpenTime) != 5*time.Minute {
		t.Errorf("expected 5m expiry, got %v", trade.ExpireTime.Sub(trade.OpenTime))
	}
}

func TestSettle_WinScenario(t *testing.T) {
	// Scenario A: balance 100, open Up at 10, settle at 11 on 5m (payout
	// 0.75) ⇒ credit 8.75, balance 103.75.
	m, clk := newTestManager(10000)

	trade, err := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	clk.advance(5 * time.Minute)

	rec, ok := m.Settle(trade.ID, 11)
	if !ok {
		t.Fatal("settle failed")
	}
	if rec.Outcome != model.OutcomeWin {
		t.Errorf("expected WIN, got %s", rec.Outcome)
	}
	if rec.PnL != 375 { // 8.75 credit − 5.00 stake
		t.Errorf("expected pnl 375 cents, got %d", rec.PnL)
	}
	if m.Balance() != 10375 {
		t.Errorf("expected balance 10375, got %d", m.Balance())
	}
	if m.OpenCount() != 0 {
		t.Errorf("expected no open trades, got %d", m.OpenCount())
	}
}

func TestSettle_LoseScenario(t *testing.T) {
	// Scenario B: same setup, exit 9 ⇒ no credit, balance stays 95.
	m, clk := newTestManager(10000)

	trade, _ := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10)
	clk.advance(5 * time.Minute)

	rec, ok := m.Settle(trade.ID, 9)
	if !ok {
		t.Fatal("settle failed")
	}
	if rec.Outcome != model.OutcomeLose {
		t.Errorf("expected LOSE, got %s", rec.Outcome)
	}
	if rec.PnL != -500 {
		t.Errorf("expected pnl -500 cents, got %d", rec.PnL)
	}
	if m.Balance() != 9500 {
		t.Errorf("expected balance 9500, got %d", m.Balance())
	}
}

func TestSettle_UnchangedPriceLoses(t *testing.T) {
	m, clk := newTestManager(10000)
	trade, _ := m.Open("BTCUSDT", tf5m, model.DirectionDown, 10)
	clk.advance(5 * time.Minute)

	rec, _ := m.Settle(trade.ID, 10)
	if rec.Outcome != model.OutcomeLose {
		t.Errorf("expected unchanged price to lose, got %s", rec.Outcome)
	}
}

func TestOpen_RejectsWhenBroke(t *testing.T) {
	m, _ := newTestManager(400) // 4.00 < minStake 5.00

	_, err := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10)
	if !errors.Is(err, ErrStakeBelowMinimum) {
		t.Errorf("expected ErrStakeBelowMinimum, got %v", err)
	}
	if m.Balance() != 400 {
		t.Errorf("balance must not change on rejected open, got %d", m.Balance())
	}
	if m.OpenCount() != 0 {
		t.Errorf("no trade must exist after rejected open")
	}
}

func TestCooldown(t *testing.T) {
	m, clk := newTestManager(10000)

	if !m.CanTrade("BTCUSDT", "5m") {
		t.Fatal("expected CanTrade before any trade")
	}
	if _, err := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if m.CanTrade("BTCUSDT", "5m") {
		t.Error("expected cooldown to block the same pair")
	}
	if !m.CanTrade("BTCUSDT", "10m") {
		t.Error("cooldown must be scoped to (symbol, timeframe)")
	}
	if !m.CanTrade("ETHUSDT", "5m") {
		t.Error("cooldown must be scoped to (symbol, timeframe)")
	}

	clk.advance(14 * time.Minute)
	if m.CanTrade("BTCUSDT", "5m") {
		t.Error("expected still cooling down at 14m of 15m")
	}
	clk.advance(2 * time.Minute)
	if !m.CanTrade("BTCUSDT", "5m") {
		t.Error("expected CanTrade after cooldown elapsed")
	}
}

func TestDailyCap_AndRollover(t *testing.T) {
	m, clk := newTestManager(100000)

	symbols := []string{"A", "B", "C"}
	for _, sym := range symbols {
		if _, err := m.Open(sym, tf5m, model.DirectionUp, 10); err != nil {
			t.Fatalf("open %s failed: %v", sym, err)
		}
	}
	if m.CanTrade("D", "5m") {
		t.Error("expected daily cap to block the 4th trade")
	}

	var rolled *DaySummary
	m.OnDayRoll = func(s DaySummary) { rolled = &s }

	// Cross the UTC+7 civil date boundary.
	clk.advance(24 * time.Hour)
	if !m.CanTrade("D", "5m") {
		t.Error("expected CanTrade after day rollover")
	}
	if rolled == nil {
		t.Fatal("expected day-roll summary")
	}
	if rolled.Trades != 3 {
		t.Errorf("expected 3 trades in summary, got %d", rolled.Trades)
	}
	// Balance persists across rollover: 3000 + 2910 + 2823 debited.
	if m.Balance() != 91267 {
		t.Errorf("unexpected balance after rollover: %d", m.Balance())
	}
}

func TestDueTrades(t *testing.T) {
	m, clk := newTestManager(10000)

	trade, _ := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10)
	if due := m.DueTrades("BTCUSDT", "5m"); len(due) != 0 {
		t.Errorf("expected no due trades before expiry, got %d", len(due))
	}

	clk.advance(5 * time.Minute)
	due := m.DueTrades("BTCUSDT", "5m")
	if len(due) != 1 || due[0].ID != trade.ID {
		t.Fatalf("expected trade due at expiry, got %v", due)
	}
	if due := m.DueTrades("ETHUSDT", "5m"); len(due) != 0 {
		t.Errorf("due trades must be scoped to the pair, got %d", len(due))
	}
}

func TestSettle_UnknownID(t *testing.T) {
	m, _ := newTestManager(10000)
	if _, ok := m.Settle(42, 10); ok {
		t.Error("expected ok=false for unknown trade id")
	}
}

func TestHooksMayCallBackIntoManager(t *testing.T) {
	// Hooks run after the lock is released, so a hook reading manager
	// state must not deadlock.
	m, clk := newTestManager(10000)

	var openBalance, settleBalance int64
	var rolledBalance int64
	m.OnOpen = func(model.OpenTrade) { openBalance = m.Balance() }
	m.OnSettle = func(model.TradeRecord) { settleBalance = m.Balance() }
	m.OnDayRoll = func(DaySummary) { rolledBalance = m.Balance() }

	trade, err := m.Open("BTCUSDT", tf5m, model.DirectionUp, 10)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if openBalance != 9500 {
		t.Errorf("OnOpen saw balance %d, want 9500", openBalance)
	}

	clk.advance(5 * time.Minute)
	if _, ok := m.Settle(trade.ID, 11); !ok {
		t.Fatal("settle failed")
	}
	if settleBalance != 10375 {
		t.Errorf("OnSettle saw balance %d, want 10375", settleBalance)
	}

	clk.advance(24 * time.Hour)
	if !m.CanTrade("BTCUSDT", "5m") {
		t.Fatal("expected CanTrade after rollover")
	}
	if rolledBalance != 10375 {
		t.Errorf("OnDayRoll saw balance %d, want 10375", rolledBalance)
	}
}

func TestSequentialIDs(t *testing.T) {
	m, _ := newTestManager(100000)
	a, _ := m.Open("A", tf5m, model.DirectionUp, 10)
	b, _ := m.Open("B", tf5m, model.DirectionUp, 10)
	if b.ID != a.ID+1 {
		t.Errorf("expected sequential ids, got %d then %d", a.ID, b.ID)
	}
}
