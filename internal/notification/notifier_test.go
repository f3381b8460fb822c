package notification

import (
	"strings"
	"testing"
	"time"

	"signal-enginev1/internal/model"
	"signal-enginev1/internal/position"
)

func TestOpenText(t *testing.T) {
	got := openText(model.OpenTrade{
		ID:         3,
		Symbol:     "BTCUSDT",
		Timeframe:  "5m",
		Direction:  model.DirectionDown,
		EntryPrice: 110,
		Stake:      500,
		OpenTime:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		ExpireTime: time.Date(2024, 6, 1, 10, 5, 0, 0, time.UTC),
	})
	want := "📉 OPEN #3 BTCUSDT 5m DOWN stake 5.00 entry 110 expires 10:05:00"
	if got != want {
		t.Errorf("open text:\n got %q\nwant %q", got, want)
	}
}

func TestSettleText_WinAndLose(t *testing.T) {
	win := settleText(model.TradeRecord{
		ID: 1, Symbol: "BTCUSDT", Timeframe: "5m",
		Direction: model.DirectionDown, ExitPrice: 105,
		PnL: 375, Outcome: model.OutcomeWin,
	})
	if !strings.HasPrefix(win, "✅ WIN") {
		t.Errorf("expected win prefix, got %q", win)
	}
	if !strings.Contains(win, "pnl 3.75") {
		t.Errorf("expected pnl 3.75, got %q", win)
	}

	lose := settleText(model.TradeRecord{
		ID: 2, Symbol: "ETHUSDT", Timeframe: "10m",
		Direction: model.DirectionUp, ExitPrice: 9,
		PnL: -500, Outcome: model.OutcomeLose,
	})
	if !strings.HasPrefix(lose, "❌ LOSE") {
		t.Errorf("expected lose prefix, got %q", lose)
	}
	if !strings.Contains(lose, "pnl -5.00") {
		t.Errorf("expected pnl -5.00, got %q", lose)
	}
}

func TestSummaryText(t *testing.T) {
	got := summaryText(position.DaySummary{
		Day: "2024-06-01", Trades: 3, Settled: 3, Wins: 2, PnL: 250,
	})
	want := "📊 DAY 2024-06-01 trades 3 settled 3 wins 2 pnl 2.50"
	if got != want {
		t.Errorf("summary text:\n got %q\nwant %q", got, want)
	}
}

func TestMarkdownEscaping(t *testing.T) {
	got := mdEscaper.Replace("pnl -5.00 (5m)")
	want := `pnl \-5\.00 \(5m\)`
	if got != want {
		t.Errorf("escape: got %q want %q", got, want)
	}
}
