// Package notification delivers trade lifecycle alerts to external
// channels. Delivery is fire-and-forget: the engine commits state before
// notifying and never rolls anything back on delivery failure.
package notification

import (
	"context"
	"fmt"
	"log"

	"signal-enginev1/internal/model"
	"signal-enginev1/internal/position"
)

// Notifier receives trade lifecycle events after they are committed.
type Notifier interface {
	TradeOpened(ctx context.Context, t model.OpenTrade) error
	TradeSettled(ctx context.Context, r model.TradeRecord) error
	DaySummary(ctx context.Context, s position.DaySummary) error
}

// openText renders an open alert, e.g.
// "📉 OPEN #3 BTCUSDT 5m DOWN stake 5.00 entry 110 expires 10:05:00".
func openText(t model.OpenTrade) string {
	return fmt.Sprintf("%s OPEN #%d %s %s %s stake %s entry %g expires %s",
		directionEmoji(t.Direction), t.ID, t.Symbol, t.Timeframe, t.Direction,
		model.FormatCents(t.Stake), t.EntryPrice, t.ExpireTime.UTC().Format("15:04:05"))
}

// settleText renders a settle alert with the outcome and signed pnl.
func settleText(r model.TradeRecord) string {
	return fmt.Sprintf("%s %s #%d %s %s %s exit %g pnl %s",
		outcomeEmoji(r.Outcome), r.Outcome, r.ID, r.Symbol, r.Timeframe, r.Direction,
		r.ExitPrice, model.FormatCents(r.PnL))
}

// summaryText renders the end-of-day rollup.
func summaryText(s position.DaySummary) string {
	return fmt.Sprintf("📊 DAY %s trades %d settled %d wins %d pnl %s",
		s.Day, s.Trades, s.Settled, s.Wins, model.FormatCents(s.PnL))
}

func directionEmoji(d model.Direction) string {
	if d == model.DirectionDown {
		return "📉"
	}
	return "📈"
}

func outcomeEmoji(o model.Outcome) string {
	if o == model.OutcomeWin {
		return "✅"
	}
	return "❌"
}

// LogNotifier writes alerts to the process log (used when no channel is
// configured).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) TradeOpened(ctx context.Context, t model.OpenTrade) error {
	log.Printf("[notify] %s", openText(t))
	return nil
}

func (n *LogNotifier) TradeSettled(ctx context.Context, r model.TradeRecord) error {
	log.Printf("[notify] %s", settleText(r))
	return nil
}

func (n *LogNotifier) DaySummary(ctx context.Context, s position.DaySummary) error {
	log.Printf("[notify] %s", summaryText(s))
	return nil
}
