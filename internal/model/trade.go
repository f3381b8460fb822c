package model

import "time"

// Direction is the side of a binary trade.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Outcome is the terminal result of a settled trade.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLose Outcome = "LOSE"

	// OutcomeAbandoned marks journal rows for trades that were still live
	// when a previous run stopped; the in-memory account cannot settle them.
	OutcomeAbandoned Outcome = "ABANDONED"
)

// OpenTrade is a live binary position. Immutable after creation; it is
// removed from the open set when settled.
type OpenTrade struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	Stake      int64     `json:"stake"` // cents
	OpenTime   time.Time `json:"open_time"`
	ExpireTime time.Time `json:"expire_time"`
}

// Key returns the cooldown/settlement key for this trade's instrument.
func (t *OpenTrade) Key() string {
	return t.Symbol + ":" + t.Timeframe
}

// TradeRecord is the append-only history entry for a settled trade.
type TradeRecord struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Stake      int64     `json:"stake"` // cents
	PnL        int64     `json:"pnl"`   // cents, credit - stake
	Outcome    Outcome   `json:"outcome"`
	OpenTime   time.Time `json:"open_time"`
	CloseTime  time.Time `json:"close_time"`
}
