package model

import "encoding/json"

// Candle is a single OHLCV bar. Time is the bucket start in Unix
// milliseconds. Prices are quote-currency floats; account money never
// touches these (see money.go).
type Candle struct {
	Time   int64   `json:"time"` // ms, strictly increasing within a series
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
