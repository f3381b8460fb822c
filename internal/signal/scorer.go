// Package signal combines zone proximity, RSI extremity, volume anomaly,
// and reversal patterns into a per-direction confluence score.
//
// The four checks live in a uniform table of {name, enabled, predicate}
// entries evaluated in one loop, so each check can be audited and toggled
// in isolation. Proximity is always evaluated; a disabled check counts as
// satisfied.
package signal

import (
	"math"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/pattern"
	"signal-enginev1/internal/zone"
)

// atrWindow bounds the trailing candles fed into the ATR used for zone
// proximity tolerance.
const atrWindow = 100

// Config holds the scoring thresholds and feature toggles.
type Config struct {
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
	ATRPeriod     int

	// ProximityMult scales ATR into the zone proximity tolerance.
	ProximityMult float64

	// VolumeLookback preceding candles form the volume mean;
	// VolumeRatio × mean is the anomaly threshold.
	VolumeLookback int
	VolumeRatio    float64

	MinConfluence int

	EnableRSI     bool
	EnableVolume  bool
	EnablePattern bool
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:      14,
		RSIOverbought:  72,
		RSIOversold:    28,
		ATRPeriod:      14,
		ProximityMult:  0.25,
		VolumeLookback: 19,
		VolumeRatio:    1.3,
		MinConfluence:  3,
		EnableRSI:      true,
		EnableVolume:   true,
		EnablePattern:  true,
	}
}

// CheckResult is the per-check diagnostic attached to a Signal.
type CheckResult struct {
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	Satisfied bool   `json:"satisfied"`
}

// Signal is the ephemeral outcome of scoring one direction on one
// (symbol, timeframe) series. Produced and consumed within a single tick.
type Signal struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Direction model.Direction `json:"direction"`
	Score     int             `json:"score"` // 0..4
	Accepted  bool            `json:"accepted"`
	Price     float64         `json:"price"` // latest close at evaluation
	Checks    []CheckResult   `json:"checks"`
}

// Scorer evaluates directional confluence.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer with the given config.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// MinCandles is the insufficiency threshold for a series.
func (s *Scorer) MinCandles() int {
	n := s.cfg.RSIPeriod + 5
	if n < 25 {
		n = 25
	}
	return n
}

// Evaluate scores one direction against the candle series and zones.
// Returns nil when history is insufficient or ATR is unavailable — the
// signal is rejected, never an error.
func (s *Scorer) Evaluate(symbol string, tf model.Timeframe, candles []model.Candle, zones []zone.Zone, dir model.Direction) *Signal {
	if len(candles) < s.MinCandles() {
		return nil
	}

	trailing := candles
	if len(trailing) > atrWindow {
		trailing = trailing[len(trailing)-atrWindow:]
	}
	atr, ok := indicator.ATR(trailing, s.cfg.ATRPeriod)
	if !ok {
		return nil
	}
	tolerance := atr * s.cfg.ProximityMult

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	checks := []struct {
		name      string
		enabled   bool
		predicate func() bool
	}{
		{"zone_proximity", true, func() bool {
			return nearZone(zones, dir, last, tolerance)
		}},
		{"rsi_extreme", s.cfg.EnableRSI, func() bool {
			rsi := indicator.Latest(indicator.RSI(candles, s.cfg.RSIPeriod))
			if math.IsNaN(rsi) {
				return false
			}
			if dir == model.DirectionDown {
				return rsi >= s.cfg.RSIOverbought
			}
			return rsi <= s.cfg.RSIOversold
		}},
		{"volume_anomaly", s.cfg.EnableVolume, func() bool {
			return volumeAnomaly(candles, s.cfg.VolumeLookback, s.cfg.VolumeRatio)
		}},
		{"reversal_pattern", s.cfg.EnablePattern, func() bool {
			flags := pattern.Detect(prev, last)
			if dir == model.DirectionDown {
				return flags.Bearish
			}
			return flags.Bullish
		}},
	}

	sig := &Signal{
		Symbol:    symbol,
		Timeframe: tf.Label,
		Direction: dir,
		Price:     last.Close,
		Checks:    make([]CheckResult, 0, len(checks)),
	}
	for _, c := range checks {
		satisfied := true // a disabled check passes by default
		if c.enabled {
			satisfied = c.predicate()
		}
		if satisfied {
			sig.Score++
		}
		sig.Checks = append(sig.Checks, CheckResult{Name: c.name, Enabled: c.enabled, Satisfied: satisfied})
	}
	sig.Accepted = sig.Score >= s.cfg.MinConfluence
	return sig
}

// Pick resolves the two per-direction evaluations of a tick. The higher
// accepted score wins; an exact tie between two accepted opposite signals
// picks nothing — equally weighted opposing evidence carries no edge.
func Pick(up, down *Signal) *Signal {
	upOK := up != nil && up.Accepted
	downOK := down != nil && down.Accepted
	switch {
	case upOK && downOK:
		if up.Score > down.Score {
			return up
		}
		if down.Score > up.Score {
			return down
		}
		return nil
	case upOK:
		return up
	case downOK:
		return down
	default:
		return nil
	}
}

// nearZone reports whether a direction-matching zone sits within tolerance
// of the candle. Down trades test resistance against high and close; Up
// trades test support against low and close.
func nearZone(zones []zone.Zone, dir model.Direction, c model.Candle, tolerance float64) bool {
	for _, z := range zones {
		switch dir {
		case model.DirectionDown:
			if z.Kind == zone.Resistance &&
				(math.Abs(z.Price-c.High) <= tolerance || math.Abs(z.Price-c.Close) <= tolerance) {
				return true
			}
		case model.DirectionUp:
			if z.Kind == zone.Support &&
				(math.Abs(z.Price-c.Low) <= tolerance || math.Abs(z.Price-c.Close) <= tolerance) {
				return true
			}
		}
	}
	return false
}

// volumeAnomaly reports whether the current volume exceeds ratio × the mean
// volume of the preceding lookback candles.
func volumeAnomaly(candles []model.Candle, lookback int, ratio float64) bool {
	n := len(candles)
	if n < lookback+1 {
		return false
	}
	var sum float64
	for _, c := range candles[n-1-lookback : n-1] {
		sum += c.Volume
	}
	mean := sum / float64(lookback)
	return candles[n-1].Volume > ratio*mean
}
