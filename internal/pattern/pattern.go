// Package pattern classifies a candle (with its predecessor) as a bullish
// or bearish reversal shape.
package pattern

import (
	"math"

	"signal-enginev1/internal/model"
)

// rangeEpsilon floors the candle range so zero-range candles cannot divide
// by zero.
const rangeEpsilon = 1e-9

// Flags holds the two independent reversal classifications. Both can be
// true at once for degenerate shapes; the scorer evaluates each direction
// on its own flag instead of picking one.
type Flags struct {
	Bearish bool
	Bullish bool
}

// Detect evaluates cur against prev.
//
// Bearish: shooting star (long upper shadow, small bearish body) or bearish
// engulfing (bearish body swallowing the prior bullish body).
// Bullish: the mirror — hammer or bullish engulfing.
func Detect(prev, cur model.Candle) Flags {
	body := math.Abs(cur.Close - cur.Open)
	rng := cur.High - cur.Low
	if rng < rangeEpsilon {
		rng = rangeEpsilon
	}
	upperShadow := cur.High - math.Max(cur.Open, cur.Close)
	lowerShadow := math.Min(cur.Open, cur.Close) - cur.Low

	shootingStar := upperShadow > 2*body && body/rng < 0.5 && cur.Close < cur.Open
	bearishEngulfing := prev.Close > prev.Open && cur.Close < cur.Open &&
		cur.Open >= prev.Close && cur.Close <= prev.Open

	hammer := lowerShadow > 2*body && body/rng < 0.5 && cur.Close > cur.Open
	bullishEngulfing := prev.Close < prev.Open && cur.Close > cur.Open &&
		cur.Open <= prev.Close && cur.Close >= prev.Open

	return Flags{
		Bearish: shootingStar || bearishEngulfing,
		Bullish: hammer || bullishEngulfing,
	}
}
