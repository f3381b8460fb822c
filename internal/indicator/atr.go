package indicator

import (
	"math"

	"signal-enginev1/internal/model"
)

// ATR returns the latest Average True Range over candles, smoothed with
// α = 1/period and seeded with the first true range. ok is false when
// fewer than period+1 candles are available.
func ATR(candles []model.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}

	alpha := 1.0 / float64(period)
	var atr float64
	for i := 1; i < len(candles); i++ {
		tr := trueRange(candles[i], candles[i-1])
		if i == 1 {
			atr = tr
			continue
		}
		atr = alpha*tr + (1-alpha)*atr
	}
	return atr, true
}

// trueRange is the largest of high−low, |high−prevClose|, |low−prevClose|.
func trueRange(c, prev model.Candle) float64 {
	tr := c.High - c.Low
	if v := math.Abs(c.High - prev.Close); v > tr {
		tr = v
	}
	if v := math.Abs(c.Low - prev.Close); v > tr {
		tr = v
	}
	return tr
}
