// Package indicator computes technical indicator series using Wilder's
// smoothing method. Functions are pure single-pass computations over a
// candle slice; positions without enough history are NaN.
package indicator

import (
	"math"

	"signal-enginev1/internal/model"
)

// RSI returns the Relative Strength Index series for the closes of candles,
// aligned index-for-index with the input. The first period positions are
// NaN. Seed averages are simple means of the first period gains/losses;
// subsequent steps use Wilder smoothing:
//
//	avgGain = (avgGain·(period−1) + gain) / period
//
// Returns nil if fewer than period+1 candles.
func RSI(candles []model.Candle, period int) []float64 {
	n := len(candles)
	if period <= 0 || n < period+1 {
		return nil
	}

	out := make([]float64, n)
	for i := 0; i < period; i++ {
		out[i] = math.NaN()
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		delta := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// Latest returns the last value of a series, or NaN for an empty series.
func Latest(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
