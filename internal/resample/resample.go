// Package resample folds 1-minute candles into coarser fixed-width
// timeframe buckets. Bucket starts are floor-aligned to the timeframe
// width, so every output candle satisfies time mod (minutes·60000) == 0.
package resample

import "signal-enginev1/internal/model"

// Aggregate folds an ascending 1-minute series into tf-width buckets in a
// single forward pass. Within a bucket: open = first constituent's open,
// high/low = running extrema, close = last constituent's close, volume =
// exact sum. Empty input yields nil. Input order is trusted — the caller
// owns the strictly-increasing-time invariant.
func Aggregate(candles []model.Candle, tf model.Timeframe) []model.Candle {
	if len(candles) == 0 {
		return nil
	}

	width := tf.BucketMs()
	out := make([]model.Candle, 0, len(candles)/tf.Minutes+1)

	cur := model.Candle{}
	started := false

	for _, c := range candles {
		bucket := c.Time / width * width

		if started && bucket != cur.Time {
			out = append(out, cur)
			started = false
		}

		if !started {
			cur = model.Candle{
				Time:   bucket,
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: c.Volume,
			}
			started = true
			continue
		}

		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}

	out = append(out, cur)
	return out
}
