package model

import "time"

// Timeframe is one of the fixed candle resolutions the engine trades on.
type Timeframe struct {
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
}

// timeframes is the fixed enumerated set; labels follow exchange convention.
var timeframes = []Timeframe{
	{"3m", 3},
	{"5m", 5},
	{"10m", 10},
	{"30m", 30},
	{"1h", 60},
	{"1d", 1440},
}

// TimeframeByLabel resolves a label like "5m" or "1h" to its Timeframe.
func TimeframeByLabel(label string) (Timeframe, bool) {
	for _, tf := range timeframes {
		if tf.Label == label {
			return tf, true
		}
	}
	return Timeframe{}, false
}

// Timeframes returns a copy of the full enumerated set.
func Timeframes() []Timeframe {
	out := make([]Timeframe, len(timeframes))
	copy(out, timeframes)
	return out
}

// BucketMs returns the bucket width in milliseconds.
func (tf Timeframe) BucketMs() int64 {
	return int64(tf.Minutes) * 60_000
}

// Duration returns the timeframe as a time.Duration.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf.Minutes) * time.Minute
}
