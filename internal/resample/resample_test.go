package resample

import (
	"testing"

	"signal-enginev1/internal/model"
)

// makeMinute creates a test 1-minute candle at the given minute offset from base.
func makeMinute(baseMs int64, minute int64, open, high, low, close_, vol float64) model.Candle {
	return model.Candle{
		Time:   baseMs + minute*60_000,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close_,
		Volume: vol,
	}
}

func TestAggregate_5m(t *testing.T) {
	tf, _ := model.TimeframeByLabel("5m")

	baseMs := int64(1700000000000)
	baseMs = baseMs - baseMs%tf.BucketMs()

	// Two full 5m buckets: minutes 0-4 and 5-9.
	var in []model.Candle
	for i := int64(0); i < 10; i++ {
		in = append(in, makeMinute(baseMs, i, 100+float64(i), 110+float64(i), 90+float64(i), 105+float64(i), 10))
	}

	out := Aggregate(in, tf)
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(out))
	}

	first := out[0]
	if first.Time != baseMs {
		t.Errorf("expected bucket start %d, got %d", baseMs, first.Time)
	}
	if first.Open != 100 {
		t.Errorf("expected open=100, got %v", first.Open)
	}
	if first.Close != 109 { // 105 + 4
		t.Errorf("expected close=109, got %v", first.Close)
	}
	if first.High != 114 { // 110 + 4
		t.Errorf("expected high=114, got %v", first.High)
	}
	if first.Low != 90 {
		t.Errorf("expected low=90, got %v", first.Low)
	}
	if first.Volume != 50 {
		t.Errorf("expected volume=50, got %v", first.Volume)
	}

	second := out[1]
	if second.Time != baseMs+tf.BucketMs() {
		t.Errorf("expected second bucket start %d, got %d", baseMs+tf.BucketMs(), second.Time)
	}
	if second.Volume != 50 {
		t.Errorf("expected volume=50, got %v", second.Volume)
	}
}

func TestAggregate_BucketAlignment(t *testing.T) {
	// Input not aligned to the bucket boundary: starts mid-bucket.
	tf, _ := model.TimeframeByLabel("10m")

	baseMs := int64(1700000000000)
	baseMs = baseMs - baseMs%tf.BucketMs()
	offset := baseMs + 3*60_000 // 3 minutes into the bucket

	var in []model.Candle
	for i := int64(0); i < 20; i++ {
		in = append(in, makeMinute(offset, i, 50, 55, 45, 52, 1))
	}

	out := Aggregate(in, tf)
	for _, c := range out {
		if c.Time%tf.BucketMs() != 0 {
			t.Errorf("bucket start %d not aligned to %d", c.Time, tf.BucketMs())
		}
	}

	// Volume conservation: sum over buckets equals sum over input.
	var inVol, outVol float64
	for _, c := range in {
		inVol += c.Volume
	}
	for _, c := range out {
		outVol += c.Volume
	}
	if inVol != outVol {
		t.Errorf("volume not conserved: in=%v out=%v", inVol, outVol)
	}
}

func TestAggregate_PartialBucket(t *testing.T) {
	tf, _ := model.TimeframeByLabel("30m")

	baseMs := int64(1700000000000)
	baseMs = baseMs - baseMs%tf.BucketMs()

	// Only 7 minutes of a 30m bucket — still emits one (partial) candle.
	var in []model.Candle
	for i := int64(0); i < 7; i++ {
		in = append(in, makeMinute(baseMs, i, 10, 12, 9, 11, 2))
	}

	out := Aggregate(in, tf)
	if len(out) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(out))
	}
	if out[0].Volume != 14 {
		t.Errorf("expected volume=14, got %v", out[0].Volume)
	}
}

func TestAggregate_Empty(t *testing.T) {
	tf, _ := model.TimeframeByLabel("5m")
	if out := Aggregate(nil, tf); out != nil {
		t.Errorf("expected nil for empty input, got %v", out)
	}
}
