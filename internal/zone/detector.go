// Package zone detects support and resistance zones from pivot extremes.
//
// A pivot-high is a candle whose high is the maximum over a symmetric
// neighbor window; a pivot-low is the window minimum of lows. Nearby pivots
// of the same kind are merged into a single zone at their arithmetic mean.
package zone

import (
	"sort"

	"signal-enginev1/internal/model"
)

// Kind distinguishes the two zone types.
type Kind string

const (
	Resistance Kind = "RESISTANCE"
	Support    Kind = "SUPPORT"
)

// Zone is a merged price level. Output of Detect is ordered by price, not time.
type Zone struct {
	Kind  Kind    `json:"kind"`
	Price float64 `json:"price"`
}

// Detector finds pivot highs/lows and merges them into zones.
type Detector struct {
	Left  int // candles required before the pivot
	Right int // candles required after the pivot

	// MergeFrac: same-kind pivots within MergeFrac × lastClose of each
	// other collapse into one zone.
	MergeFrac float64
}

// New creates a Detector with the given pivot window.
func New(left, right int) *Detector {
	return &Detector{
		Left:      left,
		Right:     right,
		MergeFrac: 0.002,
	}
}

// Detect scans candles for pivots and returns merged zones ordered by
// price. Fewer than Left+Right+1 candles yields nil.
func (d *Detector) Detect(candles []model.Candle) []Zone {
	n := len(candles)
	if n < d.Left+d.Right+1 {
		return nil
	}

	var pivots []Zone
	for i := d.Left; i <= n-1-d.Right; i++ {
		// Explicit bounded window scan; ties count as extremes.
		isHigh, isLow := true, true
		for j := i - d.Left; j <= i+d.Right; j++ {
			if j == i {
				continue
			}
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			pivots = append(pivots, Zone{Kind: Resistance, Price: candles[i].High})
		}
		if isLow {
			pivots = append(pivots, Zone{Kind: Support, Price: candles[i].Low})
		}
	}
	if len(pivots) == 0 {
		return nil
	}

	sort.Slice(pivots, func(a, b int) bool { return pivots[a].Price < pivots[b].Price })

	tolerance := d.MergeFrac * candles[n-1].Close
	return mergeAdjacent(pivots, tolerance)
}

// mergeAdjacent collapses runs of adjacent same-kind pivots whose chained
// price gaps stay within tolerance, replacing each run with its mean.
// Input must be sorted by price; output stays price-ordered.
func mergeAdjacent(pivots []Zone, tolerance float64) []Zone {
	out := make([]Zone, 0, len(pivots))

	kind := pivots[0].Kind
	sum := pivots[0].Price
	count := 1.0
	last := pivots[0].Price

	for _, p := range pivots[1:] {
		if p.Kind == kind && p.Price-last <= tolerance {
			sum += p.Price
			count++
			last = p.Price
			continue
		}
		out = append(out, Zone{Kind: kind, Price: sum / count})
		kind, sum, count, last = p.Kind, p.Price, 1, p.Price
	}
	out = append(out, Zone{Kind: kind, Price: sum / count})
	return out
}
