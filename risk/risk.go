// Package risk holds the pure helpers behind the host's exit arithmetic:
// minimal-ROI tables, trailing-stop levels, clamping and stake sizing.
package risk

import (
	"math"
	"time"
)

// ROIStep is one row of a minimal-ROI table: once a trade has been open for
// After, any profit at or above Target should be taken.
type ROIStep struct {
	After  time.Duration
	Target float64
}

// ROITable is a minimal-ROI schedule. Steps may be listed in any order; the
// step with the largest After not exceeding the elapsed time wins.
type ROITable []ROIStep

// Target returns the profit target in force after the trade has been open
// for elapsed. The second return is false when no step applies yet.
func (t ROITable) Target(elapsed time.Duration) (float64, bool) {
	best := time.Duration(-1)
	target := 0.0
	for _, s := range t {
		if s.After <= elapsed && s.After > best {
			best = s.After
			target = s.Target
		}
	}
	return target, best >= 0
}

// Reached reports whether the table demands an exit at the given profit.
func (t ROITable) Reached(elapsed time.Duration, profit float64) bool {
	target, ok := t.Target(elapsed)
	return ok && profit >= target
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TrailingStopLevel returns the profit ratio at which a trailing stop fires.
//
// peakProfit is the best profit ratio the trade has seen. The positive trail
// distance applies only once the peak has reached offset. Below the offset,
// onlyOffset keeps the static stop untouched; otherwise the stop still
// trails the peak, at the static stop's own distance.
func TrailingStopLevel(peakProfit, staticStop, positive, offset float64, onlyOffset bool) float64 {
	if positive > 0 && peakProfit >= offset {
		if level := peakProfit - positive; level > staticStop {
			return level
		}
		return staticStop
	}
	if onlyOffset {
		return staticStop
	}
	if level := peakProfit + staticStop; level > staticStop {
		return level
	}
	return staticStop
}

// CalcStake sizes a position from equity, the per-trade risk budget and the
// stop distance expressed as a fraction of price. A zero stop distance
// returns zero rather than an unbounded stake.
func CalcStake(equity, maxRisk, stopDist float64) float64 {
	if stopDist <= 0 {
		return 0
	}
	return equity * maxRisk / stopDist
}

// RoundStep floors v to the exchange step size, then to the configured
// decimal precision. Values below minQty collapse to zero. A non-positive
// step disables step rounding.
func RoundStep(v, step, minQty float64, precision int) float64 {
	if step > 0 {
		v = math.Floor(v/step) * step
	}
	if precision >= 0 {
		p := math.Pow(10, float64(precision))
		v = math.Floor(v*p) / p
	}
	if v < minQty {
		return 0
	}
	return v
}
