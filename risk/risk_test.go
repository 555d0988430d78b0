package risk

import (
	"math"
	"testing"
	"time"
)

func TestROITableSelectsLatestStep(t *testing.T) {
	table := ROITable{
		{After: 0, Target: 0.05},
		{After: 10 * time.Minute, Target: 0.03},
		{After: 20 * time.Minute, Target: 0.01},
		{After: 30 * time.Minute, Target: 0},
	}

	cases := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0.05},
		{9 * time.Minute, 0.05},
		{10 * time.Minute, 0.03},
		{25 * time.Minute, 0.01},
		{2 * time.Hour, 0},
	}
	for _, c := range cases {
		got, ok := table.Target(c.elapsed)
		if !ok || got != c.want {
			t.Fatalf("Target(%s) = %v ok=%v, want %v", c.elapsed, got, ok, c.want)
		}
	}
}

func TestROITableNoStepYet(t *testing.T) {
	table := ROITable{{After: 16 * time.Minute, Target: 0.075}}
	if _, ok := table.Target(5 * time.Minute); ok {
		t.Fatal("no step should apply before the first threshold")
	}
}

func TestROIReached(t *testing.T) {
	table := ROITable{{After: 0, Target: 0.05}, {After: 30 * time.Minute, Target: 0}}

	if table.Reached(time.Minute, 0.04) {
		t.Fatal("4% before 30m should not exit")
	}
	if !table.Reached(time.Minute, 0.05) {
		t.Fatal("5% should exit immediately")
	}
	if !table.Reached(31*time.Minute, 0.001) {
		t.Fatal("any profit after 30m should exit")
	}
	if table.Reached(31*time.Minute, -0.001) {
		t.Fatal("a losing trade is not an ROI exit")
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(0.02, 0.03, 0.07); got != 0.03 {
		t.Fatalf("low clamp failed: %v", got)
	}
	if got := Clamp(0.10, 0.03, 0.07); got != 0.07 {
		t.Fatalf("high clamp failed: %v", got)
	}
	if got := Clamp(0.05, 0.03, 0.07); got != 0.05 {
		t.Fatalf("in-range value changed: %v", got)
	}
}

func TestTrailingStopLevelUnarmed(t *testing.T) {
	// Offset-gated trail that never reached the offset: static stop rules.
	got := TrailingStopLevel(0.03, -0.15, 0.07, 0.10, true)
	if got != -0.15 {
		t.Fatalf("expected static stop, got %v", got)
	}
}

func TestTrailingStopLevelArmed(t *testing.T) {
	got := TrailingStopLevel(0.12, -0.15, 0.07, 0.10, true)
	if math.Abs(got-0.05) > 1e-12 { // peak 12% minus 7% trail
		t.Fatalf("expected 0.05, got %v", got)
	}
}

func TestTrailingStopBelowOffsetUsesStaticDistance(t *testing.T) {
	// Offset not reached and onlyOffset unset: the tight positive trail must
	// wait for the offset, while the stop keeps trailing the peak at the
	// static stop's distance.
	got := TrailingStopLevel(0.10, -0.349, 0.2, 0.276, false)
	if math.Abs(got-(-0.249)) > 1e-12 {
		t.Fatalf("expected the static-distance trail -0.249, got %v", got)
	}
}

func TestTrailingStopNeverBelowStatic(t *testing.T) {
	got := TrailingStopLevel(0.01, -0.03, 0.20, 0, false)
	if got != -0.03 {
		t.Fatalf("trail must not drop below the static stop, got %v", got)
	}
}

func TestCalcStakeBasic(t *testing.T) {
	// Risk $100 with a 1.5% stop: stake of ~$6666.
	got := CalcStake(10_000, 0.01, 0.015)
	if got < 6666 || got > 6667 {
		t.Fatalf("unexpected stake: %v", got)
	}
}

func TestCalcStakeZeroStopDist(t *testing.T) {
	if got := CalcStake(10_000, 0.01, 0); got != 0 {
		t.Fatalf("expected 0 for zero stop distance, got %v", got)
	}
}

func TestRoundStep(t *testing.T) {
	if got := RoundStep(66.6666, 0.01, 0.05, 2); got != 66.66 {
		t.Fatalf("unexpected rounding: %v", got)
	}
	if got := RoundStep(0.01, 0.001, 0.1, 3); got != 0 {
		t.Fatalf("expected 0 below minQty, got %v", got)
	}
	if got := RoundStep(1.2345, 0, 0, 2); got != 1.23 {
		t.Fatalf("zero step should still apply precision, got %v", got)
	}
}
