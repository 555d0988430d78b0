package strategy

import (
	"testing"
	"time"

	"github.com/nandiva/stratkit/config"
	"github.com/nandiva/stratkit/series"
	"github.com/nandiva/stratkit/testutils"
)

func buildBandReversion(t *testing.T) *BandReversion {
	t.Helper()
	s, err := NewBandReversion(config.DefaultBandReversion(), testutils.NewMockLogger())
	if err != nil {
		t.Fatalf("NewBandReversion: %v", err)
	}
	return s
}

/*
Long entry scenario: a steady uptrend with wide bars (lows held far below the
closes so the crash bar does not flip the directional balance), then a single
deep crash bar on heavy volume. The crash close lands below the lower band
while +DI still leads, ADX is high and volume beats the filter.
*/
func crashFrame() *series.Frame {
	f := series.New()
	step := 15 * time.Minute
	for i := 0; i < 45; i++ {
		close := 101 + float64(i)
		f.Append(series.Candle{
			Time:   testStart.Add(time.Duration(i) * step),
			Open:   close,
			High:   close + 0.5,
			Low:    close - 30,
			Close:  close,
			Volume: 1000,
		})
	}
	// Crash bar: close collapses 35 points, high capped at the previous
	// high, low held above the previous low band.
	f.Append(series.Candle{
		Time:   testStart.Add(45 * step),
		Open:   145,
		High:   145.5,
		Low:    109,
		Close:  110,
		Volume: 3000,
	})
	return f
}

func TestBandReversion_LongEntryOnCrashBar(t *testing.T) {
	s := buildBandReversion(t)
	f := crashFrame()
	meta := Metadata{Pair: "ETH/USDT"}

	if err := s.PopulateIndicators(f, meta); err != nil {
		t.Fatalf("PopulateIndicators: %v", err)
	}
	if err := s.PopulateEntrySignals(f, meta); err != nil {
		t.Fatalf("PopulateEntrySignals: %v", err)
	}

	last := f.Len() - 1
	if !f.FlagAt(series.EnterLong, last) {
		t.Fatal("expected a long entry on the crash bar")
	}
	if f.FlagAt(series.EnterShort, last) {
		t.Fatal("crash bar must not flag a short")
	}
	// The quiet uptrend before the crash never trades.
	if flagCount(f, series.EnterLong) != 1 {
		t.Fatalf("expected exactly one long entry, got %d", flagCount(f, series.EnterLong))
	}
}

func TestBandReversion_ShortEntryOnSpikeBar(t *testing.T) {
	s := buildBandReversion(t)

	f := series.New()
	step := 15 * time.Minute
	for i := 0; i < 45; i++ {
		close := 400 - float64(i)
		f.Append(series.Candle{
			Time:   testStart.Add(time.Duration(i) * step),
			Open:   close,
			High:   close + 30,
			Low:    close - 0.5,
			Close:  close,
			Volume: 1000,
		})
	}
	// Spike bar: close jumps 35 points on heavy volume while -DI keeps the
	// directional lead.
	f.Append(series.Candle{
		Time:   testStart.Add(45 * step),
		Open:   356,
		High:   391.5,
		Low:    355.5,
		Close:  391,
		Volume: 3000,
	})
	meta := Metadata{Pair: "ETH/USDT"}

	if err := s.PopulateIndicators(f, meta); err != nil {
		t.Fatalf("PopulateIndicators: %v", err)
	}
	if err := s.PopulateEntrySignals(f, meta); err != nil {
		t.Fatalf("PopulateEntrySignals: %v", err)
	}

	if !f.FlagAt(series.EnterShort, f.Len()-1) {
		t.Fatal("expected a short entry on the spike bar")
	}
	if flagCount(f, series.EnterLong) != 0 {
		t.Fatal("downtrend spike must not flag longs")
	}
}

func TestBandReversion_VolumeFilterBlocksEntry(t *testing.T) {
	s := buildBandReversion(t)
	f := crashFrame()
	// Drain the crash bar's volume below the filter threshold.
	f.Volume[f.Len()-1] = 900
	meta := Metadata{Pair: "ETH/USDT"}

	if err := s.PopulateIndicators(f, meta); err != nil {
		t.Fatalf("PopulateIndicators: %v", err)
	}
	if err := s.PopulateEntrySignals(f, meta); err != nil {
		t.Fatalf("PopulateEntrySignals: %v", err)
	}
	if flagCount(f, series.EnterLong) != 0 {
		t.Fatal("thin volume must block the entry")
	}
}

func TestBandReversion_ExitLongOnMomentumFlip(t *testing.T) {
	s := buildBandReversion(t)

	f := buildFrame(4, 15*time.Minute, func(i int) series.Candle { return trendBar(100, 1000) })
	mustSetCol(t, f, "bb_middle", []float64{90, 90, 90, 90})
	mustSetCol(t, f, "plus_di", []float64{5, 5, 5, 5})
	mustSetCol(t, f, "minus_di", []float64{3, 3, 6, 6})

	if err := s.PopulateExitSignals(f, Metadata{Pair: "ETH/USDT"}); err != nil {
		t.Fatalf("PopulateExitSignals: %v", err)
	}

	// -DI crosses above +DI on row 2 while price sits over the middle band.
	want := []bool{false, false, true, false}
	for i, w := range want {
		if f.FlagAt(series.ExitLong, i) != w {
			t.Fatalf("exit_long[%d] = %v, want %v", i, f.FlagAt(series.ExitLong, i), w)
		}
	}
	if flagCount(f, series.ExitShort) != 0 {
		t.Fatal("no exit_short expected above the middle band")
	}
}

func TestBandReversion_ExitShortOnMomentumFlip(t *testing.T) {
	s := buildBandReversion(t)

	f := buildFrame(4, 15*time.Minute, func(i int) series.Candle { return trendBar(100, 1000) })
	mustSetCol(t, f, "bb_middle", []float64{110, 110, 110, 110})
	mustSetCol(t, f, "plus_di", []float64{3, 3, 6, 6})
	mustSetCol(t, f, "minus_di", []float64{5, 5, 5, 5})

	if err := s.PopulateExitSignals(f, Metadata{Pair: "ETH/USDT"}); err != nil {
		t.Fatalf("PopulateExitSignals: %v", err)
	}
	if !f.FlagAt(series.ExitShort, 2) || flagCount(f, series.ExitShort) != 1 {
		t.Fatalf("expected a single exit_short on row 2, got %v", f.Flag(series.ExitShort))
	}
}

func TestBandReversion_CustomStoplossClamps(t *testing.T) {
	s := buildBandReversion(t)
	trade := &Trade{Pair: "ETH/USDT"}
	now := testStart

	cases := []struct {
		atr, rate float64
		isShort   bool
		want      float64
	}{
		{atr: 2, rate: 100, want: -0.03},            // 2% risk clamps up to the 3% floor
		{atr: 5, rate: 100, want: -0.05},            // in-range risk passes through
		{atr: 10, rate: 100, want: -0.07},           // 10% risk clamps down to the 7% cap
		{atr: 10, rate: 100, isShort: true, want: 0.07}, // shorts get the positive magnitude
	}
	for _, c := range cases {
		f := buildFrame(1, 15*time.Minute, func(i int) series.Candle { return trendBar(c.rate, 1) })
		mustSetCol(t, f, "atr", []float64{c.atr})
		trade.IsShort = c.isShort

		got, ok := s.CustomStoploss(f, trade, now, c.rate, 0)
		if !ok || got != c.want {
			t.Fatalf("CustomStoploss(atr=%v, short=%v) = %v ok=%v, want %v", c.atr, c.isShort, got, ok, c.want)
		}
	}
}

func TestBandReversion_CustomStoplossFallsBackOnEmptyFrame(t *testing.T) {
	s := buildBandReversion(t)
	if _, ok := s.CustomStoploss(series.New(), &Trade{}, testStart, 100, 0); ok {
		t.Fatal("empty frame must fall back to the static stop")
	}
}

func TestBandReversion_CustomExitTargets(t *testing.T) {
	s := buildBandReversion(t)
	trade := &Trade{Pair: "ETH/USDT"}
	now := testStart

	// ATR 1.25 @ rate 100: risk 1.25% clamps to 3%, target = 4x = 12%.
	f := buildFrame(1, 15*time.Minute, func(i int) series.Candle { return trendBar(100, 1) })
	mustSetCol(t, f, "atr", []float64{1.25})

	if _, ok := s.CustomExit(f, trade, now, 100, 0.11); ok {
		t.Fatal("11% profit is under the 12% target")
	}
	reason, ok := s.CustomExit(f, trade, now, 100, 0.125)
	if !ok || reason == "" {
		t.Fatal("12.5% profit should exit with a reason")
	}

	// ATR 10 @ rate 100: risk clamps to 7%, raw target 28% clamps to 15%.
	mustSetCol(t, f, "atr", []float64{10})
	if _, ok := s.CustomExit(f, trade, now, 100, 0.14); ok {
		t.Fatal("14% profit is under the clamped 15% target")
	}
	if _, ok := s.CustomExit(f, trade, now, 100, 0.15); !ok {
		t.Fatal("15% profit should exit at the clamped cap")
	}
}

func TestBandReversion_SettingsShape(t *testing.T) {
	s := buildBandReversion(t)
	set := s.Settings()

	if set.Timeframe != "15m" || set.Stoploss != -0.15 {
		t.Fatalf("unexpected base settings: %+v", set)
	}
	// Short columns are populated for hosts that allow them, but the module
	// itself does not opt in to shorting.
	if set.CanShort {
		t.Fatal("shorting must stay disabled")
	}
	if !set.TrailingStop || set.TrailingPositive != 0.07 || !set.TrailingOnlyOffsetReached {
		t.Fatalf("unexpected trailing settings: %+v", set)
	}
}

func mustSetCol(t *testing.T, f *series.Frame, name string, vals []float64) {
	t.Helper()
	if err := f.SetCol(name, vals); err != nil {
		t.Fatalf("SetCol(%s): %v", name, err)
	}
}
