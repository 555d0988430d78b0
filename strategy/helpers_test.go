package strategy

import (
	"time"

	"github.com/nandiva/stratkit/series"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// buildFrame constructs an n-row frame with bars produced by gen, spaced by
// step. gen receives the row index.
func buildFrame(n int, step time.Duration, gen func(i int) series.Candle) *series.Frame {
	f := series.New()
	for i := 0; i < n; i++ {
		c := gen(i)
		c.Time = testStart.Add(time.Duration(i) * step)
		f.Append(c)
	}
	return f
}

// trendBar produces a plain bar around the given close.
func trendBar(close, vol float64) series.Candle {
	return series.Candle{
		Open:   close,
		High:   close + 0.5,
		Low:    close - 0.5,
		Close:  close,
		Volume: vol,
	}
}

// flagCount tallies raised rows in a signal column.
func flagCount(f *series.Frame, col string) int {
	n := 0
	for _, v := range f.Flag(col) {
		if v {
			n++
		}
	}
	return n
}
