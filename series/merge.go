package series

import (
	"fmt"
	"math"
	"time"
)

// MergeInformative forward-fills columns from a higher-timeframe frame onto
// the main frame, appending suffix to each merged column name.
//
// An informative candle only becomes visible once it has fully closed: its
// open time plus infoTF must be at or before the main row's open time.
// Merging the still-forming informative candle would leak future data into
// the signal columns, which a backtest host cannot detect.
//
// Main rows that precede the first closed informative candle are filled with
// NaN, which keeps every threshold comparison on them false.
func MergeInformative(main, info *Frame, cols []string, suffix string, infoTF time.Duration) error {
	if infoTF <= 0 {
		return fmt.Errorf("series: informative timeframe must be positive, got %s", infoTF)
	}
	src := make([][]float64, len(cols))
	for k, name := range cols {
		c := info.Col(name)
		if c == nil {
			return fmt.Errorf("series: informative frame has no column %q", name)
		}
		src[k] = c
	}

	out := make([][]float64, len(cols))
	for k := range out {
		out[k] = make([]float64, main.Len())
	}

	j := -1 // index of the latest closed informative candle
	for i := 0; i < main.Len(); i++ {
		for j+1 < info.Len() && !info.Time[j+1].Add(infoTF).After(main.Time[i]) {
			j++
		}
		for k := range cols {
			if j < 0 {
				out[k][i] = math.NaN()
			} else {
				out[k][i] = src[k][j]
			}
		}
	}

	for k, name := range cols {
		if err := main.SetCol(name+suffix, out[k]); err != nil {
			return err
		}
	}
	return nil
}
