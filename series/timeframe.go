package series

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTimeframe converts an exchange timeframe label ("5m", "1h", "1d")
// into a duration.
func ParseTimeframe(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("series: invalid timeframe %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("series: invalid timeframe %q", s)
	}
	switch s[len(s)-1] {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("series: invalid timeframe %q", s)
}

// Resample aggregates candles into buckets of the given duration: open from
// the first bar, close from the last, high/low as extremes, volume summed.
// Input must be time-ordered. Each bucket is stamped with its aligned open
// time.
func Resample(candles []Candle, bucket time.Duration) []Candle {
	if bucket <= 0 || len(candles) == 0 {
		return nil
	}
	var out []Candle
	var cur Candle
	var curStart time.Time
	open := false

	flush := func() {
		if open {
			out = append(out, cur)
			open = false
		}
	}
	for _, c := range candles {
		start := c.Time.Truncate(bucket)
		if !open || !start.Equal(curStart) {
			flush()
			curStart = start
			cur = Candle{Time: start, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			open = true
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
	flush()
	return out
}
