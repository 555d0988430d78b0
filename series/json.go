package series

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// FromJSON parses exchange kline JSON into candles. Two layouts are accepted:
//
//   - array-of-arrays, [ts, open, high, low, close, volume, ...], with the
//     timestamp in epoch milliseconds (the common exchange kline response)
//   - array-of-objects with "time"/"date" plus "open".."volume" keys
//
// Rows with fewer than six array elements are rejected rather than skipped.
func FromJSON(data []byte) ([]Candle, error) {
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("series: expected a JSON array of klines")
	}

	rows := root.Array()
	candles := make([]Candle, 0, len(rows))
	for i, row := range rows {
		var c Candle
		switch {
		case row.IsArray():
			vals := row.Array()
			if len(vals) < 6 {
				return nil, fmt.Errorf("series: kline row %d has %d fields, want at least 6", i, len(vals))
			}
			c = Candle{
				Time:   time.UnixMilli(vals[0].Int()).UTC(),
				Open:   vals[1].Float(),
				High:   vals[2].Float(),
				Low:    vals[3].Float(),
				Close:  vals[4].Float(),
				Volume: vals[5].Float(),
			}
		case row.IsObject():
			ts := row.Get("time")
			if !ts.Exists() {
				ts = row.Get("date")
			}
			if !ts.Exists() {
				return nil, fmt.Errorf("series: kline row %d has no time or date field", i)
			}
			c = Candle{
				Time:   time.UnixMilli(ts.Int()).UTC(),
				Open:   row.Get("open").Float(),
				High:   row.Get("high").Float(),
				Low:    row.Get("low").Float(),
				Close:  row.Get("close").Float(),
				Volume: row.Get("volume").Float(),
			}
		default:
			return nil, fmt.Errorf("series: kline row %d is neither array nor object", i)
		}
		candles = append(candles, c)
	}
	return candles, nil
}
