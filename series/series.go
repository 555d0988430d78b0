// Package series holds the time-indexed bar table the host engine hands to
// every strategy hook: raw OHLCV columns plus the derived indicator, signal
// and tag columns the hooks append.
package series

import (
	"fmt"
	"math"
	"time"
)

// Names of the boolean signal columns the host reads back after the entry
// and exit hooks have run.
const (
	EnterLong  = "enter_long"
	EnterShort = "enter_short"
	ExitLong   = "exit_long"
	ExitShort  = "exit_short"

	EnterTag = "enter_tag"
	ExitTag  = "exit_tag"
)

// Candle is a single OHLCV bar. Time is the candle open time.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Frame is a column-oriented table of bars. Base OHLCV columns are stored as
// parallel slices; derived indicator columns, boolean signal columns and
// string tag columns live in side maps keyed by name. All columns share the
// frame length.
type Frame struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	cols  map[string][]float64
	flags map[string][]bool
	tags  map[string][]string
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{
		cols:  make(map[string][]float64),
		flags: make(map[string][]bool),
		tags:  make(map[string][]string),
	}
}

// FromCandles builds a frame from a candle slice.
func FromCandles(candles []Candle) *Frame {
	f := New()
	for _, c := range candles {
		f.Append(c)
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Time) }

// Append adds a bar to the frame. Derived columns are dropped: the host
// repopulates indicators and signals over the whole frame after every
// mutation, so stale columns must not survive an append.
func (f *Frame) Append(c Candle) {
	f.Time = append(f.Time, c.Time)
	f.Open = append(f.Open, c.Open)
	f.High = append(f.High, c.High)
	f.Low = append(f.Low, c.Low)
	f.Close = append(f.Close, c.Close)
	f.Volume = append(f.Volume, c.Volume)
	if len(f.cols) > 0 {
		f.cols = make(map[string][]float64)
	}
	if len(f.flags) > 0 {
		f.flags = make(map[string][]bool)
	}
	if len(f.tags) > 0 {
		f.tags = make(map[string][]string)
	}
}

// Col returns the named column. Base OHLCV columns resolve by their lower
// case names ("open", "high", "low", "close", "volume"); anything else is a
// derived column. Missing columns return nil.
func (f *Frame) Col(name string) []float64 {
	switch name {
	case "open":
		return f.Open
	case "high":
		return f.High
	case "low":
		return f.Low
	case "close":
		return f.Close
	case "volume":
		return f.Volume
	}
	return f.cols[name]
}

// HasCol reports whether the named column exists.
func (f *Frame) HasCol(name string) bool {
	return f.Col(name) != nil
}

// SetCol stores a derived column. The column length must match the frame.
func (f *Frame) SetCol(name string, vals []float64) error {
	if len(vals) != f.Len() {
		return fmt.Errorf("series: column %q has %d values, frame has %d rows", name, len(vals), f.Len())
	}
	f.cols[name] = vals
	return nil
}

// Flag returns the named boolean signal column, or nil if it was never set.
func (f *Frame) Flag(name string) []bool {
	return f.flags[name]
}

// FlagAt reports the value of a signal column at row i; unset columns read
// as false everywhere.
func (f *Frame) FlagAt(name string, i int) bool {
	col := f.flags[name]
	if col == nil || i < 0 || i >= len(col) {
		return false
	}
	return col[i]
}

// Tag returns the named tag column, or nil if it was never set.
func (f *Frame) Tag(name string) []string {
	return f.tags[name]
}

// MarkWhere raises flagName on every row where mask is true and records tag
// in tagName on the same rows. Existing flags on other rows are preserved, so
// several conditions can mark the same column.
func (f *Frame) MarkWhere(mask []bool, flagName, tagName, tag string) error {
	if len(mask) != f.Len() {
		return fmt.Errorf("series: mask has %d values, frame has %d rows", len(mask), f.Len())
	}
	flags := f.flags[flagName]
	if flags == nil {
		flags = make([]bool, f.Len())
		f.flags[flagName] = flags
	}
	tags := f.tags[tagName]
	if tagName != "" && tags == nil {
		tags = make([]string, f.Len())
		f.tags[tagName] = tags
	}
	for i, m := range mask {
		if !m {
			continue
		}
		flags[i] = true
		if tags != nil {
			tags[i] = tag
		}
	}
	return nil
}

// Last returns the value of the named column on the final row. The second
// return is false when the frame is empty or the column is missing.
func (f *Frame) Last(name string) (float64, bool) {
	col := f.Col(name)
	if len(col) == 0 {
		return math.NaN(), false
	}
	return col[len(col)-1], true
}
