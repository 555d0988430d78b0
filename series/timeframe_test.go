package series

import (
	"testing"
	"time"
)

func TestParseTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
	}
	for _, c := range cases {
		got, err := ParseTimeframe(c.in)
		if err != nil {
			t.Fatalf("ParseTimeframe(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseTimeframe(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "m", "5", "0m", "-5m", "5x", "m5"} {
		if _, err := ParseTimeframe(bad); err == nil {
			t.Fatalf("ParseTimeframe(%q) should fail", bad)
		}
	}
}

func TestResampleAggregatesBuckets(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var in []Candle
	for i := 0; i < 24; i++ {
		close := 100 + float64(i)
		in = append(in, Candle{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   close - 0.5,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 10,
		})
	}

	out := Resample(in, time.Hour)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2 hourly buckets", len(out))
	}

	first := out[0]
	if !first.Time.Equal(start) {
		t.Fatalf("bucket time = %v, want %v", first.Time, start)
	}
	if first.Open != 99.5 || first.Close != 111 {
		t.Fatalf("open/close = %v/%v, want 99.5/111", first.Open, first.Close)
	}
	if first.High != 112 || first.Low != 99 {
		t.Fatalf("high/low = %v/%v, want 112/99", first.High, first.Low)
	}
	if first.Volume != 120 {
		t.Fatalf("volume = %v, want 120", first.Volume)
	}

	second := out[1]
	if !second.Time.Equal(start.Add(time.Hour)) || second.Close != 123 {
		t.Fatalf("second bucket = %+v", second)
	}
}

func TestResamplePartialAndEmpty(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []Candle{
		{Time: start, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3},
		{Time: start.Add(5 * time.Minute), Open: 1.5, High: 3, Low: 1, Close: 2, Volume: 4},
	}

	out := Resample(in, time.Hour)
	if len(out) != 1 {
		t.Fatalf("len = %d, want a single partial bucket", len(out))
	}
	if out[0].High != 3 || out[0].Volume != 7 || out[0].Close != 2 {
		t.Fatalf("partial bucket = %+v", out[0])
	}

	if got := Resample(nil, time.Hour); got != nil {
		t.Fatalf("Resample(nil) = %v, want nil", got)
	}
	if got := Resample(in, 0); got != nil {
		t.Fatalf("Resample(bucket=0) = %v, want nil", got)
	}
}
