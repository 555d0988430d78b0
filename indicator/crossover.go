package indicator

import "math"

// CrossedAbove reports, per row, whether a crossed above b on that bar:
// a was at or below b on the previous bar and is strictly above it now.
// Rows where any operand is NaN never cross.
func CrossedAbove(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(b); i++ {
		if anyNaN(a[i], b[i], a[i-1], b[i-1]) {
			continue
		}
		out[i] = a[i] > b[i] && a[i-1] <= b[i-1]
	}
	return out
}

// CrossedBelow reports, per row, whether a crossed below b on that bar.
func CrossedBelow(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(b); i++ {
		if anyNaN(a[i], b[i], a[i-1], b[i-1]) {
			continue
		}
		out[i] = a[i] < b[i] && a[i-1] >= b[i-1]
	}
	return out
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
