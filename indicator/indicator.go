// Package indicator implements the rolling-window technical indicators the
// strategy modules compute over host-supplied price series.
//
// Every function is vectorized: it takes full-length input slices and returns
// a slice of the same length whose warm-up prefix is NaN. NaN is the warm-up
// contract throughout the repo: comparisons against NaN are always false, so
// a warm-up row can never raise an entry or exit flag.
package indicator

import "math"

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA returns the simple moving average over the trailing period. A NaN
// input marks only the windows containing it as NaN; the average recovers as
// soon as the window clears, so SMAs over warm-up-prefixed indicator columns
// stay finite past the prefix.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	nans := 0 // NaN values inside the current window
	for i, v := range values {
		if math.IsNaN(v) {
			nans++
		} else {
			sum += v
		}
		if i >= period {
			if old := values[i-period]; math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}
		if i >= period-1 && nans == 0 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average, seeded with the SMA of the
// first period values.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// StdDev returns the rolling population standard deviation over the trailing
// period.
func StdDev(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(period)
		varSum := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			varSum += d * d
		}
		out[i] = math.Sqrt(varSum / float64(period))
	}
	return out
}

// Bollinger returns the upper, middle and lower Bollinger bands: an SMA
// middle band with dev standard deviations on either side.
func Bollinger(close []float64, period int, dev float64) (upper, middle, lower []float64) {
	middle = SMA(close, period)
	sd := StdDev(close, period)
	upper = nanSlice(len(close))
	lower = nanSlice(len(close))
	for i := range close {
		upper[i] = middle[i] + dev*sd[i]
		lower[i] = middle[i] - dev*sd[i]
	}
	return upper, middle, lower
}

// TrueRange returns the per-bar true range. The first bar has no previous
// close, so its true range is simply high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(high))
	for i := range high {
		if i == 0 {
			out[i] = high[i] - low[i]
			continue
		}
		tr := high[i] - low[i]
		if d := math.Abs(high[i] - close[i-1]); d > tr {
			tr = d
		}
		if d := math.Abs(low[i] - close[i-1]); d > tr {
			tr = d
		}
		out[i] = tr
	}
	return out
}

// ATR returns Wilder's average true range: seeded with the mean of the first
// period true ranges, then smoothed with factor 1/period.
func ATR(high, low, close []float64, period int) []float64 {
	out := nanSlice(len(high))
	if period <= 0 || len(high) < period {
		return out
	}
	tr := TrueRange(high, low, close)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += tr[i]
	}
	prev := seed / float64(period)
	out[period-1] = prev
	for i := period; i < len(tr); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}
	return out
}

// RSI returns Wilder's relative strength index.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// DMI returns Wilder's directional movement system: +DI, -DI, DX and ADX.
// The DI and DX columns become valid at index period, ADX at 2*period-1.
func DMI(high, low, close []float64, period int) (plusDI, minusDI, dx, adx []float64) {
	n := len(high)
	plusDI = nanSlice(n)
	minusDI = nanSlice(n)
	dx = nanSlice(n)
	adx = nanSlice(n)
	if period <= 0 || n <= period {
		return plusDI, minusDI, dx, adx
	}

	tr := TrueRange(high, low, close)

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder-smoothed averages, seeded over bars 1..period.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}
	smTR /= float64(period)
	smPlus /= float64(period)
	smMinus /= float64(period)

	write := func(i int) {
		if smTR == 0 {
			plusDI[i], minusDI[i], dx[i] = 0, 0, 0
			return
		}
		p := 100 * smPlus / smTR
		m := 100 * smMinus / smTR
		plusDI[i] = p
		minusDI[i] = m
		if p+m == 0 {
			dx[i] = 0
		} else {
			dx[i] = 100 * math.Abs(p-m) / (p + m)
		}
	}
	write(period)
	for i := period + 1; i < n; i++ {
		smTR = (smTR*float64(period-1) + tr[i]) / float64(period)
		smPlus = (smPlus*float64(period-1) + plusDM[i]) / float64(period)
		smMinus = (smMinus*float64(period-1) + minusDM[i]) / float64(period)
		write(i)
	}

	// ADX: Wilder smoothing over DX, seeded with its first period values.
	if n < 2*period {
		return plusDI, minusDI, dx, adx
	}
	seed := 0.0
	for i := period; i < 2*period; i++ {
		seed += dx[i]
	}
	prev := seed / float64(period)
	adx[2*period-1] = prev
	for i := 2 * period; i < n; i++ {
		prev = (prev*float64(period-1) + dx[i]) / float64(period)
		adx[i] = prev
	}
	return plusDI, minusDI, dx, adx
}

// VolumeWeighted smooths values by volume: SMA(values*volume) / SMA(volume)
// over the trailing period. NaN inputs poison their windows, preserving the
// warm-up prefix of the smoothed series.
func VolumeWeighted(values, volume []float64, period int) []float64 {
	out := nanSlice(len(values))
	if len(volume) != len(values) {
		return out
	}
	weighted := make([]float64, len(values))
	for i := range values {
		weighted[i] = values[i] * volume[i]
	}
	num := SMA(weighted, period)
	den := SMA(volume, period)
	for i := range out {
		if den[i] != 0 {
			out[i] = num[i] / den[i]
		}
	}
	return out
}
