package forecast

import (
	"math"

	"FinBot/internal/services/features"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// seasonalIndices runs a classical decomposition with a centred moving
// average of order m and returns one index per season position. For the
// multiplicative form indices average to 1; for the additive form to 0.
func seasonalIndices(y []float64, m int, multiplicative bool) []float64 {
	n := len(y)
	if m < 2 || n < 2*m {
		return nil
	}
	trend := centredMA(y, m)
	sums := make([]float64, m)
	counts := make([]int, m)
	for t := range y {
		if math.IsNaN(trend[t]) {
			continue
		}
		var v float64
		if multiplicative {
			if trend[t] == 0 {
				continue
			}
			v = y[t] / trend[t]
		} else {
			v = y[t] - trend[t]
		}
		sums[t%m] += v
		counts[t%m]++
	}
	idx := make([]float64, m)
	for i := range idx {
		if counts[i] == 0 {
			if multiplicative {
				idx[i] = 1
			}
			continue
		}
		idx[i] = sums[i] / float64(counts[i])
	}
	norm := stat.Mean(idx, nil)
	for i := range idx {
		if multiplicative {
			if norm != 0 {
				idx[i] /= norm
			}
		} else {
			idx[i] -= norm
		}
	}
	return idx
}

func centredMA(y []float64, m int) []float64 {
	n := len(y)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	half := m / 2
	for t := half; t < n-half; t++ {
		var s float64
		if m%2 == 1 {
			for k := t - half; k <= t+half; k++ {
				s += y[k]
			}
			out[t] = s / float64(m)
			continue
		}
		if t+half >= n {
			break
		}
		s = 0.5*y[t-half] + 0.5*y[t+half]
		for k := t - half + 1; k < t+half; k++ {
			s += y[k]
		}
		out[t] = s / float64(m)
	}
	return out
}

// seasonalityTest reports whether the autocorrelation at lag m is significant
// at the given two-sided level (percent).
func seasonalityTest(y []float64, m int, level float64) bool {
	n := len(y)
	if m < 2 || n < 3*m {
		return false
	}
	acf := features.Autocorrelation(y, m)
	if len(acf) < m {
		return false
	}
	var s float64
	for k := 0; k < m-1; k++ {
		s += acf[k] * acf[k]
	}
	limit := distuv.UnitNormal.Quantile(0.5+level/200) * math.Sqrt((1+2*s)/float64(n))
	return math.Abs(acf[m-1]) > limit
}

// seasonalStrength is 1 - Var(remainder)/Var(detrended) from an additive
// classical decomposition, clipped to [0, 1].
func seasonalStrength(y []float64, m int) float64 {
	idx := seasonalIndices(y, m, false)
	if idx == nil {
		return 0
	}
	trend := centredMA(y, m)
	var detr, rem []float64
	for t := range y {
		if math.IsNaN(trend[t]) {
			continue
		}
		d := y[t] - trend[t]
		detr = append(detr, d)
		rem = append(rem, d-idx[t%m])
	}
	vd := stat.Variance(detr, nil)
	if vd == 0 || len(detr) < 2 {
		return 0
	}
	return math.Max(0, math.Min(1, 1-stat.Variance(rem, nil)/vd))
}

// kpss returns the level-stationarity KPSS statistic with a Bartlett
// long-run variance estimate.
func kpss(x []float64) float64 {
	n := len(x)
	if n < 3 {
		return 0
	}
	mu := stat.Mean(x, nil)
	e := make([]float64, n)
	for i, v := range x {
		e[i] = v - mu
	}
	var cum, num float64
	for _, v := range e {
		cum += v
		num += cum * cum
	}
	num /= float64(n) * float64(n)

	lags := int(math.Trunc(4 * math.Pow(float64(n)/100, 0.25)))
	var s2 float64
	for _, v := range e {
		s2 += v * v
	}
	s2 /= float64(n)
	for l := 1; l <= lags && l < n; l++ {
		var acc float64
		for t := l; t < n; t++ {
			acc += e[t] * e[t-l]
		}
		w := 1 - float64(l)/float64(lags+1)
		s2 += 2 * w * acc / float64(n)
	}
	if s2 <= 0 {
		return 0
	}
	return num / s2
}

// kpssCritical is the 5% critical value for the level test.
const kpssCritical = 0.463

// ndiffs picks the number of first differences (at most max) needed for the
// KPSS test to accept stationarity.
func ndiffs(x []float64, max int) int {
	d := 0
	for d < max && len(x) > 3 && kpss(x) > kpssCritical {
		x = features.Diff(x, 1)
		d++
	}
	return d
}
