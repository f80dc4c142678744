package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// PctChange computes p_t / p_{t-1} - 1. It returns len(prices)-1 values, or nil
// if there are fewer than two prices. A zero previous price yields 0.
func PctChange(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// LogReturns computes ln(p_t / p_{t-1}); non-positive prices yield 0.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			continue
		}
		out[i-1] = math.Log(cur / prev)
	}
	return out
}

// Tail returns the last n values (all when n exceeds the length).
func Tail(xs []float64, n int) []float64 {
	if n <= 0 || n >= len(xs) {
		return xs
	}
	return xs[len(xs)-n:]
}

// Diff applies lag-differencing: x_t - x_{t-lag}.
func Diff(xs []float64, lag int) []float64 {
	if lag <= 0 || len(xs) <= lag {
		return nil
	}
	out := make([]float64, len(xs)-lag)
	for i := lag; i < len(xs); i++ {
		out[i-lag] = xs[i] - xs[i-lag]
	}
	return out
}

// Autocorrelation returns the sample ACF at lags 1..maxLag.
func Autocorrelation(xs []float64, maxLag int) []float64 {
	n := len(xs)
	if n < 2 || maxLag <= 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	mean := stat.Mean(xs, nil)
	var denom float64
	for _, x := range xs {
		denom += (x - mean) * (x - mean)
	}
	out := make([]float64, maxLag)
	if denom == 0 {
		return out
	}
	for k := 1; k <= maxLag; k++ {
		var num float64
		for t := k; t < n; t++ {
			num += (xs[t] - mean) * (xs[t-k] - mean)
		}
		out[k-1] = num / denom
	}
	return out
}

// Finite reports whether every value is a finite number.
func Finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
