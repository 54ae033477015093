// Package dspkit provides small numeric helpers shared across the pipeline:
// clamping, safe division, power-of-two sizing, and the descriptive
// statistics (median, standard deviation, linear least squares) used by the
// analyzers and gates. Median sorts a copy, so its input is never reordered.
package dspkit

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-approx"
)

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// SafeDiv returns a/b, or fallback when b is within Epsilon of zero.
func SafeDiv(a, b, epsilon, fallback float64) float64 {
	if math.Abs(b) < epsilon {
		return fallback
	}
	return a / b
}

// NextPow2 returns the smallest power of two >= n (n >= 1).
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Pow2 computes 2^x using the organization's fast exponential
// approximation rather than math.Pow, matching piano/utils.go's
// pow2Approx helper.
func Pow2(x float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(x * ln2)))
}

// IsFinite reports whether x is neither NaN nor +-Inf.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Median returns the median of xs. Panics on an empty slice; callers filter
// first.
func Median(xs []float64) float64 {
	n := len(xs)
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// FiniteValues returns the subset of xs that are finite.
func FiniteValues(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if IsFinite(x) {
			out = append(out, x)
		}
	}
	return out
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// PolyfitLinear fits y = slope*x + intercept by linear least squares.
func PolyfitLinear(x, y []float64) (slope, intercept float64) {
	n := float64(len(x))
	if n == 0 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-12 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// MedianFilter applies an odd-length median filter over xs, considered only
// at indices where mask(i) is true; positions failing the mask pass through
// unchanged. window must be odd and >= 1.
func MedianFilter(xs []float64, window int, mask func(i int) bool) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	if window < 3 {
		return out
	}
	half := window / 2
	for i := range xs {
		if mask != nil && !mask(i) {
			continue
		}
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(xs)-1 {
			hi = len(xs) - 1
		}
		var vals []float64
		for j := lo; j <= hi; j++ {
			if mask == nil || mask(j) {
				vals = append(vals, xs[j])
			}
		}
		if len(vals) > 0 {
			out[i] = Median(vals)
		}
	}
	return out
}
