// Package scoring implements the statistics primitives and the
// opportunity-scoring engine. All functions are pure and operate on
// full-population slices; callers own filtering of absent values.
package scoring

import (
	"math"
	"sort"
)

// Median returns the middle value of s using linear interpolation.
// Returns 0 for an empty slice.
func Median(s []float64) float64 {
	return Percentile(s, 50)
}

// Percentile returns the p-th percentile (0..100) of s using linear
// interpolation between closest ranks. Returns 0 for an empty slice.
func Percentile(s []float64, p float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// IQR returns the interquartile range (P75 - P25) of s.
func IQR(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return Percentile(s, 75) - Percentile(s, 25)
}

// MAD returns the median absolute deviation of s around its median.
func MAD(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	med := Median(s)
	dev := make([]float64, len(s))
	for i, v := range s {
		dev[i] = math.Abs(v - med)
	}
	return Median(dev)
}

// Normalize robust-normalizes v against the population series s:
// (v - median) / spread, where spread is the IQR, falling back to the
// MAD when the IQR is zero or invalid. If both spreads are unusable the
// raw value is returned unchanged. Non-finite inputs and an empty
// population normalize to 0, never to NaN/Inf.
func Normalize(v float64, s []float64) float64 {
	if !isFinite(v) {
		return 0
	}
	if len(s) == 0 {
		return 0
	}

	med := Median(s)
	spread := IQR(s)
	if spread <= 0 || !isFinite(spread) {
		spread = MAD(s)
	}
	if spread <= 0 || !isFinite(spread) {
		return v
	}

	out := (v - med) / spread
	if !isFinite(out) {
		return 0
	}
	return out
}

// SafeDiv divides num by den, returning 0 when the denominator is zero
// or either operand is non-finite.
func SafeDiv(num, den float64) float64 {
	if den == 0 || !isFinite(num) || !isFinite(den) {
		return 0
	}
	out := num / den
	if !isFinite(out) {
		return 0
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
