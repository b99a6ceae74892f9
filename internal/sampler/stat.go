package sampler

import "math"

// meanStd computes the mean and sample standard deviation of xs using
// Welford's online algorithm, the same numerically stable approach the
// teacher's internal/sched.stat type uses for its wait/run latency
// histograms.
func meanStd(xs []float64) (mean, std float64) {
	var n int64
	var m2 float64
	for _, x := range xs {
		n++
		delta := x - mean
		mean += delta / float64(n)
		delta2 := x - mean
		m2 += delta * delta2
	}
	if n > 1 {
		variance := m2 / float64(n-1)
		if variance > 0 {
			std = math.Sqrt(variance)
		}
	}
	return mean, std
}

// coefficientOfVariation returns stddev/mean for xs, or 0 if the window
// has fewer than two samples or a zero mean (spec.md §4.3 edge case:
// samples=1 leaves CV undefined).
func coefficientOfVariation(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean, std := meanStd(xs)
	if mean == 0 {
		return 0
	}
	return std / mean
}
