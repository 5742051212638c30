package indicator

import "math"

// rollingMean returns the mean of values[end-window+1 : end+1]
func rollingMean(values []float64, end, window int) float64 {
	sum := 0.0
	for i := end - window + 1; i <= end; i++ {
		sum += values[i]
	}
	return sum / float64(window)
}

// rollingStdDev returns the Bessel-corrected sample standard deviation of
// values[end-window+1 : end+1]. A window of one observation has no sample
// deviation and reports ok=false.
func rollingStdDev(values []float64, end, window int) (float64, bool) {
	if window < 2 {
		return 0, false
	}
	mean := rollingMean(values, end, window)
	variance := 0.0
	for i := end - window + 1; i <= end; i++ {
		diff := values[i] - mean
		variance += diff * diff
	}
	variance /= float64(window - 1)
	return math.Sqrt(variance), true
}
