package analyzer

import "math"

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd returns the n-1 estimator, or nil for fewer than two samples
// (undefined, mirroring the standard sample-stddev convention).
func sampleStd(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(values)-1))
	return &std
}

// pearson computes the Pearson correlation coefficient between two aligned
// series. It returns nil when fewer than two pairs exist or either series has
// zero variance.
func pearson(xs, ys []float64) *float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return nil
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return nil
	}
	r := sxy / math.Sqrt(sxx*syy)
	return &r
}
