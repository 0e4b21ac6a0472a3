// Package peak finds the dominant maxima of a scan curve and their
// half-maximum temperature intervals.
package peak

// Default detection heuristics, tuned to simulation noise.
const (
	DefaultMinIndex  = 5 // peaks in the first samples are start-up transients
	DefaultLookback  = 3 // preceding samples that must clear the left mean
	maxReportedPeaks = 2
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithMinIndex sets the lowest sample index accepted as a peak. Values
// below 1 are clamped to 1 since index 0 has no left background.
func WithMinIndex(idx int) Option {
	return func(d *Detector) {
		if idx < 1 {
			idx = 1
		}
		d.minIndex = idx
	}
}

// WithLookback sets how many samples before a peak must also exceed the
// mean of everything to the left of the peak.
func WithLookback(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.lookback = n
		}
	}
}
