package peak

import (
	"math"
	"sort"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Detector ranks local maxima of a curve and measures their FWHM.
// It holds only configuration and is safe for concurrent use.
type Detector struct {
	minIndex int
	lookback int
}

// New creates a Detector with the default heuristics.
func New(opts ...Option) *Detector {
	d := &Detector{
		minIndex: DefaultMinIndex,
		lookback: DefaultLookback,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs a default Detector over one curve.
func Detect(values, temps []float64) [2]*model.Interval {
	return New().Detect(values, temps)
}

// Detect returns the half-maximum intervals of the two strongest peaks,
// best first. Slots without a qualifying peak are nil. Mismatched input
// lengths yield no peaks.
func (d *Detector) Detect(values, temps []float64) [2]*model.Interval {
	var out [2]*model.Interval
	if len(values) == 0 || len(temps) != len(values) {
		return out
	}
	peaks := d.Peaks(values)
	for slot, idx := range peaks {
		if slot == maxReportedPeaks {
			break
		}
		out[slot] = halfMaxInterval(values, temps, idx)
	}
	return out
}

// Peaks returns the indices of every accepted peak ordered by value,
// highest first. Equal values keep detection order.
func (d *Detector) Peaks(values []float64) []int {
	n := len(values)
	if n == 0 {
		return nil
	}
	var peaks []int
	if n == 1 {
		peaks = append(peaks, 0)
	} else {
		for i, v := range values {
			if v > 0 && i >= d.minIndex && isLocalMax(values, i) && d.strong(values, i) {
				peaks = append(peaks, i)
			}
		}
	}

	sort.SliceStable(peaks, func(a, b int) bool {
		return values[peaks[a]] > values[peaks[b]]
	})
	return dedupe(peaks)
}

// isLocalMax reports a non-strict maximum; the series ends count as lower.
// A NaN neighbour disqualifies the sample.
func isLocalMax(values []float64, i int) bool {
	v := values[i]
	leftOK := i == 0 || v >= values[i-1]
	rightOK := i == len(values)-1 || v >= values[i+1]
	return leftOK && rightOK
}

// strong requires the peak and its lookback predecessors to sit above the
// mean of all samples left of the peak.
func (d *Detector) strong(values []float64, i int) bool {
	meanLeft := stat.Mean(values[:i], nil)
	maxK := d.lookback
	if i < maxK {
		maxK = i
	}
	for k := 0; k <= maxK; k++ {
		if !(values[i-k] > meanLeft) {
			return false
		}
	}
	return true
}

func dedupe(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := indices[:0]
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// halfMaxInterval walks outwards from idx while samples stay at or above
// half the peak value.
func halfMaxInterval(values, temps []float64, idx int) *model.Interval {
	peakVal := values[idx]
	if !(peakVal > 0) {
		return nil
	}
	half := peakVal / 2

	left := idx
	for left > 0 && values[left-1] >= half {
		left--
	}
	right := idx
	for right < len(values)-1 && values[right+1] >= half {
		right++
	}
	return &model.Interval{Left: temps[left], Right: temps[right]}
}

// Location returns the temperature of the global maximum (first
// occurrence) among positive samples. ok is false for an empty curve or one
// without a positive sample.
func Location(values, temps []float64) (t float64, ok bool) {
	if len(values) == 0 || len(temps) != len(values) {
		return 0, false
	}
	idx := -1
	for i, v := range values {
		if v > 0 && (idx < 0 || v > values[idx]) {
			idx = i
		}
	}
	if idx < 0 {
		return 0, false
	}
	return temps[idx], true
}

// SlopeLocation returns the temperature at which the central-difference
// slope of mags is steepest in magnitude. It needs at least three samples.
func SlopeLocation(mags, temps []float64) (t float64, ok bool) {
	n := len(mags)
	if n < 3 || len(temps) != n {
		return 0, false
	}
	idx := 1
	best := 0.0
	for i := 1; i < n-1; i++ {
		dt := temps[i+1] - temps[i-1]
		if dt == 0 {
			continue
		}
		s := math.Abs((mags[i+1] - mags[i-1]) / dt)
		if s > best {
			best = s
			idx = i
		}
	}
	if best <= 0 {
		return 0, false
	}
	return temps[idx], true
}
