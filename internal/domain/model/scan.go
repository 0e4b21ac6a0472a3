// Package model contains domain models passed between layers.
package model

import "errors"

// ErrLengthMismatch is returned when parallel series differ in length.
var ErrLengthMismatch = errors.New("series length mismatch")

// Series is an ordered curve of (temperature, value) pairs stored as two
// parallel slices. Order is as recorded; adjacency drives peak detection.
type Series struct {
	Temperatures []float64
	Values       []float64
}

// Len returns the number of samples in the series.
func (s Series) Len() int { return len(s.Temperatures) }

// Validate checks that both slices have the same length.
func (s Series) Validate() error {
	if len(s.Temperatures) != len(s.Values) {
		return ErrLengthMismatch
	}
	return nil
}

// Scan is one recorded temperature sweep. All columns share the
// temperature ordering of Temperatures.
type Scan struct {
	Temperatures     []float64 // T
	Energies         []float64 // E
	Magnetizations   []float64 // M
	HeatCapacities   []float64 // C
	Susceptibilities []float64 // chi
}

// Len returns the number of rows in the scan.
func (s Scan) Len() int { return len(s.Temperatures) }

// Validate checks that every column has as many rows as Temperatures.
func (s Scan) Validate() error {
	n := len(s.Temperatures)
	for _, col := range [][]float64{s.Energies, s.Magnetizations, s.HeatCapacities, s.Susceptibilities} {
		if len(col) != n {
			return ErrLengthMismatch
		}
	}
	return nil
}

// HeatCapacity returns the C(T) curve.
func (s Scan) HeatCapacity() Series {
	return Series{Temperatures: s.Temperatures, Values: s.HeatCapacities}
}

// Susceptibility returns the chi(T) curve.
func (s Scan) Susceptibility() Series {
	return Series{Temperatures: s.Temperatures, Values: s.Susceptibilities}
}

// Magnetization returns the M(T) curve.
func (s Scan) Magnetization() Series {
	return Series{Temperatures: s.Temperatures, Values: s.Magnetizations}
}
