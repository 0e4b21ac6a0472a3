// Package synth generates synthetic Ising-like temperature scans with a
// known critical temperature and exponent.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
)

// Params shapes a generated scan.
type Params struct {
	TMin, TMax float64
	Points     int

	// Below Tc the magnetization is Amplitude*(Tc-T)^Beta; above it decays
	// from Tail.
	Tc        float64
	Beta      float64
	Amplitude float64
	Tail      float64

	// C and chi are Lorentzian peaks of the given heights and half width
	// centred on Tc, on top of Background.
	CHeight    float64
	ChiHeight  float64
	Width      float64
	Background float64

	// Noise is the relative standard deviation of Gaussian noise applied
	// to C and chi; MNoise applies to M. Seed makes the noise repeatable.
	Noise  float64
	MNoise float64
	Seed   uint64
}

// DefaultParams returns a 2D-Ising-like scan around Tc = 2.269.
func DefaultParams() Params {
	return Params{
		TMin:       1.5,
		TMax:       3.0,
		Points:     151,
		Tc:         2.269,
		Beta:       0.125,
		Amplitude:  1.0,
		Tail:       0.02,
		CHeight:    2.0,
		ChiHeight:  10.0,
		Width:      0.05,
		Background: 0.1,
		Seed:       1,
	}
}

// Generate builds a scan on a uniform temperature grid.
func Generate(p Params) model.Scan {
	n := max(p.Points, 0)
	scan := model.Scan{
		Temperatures:     make([]float64, n),
		Energies:         make([]float64, n),
		Magnetizations:   make([]float64, n),
		HeatCapacities:   make([]float64, n),
		Susceptibilities: make([]float64, n),
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	jitter := func(v, rel float64) float64 {
		if rel <= 0 {
			return v
		}
		return v * (1 + rel*rng.NormFloat64())
	}

	step := 0.0
	if n > 1 {
		step = (p.TMax - p.TMin) / float64(n-1)
	}
	for i := range n {
		t := p.TMin + float64(i)*step
		scan.Temperatures[i] = t
		scan.Energies[i] = energy(p, t)
		scan.Magnetizations[i] = jitter(magnetization(p, t), p.MNoise)
		scan.HeatCapacities[i] = jitter(p.Background+lorentzian(p.CHeight, p.Width, t-p.Tc), p.Noise)
		scan.Susceptibilities[i] = jitter(p.Background+lorentzian(p.ChiHeight, p.Width, t-p.Tc), p.Noise)
	}
	return scan
}

func magnetization(p Params, t float64) float64 {
	if t < p.Tc {
		return p.Amplitude * math.Pow(p.Tc-t, p.Beta)
	}
	if p.Width <= 0 {
		return p.Tail
	}
	return p.Tail / (1 + (t-p.Tc)/p.Width)
}

func energy(p Params, t float64) float64 {
	if p.Width <= 0 {
		return -2
	}
	return -2 + math.Tanh((t-p.Tc)/p.Width) + (t - p.TMin)
}

func lorentzian(height, width, dx float64) float64 {
	if width <= 0 {
		if dx == 0 {
			return height
		}
		return 0
	}
	r := dx / width
	return height / (1 + r*r)
}
