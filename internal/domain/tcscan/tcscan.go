// Package tcscan sweeps candidate critical temperatures and fits
// ln(M) = beta*ln(Tc - T) + c for each, keeping the best fit by R².
package tcscan

import (
	"fmt"
	"math"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinPoints is the smallest sample count a candidate fit accepts.
const MinPoints = 4

// DefaultStep is the Tc grid spacing used when none is configured.
const DefaultStep = 0.0001

// MaxCandidates caps the Tc grid of one scan.
const MaxCandidates = 1_000_000

// relative tolerance for candidates drifting past the range bounds
const boundEpsilon = 1e-12

// Params bounds one scan: the regression uses samples with TMin <= T <= TMax,
// candidates run from TcMin to TcMax in Step increments.
type Params struct {
	TMin  float64 `json:"t_min"`
	TMax  float64 `json:"t_max"`
	TcMin float64 `json:"tc_min"`
	TcMax float64 `json:"tc_max"`
	Step  float64 `json:"tc_step"`
}

// Validate rejects steps and bounds no grid can be built from.
func (p Params) Validate() error {
	if !(p.Step > 0) || math.IsInf(p.Step, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, p.Step)
	}
	for _, v := range []float64{p.TMin, p.TMax, p.TcMin, p.TcMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound %v", ErrInvalidRange, v)
		}
	}
	if steps := (p.TcMax - p.TcMin) / p.Step; steps >= MaxCandidates {
		return fmt.Errorf("%w: [%v, %v] in steps of %v exceeds %d candidates",
			ErrInvalidRange, p.TcMin, p.TcMax, p.Step, MaxCandidates)
	}
	return nil
}

// Candidates returns the Tc grid for p.
func (p Params) Candidates() []float64 {
	return Candidates(p.TcMin, p.TcMax, p.Step)
}

// Candidates returns tcMin + i*step for i = 0..round((tcMax-tcMin)/step),
// dropping values that land outside [tcMin, tcMax] beyond rounding noise.
// Each candidate is computed by multiplication so error does not accumulate.
// Grids of more than MaxCandidates values yield nothing.
func Candidates(tcMin, tcMax, step float64) []float64 {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil
	}
	steps := math.Round((tcMax - tcMin) / step)
	if !(steps >= 0 && steps < MaxCandidates) {
		return nil
	}
	n := int(steps)
	eps := boundEpsilon * math.Max(1, math.Max(math.Abs(tcMin), math.Abs(tcMax)))
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		tc := tcMin + float64(i)*step
		if tc < tcMin-eps || tc > tcMax+eps {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// Fit regresses ln(m) on ln(tc - t) over the samples with tMin <= t <= tMax,
// t < tc and m > 0. Too few samples or a degenerate x spread produce an
// invalid record with R² = -Inf so it can never be selected as best.
func Fit(temps, mags []float64, tMin, tMax, tc float64) model.FitRecord {
	xs, ys := samples(temps, mags, tMin, tMax, tc)
	n := len(xs)
	rec := model.FitRecord{Tc: tc, RSquared: math.Inf(-1), Points: n}
	if n < MinPoints {
		return rec
	}

	nf := float64(n)
	sumX := floats.Sum(xs)
	denom := nf*floats.Dot(xs, xs) - sumX*sumX
	if denom == 0 {
		return rec
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	meanY := stat.Mean(ys, nil)
	var ssTot, ssRes float64
	for i, x := range xs {
		dy := ys[i] - meanY
		ssTot += dy * dy
		r := ys[i] - (slope*x + intercept)
		ssRes += r * r
	}
	r2 := 1.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	rec.Beta = slope
	rec.Slope = slope
	rec.Intercept = intercept
	rec.RSquared = r2
	rec.Valid = slope > 0 && r2 > 0 && r2 <= 1
	return rec
}

func samples(temps, mags []float64, tMin, tMax, tc float64) (xs, ys []float64) {
	n := min(len(temps), len(mags))
	for i := 0; i < n; i++ {
		t, m := temps[i], mags[i]
		// NaN fails every comparison, so such samples never enter a fit.
		if t >= tMin && t <= tMax && t < tc && m > 0 {
			xs = append(xs, math.Log(tc-t))
			ys = append(ys, math.Log(m))
		}
	}
	return xs, ys
}

// Result is the full scan table plus the selected best fit, if any.
type Result struct {
	Records []model.FitRecord
	Best    *model.FitRecord
}

// Scan fits every candidate of p in order.
func Scan(temps, mags []float64, p Params) Result {
	cands := p.Candidates()
	records := make([]model.FitRecord, len(cands))
	for i, tc := range cands {
		records[i] = Fit(temps, mags, p.TMin, p.TMax, tc)
	}
	return Result{Records: records, Best: SelectBest(records)}
}

// SelectBest returns a copy of the valid record with the largest finite,
// positive R². The earliest record wins ties. It returns nil when no record
// qualifies.
func SelectBest(records []model.FitRecord) *model.FitRecord {
	var best *model.FitRecord
	for i := range records {
		r := &records[i]
		if !r.Valid || math.IsNaN(r.RSquared) || math.IsInf(r.RSquared, 0) || r.RSquared <= 0 {
			continue
		}
		if best == nil || r.RSquared > best.RSquared {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
