// Package window merges the half-maximum intervals of the heat capacity and
// susceptibility curves into Tc search windows.
package window

import (
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/peak"
)

// Build merges the present intervals into one window. The envelope spans
// all of them and the overlap is their intersection, falling back to the
// envelope when they do not intersect. Build returns nil when every
// interval is absent.
func Build(intervals ...*model.Interval) *model.Window {
	var w *model.Window
	for _, it := range intervals {
		if it == nil {
			continue
		}
		if w == nil {
			w = &model.Window{TEnvMin: it.Left, TEnvMax: it.Right, TcOvMin: it.Left, TcOvMax: it.Right}
			continue
		}
		w.TEnvMin = min(w.TEnvMin, it.Left)
		w.TEnvMax = max(w.TEnvMax, it.Right)
		w.TcOvMin = max(w.TcOvMin, it.Left)
		w.TcOvMax = min(w.TcOvMax, it.Right)
	}
	if w == nil {
		return nil
	}
	if !(w.TcOvMin <= w.TcOvMax) {
		w.TcOvMin = w.TEnvMin
		w.TcOvMax = w.TEnvMax
	}
	return w
}

// Result is the outcome of automatic window detection on one scan.
type Result struct {
	// Primary is built from the strongest peak of each curve; nil when
	// neither curve has a qualifying peak.
	Primary *model.Window `json:"primary"`
	// Secondary is built from the second peaks and is informational only.
	Secondary *model.Window `json:"secondary,omitempty"`

	CIntervals   [2]*model.Interval `json:"c_intervals"`
	ChiIntervals [2]*model.Interval `json:"chi_intervals"`

	CPeakT      *float64 `json:"c_peak_t,omitempty"`
	ChiPeakT    *float64 `json:"chi_peak_t,omitempty"`
	MSlopePeakT *float64 `json:"m_slope_peak_t,omitempty"`
}

// Auto detects peaks on the heat capacity and susceptibility curves and
// builds the primary and secondary windows. mags may be nil; it only feeds
// the informational slope location.
func Auto(c, chi, mags, temps []float64, opts ...peak.Option) Result {
	d := peak.New(opts...)
	res := Result{
		CIntervals:   d.Detect(c, temps),
		ChiIntervals: d.Detect(chi, temps),
	}

	res.Primary = Build(res.CIntervals[0], res.ChiIntervals[0])
	if res.CIntervals[1] != nil || res.ChiIntervals[1] != nil {
		res.Secondary = Build(res.CIntervals[1], res.ChiIntervals[1])
	}

	res.CPeakT = optional(peak.Location(c, temps))
	res.ChiPeakT = optional(peak.Location(chi, temps))
	res.MSlopePeakT = optional(peak.SlopeLocation(mags, temps))
	return res
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
