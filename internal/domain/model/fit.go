package model

// FitRecord is the outcome of one log-log regression at a candidate Tc.
// Beta always equals Slope.
type FitRecord struct {
	Tc        float64 `json:"tc"`
	Beta      float64 `json:"beta"`
	RSquared  float64 `json:"r_squared"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Points    int     `json:"fit_points"`
	Valid     bool    `json:"is_valid"`
}
