package model

// Interval is a closed temperature range, typically the full width at half
// maximum around a peak. A nil *Interval means "absent".
type Interval struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Window bounds a Tc search. The envelope (TEnv*) is the union of the
// constituent intervals; the overlap (TcOv*) is their intersection, or the
// envelope again when they do not intersect.
type Window struct {
	TEnvMin float64 `json:"t_env_min"`
	TEnvMax float64 `json:"t_env_max"`
	TcOvMin float64 `json:"tc_ov_min"`
	TcOvMax float64 `json:"tc_ov_max"`
}
