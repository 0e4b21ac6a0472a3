// Package types contains the run report shared by the service, the run
// store and the HTTP layer.
package types

import (
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/tcscan"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/window"
)

// Report is the full outcome of one reanalysis run.
type Report struct {
	RunID  string
	Source string
	Rows   int

	// Auto is what peak detection found; Used is what the scan ran with
	// after overrides.
	Auto window.Result
	Used tcscan.Params

	// Records holds one fit per candidate in grid order. Rejected fits carry
	// R² = -Inf, which JSON cannot encode; use Summary for JSON output.
	Records []model.FitRecord
	Best    *model.FitRecord

	CreatedAt time.Time
}

// ValidCount returns the number of records flagged valid.
func (r *Report) ValidCount() int {
	n := 0
	for i := range r.Records {
		if r.Records[i].Valid {
			n++
		}
	}
	return n
}

// RunSummary is the JSON view of a Report.
type RunSummary struct {
	RunID      string           `json:"run_id"`
	Source     string           `json:"source,omitempty"`
	Rows       int              `json:"rows"`
	Auto       window.Result    `json:"auto"`
	Used       tcscan.Params    `json:"used"`
	Candidates int              `json:"candidates"`
	ValidFits  int              `json:"valid_fits"`
	Best       *model.FitRecord `json:"best"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Summary builds the JSON view of r.
func (r *Report) Summary() RunSummary {
	return RunSummary{
		RunID:      r.RunID,
		Source:     r.Source,
		Rows:       r.Rows,
		Auto:       r.Auto,
		Used:       r.Used,
		Candidates: len(r.Records),
		ValidFits:  r.ValidCount(),
		Best:       r.Best,
		CreatedAt:  r.CreatedAt,
	}
}
