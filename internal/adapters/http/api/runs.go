package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/repository"
	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/scanio"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
)

// RunsDependencies defines the interface for reading stored runs.
type RunsDependencies interface {
	Run(ctx context.Context, runID string) (*Report, error)
	Runs(ctx context.Context) ([]*Report, error)
}

// RunsHandler handles stored run requests.
type RunsHandler struct {
	deps RunsDependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunsDependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandleListRuns handles GET /runs requests.
func (h *RunsHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	runs, err := h.deps.Runs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	out := make([]types.RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, run.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetRun handles GET /runs/{run_id} and its scan.csv and summary.txt
// documents.
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, doc, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	if id == "" || strings.Contains(doc, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	report, err := h.deps.Run(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	switch doc {
	case "":
		writeJSON(w, http.StatusOK, report.Summary())
	case "scan.csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_ = scanio.WriteScanTable(w, report.Records)
	case "summary.txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = scanio.WriteSummary(w, scanio.SummaryInput{
			Source: report.Source,
			Auto:   report.Auto,
			Used:   report.Used,
			Best:   report.Best,
		})
	default:
		http.NotFound(w, r)
	}
}
