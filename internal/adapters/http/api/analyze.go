package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/scanio"
	service "github.com/qqqlxhjy/NishimoriLine/internal/app"
)

// DefaultMaxBody caps an uploaded scan CSV.
const DefaultMaxBody int64 = 32 << 20

const defaultSource = "upload"

// AnalyzeDependencies defines the interface for running an analysis.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, source string, scan Scan, ov Overrides) (*Report, error)
}

// AnalyzeHandler handles analysis requests.
type AnalyzeHandler struct {
	deps    AnalyzeDependencies
	maxBody int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies, maxBody int64) *AnalyzeHandler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &AnalyzeHandler{deps: deps, maxBody: maxBody}
}

// HandleAnalyze handles POST /analyze. The body is a scan CSV; the query
// may override tmin, tmax, tcmin, tcmax and tcstep and name the source.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ov, err := parseOverrides(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = defaultSource
	}

	scan, err := scanio.ReadScan(r.Context(), http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	report, err := h.deps.Analyze(r.Context(), source, scan, ov)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, report.Summary())
	case errors.Is(err, service.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNoWindow),
		errors.Is(err, service.ErrEmptyScan),
		errors.Is(err, service.ErrLengthMismatch):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

var overrideParams = []string{"tmin", "tmax", "tcmin", "tcmax", "tcstep"}

func parseOverrides(r *http.Request) (Overrides, error) {
	q := r.URL.Query()
	var ov Overrides
	targets := []**float64{&ov.TMin, &ov.TMax, &ov.TcMin, &ov.TcMax, &ov.Step}
	for i, name := range overrideParams {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Overrides{}, fmt.Errorf("%w: %s=%q is not a number", ErrBadRequest, name, raw)
		}
		*targets[i] = &v
	}
	return ov, nil
}
