package scanio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/tcscan"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/window"
)

// TableHeader is the header row of the scan table.
var TableHeader = []string{"tc", "beta", "r_squared", "slope", "intercept", "fit_points", "is_valid"}

// WriteScanTable writes one CSV row per record. Floats use eight decimals,
// booleans are spelled True and False, and lines end in CRLF, matching the
// files earlier runs produced.
func WriteScanTable(w io.Writer, records []model.FitRecord) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(TableHeader); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	row := make([]string, len(TableHeader))
	for _, r := range records {
		row[0] = fixed(r.Tc, 8)
		row[1] = fixed(r.Beta, 8)
		row[2] = fixed(r.RSquared, 8)
		row[3] = fixed(r.Slope, 8)
		row[4] = fixed(r.Intercept, 8)
		row[5] = strconv.Itoa(r.Points)
		row[6] = titleBool(r.Valid)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// SummaryInput is everything the text summary reports.
type SummaryInput struct {
	Source string
	Auto   window.Result
	Used   tcscan.Params
	Best   *model.FitRecord
}

// WriteSummary writes the human-readable run summary.
func WriteSummary(w io.Writer, in SummaryInput) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(bw, format, args...) }

	p("Reanalysis summary\n")
	p("Source directory: %s\n\n", in.Source)

	p("Auto analysis windows (from reanalysis):\n")
	if pw := in.Auto.Primary; pw != nil {
		p("T window (envelope) = [%s, %s]\n", fixed(pw.TEnvMin, 6), fixed(pw.TEnvMax, 6))
		p("Tc window (overlap) = [%s, %s]\n\n", fixed(pw.TcOvMin, 6), fixed(pw.TcOvMax, 6))
	} else {
		p("none\n\n")
	}

	u := in.Used
	p("Actual windows used for Tc scan:\n")
	p("T window = [%s, %s]\n", fixed(u.TMin, 6), fixed(u.TMax, 6))
	p("Tc window = [%s, %s]\n", fixed(u.TcMin, 6), fixed(u.TcMax, 6))
	p("Tc step = %s\n\n", fixed(u.Step, 6))

	if b := in.Best; b != nil {
		p("Best Tc from reanalysis\n")
		p("Tc_best    = %s\n", fixed(b.Tc, 8))
		p("beta       = %s\n", fixed(b.Beta, 8))
		p("R_squared  = %s\n", fixed(b.RSquared, 8))
		p("fit_points = %d\n", b.Points)
	} else {
		p("No valid Tc found (no positive-slope fits with R^2>0).\n")
	}

	a := in.Auto
	if a.Secondary != nil || a.CPeakT != nil || a.ChiPeakT != nil || a.MSlopePeakT != nil {
		p("\nPeak locations:\n")
		if a.CPeakT != nil {
			p("C peak T       = %s\n", fixed(*a.CPeakT, 6))
		}
		if a.ChiPeakT != nil {
			p("chi peak T     = %s\n", fixed(*a.ChiPeakT, 6))
		}
		if a.MSlopePeakT != nil {
			p("|dM/dT| peak T = %s\n", fixed(*a.MSlopePeakT, 6))
		}
		if sw := a.Secondary; sw != nil {
			p("Secondary T window (envelope) = [%s, %s]\n", fixed(sw.TEnvMin, 6), fixed(sw.TEnvMax, 6))
			p("Secondary Tc window (overlap) = [%s, %s]\n", fixed(sw.TcOvMin, 6), fixed(sw.TcOvMax, 6))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// BestLine is the one-line console report of a run.
func BestLine(best *model.FitRecord) string {
	if best == nil {
		return "No valid Tc found in reanalysis."
	}
	return fmt.Sprintf("Tc_best = %s, beta = %s, R^2 = %s, points = %d",
		fixed(best.Tc, 8), fixed(best.Beta, 8), fixed(best.RSquared, 8), best.Points)
}

// fixed formats v with prec decimals, spelling non-finite values inf, -inf
// and nan.
func fixed(v float64, prec int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ScanHeader is the header row WriteScan emits.
var ScanHeader = []string{"T", "E", "M", "C", "chi"}

// WriteScan writes scan in the layout ReadScan accepts.
func WriteScan(w io.Writer, scan model.Scan) error {
	if err := scan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ScanHeader); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	row := make([]string, len(ScanHeader))
	for i := range scan.Len() {
		for j, v := range []float64{
			scan.Temperatures[i], scan.Energies[i], scan.Magnetizations[i],
			scan.HeatCapacities[i], scan.Susceptibilities[i],
		} {
			row[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
