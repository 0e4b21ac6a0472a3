package scanio

import (
	"fmt"
	"math"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SummarySheet = "Summary"
	ScanSheet    = "Scan"
)

// WriteWorkbook saves the run as an XLSX file with a Summary sheet of
// key/value rows and a Scan sheet holding the scan table.
func WriteWorkbook(path string, r *types.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if _, err := f.NewSheet(ScanSheet); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for i, kv := range summaryRows(r) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &kv); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	header := make([]any, len(TableHeader))
	for i, h := range TableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ScanSheet, "A1", &header); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for i, rec := range r.Records {
		row := []any{rec.Tc, rec.Beta, cellFloat(rec.RSquared), rec.Slope, rec.Intercept, rec.Points, rec.Valid}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ScanSheet, cell, &row); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func summaryRows(r *types.Report) [][]any {
	rows := [][]any{
		{"run_id", r.RunID},
		{"source", r.Source},
		{"rows", r.Rows},
	}
	if pw := r.Auto.Primary; pw != nil {
		rows = append(rows,
			[]any{"auto_t_min", pw.TEnvMin},
			[]any{"auto_t_max", pw.TEnvMax},
			[]any{"auto_tc_min", pw.TcOvMin},
			[]any{"auto_tc_max", pw.TcOvMax},
		)
	}
	rows = append(rows,
		[]any{"t_min", r.Used.TMin},
		[]any{"t_max", r.Used.TMax},
		[]any{"tc_min", r.Used.TcMin},
		[]any{"tc_max", r.Used.TcMax},
		[]any{"tc_step", r.Used.Step},
		[]any{"candidates", len(r.Records)},
		[]any{"valid_fits", r.ValidCount()},
	)
	if b := r.Best; b != nil {
		rows = append(rows,
			[]any{"tc_best", b.Tc},
			[]any{"beta", b.Beta},
			[]any{"r_squared", b.RSquared},
			[]any{"fit_points", b.Points},
		)
	} else {
		rows = append(rows, []any{"tc_best", "none"})
	}
	return rows
}

// cellFloat keeps non-finite values out of numeric cells, which XLSX
// cannot represent.
func cellFloat(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fixed(v, 8)
	}
	return v
}
