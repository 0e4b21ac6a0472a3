package scanio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
)

// File names inside a data directory and its output directory.
const (
	ScanFileName     = "ising_results_scan.csv"
	TableFileName    = "re_tc_scan.csv"
	SummaryFileName  = "re_summary.txt"
	WorkbookFileName = "re_tc_scan.xlsx"

	outputDirLayout = "reanalysis_loglog_20060102_150405"
)

// OutputDir returns the timestamped output directory for a run started at
// now under base.
func OutputDir(base string, now time.Time) string {
	return filepath.Join(base, now.Format(outputDirLayout))
}

// Outputs lists the files WriteOutputs produced.
type Outputs struct {
	Dir      string
	Table    string
	Summary  string
	Workbook string
}

// WriteOutputs creates dir and writes the scan table and summary into it,
// plus the workbook when withWorkbook is set.
func WriteOutputs(_ context.Context, dir string, r *types.Report, withWorkbook bool) (Outputs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Outputs{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	out := Outputs{
		Dir:     dir,
		Table:   filepath.Join(dir, TableFileName),
		Summary: filepath.Join(dir, SummaryFileName),
	}

	if err := writeFile(out.Table, func(f *os.File) error {
		return WriteScanTable(f, r.Records)
	}); err != nil {
		return Outputs{}, err
	}
	if err := writeFile(out.Summary, func(f *os.File) error {
		return WriteSummary(f, SummaryInput{Source: r.Source, Auto: r.Auto, Used: r.Used, Best: r.Best})
	}); err != nil {
		return Outputs{}, err
	}
	if withWorkbook {
		out.Workbook = filepath.Join(dir, WorkbookFileName)
		if err := WriteWorkbook(out.Workbook, r); err != nil {
			return Outputs{}, err
		}
	}
	return out, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
