package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/scanio"
	service "github.com/qqqlxhjy/NishimoriLine/internal/app"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	tMin, tMax, tcMin, tcMax, tcStep float64
	workers                          int
	xlsx                             bool
	metricsFile                      string
	magFile                          string
}

func analyzeCommand(c *cli) *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze DATA_DIR",
		Short: "Reanalyze the scan CSV of a data directory",
		Long: `Detect the critical window from the heat capacity and susceptibility
peaks of DATA_DIR/ising_results_scan.csv, sweep candidate Tc values with a
log-log fit of the magnetization, and write the scan table and summary into
a timestamped reanalysis_loglog_* directory under DATA_DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := c.applyAnalyzeFlags(cmd, f)
			if err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), args[0], f.magFile, ov)
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&f.tMin, "tmin", 0, "lower temperature of the fit window (default: auto envelope)")
	fs.Float64Var(&f.tMax, "tmax", 0, "upper temperature of the fit window (default: auto envelope)")
	fs.Float64Var(&f.tcMin, "tcmin", 0, "first candidate Tc (default: auto overlap)")
	fs.Float64Var(&f.tcMax, "tcmax", 0, "last candidate Tc (default: auto overlap)")
	fs.Float64Var(&f.tcStep, "tcstep", 0, "candidate Tc spacing (default: config tc_step)")
	fs.IntVar(&f.workers, "workers", 0, "fitting workers (default: config worker_count)")
	fs.BoolVar(&f.xlsx, "xlsx", false, "also write the results as an XLSX workbook")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write a Prometheus textfile after the run")
	fs.StringVar(&f.magFile, "mag-file", "", "fit T and M read from this CSV (T,E,M columns) instead of the scan's")
	return cmd
}

// applyAnalyzeFlags layers explicitly set flags over the configuration and
// returns the window overrides. Unset flags keep config or auto values.
func (c *cli) applyAnalyzeFlags(cmd *cobra.Command, f analyzeFlags) (service.Overrides, error) {
	fs := cmd.Flags()
	var ov service.Overrides
	set := func(name string, v float64) *float64 {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	ov.TMin = set("tmin", f.tMin)
	ov.TMax = set("tmax", f.tMax)
	ov.TcMin = set("tcmin", f.tcMin)
	ov.TcMax = set("tcmax", f.tcMax)
	if fs.Changed("tcstep") {
		c.cfg.TcStep = f.tcStep
	}
	if fs.Changed("workers") {
		c.cfg.WorkerCount = f.workers
	}
	if fs.Changed("xlsx") {
		c.cfg.XLSX = f.xlsx
	}
	if fs.Changed("metrics-file") {
		c.cfg.MetricsFile = f.metricsFile
	}
	if err := c.cfg.Validate(); err != nil {
		return service.Overrides{}, fmt.Errorf("%w: %w", ErrFlags, err)
	}
	return ov, nil
}

func (c *cli) runAnalyze(ctx context.Context, dataDir, magFile string, ov service.Overrides) error {
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDataDir, dataDir)
	}
	scanPath := filepath.Join(dataDir, c.cfg.ScanFile)
	if _, err := os.Stat(scanPath); err != nil {
		return fmt.Errorf("%w in %s: expected %s", ErrScanFile, dataDir, c.cfg.ScanFile)
	}

	scan, err := scanio.LoadScan(ctx, scanPath, scanio.WithLogger(c.log))
	if err != nil {
		return err
	}
	c.log.Info(ctx, "scan loaded", logger.String("path", scanPath), logger.Int("rows", scan.Len()))

	if magFile != "" {
		mags, err := scanio.LoadMagnetization(ctx, magFile, scanio.WithLogger(c.log))
		if err != nil {
			return err
		}
		c.log.Info(ctx, "magnetization loaded", logger.String("path", magFile), logger.Int("rows", mags.Len()))
		ov.Magnetization = &mags
	}

	svc := service.New(c.serviceOptions()...)
	report, err := svc.Analyze(ctx, dataDir, scan, ov)
	if err != nil {
		if errors.Is(err, service.ErrNoWindow) {
			return service.ErrNoWindow
		}
		return err
	}

	outs, err := scanio.WriteOutputs(ctx, scanio.OutputDir(dataDir, time.Now()), report, c.cfg.XLSX)
	if err != nil {
		return err
	}
	fields := []logger.Field{
		logger.String("dir", outs.Dir),
		logger.String("table", outs.Table),
		logger.String("summary", outs.Summary),
	}
	if outs.Workbook != "" {
		fields = append(fields, logger.String("workbook", outs.Workbook))
	}
	c.log.Info(ctx, "outputs written", fields...)

	if c.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(c.cfg.MetricsFile); err != nil {
			c.log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}

	fmt.Fprintf(c.out, "Reanalysis written to %s\n", outs.Dir)
	fmt.Fprintln(c.out, scanio.BestLine(report.Best))
	return nil
}
