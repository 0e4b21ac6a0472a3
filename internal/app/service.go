// Package service runs reanalyses: it finds the Tc search window from the
// heat capacity and susceptibility peaks, scans the Tc grid and keeps the
// resulting reports.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/mq/worker"
	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/repository"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/peak"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/tcscan"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/window"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
)

const defaultQueueSize = 1024

// Report is the outcome of one Analyze call.
type Report = types.Report

// Overrides replaces individual automatically detected bounds. Nil fields
// keep the detected value: T bounds come from the window envelope and Tc
// bounds from the window overlap. Magnetization, when set, is fitted in
// place of the scan's own T and M columns; windows still come from the scan.
type Overrides struct {
	TMin  *float64
	TMax  *float64
	TcMin *float64
	TcMax *float64
	Step  *float64

	Magnetization *model.Series
}

// Service runs analyses and, when a store is configured, keeps their reports.
type Service struct {
	workerCount int
	queueSize   int
	step        float64
	peakOpts    []peak.Option
	store       repository.Store
	logger      logger.Logger
	now         func() time.Time

	runs      atomic.Int64
	noWindows atomic.Int64
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 1,
		queueSize:   defaultQueueSize,
		step:        tcscan.DefaultStep,
		logger:      logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("reanalysis")
	return s
}

// Analyze runs a full reanalysis of scan. source only labels the report.
// Scans without a detectable window fail with ErrNoWindow. A scan where no
// candidate fits is not an error: the report simply has no Best.
func (s *Service) Analyze(ctx context.Context, source string, scan model.Scan, ov Overrides) (*Report, error) {
	if err := scan.Validate(); err != nil {
		metrics.RecordAnalysis(metrics.OutcomeError)
		return nil, fmt.Errorf("analyze %s: %w", source, err)
	}
	if scan.Len() == 0 {
		metrics.RecordAnalysis(metrics.OutcomeError)
		return nil, fmt.Errorf("analyze %s: %w", source, ErrEmptyScan)
	}
	fit := scan.Magnetization()
	if m := ov.Magnetization; m != nil {
		if err := m.Validate(); err != nil {
			metrics.RecordAnalysis(metrics.OutcomeError)
			return nil, fmt.Errorf("analyze %s magnetization: %w", source, err)
		}
		if m.Len() == 0 {
			metrics.RecordAnalysis(metrics.OutcomeError)
			return nil, fmt.Errorf("analyze %s magnetization: %w", source, ErrEmptyScan)
		}
		fit = *m
	}

	auto := window.Auto(scan.HeatCapacities, scan.Susceptibilities, scan.Magnetizations, scan.Temperatures, s.peakOpts...)
	if auto.Primary == nil {
		s.noWindows.Add(1)
		metrics.RecordAnalysis(metrics.OutcomeNoWindow)
		s.logger.Warn(ctx, "no window found", logger.String("source", source), logger.Int("rows", scan.Len()))
		return nil, fmt.Errorf("analyze %s: %w", source, ErrNoWindow)
	}

	params := s.resolve(auto.Primary, ov)
	if err := params.Validate(); err != nil {
		metrics.RecordAnalysis(metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	start := time.Now()
	res, err := s.scan(ctx, fit, params)
	if err != nil {
		metrics.RecordAnalysis(metrics.OutcomeError)
		return nil, fmt.Errorf("analyze %s: %w", source, err)
	}
	took := time.Since(start)

	report := &Report{
		RunID:     uuid.NewString(),
		Source:    source,
		Rows:      scan.Len(),
		Auto:      auto,
		Used:      params,
		Records:   res.Records,
		Best:      res.Best,
		CreatedAt: s.now(),
	}
	s.observe(ctx, report, took)

	if s.store != nil {
		if err := s.store.Save(ctx, report); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
	}
	return report, nil
}

func (s *Service) resolve(w *model.Window, ov Overrides) tcscan.Params {
	pick := func(v *float64, auto float64) float64 {
		if v != nil {
			return *v
		}
		return auto
	}
	return tcscan.Params{
		TMin:  pick(ov.TMin, w.TEnvMin),
		TMax:  pick(ov.TMax, w.TEnvMax),
		TcMin: pick(ov.TcMin, w.TcOvMin),
		TcMax: pick(ov.TcMax, w.TcOvMax),
		Step:  pick(ov.Step, s.step),
	}
}

func (s *Service) scan(ctx context.Context, m model.Series, p tcscan.Params) (tcscan.Result, error) {
	if s.workerCount > 1 {
		return worker.Scan(ctx, m.Temperatures, m.Values, p, s.workerCount, s.queueSize,
			worker.WithLogger(s.logger))
	}
	if err := ctx.Err(); err != nil {
		return tcscan.Result{}, err
	}
	return tcscan.Scan(m.Temperatures, m.Values, p), nil
}

func (s *Service) observe(ctx context.Context, r *Report, took time.Duration) {
	s.runs.Add(1)
	valid := r.ValidCount()
	metrics.RecordCandidates(valid, len(r.Records)-valid)
	metrics.RecordScanDuration(float64(took.Microseconds()) / 1000)
	metrics.UpdateLastAnalysis(r.CreatedAt.Unix())

	fields := []logger.Field{
		logger.String("run_id", r.RunID),
		logger.String("source", r.Source),
		logger.Int("candidates", len(r.Records)),
		logger.Int("valid", valid),
		logger.Duration("took", took),
	}
	if b := r.Best; b != nil {
		metrics.RecordAnalysis(metrics.OutcomeFit)
		metrics.UpdateBestFit(b.Tc, b.Beta, b.RSquared)
		fields = append(fields,
			logger.Float64("tc", b.Tc),
			logger.Float64("beta", b.Beta),
			logger.Float64("r_squared", b.RSquared),
		)
	} else {
		metrics.RecordAnalysis(metrics.OutcomeNoFit)
	}
	s.logger.Info(ctx, "analysis complete", fields...)
}

// Run returns a stored report.
func (s *Service) Run(ctx context.Context, runID string) (*Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, runID)
	}
	return s.store.Get(ctx, runID)
}

// Runs returns every stored report, newest first.
func (s *Service) Runs(ctx context.Context) ([]*Report, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	stats := map[string]any{
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"tcStep":      s.step,
		"runs":        s.runs.Load(),
		"noWindow":    s.noWindows.Load(),
	}
	if s.store != nil {
		stats["storedRuns"] = s.store.Count(context.Background())
	}
	return stats
}
