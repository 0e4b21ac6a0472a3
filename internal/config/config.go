// Package config defines the reanalysis configuration and its loading from
// defaults, an optional YAML file and REANALYSIS_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TcStep is the Tc grid spacing when a run does not override it.
	TcStep float64 `koanf:"tc_step"`

	// WorkerCount sets the number of candidate fitting workers; 1 scans inline.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the candidate job queue.
	QueueSize int `koanf:"queue_size"`

	// XLSX also writes the scan table and summary as a workbook.
	XLSX bool `koanf:"xlsx"`

	// ScanFile is the scan CSV name looked up inside the data directory.
	ScanFile string `koanf:"scan_file"`

	// MetricsFile, when set, receives a Prometheus textfile after CLI runs.
	MetricsFile string `koanf:"metrics_file"`

	// RunTTLMinutes is how long the HTTP service keeps finished runs.
	RunTTLMinutes int `koanf:"run_ttl_minutes"`

	// PeakMinIndex and PeakLookback tune the peak heuristics.
	PeakMinIndex int `koanf:"peak_min_index"`
	PeakLookback int `koanf:"peak_lookback"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		TcStep:        0.0001,
		WorkerCount:   runtime.NumCPU(),
		QueueSize:     1024,
		ScanFile:      "ising_results_scan.csv",
		RunTTLMinutes: 60,
		PeakMinIndex:  5,
		PeakLookback:  3,
	}
}

// RunTTL returns RunTTLMinutes as a duration.
func (c *Config) RunTTL() time.Duration {
	return time.Duration(c.RunTTLMinutes) * time.Minute
}

// Validate reports the first setting no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !(c.TcStep > 0):
		return fmt.Errorf("%w: tc_step must be positive, got %v", ErrInvalidConfig, c.TcStep)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1, got %d", ErrInvalidConfig, c.QueueSize)
	case c.ScanFile == "":
		return fmt.Errorf("%w: scan_file must not be empty", ErrInvalidConfig)
	case c.RunTTLMinutes < 0:
		return fmt.Errorf("%w: run_ttl_minutes must not be negative", ErrInvalidConfig)
	case c.PeakMinIndex < 0 || c.PeakLookback < 0:
		return fmt.Errorf("%w: peak settings must not be negative", ErrInvalidConfig)
	}
	return nil
}
