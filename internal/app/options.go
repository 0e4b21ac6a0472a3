package service

import (
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/repository"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/peak"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of fitting workers. One scans inline.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the candidate job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStep sets the Tc grid spacing used when a run does not override it.
func WithStep(step float64) Option {
	return func(s *Service) {
		if step > 0 {
			s.step = step
		}
	}
}

// WithPeakOptions tunes peak detection.
func WithPeakOptions(opts ...peak.Option) Option {
	return func(s *Service) {
		s.peakOpts = append(s.peakOpts, opts...)
	}
}

// WithStore keeps every finished run in store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
