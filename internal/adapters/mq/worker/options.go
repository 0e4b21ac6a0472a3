// Package worker fits Tc candidates concurrently. Workers pull jobs off a
// queue and write each record into the job's slot, so the finished table
// has the same order as a sequential scan.
package worker

import (
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
)

// Option applies a configuration option to a worker or a pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(name string, opts []Option) settings {
	s := settings{name: name, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
