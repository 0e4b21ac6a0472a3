package repository

import "time"

// Option applies a configuration option to the CacheStore.
type Option func(*CacheStore)

// WithTTL sets how long runs are kept. Zero or less keeps them until the
// process exits.
func WithTTL(ttl time.Duration) Option {
	return func(s *CacheStore) {
		s.ttl = ttl
	}
}

// WithCleanupInterval sets how often expired runs are purged.
func WithCleanupInterval(interval time.Duration) Option {
	return func(s *CacheStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}
