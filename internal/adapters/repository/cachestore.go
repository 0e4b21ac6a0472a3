package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
)

const (
	defaultTTL             = time.Hour
	defaultCleanupInterval = 10 * time.Minute
)

// CacheStore is an in-memory Store whose entries expire after a TTL.
type CacheStore struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	cache           *cache.Cache
}

var _ Store = (*CacheStore)(nil)

// NewCacheStore creates a store with configuration options.
func NewCacheStore(opts ...Option) *CacheStore {
	s := &CacheStore{ttl: defaultTTL, cleanupInterval: defaultCleanupInterval}
	for _, opt := range opts {
		opt(s)
	}

	expiration := s.ttl
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	s.cache = cache.New(expiration, s.cleanupInterval)
	return s
}

// Save stores r.
func (s *CacheStore) Save(_ context.Context, r *types.Report) error {
	if r == nil || r.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidReport)
	}
	s.cache.Set(r.RunID, r, cache.DefaultExpiration)
	metrics.UpdateRunsStored(s.cache.ItemCount())
	return nil
}

// Get returns the run stored under runID.
func (s *CacheStore) Get(_ context.Context, runID string) (*types.Report, error) {
	v, ok := s.cache.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return v.(*types.Report), nil
}

// List returns unexpired runs ordered by creation time, newest first. Runs
// created at the same instant are ordered by ID.
func (s *CacheStore) List(_ context.Context) ([]*types.Report, error) {
	items := s.cache.Items()
	out := make([]*types.Report, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(*types.Report))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	return out, nil
}

// Count returns the number of unexpired runs.
func (s *CacheStore) Count(_ context.Context) int {
	return len(s.cache.Items())
}
