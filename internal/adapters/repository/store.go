// Package repository keeps finished reanalysis runs for later retrieval.
package repository

import (
	"context"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
)

// Store provides read/write access to finished runs.
type Store interface {
	// Save stores r under r.RunID, replacing any earlier run with that ID.
	Save(ctx context.Context, r *types.Report) error

	// Get returns the run with the given ID.
	// Returns ErrNotFound if the run is unknown or expired.
	Get(ctx context.Context, runID string) (*types.Report, error)

	// List returns the stored runs, newest first.
	List(ctx context.Context) ([]*types.Report, error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
}
