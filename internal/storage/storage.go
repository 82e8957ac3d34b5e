// Package storage keeps the artifacts of a run: the local JSON backups
// written before submission and the optional MongoDB archive.
package storage

import (
	"context"
	"time"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

// Run is everything one ingestion run produced.
type Run struct {
	ID         string
	Source     types.Source
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []*types.AuctionItem
	Reports    []*types.InspectionReport
}

// Sink is the interface for all storage backends.
type Sink interface {
	// Store persists the results of a run.
	Store(ctx context.Context, run *Run) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
