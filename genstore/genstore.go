// Package genstore keeps the per-key generation counters that make old
// checkpoint frames stale.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live. Local is the default; Redis
// shares invalidations between solver processes. Missing keys are at
// generation 0.
type GenStore interface {
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error)
	// Bump increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// BumpMany bumps every key in one round-trip where the backend allows it.
	BumpMany(ctx context.Context, storageKeys []string) (map[string]uint64, error)
	// Cleanup forgets counters idle longer than retention. No-op for Redis.
	Cleanup(retention time.Duration)
	Close(context.Context) error
}
