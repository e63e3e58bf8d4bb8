// Package provider defines the byte store behind level checkpoints.
//
// Implementations must be byte-for-byte transparent: Get returns exactly the
// []byte that was passed to Set for a key. A store that compresses or
// otherwise transforms values internally must fully reverse that on Get.
//
// The keyspaces "ckpt:<ns>:" and "ckptbulk:<ns>:" belong to the checkpoint
// package. Foreign values written there fail frame validation and are deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Implementations must be safe
// for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry where the
	// store supports it). May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
