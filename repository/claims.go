package repository

import (
	"context"
	"time"
)

// ClaimStore is a best-effort duplicate-dispatch suppressor. Acquire
// returns false when another worker already holds the claim for the
// reminder id. Correctness never depends on it: the dispatcher's status
// re-check plus the version-checked update remain the real guard, the
// claim only avoids wasted work when several scheduler instances pick up
// the same due batch.
type ClaimStore interface {
	Acquire(ctx context.Context, reminderID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, reminderID string) error
}
