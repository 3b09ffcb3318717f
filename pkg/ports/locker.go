package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes load-act-save cycles on one workspace when several
// ayr servers share a StateStore.
type DistributedLocker interface {
	// Lock blocks until the workspace lock is held or ctx is done.
	// The lock expires on its own after ttl so a crashed holder cannot wedge the workspace.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
