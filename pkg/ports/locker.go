package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one user across bot replicas.
// Within a single process the session manager already serializes per user.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl even if the holder never unlocks.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
