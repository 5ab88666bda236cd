package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of one conversation across engine replicas
// sharing a StateStore. session.Manager takes it after its in-process lock.
type DistributedLocker interface {
	// Lock blocks until key (a session ID) is held or ctx is done. The lock
	// expires after ttl even if it is never released, so a crashed replica
	// cannot stall a conversation. The returned UnlockFunc only releases the
	// lock it acquired.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
