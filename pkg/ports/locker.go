package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It lets one workflow hold an exclusive lease on a shared device.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key (e.g., device URL).
	// It blocks until the lock is acquired, the context is canceled, or the TTL expires (implementation specific).
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// RenewFunc resets the TTL of a held lock.
// It returns domain.ErrLeaseLost when the lock expired or changed owner.
type RenewFunc func(ctx context.Context, ttl time.Duration) error

// RenewableLocker hands out locks that can be kept alive past their TTL.
type RenewableLocker interface {
	DistributedLocker
	// LockRenewable acquires key like Lock and also returns its RenewFunc.
	LockRenewable(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, RenewFunc, error)
}
