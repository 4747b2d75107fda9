package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLockAcquire is returned when the lock cannot be acquired.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
)

// releaseScript deletes the lock only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// renewScript resets the TTL only if the lock still holds our token.
const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

var _ ports.RenewableLocker = (*Locker)(nil)

// Locker implements ports.RenewableLocker using Redis.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		retry:  100 * time.Millisecond,
	}
}

// Lock acquires a distributed lock for the given key using Redis SET NX PX.
// It retries on a fixed interval until the lock is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	unlock, _, err := l.LockRenewable(ctx, key, ttl)
	return unlock, err
}

// LockRenewable is Lock plus a RenewFunc that extends the lock while we still own it.
func (l *Locker) LockRenewable(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, ports.RenewFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
		}
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrLockAcquire, ctx.Err())
			}
			return nil, nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			unlock := func(ctx context.Context) error {
				return l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
			}
			renew := func(ctx context.Context, ttl time.Duration) error {
				n, err := l.client.Eval(ctx, renewScript, []string{lockKey}, token, ttl.Milliseconds()).Int()
				if err != nil {
					return fmt.Errorf("redis error renewing lock: %w", err)
				}
				if n == 0 {
					return fmt.Errorf("%s: %w", key, domain.ErrLeaseLost)
				}
				return nil
			}
			return unlock, renew, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("%w: %w", ErrLockAcquire, ctx.Err())
		case <-ticker.C:
		}
	}
}
