package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/telelab/pkg/adapters/redis"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "device-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:device-1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:device-1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	_, err = second.Lock(ctxTimeout, "shared", 5*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock2(ctx))
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlockOld, err := locker.Lock(ctx, "dev", time.Second)
	require.NoError(t, err)

	// Lease expires and someone else takes it.
	mr.FastForward(2 * time.Second)
	unlockNew, err := locker.Lock(ctx, "dev", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlockOld(ctx))
	assert.True(t, mr.Exists("test:lock:dev"), "stale unlock must not release the new owner's lease")
	require.NoError(t, unlockNew(ctx))
}

func TestRedisLocker_RenewExtendsLease(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, renew, err := locker.LockRenewable(ctx, "dev", time.Second)
	require.NoError(t, err)

	mr.FastForward(800 * time.Millisecond)
	require.NoError(t, renew(ctx, time.Second))
	assert.Equal(t, time.Second, mr.TTL("test:lock:dev"))

	mr.FastForward(800 * time.Millisecond)
	assert.True(t, mr.Exists("test:lock:dev"), "renewed lease outlives the original TTL")
	require.NoError(t, unlock(ctx))
}

func TestRedisLocker_RenewAfterExpiry(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	_, renew, err := locker.LockRenewable(ctx, "dev", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, renew(ctx, time.Second), domain.ErrLeaseLost)

	// Someone else owns it now; renewing must not extend their lease.
	unlockOther, err := locker.Lock(ctx, "dev", 5*time.Second)
	require.NoError(t, err)
	assert.ErrorIs(t, renew(ctx, time.Minute), domain.ErrLeaseLost)
	assert.Equal(t, 5*time.Second, mr.TTL("test:lock:dev"))
	require.NoError(t, unlockOther(ctx))
}
