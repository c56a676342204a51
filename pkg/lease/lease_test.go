package lease_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/pkg/lease"
)

func newRedisLocker(t *testing.T) (*lease.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lease.NewRedis(client, lease.WithPrefix("test:")), mr
}

func TestRedis_AcquireAndRelease(t *testing.T) {
	t.Parallel()

	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	release, ok, err := locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:user_1"))

	_, ok, err = locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	release()
	assert.False(t, mr.Exists("test:user_1"))

	release2, ok, err := locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestRedis_Expiry(t *testing.T) {
	t.Parallel()

	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	staleRelease, ok, err := locker.TryAcquire(ctx, "user_1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	release, ok, err := locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// The expired holder must not release the new holder's lease.
	staleRelease()
	assert.True(t, mr.Exists("test:user_1"))
	release()
}

func TestRedis_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	locker, _ := newRedisLocker(t)
	ctx := context.Background()

	r1, ok, err := locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer r1()

	r2, ok, err := locker.TryAcquire(ctx, "user_2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer r2()
}

func TestRedis_ConnectionError(t *testing.T) {
	t.Parallel()

	locker, mr := newRedisLocker(t)
	mr.Close()

	_, ok, err := locker.TryAcquire(context.Background(), "user_1", time.Minute)
	assert.ErrorIs(t, err, lease.ErrLeaseFailed)
	assert.False(t, ok)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	for name, locker := range map[string]lease.Locker{
		"memory": lease.NewMemory(),
		"redis":  func() lease.Locker { l, _ := newRedisLocker(t); return l }(),
	} {
		_, _, err := locker.TryAcquire(context.Background(), "", time.Minute)
		assert.ErrorIs(t, err, lease.ErrEmptyKey, name)

		_, _, err = locker.TryAcquire(context.Background(), "k", 0)
		assert.ErrorIs(t, err, lease.ErrInvalidTTL, name)
	}
}

func TestMemory_ExclusiveUnderContention(t *testing.T) {
	t.Parallel()

	locker := lease.NewMemory()
	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := locker.TryAcquire(context.Background(), "user_1", time.Minute)
			assert.NoError(t, err)
			if ok {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}

func TestMemory_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	locker := lease.NewMemory()
	ctx := context.Background()

	release, ok, err := locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	release()

	next, ok, err := locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	_, ok, err = locker.TryAcquire(ctx, "user_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "a second release of the old lease must not free the new one")
	next()
}

func TestNoop(t *testing.T) {
	t.Parallel()

	release, ok, err := lease.Noop{}.TryAcquire(context.Background(), "user_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}
