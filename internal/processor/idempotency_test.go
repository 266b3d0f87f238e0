package processor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/service-reminders/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func newGuard(t *testing.T, maxRetries int) (*miniredis.Miniredis, *IdempotencyService) {
	mr, adapter := setupTestRedis(t)
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = maxRetries
	return mr, NewIdempotencyService(adapter, cfg)
}

func TestIdempotency_FirstAttempt(t *testing.T) {
	mr, s := newGuard(t, 3)

	pc, err := s.AcquireProcessingLock(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", pc.MessageID)
	assert.Equal(t, 0, pc.RetryCount)
	assert.False(t, pc.IsRetry)
	assert.True(t, mr.Exists("dispatch:lock:m1"))
	assert.Equal(t, 30*time.Second, mr.TTL("dispatch:lock:m1"))
}

func TestIdempotency_ConcurrentConsumers(t *testing.T) {
	_, s := newGuard(t, 3)
	ctx := context.Background()

	_, err := s.AcquireProcessingLock(ctx, "m2")
	require.NoError(t, err)

	pc, err := s.AcquireProcessingLock(ctx, "m2")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)
	assert.Nil(t, pc)
}

func TestIdempotency_MarkSent(t *testing.T) {
	mr, s := newGuard(t, 3)
	ctx := context.Background()

	pc, err := s.AcquireProcessingLock(ctx, "m3")
	require.NoError(t, err)
	require.NoError(t, s.MarkSent(ctx, pc, "SM123"))

	assert.False(t, mr.Exists("dispatch:lock:m3"))

	sid, ok, err := s.SentSID(ctx, "m3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SM123", sid)

	_, err = s.AcquireProcessingLock(ctx, "m3")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	mr.FastForward(25 * time.Hour)
	_, ok, err = s.SentSID(ctx, "m3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdempotency_FailureThenRetry(t *testing.T) {
	_, s := newGuard(t, 3)
	ctx := context.Background()

	pc, err := s.AcquireProcessingLock(ctx, "m4")
	require.NoError(t, err)
	require.NoError(t, s.MarkFailure(ctx, pc, assert.AnError))

	pc, err = s.AcquireProcessingLock(ctx, "m4")
	require.NoError(t, err)
	assert.Equal(t, 1, pc.RetryCount)
	assert.True(t, pc.IsRetry)

	count, err := s.GetRetryCount(ctx, "m4")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIdempotency_MaxRetriesExceeded(t *testing.T) {
	_, s := newGuard(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		pc, err := s.AcquireProcessingLock(ctx, "m5")
		require.NoError(t, err)
		require.NoError(t, s.MarkFailure(ctx, pc, assert.AnError))
	}

	pc, err := s.AcquireProcessingLock(ctx, "m5")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Nil(t, pc)
}

func TestIdempotency_SuccessClearsRetryCounter(t *testing.T) {
	_, s := newGuard(t, 3)
	ctx := context.Background()

	pc, err := s.AcquireProcessingLock(ctx, "m6")
	require.NoError(t, err)
	require.NoError(t, s.MarkFailure(ctx, pc, assert.AnError))

	pc, err = s.AcquireProcessingLock(ctx, "m6")
	require.NoError(t, err)
	require.NoError(t, s.MarkSent(ctx, pc, "SM6"))

	count, err := s.GetRetryCount(ctx, "m6")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIdempotency_ReleaseLock(t *testing.T) {
	_, s := newGuard(t, 3)
	ctx := context.Background()

	pc, err := s.AcquireProcessingLock(ctx, "m7")
	require.NoError(t, err)
	require.NoError(t, s.ReleaseLock(ctx, pc))
	assert.False(t, pc.lockAcquired)
	require.NoError(t, s.ReleaseLock(ctx, pc))

	_, err = s.AcquireProcessingLock(ctx, "m7")
	assert.NoError(t, err)
}
