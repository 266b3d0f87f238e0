package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, prefix string) (*miniredis.Miniredis, RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter(t.Name()+"-"+mr.Addr(), prefix, &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	return mr, adapter
}

func TestRedisAdapter_Keys(t *testing.T) {
	mr, r := newTestAdapter(t, "app:")
	ctx := context.Background()

	ok, err := r.SetNX(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.SetNX(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// stored under the prefix
	assert.True(t, mr.Exists("app:lock"))
	assert.False(t, mr.Exists("lock"))

	exists, err := r.Exist(ctx, "lock")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, r.Set(ctx, "sid", []byte("SM1"), time.Hour))
	b, err := r.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "SM1", string(b))

	require.NoError(t, r.Del(ctx, "lock", "sid"))
	_, err = r.Get(ctx, "sid")
	assert.True(t, errors.Is(err, NilError))

	mr.FastForward(time.Hour)
	require.NoError(t, r.Ping(ctx))
}

func TestRedisAdapter_Streams(t *testing.T) {
	_, r := newTestAdapter(t, "")
	ctx := context.Background()

	require.NoError(t, r.XGroupCreateMkStream(ctx, "jobs", "workers", "0"))

	_, err := r.XReadGroup(ctx, "workers", "c1", "jobs", 10)
	assert.True(t, errors.Is(err, NilError))

	for i := 0; i < 3; i++ {
		_, err := r.XAdd(ctx, "jobs", 0, map[string]interface{}{"data": "x"})
		require.NoError(t, err)
	}

	msgs, err := r.XReadGroup(ctx, "workers", "c1", "jobs", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "x", msgs[0].Values["data"])

	pending, err := r.XPending(ctx, "jobs", "workers")
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending.Count)

	require.NoError(t, r.XAck(ctx, "jobs", "workers", msgs[0].ID))
	ext, err := r.XPendingExt(ctx, "jobs", "workers", 10)
	require.NoError(t, err)
	require.Len(t, ext, 1)
	assert.Equal(t, msgs[1].ID, ext[0].ID)

	claimed, err := r.XClaim(ctx, "jobs", "workers", "c2", 0, msgs[1].ID)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, msgs[1].ID, claimed[0].ID)

	n, err := r.XLen(ctx, "jobs")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
