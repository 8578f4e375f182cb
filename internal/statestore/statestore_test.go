package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStore_PutTake(t *testing.T) {
	store, _ := newStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc", Entry{UserID: 42, Timezone: "Europe/Paris"}))

	e, err := store.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), e.UserID)
	assert.Equal(t, "Europe/Paris", e.Timezone)
}

func TestRedisStore_TakeIsSingleUse(t *testing.T) {
	store, _ := newStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc", Entry{UserID: 1}))
	_, err := store.Take(ctx, "abc")
	require.NoError(t, err)

	_, err = store.Take(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc", Entry{UserID: 1}))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"abc"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Take(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_RejectsReusedState(t *testing.T) {
	store, _ := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc", Entry{UserID: 1}))
	assert.Error(t, store.Put(ctx, "abc", Entry{UserID: 2}))
}

func TestRedisStore_SharedAcrossClients(t *testing.T) {
	mr := miniredis.RunT(t)
	a := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { a.Close(); b.Close() })

	ctx := context.Background()
	require.NoError(t, NewRedisStore(a, time.Minute).Put(ctx, "xyz", Entry{UserID: 9}))

	e, err := NewRedisStore(b, time.Minute).Take(ctx, "xyz")
	require.NoError(t, err)
	assert.Equal(t, int64(9), e.UserID)
}
