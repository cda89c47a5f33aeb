package balance

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client)
}

func TestRedisStore_GetOrCreate(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := newRedisStore(t)

	chips, err := s.GetOrCreate(ctx, "user-1", 1000)
	require.NoError(t, err)
	a.Equal(1000, chips)

	require.NoError(t, s.Set(ctx, "user-1", 1500))

	chips, err = s.GetOrCreate(ctx, "user-1", 1000)
	require.NoError(t, err)
	a.Equal(1500, chips)
}

func TestRedisStore_GuestsAreNotPersisted(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := newRedisStore(t)

	chips, err := s.GetOrCreate(ctx, "guest:abc", 1000)
	require.NoError(t, err)
	a.Equal(1000, chips)

	require.NoError(t, s.Set(ctx, "guest:abc", 5000))

	// guests always get the initial amount back
	chips, err = s.GetOrCreate(ctx, "guest:abc", 1000)
	require.NoError(t, err)
	a.Equal(1000, chips)
}

func TestIsGuest(t *testing.T) {
	a := assert.New(t)
	a.True(IsGuest("guest:abc"))
	a.False(IsGuest("user-1"))
}

func TestMemoryStore(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	chips, err := s.GetOrCreate(ctx, "user-1", 1000)
	require.NoError(t, err)
	a.Equal(1000, chips)

	require.NoError(t, s.Set(ctx, "user-1", 250))

	chips, err = s.GetOrCreate(ctx, "user-1", 1000)
	require.NoError(t, err)
	a.Equal(250, chips)

	chips, err = s.GetOrCreate(ctx, "guest:xyz", 1000)
	require.NoError(t, err)
	a.Equal(1000, chips)
}
