package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type price struct {
	Nightly float64 `json:"nightly"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "hotel:lisbon:2025-06-01:3:1", Key("hotel", " Lisbon ", "2025-06-01", "3", "1"))
}

func TestMemoryStore_RoundTripAndExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", price{Nightly: 95}, 15*time.Minute))

	var got price
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 95.0, got.Nightly)

	now = now.Add(15 * time.Minute)
	found, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	var clock atomic.Int64
	clock.Store(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	store := NewMemoryStore().WithClock(func() time.Time { return time.Unix(0, clock.Load()) })
	ctx := context.Background()

	const workers, ops = 16, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				own := fmt.Sprintf("pricing:w%d:%d", w, i%10)
				assert.NoError(t, store.Set(ctx, own, price{Nightly: float64(i)}, time.Minute))
				assert.NoError(t, store.Set(ctx, "pricing:shared", price{Nightly: float64(w)}, time.Minute))

				var got price
				found, err := store.Get(ctx, own, &got)
				assert.NoError(t, err)
				assert.True(t, found)

				_, err = store.Get(ctx, "pricing:shared", &got)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, workers*10+1, store.Len())

	clock.Add(int64(2 * time.Minute))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				var got price
				found, err := store.Get(ctx, fmt.Sprintf("pricing:w%d:%d", w, i), &got)
				assert.NoError(t, err)
				assert.False(t, found)
			}
		}(w)
	}
	wg.Wait()

	var got price
	found, err := store.Get(ctx, "pricing:shared", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Miss(t *testing.T) {
	var got price
	found, err := NewMemoryStore().Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_NoTTLNeverExpires(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", price{Nightly: 1}, 0))

	now = now.Add(24 * time.Hour)
	var got price
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRedisStore_WithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "planner:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "hotel:lisbon", price{Nightly: 110}, 900*time.Second))
	assert.True(t, mr.Exists("planner:hotel:lisbon"))

	var got price
	found, err := store.Get(ctx, "hotel:lisbon", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 110.0, got.Nightly)

	mr.FastForward(901 * time.Second)
	found, err = store.Get(ctx, "hotel:lisbon", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("hotel:paris").SetErr(errors.New("connection refused"))

	store := NewRedisStore(db, "")
	var got price
	found, err := store.Get(context.Background(), "hotel:paris", &got)
	assert.False(t, found)
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectSet("hotel:paris", []byte(`{"nightly":140}`), time.Minute).SetErr(errors.New("readonly"))

	store := NewRedisStore(db, "")
	err := store.Set(context.Background(), "hotel:paris", price{Nightly: 140}, time.Minute)
	assert.ErrorContains(t, err, "readonly")
	assert.NoError(t, mock.ExpectationsWereMet())
}
