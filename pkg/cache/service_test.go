package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedHotel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestService(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client), mr
}

func TestService_SetGet(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "travelenda:hotels:detail:id:h1", cachedHotel{ID: "h1", Name: "Le Marais"}, time.Minute))

	var got cachedHotel
	require.NoError(t, svc.Get(ctx, "travelenda:hotels:detail:id:h1", &got))
	assert.Equal(t, "Le Marais", got.Name)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, svc.Get(ctx, "travelenda:hotels:detail:id:h1", &got), ErrCacheMiss)
}

func TestService_DeletePattern(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "travelenda:hotels:search:a", 1, time.Minute))
	require.NoError(t, svc.Set(ctx, "travelenda:hotels:detail:id:b", 2, time.Minute))
	require.NoError(t, svc.Set(ctx, "travelenda:bookings:detail:id:c", 3, time.Minute))

	require.NoError(t, svc.DeletePattern(ctx, "travelenda:hotels:*"))

	assert.False(t, svc.Exists(ctx, "travelenda:hotels:search:a"))
	assert.False(t, svc.Exists(ctx, "travelenda:hotels:detail:id:b"))
	assert.True(t, svc.Exists(ctx, "travelenda:bookings:detail:id:c"))
}

func TestService_SetNX(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_GetOrSet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var calls int32
	fetcher := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return cachedHotel{ID: "h1", Name: "Le Marais"}, nil
	}

	var first, second cachedHotel
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetcher, &first))
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetcher, &second))

	assert.Equal(t, "Le Marais", first.Name)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestService_GetOrSetCollapsesConcurrentFetches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fetcher := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"Paris"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []string
			assert.NoError(t, svc.GetOrSet(ctx, "destinations", time.Minute, fetcher, &out))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestService_GetOrSetFetcherError(t *testing.T) {
	svc, _ := newTestService(t)
	boom := errors.New("provider down")

	var out cachedHotel
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) { return nil, boom }, &out)

	assert.ErrorIs(t, err, boom)
	assert.False(t, svc.Exists(context.Background(), "k"))
}
