package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetguard/core/cache"
)

type recordingScheduler struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context) error
}

func (s *recordingScheduler) Every(name string, interval time.Duration, job func(ctx context.Context) error) error {
	s.name, s.interval, s.job = name, interval, job
	return nil
}

func newManager(t *testing.T, clock clockwork.Clock) *cache.Manager {
	t.Helper()
	m, err := cache.NewManager(cache.Config{
		ResponseCapacity: 2,
		QueryCapacity:    2,
		TTL:              time.Minute,
		SweepInterval:    5 * time.Minute,
	}, cache.WithManagerClock(clock))
	require.NoError(t, err)
	return m
}

func TestNewManager_Validation(t *testing.T) {
	t.Parallel()

	_, err := cache.NewManager(cache.Config{ResponseCapacity: 1, QueryCapacity: 1, TTL: time.Second})
	assert.ErrorIs(t, err, cache.ErrInvalidInterval)

	_, err = cache.NewManager(cache.Config{ResponseCapacity: 0, QueryCapacity: 1, SweepInterval: time.Second})
	assert.ErrorIs(t, err, cache.ErrInvalidCapacity)

	_, err = cache.NewManager(cache.Config{ResponseCapacity: 1, QueryCapacity: 0, SweepInterval: time.Second})
	assert.ErrorIs(t, err, cache.ErrInvalidCapacity)

	_, err = cache.NewManager(cache.Config{ResponseCapacity: 1, QueryCapacity: 1, TTL: -time.Second, SweepInterval: time.Second})
	assert.ErrorIs(t, err, cache.ErrInvalidTTL)
}

func TestManager_Responses(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	m := newManager(t, clock)

	body := []byte(`{"total":42}`)
	m.PutResponse("anon:/api/totals:", body)
	body[0] = 'X'

	got, ok := m.GetResponse("anon:/api/totals:")
	require.True(t, ok)
	assert.Equal(t, `{"total":42}`, string(got), "stored body is isolated from the caller's slice")

	got[0] = 'Y'
	again, _ := m.GetResponse("anon:/api/totals:")
	assert.Equal(t, `{"total":42}`, string(again), "returned body is a copy")

	m.InvalidateResponse("anon:/api/totals:")
	_, ok = m.GetResponse("anon:/api/totals:")
	assert.False(t, ok)

	m.PutResponse("7:/api/budgets/b1/summary:", []byte("a"))
	m.PutResponse("7:/api/budgets/b1/summary:view=full", []byte("b"))
	assert.Equal(t, 2, m.InvalidateResponsePrefix("7:/api/budgets/b1/summary:"))
	_, ok = m.GetResponse("7:/api/budgets/b1/summary:view=full")
	assert.False(t, ok)

	m.PutResponse("k", []byte("v"))
	clock.Advance(2 * time.Minute)
	_, ok = m.GetResponse("k")
	assert.False(t, ok, "default ttl applies to responses")
}

func TestManager_Queries(t *testing.T) {
	t.Parallel()

	m := newManager(t, clockwork.NewFakeClock())

	m.PutQuery("q1", "r1")
	v, ok := m.GetQuery("q1")
	assert.True(t, ok)
	assert.Equal(t, "r1", v)

	m.InvalidateQuery("q1")
	_, ok = m.GetQuery("q1")
	assert.False(t, ok)

	// The two caches are independent.
	m.PutResponse("shared", []byte("response"))
	_, ok = m.GetQuery("shared")
	assert.False(t, ok)
}

func TestManager_Query(t *testing.T) {
	t.Parallel()

	t.Run("loads once and caches", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, clockwork.NewFakeClock())

		var calls atomic.Int32
		load := func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "loaded", nil
		}

		v, err := m.Query(context.Background(), "q", load)
		require.NoError(t, err)
		assert.Equal(t, "loaded", v)

		v, err = m.Query(context.Background(), "q", load)
		require.NoError(t, err)
		assert.Equal(t, "loaded", v)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, clockwork.NewFakeClock())

		boom := errors.New("db down")
		_, err := m.Query(context.Background(), "q", func(context.Context) (string, error) {
			return "", boom
		})
		assert.ErrorIs(t, err, boom)

		_, ok := m.GetQuery("q")
		assert.False(t, ok)
	})

	t.Run("nil loader", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, clockwork.NewFakeClock())

		_, err := m.Query(context.Background(), "q", nil)
		assert.ErrorIs(t, err, cache.ErrNilLoader)
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, clockwork.NewFakeClock())

		var calls atomic.Int32
		release := make(chan struct{})
		load := func(ctx context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "shared", nil
		}

		var wg sync.WaitGroup
		results := make([]string, 10)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := m.Query(context.Background(), "q", load)
				assert.NoError(t, err)
				results[i] = v
			}(i)
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for _, r := range results {
			assert.Equal(t, "shared", r)
		}
	})

	t.Run("cancelled caller does not fail the others", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, clockwork.NewFakeClock())

		started := make(chan struct{})
		release := make(chan struct{})
		var loadErr atomic.Value
		load := func(ctx context.Context) (string, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				loadErr.Store(err)
			}
			return "shared", nil
		}

		firstCtx, cancel := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := m.Query(firstCtx, "q", load)
			firstErr <- err
		}()
		<-started

		second := make(chan string, 1)
		go func() {
			v, err := m.Query(context.Background(), "q", func(context.Context) (string, error) {
				return "", errors.New("second load must not run")
			})
			assert.NoError(t, err)
			second <- v
		}()

		cancel()
		select {
		case err := <-firstErr:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("cancelled caller kept waiting")
		}

		time.Sleep(50 * time.Millisecond)
		close(release)

		select {
		case v := <-second:
			assert.Equal(t, "shared", v)
		case <-time.After(time.Second):
			t.Fatal("live caller did not get the shared result")
		}
		assert.Nil(t, loadErr.Load())

		v, ok := m.GetQuery("q")
		assert.True(t, ok)
		assert.Equal(t, "shared", v)
	})
}

func TestManager_SweepAndSchedule(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	m := newManager(t, clock)

	sched := &recordingScheduler{}
	require.NoError(t, m.Schedule(sched))
	assert.Equal(t, "cache-sweep", sched.name)
	assert.Equal(t, 5*time.Minute, sched.interval)
	assert.Equal(t, 5*time.Minute, m.SweepInterval())
	require.NotNil(t, sched.job)

	m.PutResponse("r", []byte("body"))
	m.PutQuery("q", "result")
	clock.Advance(2 * time.Minute)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Responses.Entries, "write-once entries stay resident until swept")
	assert.Equal(t, 1, stats.Queries.Entries)

	require.NoError(t, sched.job(context.Background()))

	stats = m.Stats()
	assert.Zero(t, stats.Responses.Entries)
	assert.Zero(t, stats.Queries.Entries)
	assert.Equal(t, uint64(1), stats.Responses.Expirations)
	assert.Equal(t, uint64(1), stats.Queries.Expirations)
}
