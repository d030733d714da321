package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
	from  time.Time
	to    time.Time
}

func (c *countingRepo) Summary(_ context.Context, from, to time.Time) (Summary, error) {
	c.calls.Add(1)
	c.from, c.to = from, to
	if c.gate != nil {
		<-c.gate
	}
	if c.err != nil {
		return Summary{}, c.err
	}
	return Summary{
		Parties:          3,
		Bilties:          10,
		BiltiesThisMonth: 4,
		Challans:         2,
		ToPayOutstanding: decimal.RequireFromString("1250.50"),
	}, nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func fixedClock() time.Time {
	return time.Date(2025, time.February, 14, 9, 30, 0, 0, time.UTC)
}

func TestSummaryComputesCurrentMonthWindow(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, nil, nil)
	svc.SetClock(fixedClock)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-02", sum.Month)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), repo.from)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), repo.to)
	assert.True(t, sum.ToPayOutstanding.Equal(decimal.RequireFromString("1250.50")))
}

func TestSummaryServedFromCache(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, NewCache(newRedis(t), time.Minute), nil)
	svc.SetClock(fixedClock)

	for i := 0; i < 3; i++ {
		sum, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 10, sum.Bilties)
	}
	assert.EqualValues(t, 1, repo.calls.Load())
}

func TestWarmRecomputes(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, NewCache(newRedis(t), time.Minute), nil)
	svc.SetClock(fixedClock)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Warm(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.calls.Load())
}

func TestConcurrentMissesShareOneComputation(t *testing.T) {
	repo := &countingRepo{gate: make(chan struct{})}
	svc := NewService(repo, nil, nil)
	svc.SetClock(fixedClock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Summary(context.Background())
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return repo.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	assert.LessOrEqual(t, repo.calls.Load(), int32(2))
}

func TestCacheVersionBump(t *testing.T) {
	cache := NewCache(newRedis(t), time.Minute)
	ctx := context.Background()

	first, err := cache.BuildKey(ctx, "summary", "2025-02")
	require.NoError(t, err)
	assert.Equal(t, "stats:summary:2025-02:1", first)

	require.NoError(t, cache.Bump(ctx))
	second, err := cache.BuildKey(ctx, "summary", "2025-02")
	require.NoError(t, err)
	assert.Equal(t, "stats:summary:2025-02:2", second)
}

func TestInvalidateRecomputesNextSummary(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, NewCache(newRedis(t), time.Minute), nil)
	svc.SetClock(fixedClock)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.calls.Load())

	svc.Invalidate(ctx)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.calls.Load())
}

func TestInvalidateWithoutCache(t *testing.T) {
	svc := NewService(&countingRepo{}, nil, nil)
	assert.NotPanics(t, func() { svc.Invalidate(context.Background()) })
}

func TestHandlerSummary(t *testing.T) {
	svc := NewService(&countingRepo{}, nil, nil)
	svc.SetClock(fixedClock)
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["parties"])
	assert.Equal(t, "1250.5", body["to_pay_outstanding"])
}

func TestHandlerSummaryError(t *testing.T) {
	svc := NewService(&countingRepo{err: errors.New("db down")}, nil, nil)
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
