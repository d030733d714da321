package numbering

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

// conflictingStore rejects the first n commits to simulate other writers.
type conflictingStore struct {
	*MemoryStore
	remaining atomic.Int64
	commits   atomic.Int64
}

func (s *conflictingStore) Commit(ctx context.Context, docType DocType, scope string, prev, next int64) error {
	s.commits.Add(1)
	if s.remaining.Add(-1) >= 0 {
		return ErrConflict
	}
	return s.MemoryStore.Commit(ctx, docType, scope, prev, next)
}

type brokenStore struct {
	reads atomic.Int64
}

func (s *brokenStore) Read(context.Context, DocType, string) (int64, bool, error) {
	s.reads.Add(1)
	return 0, false, errors.New("connection refused")
}

func (s *brokenStore) Commit(context.Context, DocType, string, int64, int64) error {
	return errors.New("connection refused")
}

func TestAllocatorFirstNumberIsOne(t *testing.T) {
	a := NewAllocator(NewMemoryStore(), WithBackOff(noWait))

	n, err := a.Next(context.Background(), DocBilty, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = a.Next(context.Background(), DocBilty, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAllocatorScopesAndTypesAreIndependent(t *testing.T) {
	ctx := context.Background()
	a := NewAllocator(NewMemoryStore(), WithBackOff(noWait))

	for i := 0; i < 3; i++ {
		_, err := a.Next(ctx, DocBilty, "2024-25")
		require.NoError(t, err)
	}

	n, err := a.Next(ctx, DocBilty, "2025-26")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = a.Next(ctx, DocChallan, "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = a.Next(ctx, DocBilty, "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestAllocatorConcurrentNumbersAreDistinct(t *testing.T) {
	const workers = 40
	store := NewMemoryStore()
	// Every failed commit means another worker succeeded, so a worker can lose at most
	// workers-1 times in a row.
	a := NewAllocator(store, WithBackOff(noWait), WithMaxAttempts(workers))

	results := make([]int64, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			n, err := a.Next(context.Background(), DocChallan, "2024-25")
			results[i] = n
			return err
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, n := range results {
		assert.Equal(t, int64(i+1), n)
	}

	current, found, err := store.Read(context.Background(), DocChallan, "2024-25")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(workers), current)
}

func TestAllocatorRetriesConflicts(t *testing.T) {
	store := &conflictingStore{MemoryStore: NewMemoryStore()}
	store.remaining.Store(3)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	a := NewAllocator(store, WithBackOff(noWait), WithMetrics(metrics))

	n, err := a.Next(context.Background(), DocBilty, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(4), store.commits.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.conflicts.WithLabelValues("bilty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.allocations.WithLabelValues("bilty")))
}

func TestAllocatorContentionAfterMaxAttempts(t *testing.T) {
	store := &conflictingStore{MemoryStore: NewMemoryStore()}
	store.remaining.Store(100)
	a := NewAllocator(store, WithBackOff(noWait), WithMaxAttempts(5))

	_, err := a.Next(context.Background(), DocBilty, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContention)
	assert.Equal(t, int64(5), store.commits.Load())

	_, found, err := store.Read(context.Background(), DocBilty, "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAllocatorStoreErrorsAreNotRetried(t *testing.T) {
	store := &brokenStore{}
	a := NewAllocator(store, WithBackOff(noWait))

	_, err := a.Next(context.Background(), DocBilty, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrContention)
	assert.Equal(t, int64(1), store.reads.Load())
}

func TestAllocatorRejectsUnknownType(t *testing.T) {
	a := NewAllocator(NewMemoryStore())
	_, err := a.Next(context.Background(), DocType("receipt"), "")
	assert.ErrorIs(t, err, ErrInvalidDocType)
}

func TestAllocatorHonoursCancelledContext(t *testing.T) {
	store := &conflictingStore{MemoryStore: NewMemoryStore()}
	store.remaining.Store(100)
	a := NewAllocator(store, WithBackOff(noWait), WithMaxAttempts(50))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Next(ctx, DocBilty, "")
	require.Error(t, err)
	assert.Less(t, store.commits.Load(), int64(50))
}

func TestAllocatorPeekDoesNotReserve(t *testing.T) {
	ctx := context.Background()
	a := NewAllocator(NewMemoryStore(), WithBackOff(noWait))

	peek, err := a.Peek(ctx, DocBilty, "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(1), peek)

	n, err := a.Next(ctx, DocBilty, "2024-25")
	require.NoError(t, err)
	assert.Equal(t, peek, n)

	peek, err = a.Peek(ctx, DocBilty, "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(2), peek)
}
