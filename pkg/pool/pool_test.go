package pool_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pomyannik/pomyannik/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Run(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	var count atomic.Int64

	workerFunc := func(ctx context.Context, item int) error {
		count.Add(1)
		time.Sleep(10 * time.Millisecond)
		return nil
	}

	errs := pool.Run(context.Background(), items, 3, workerFunc)

	assert.Empty(t, errs)
	assert.Equal(t, int64(len(items)), count.Load())
}

func TestPool_CollectsErrors(t *testing.T) {
	items := []int{1, 2, 3, 4}
	expectedErr := errors.New("worker failed")

	workerFunc := func(ctx context.Context, item int) error {
		if item%2 == 0 {
			return expectedErr
		}
		return nil
	}

	errs := pool.Run(context.Background(), items, 2, workerFunc)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], expectedErr)
	assert.ErrorIs(t, errs[1], expectedErr)
}

func TestPool_EmptyItems(t *testing.T) {
	var called atomic.Bool
	errs := pool.Run(context.Background(), []int{}, 5, func(ctx context.Context, item int) error {
		called.Store(true)
		return nil
	})
	assert.Empty(t, errs)
	assert.False(t, called.Load())
}

func TestPool_ZeroWorkersStillRuns(t *testing.T) {
	var count atomic.Int32
	errs := pool.Run(context.Background(), []int{1, 2, 3}, 0, func(ctx context.Context, item int) error {
		count.Add(1)
		return nil
	})
	assert.Empty(t, errs)
	assert.Equal(t, int32(3), count.Load())
}

func TestPool_LimitsConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	worker := func(ctx context.Context, item int) error {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return nil
	}

	items := make([]int, 30)
	errs := pool.Run(context.Background(), items, 4, worker)
	assert.Empty(t, errs)
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestPool_ContextCancellation(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	var processedCount atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())

	workerFunc := func(ctx context.Context, item int) error {
		processedCount.Add(1)
		if item == 0 {
			cancel()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
		return nil
	}

	pool.Run(ctx, items, runtime.NumCPU(), workerFunc)

	assert.Less(t, processedCount.Load(), int64(len(items)), "Pool should stop processing after context is cancelled")
}

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	got, err := pool.Map(context.Background(), items, 3, func(ctx context.Context, item int) (int, error) {
		time.Sleep(time.Duration(item) * time.Millisecond)
		return item * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 40, 20, 30}, got)
}

func TestMap_FirstErrorCancelsRest(t *testing.T) {
	boom := errors.New("boom")
	var started atomic.Int32

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	got, err := pool.Map(context.Background(), items, 2, func(ctx context.Context, item int) (string, error) {
		started.Add(1)
		if item == 1 {
			return "", boom
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return "ok", nil
		}
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
	assert.Less(t, started.Load(), int32(len(items)))
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Map(ctx, []int{1, 2, 3}, 2, func(ctx context.Context, item int) (int, error) {
		return item, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
