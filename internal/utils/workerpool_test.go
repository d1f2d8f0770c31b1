package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelForEach(t *testing.T) {
	t.Parallel()

	t.Run("every item runs", func(t *testing.T) {
		keys := []string{".", "./feature", "./lib/*", "#dep", "#utils/*"}
		seen := make(map[string]bool)
		var mu sync.Mutex

		errs := ParallelForEach(context.Background(), keys, 3, func(ctx context.Context, key string) error {
			mu.Lock()
			seen[key] = true
			mu.Unlock()
			return nil
		})

		require.Len(t, errs, len(keys))
		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Len(t, seen, len(keys))
	})

	t.Run("errors stay at their index", func(t *testing.T) {
		errNotExported := errors.New("not exported")
		keys := []string{".", "./internal/x", "./feature"}

		errs := ParallelForEach(context.Background(), keys, 2, func(ctx context.Context, key string) error {
			if key == "./internal/x" {
				return errNotExported
			}
			return nil
		})

		require.Len(t, errs, 3)
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], errNotExported)
		assert.NoError(t, errs[2])
	})

	t.Run("worker count is clamped", func(t *testing.T) {
		for _, workers := range []int{-1, 0, 1, 10} {
			var calls atomic.Int32
			errs := ParallelForEach(context.Background(), []int{1, 2}, workers, func(ctx context.Context, _ int) error {
				calls.Add(1)
				return nil
			})
			assert.Len(t, errs, 2)
			assert.Equal(t, int32(2), calls.Load(), "workers=%d", workers)
		}
	})

	t.Run("no items", func(t *testing.T) {
		errs := ParallelForEach(context.Background(), []int(nil), 4, func(ctx context.Context, _ int) error {
			t.Fatal("fn called for an empty slice")
			return nil
		})
		assert.Empty(t, errs)
	})
}

func TestParallelForEach_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	errs := ParallelForEach(ctx, []int{1, 2, 3}, 2, func(ctx context.Context, _ int) error {
		calls.Add(1)
		return nil
	})

	assert.Zero(t, calls.Load())
	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrNotRun)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestParallelForEach_CancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errStop := errors.New("stop")
	errs := ParallelForEach(ctx, []int{0, 1, 2, 3}, 1, func(ctx context.Context, item int) error {
		if item == 1 {
			cancel()
			return errStop
		}
		return nil
	})

	require.Len(t, errs, 4)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], errStop)
	assert.NotErrorIs(t, errs[1], ErrNotRun)
	for _, err := range errs[2:] {
		assert.ErrorIs(t, err, ErrNotRun)
		assert.ErrorIs(t, err, context.Canceled)
	}
}
