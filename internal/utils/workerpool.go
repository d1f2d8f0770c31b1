package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotRun marks an item that was never processed because the context
// ended first. The context error is wrapped alongside it.
var ErrNotRun = errors.New("not run")

// ParallelForEach calls fn for every item on at most workers goroutines and
// returns one error per item, in item order.
//
// Items are handed out in order. Once ctx is done no further item starts;
// those that did not start get an error matching both ErrNotRun and
// ctx.Err(). Items already running finish with whatever fn returns.
func ParallelForEach[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// each index is received once, so errs needs no lock
			for idx := range next {
				if err := ctx.Err(); err != nil {
					errs[idx] = notRun(err)
					continue
				}
				errs[idx] = fn(ctx, items[idx])
			}
		}()
	}

	sent := 0
feed:
	for sent < len(items) {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case next <- sent:
			sent++
		}
	}
	close(next)
	wg.Wait()

	for idx := sent; idx < len(items); idx++ {
		errs[idx] = notRun(ctx.Err())
	}
	return errs
}

func notRun(cause error) error {
	return fmt.Errorf("%w: %w", ErrNotRun, cause)
}
