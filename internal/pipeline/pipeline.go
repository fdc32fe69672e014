// Package pipeline fans panel work out to a bounded worker pool and hands
// results to a single collector callback. Panels are independent, so the
// only contract is that work is pure per item and visit runs serially.
package pipeline

import (
	"context"
	"sync"
)

// ForEach applies work to every item using n workers and delivers each
// result to visit from one collector goroutine. Result order is whatever the
// scheduler produces; callers needing determinism sort afterwards.
//
// work must not panic and must capture its own failures inside R: a per-item
// error is a result, not a reason to stop the run. ForEach returns the first
// visit error or the context error if cancelled.
func ForEach[T, R any](ctx context.Context, n int, items []T, work func(context.Context, T) R, visit func(R) error) error {
	if n < 1 {
		n = 1
	}

	jobs := make(chan T, n*2)
	results := make(chan R, n*2)

	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-jobs:
					if !ok {
						return
					}
					select {
					case results <- work(ctx, item):
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector
	var (
		cerr error
		cwg  sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for r := range results {
			if cerr != nil {
				continue
			}
			if err := visit(r); err != nil {
				cerr = err
			}
		}
	}()

	// Feed work
feed:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- item:
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return cerr
}
