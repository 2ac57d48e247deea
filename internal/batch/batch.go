// Package batch runs independent tasks in fixed-size batches. Items inside a
// batch run concurrently; batches run one after another with a delay between
// them, which is what keeps outbound traffic under a provider's rate limit.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options configure an executor run
type Options struct {
	// Size is the number of items dispatched together. Values <= 0 put every
	// item in a single batch.
	Size int
	// Delay is the pause between two batches. Zero disables it.
	Delay time.Duration
	// Sleep waits between batches. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnBatch is called before a batch is dispatched.
	OnBatch func(number, total, size int)
	// OnDelay is called before waiting between batches.
	OnDelay func(d time.Duration)
}

// Outcome is the settled result of one item
type Outcome[R any] struct {
	Value R
	Err   error
}

// Task processes one item
type Task[T, R any] func(ctx context.Context, item T) (R, error)

// Run processes items and returns one outcome per item, in input order.
// A task error or panic only affects that item's outcome. If ctx is
// cancelled while waiting between batches, the remaining items are not
// started and settle with the context error.
func Run[T, R any](ctx context.Context, items []T, opts Options, task Task[T, R]) []Outcome[R] {
	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return outcomes
	}

	size := opts.Size
	if size <= 0 || size > len(items) {
		size = len(items)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	total := Count(len(items), size)

	for start, number := 0, 1; start < len(items); start, number = start+size, number+1 {
		end := min(start+size, len(items))

		if opts.OnBatch != nil {
			opts.OnBatch(number, total, end-start)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				outcomes[i] = settle(ctx, items[i], task)
				return nil
			})
		}
		_ = g.Wait()

		if end < len(items) && opts.Delay > 0 {
			if opts.OnDelay != nil {
				opts.OnDelay(opts.Delay)
			}
			if err := sleep(ctx, opts.Delay); err != nil {
				for i := end; i < len(items); i++ {
					outcomes[i].Err = err
				}
				return outcomes
			}
		}
	}

	return outcomes
}

func settle[T, R any](ctx context.Context, item T, task Task[T, R]) (out Outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[R]{Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()
	v, err := task(ctx, item)
	return Outcome[R]{Value: v, Err: err}
}

// Count returns how many batches n items need at the given size
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
