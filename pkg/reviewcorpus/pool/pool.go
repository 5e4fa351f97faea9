// Package pool provides the two bounded fan-out shapes the pipeline uses:
// Map over the rows of one batch (results gathered in input order before
// the caller continues) and Each over whole files (every item runs to
// completion on its own; a failure never cancels its siblings).
package pool

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Size clamps a requested worker count to [1, NumCPU]. Zero or less means
// NumCPU.
func Size(workers int) int {
	n := runtime.NumCPU()
	if workers <= 0 || workers > n {
		return n
	}
	return workers
}

// Fraction returns a worker count equal to the given share of NumCPU,
// leaving headroom for the rest of the machine. Never less than one.
func Fraction(share float64) int {
	if share <= 0 || share > 1 {
		share = 1
	}
	n := int(math.Floor(float64(runtime.NumCPU()) * share))
	if n < 1 {
		n = 1
	}
	return n
}

// Map applies fn to every item using at most workers goroutines and
// returns the results in input order. Items are split into contiguous
// chunks so the per-item cost stays a plain function call.
func Map[In, Out any](ctx context.Context, workers int, items []In, fn func(In) Out) ([]Out, error) {
	out := make([]Out, len(items))
	if len(items) == 0 {
		return out, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	chunk := (len(items) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = fn(items[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Each runs fn for every item with at most workers in flight and returns
// one error slot per item. Items are independent units of work.
func Each[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) []error {
	errs := make([]error, len(items))
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
