// Package limiter provides the bounded-concurrency primitives the pipeline
// schedules all of its network work through.
package limiter

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrency is the hard ceiling on per-request fan-out.
const MaxConcurrency = 15

// DefaultConcurrency is used when a request carries no concurrency hint.
const DefaultConcurrency = 5

// Resolve picks the effective concurrency for a request: header value first,
// then query parameter, then def, clamped to [1, MaxConcurrency].
func Resolve(header, query string, def int) int {
	n := def
	if v, err := strconv.Atoi(header); err == nil {
		n = v
	} else if v, err := strconv.Atoi(query); err == nil {
		n = v
	}
	if n < 1 {
		n = 1
	}
	if n > MaxConcurrency {
		n = MaxConcurrency
	}
	return n
}

// MapLimit runs fn over all items with at most n running concurrently.
// Output order matches input order regardless of completion order. The
// first error cancels remaining work and is returned.
func MapLimit[T, R any](ctx context.Context, items []T, n int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if n < 1 {
		n = 1
	}
	out := make([]R, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i, item := range items {
		g.Go(func() error {
			v, err := fn(gCtx, item)
			if err != nil {
				return eris.Wrapf(err, "limiter: item %d", i)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FirstSuccessful races the candidate tasks with at most n in flight and
// returns the first successful value. Once a winner settles the race
// context is canceled, so losers are abandoned rather than awaited.
// Raced tasks must therefore be side-effect-free reads. An error is
// returned only when every task fails.
func FirstSuccessful[R any](ctx context.Context, n int, tasks []func(context.Context) (R, error)) (R, error) {
	var zero R
	if len(tasks) == 0 {
		return zero, eris.New("limiter: no candidate tasks")
	}
	if n < 1 {
		n = 1
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		won    bool
		winner R
		errs   []error
	)

	g, _ := errgroup.WithContext(raceCtx)
	g.SetLimit(n)
	for _, task := range tasks {
		g.Go(func() error {
			mu.Lock()
			settled := won
			mu.Unlock()
			if settled || raceCtx.Err() != nil {
				return nil
			}

			val, err := task(raceCtx)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			if !won {
				won = true
				winner = val
			}
			mu.Unlock()
			cancel()
			return nil
		})
	}
	_ = g.Wait()

	if won {
		return winner, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, eris.Wrap(err, "limiter: race canceled")
	}
	return zero, eris.Wrapf(errors.Join(errs...), "limiter: all %d candidates failed", len(tasks))
}
