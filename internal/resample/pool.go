// Package resample estimates confidence bands around fitted curves by
// refitting on simulated or resampled data, repeated until the requested
// number of simulations is accepted.
package resample

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"goeva/domain/core"
)

// simulatePool collects exactly k accepted simulation curves. Workers claim
// result slots through an atomic cursor and retry rejected draws against a
// shared attempt budget. The random source is derived from the seed and the
// slot index, not the worker, so the accepted set does not depend on how
// the scheduler spreads slots across workers.
func simulatePool(ctx context.Context, k, maxAttempts, workers int, seed uint64,
	newAttempt func(src rand.Source) func() ([]float64, bool)) ([][]float64, error) {

	results := make([][]float64, k)
	var next, attempts, accepted atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				slot := next.Add(1) - 1
				if slot >= int64(k) {
					return nil
				}
				attempt := newAttempt(rand.NewSource(seed + uint64(slot)))
				for {
					if err := ctx.Err(); err != nil {
						return err
					}
					if attempts.Add(1) > int64(maxAttempts) {
						return core.NewNonconvergenceError(int(accepted.Load()), k, maxAttempts)
					}
					curve, ok := attempt()
					if !ok {
						continue
					}
					results[slot] = curve
					accepted.Add(1)
					break
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// interval computes the normal-approximation band for one evaluation point
// across all accepted simulations. The standard deviation is the maximum
// likelihood (population) estimate; a NaN in any simulation propagates into
// the band for that point.
func interval(sims [][]float64, point int, z float64) (lower, upper float64) {
	n := float64(len(sims))
	var sum float64
	for _, s := range sims {
		sum += s[point]
	}
	mean := sum / n
	var ss float64
	for _, s := range sims {
		d := s[point] - mean
		ss += d * d
	}
	std := math.Sqrt(ss / n)
	return mean - z*std, mean + z*std
}
