package extremes

import (
	"sort"

	"goeva/domain/eva"
)

// assignPlottingPositions ranks events ascending by value (stable, so
// equal values keep chronological order), assigns the Weibull
// non-exceedance probability F_i = i/n and empirical return period
// T_i = (blocks+1) / (n * (1-F_i)), then returns the events in their
// original chronological order. The largest value gets F = (n-1)/n, so
// T is finite and maximal.
func assignPlottingPositions(events []eva.ExtremeEvent, blocks float64) []eva.ExtremeEvent {
	n := len(events)
	if n == 0 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return events[idx[a]].Value < events[idx[b]].Value
	})

	out := make([]eva.ExtremeEvent, n)
	copy(out, events)
	for rank, j := range idx {
		f := float64(rank) / float64(n)
		out[j].Probability = f
		out[j].ReturnPeriod = (blocks + 1) / (float64(n) * (1 - f))
	}
	return out
}
