package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TimeSeries is a chronologically ordered sequence of timestamped
// observations. Construct with NewTimeSeries; analysis stages treat it
// as immutable and return new values instead of modifying it.
type TimeSeries struct {
	Times  []time.Time `json:"times"`
	Values []float64   `json:"values"`
}

// NewTimeSeries builds a sorted series from paired timestamps and values.
// NaN observations are treated as missing and dropped; the dropped count
// is returned so callers can report it. Infinite values are rejected.
func NewTimeSeries(times []time.Time, values []float64) (TimeSeries, int, error) {
	if len(times) != len(values) {
		return TimeSeries{}, 0, NewInvalidInputError("series",
			fmt.Sprintf("length mismatch: %d timestamps, %d values", len(times), len(values)))
	}

	ts := make([]time.Time, 0, len(times))
	vs := make([]float64, 0, len(values))
	dropped := 0
	for i, v := range values {
		if math.IsNaN(v) {
			dropped++
			continue
		}
		if math.IsInf(v, 0) {
			return TimeSeries{}, 0, ErrNonFiniteValue
		}
		ts = append(ts, times[i])
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return TimeSeries{}, dropped, ErrEmptySeries
	}

	// Stable sort keeps input order for equal timestamps.
	idx := make([]int, len(ts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ts[idx[a]].Before(ts[idx[b]]) })

	outTimes := make([]time.Time, len(idx))
	outValues := make([]float64, len(idx))
	for i, j := range idx {
		outTimes[i] = ts[j]
		outValues[i] = vs[j]
	}
	return TimeSeries{Times: outTimes, Values: outValues}, dropped, nil
}

// Len returns the number of observations.
func (s TimeSeries) Len() int {
	return len(s.Values)
}

// First returns the earliest timestamp.
func (s TimeSeries) First() time.Time {
	return s.Times[0]
}

// Last returns the latest timestamp.
func (s TimeSeries) Last() time.Time {
	return s.Times[len(s.Times)-1]
}

// SpanDays returns the series span in fractional days.
func (s TimeSeries) SpanDays() float64 {
	return DaysBetween(s.First(), s.Last())
}

// Fingerprint returns a content hash of the series for audit trails.
func (s TimeSeries) Fingerprint() DataHash {
	return ComputeSeriesHash(s.Times, s.Values)
}
