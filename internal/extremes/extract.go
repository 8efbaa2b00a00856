package extremes

import (
	"time"

	"goeva/domain/core"
	"goeva/domain/eva"
)

// Extract runs one extraction pass over a time series and returns a
// fresh ExtremeSeries with Weibull plotting positions assigned. The
// block count is always derived from the raw series span, not from the
// extracted events.
func Extract(ts core.TimeSeries, cfg eva.ExtractionConfig) (eva.ExtremeSeries, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return eva.ExtremeSeries{}, err
	}
	if ts.Len() == 0 {
		return eva.ExtremeSeries{}, core.ErrEmptySeries
	}

	blocks := ts.SpanDays() / cfg.BlockSize

	var events []eva.ExtremeEvent
	series := eva.ExtremeSeries{
		Method:         cfg.Method,
		BlockSize:      cfg.BlockSize,
		NumberOfBlocks: blocks,
	}

	switch cfg.Method {
	case eva.MethodPOT:
		series.Threshold = *cfg.Threshold
		series.Declustered = *cfg.Decluster
		if series.Declustered {
			series.DeclusterRun = *cfg.Run
		}
		events, err = extractPOT(ts, *cfg.Threshold, *cfg.Decluster, *cfg.Run)
		if err != nil {
			return eva.ExtremeSeries{}, err
		}
	case eva.MethodBM:
		events = extractAnnualMaxima(ts)
	}

	series.Events = assignPlottingPositions(events, blocks)
	return series, nil
}

// extractPOT selects samples strictly above the threshold, optionally
// merging dependent events via the run-declustering scan.
func extractPOT(ts core.TimeSeries, u float64, decluster bool, run time.Duration) ([]eva.ExtremeEvent, error) {
	var times []time.Time
	var values []float64
	for i, v := range ts.Values {
		if v > u {
			times = append(times, ts.Times[i])
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, core.ErrNoExceedances
	}
	if decluster {
		times, values = declusterRun(times, values, run)
	}
	events := make([]eva.ExtremeEvent, len(values))
	for i := range values {
		events[i] = eva.ExtremeEvent{Time: times[i], Value: values[i]}
	}
	return events, nil
}

// declusterRun merges exceedances closer than run to the last retained
// peak. The gap is measured against the retained representative, whose
// timestamp moves when a larger value joins the cluster; ties keep the
// earlier occurrence.
func declusterRun(times []time.Time, values []float64, run time.Duration) ([]time.Time, []float64) {
	outTimes := []time.Time{times[0]}
	outValues := []float64{values[0]}
	for i := 1; i < len(times); i++ {
		last := len(outTimes) - 1
		if times[i].Sub(outTimes[last]) >= run {
			outTimes = append(outTimes, times[i])
			outValues = append(outValues, values[i])
		} else if values[i] > outValues[last] {
			outTimes[last] = times[i]
			outValues[last] = values[i]
		}
	}
	return outTimes, outValues
}

// extractAnnualMaxima takes the maximum of each calendar year present
// in the data. Repeated occurrences of a year's maximum count once,
// keeping the earliest timestamp.
func extractAnnualMaxima(ts core.TimeSeries) []eva.ExtremeEvent {
	var events []eva.ExtremeEvent
	n := ts.Len()
	for i := 0; i < n; {
		year := ts.Times[i].Year()
		maxTime, maxValue := ts.Times[i], ts.Values[i]
		j := i + 1
		for ; j < n && ts.Times[j].Year() == year; j++ {
			if ts.Values[j] > maxValue {
				maxTime, maxValue = ts.Times[j], ts.Values[j]
			}
		}
		events = append(events, eva.ExtremeEvent{Time: maxTime, Value: maxValue})
		i = j
	}
	return events
}

// ExceedanceValues returns the peak values strictly above u, declustered
// on request. Unlike Extract it tolerates an empty result, which keeps
// threshold diagnostics loops free of error plumbing.
func ExceedanceValues(ts core.TimeSeries, u float64, decluster bool, run time.Duration) []float64 {
	var times []time.Time
	var values []float64
	for i, v := range ts.Values {
		if v > u {
			times = append(times, ts.Times[i])
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}
	if decluster {
		_, values = declusterRun(times, values, run)
	}
	return values
}

// CountExceedances returns the POT event count at threshold u without
// building a full event set, for threshold search loops.
func CountExceedances(ts core.TimeSeries, u float64, decluster bool, run time.Duration) int {
	if !decluster {
		count := 0
		for _, v := range ts.Values {
			if v > u {
				count++
			}
		}
		return count
	}
	count := 0
	var lastTime time.Time
	var lastValue float64
	for i, v := range ts.Values {
		if v <= u {
			continue
		}
		if count == 0 || ts.Times[i].Sub(lastTime) >= run {
			count++
			lastTime, lastValue = ts.Times[i], v
		} else if v > lastValue {
			lastTime, lastValue = ts.Times[i], v
		}
	}
	return count
}
