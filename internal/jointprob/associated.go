package jointprob

import (
	"math"

	"goeva/domain/core"
	"goeva/internal/resample"
)

// AssociatedValue estimates the second variable statistically associated
// with a given level of the first. It collects all pairs whose first value
// lies within searchRange of the level (inclusive), fits a kernel density
// to their second values, and reads off the quantile at the requested
// non-exceedance confidence. A confidence of 0.5 yields the conditional
// median.
func AssociatedValue(v1, v2 []float64, value, searchRange, confidence float64) (float64, error) {
	if len(v1) != len(v2) {
		return 0, core.NewInvalidInputError("series", "must have equal length")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, core.NewInvalidInputError("value", "must be finite")
	}
	if searchRange < 0 || math.IsNaN(searchRange) || math.IsInf(searchRange, 0) {
		return 0, core.NewInvalidInputError("search_range", "must be non-negative and finite")
	}
	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return 0, core.NewInvalidInputError("confidence", "must be strictly between 0 and 1")
	}

	var selected []float64
	for i := range v1 {
		if math.IsNaN(v1[i]) || math.IsNaN(v2[i]) {
			continue
		}
		if v1[i] >= value-searchRange && v1[i] <= value+searchRange {
			selected = append(selected, v2[i])
		}
	}
	if len(selected) == 0 {
		return 0, core.NewInvalidInputError("search_range", "no pairs within range of the value")
	}

	kde, err := resample.NewKDE1D(selected)
	if err != nil {
		return 0, err
	}
	return kde.Quantile(confidence), nil
}
