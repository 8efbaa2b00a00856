// Package jointprob builds joint probability tables for two simultaneous
// measurement series and derives statistically associated values from them.
package jointprob

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"goeva/domain/core"
)

// Format selects the cell contents of a joint probability table.
type Format string

const (
	// FormatRelative reports each cell as a fraction of all pairs.
	FormatRelative Format = "rel"
	// FormatAbsolute reports raw pair counts.
	FormatAbsolute Format = "abs"
)

// JointConfig controls the binning of a joint probability table.
type JointConfig struct {
	BinSize1 float64 `json:"binsize_1"` // first variable, default 0.3
	BinSize2 float64 `json:"binsize_2"` // second variable, default 4
	Format   Format  `json:"format"`    // default relative
}

// Normalize validates the configuration and fills defaults.
func (c JointConfig) Normalize() (JointConfig, error) {
	if c.BinSize1 == 0 {
		c.BinSize1 = 0.3
	}
	if c.BinSize2 == 0 {
		c.BinSize2 = 4
	}
	if c.BinSize1 < 0 || math.IsNaN(c.BinSize1) || math.IsInf(c.BinSize1, 0) {
		return c, core.NewInvalidInputError("binsize_1", "must be a positive finite number")
	}
	if c.BinSize2 < 0 || math.IsNaN(c.BinSize2) || math.IsInf(c.BinSize2, 0) {
		return c, core.NewInvalidInputError("binsize_2", "must be a positive finite number")
	}
	switch c.Format {
	case "":
		c.Format = FormatRelative
	case FormatRelative, FormatAbsolute:
	default:
		return c, core.NewInvalidInputError("format", "must be rel or abs")
	}
	return c, nil
}

// JointProbability bins two paired series into a two-dimensional frequency
// table. Rows bin the second variable, columns the first. Pairs with a NaN
// on either side are dropped. Negative values are handled by shifting each
// axis up by a whole number of bins, so the printed bin edges still reflect
// the original scale; the outermost bins are open-ended.
func JointProbability(v1, v2 []float64, cfg JointConfig) (core.LabeledTable, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return core.LabeledTable{}, err
	}
	if len(v1) != len(v2) {
		return core.LabeledTable{}, core.NewInvalidInputError("series", "must have equal length")
	}

	a1 := make([]float64, 0, len(v1))
	a2 := make([]float64, 0, len(v2))
	for i := range v1 {
		if math.IsInf(v1[i], 0) || math.IsInf(v2[i], 0) {
			return core.LabeledTable{}, core.ErrNonFiniteValue
		}
		if math.IsNaN(v1[i]) || math.IsNaN(v2[i]) {
			continue
		}
		a1 = append(a1, v1[i])
		a2 = append(a2, v2[i])
	}
	if len(a1) == 0 {
		return core.LabeledTable{}, core.ErrEmptySeries
	}

	shift1 := shiftFor(floats.Min(a1), cfg.BinSize1)
	shift2 := shiftFor(floats.Min(a2), cfg.BinSize2)
	for i := range a1 {
		a1[i] += shift1
		a2[i] += shift2
	}

	bins1 := binCount(floats.Max(a1), cfg.BinSize1)
	bins2 := binCount(floats.Max(a2), cfg.BinSize2)
	table := core.NewLabeledTable("joint_probability",
		binLabels(bins2, cfg.BinSize2, shift2),
		binLabels(bins1, cfg.BinSize1, shift1))

	total := float64(len(a1))
	for i := range a1 {
		row := binIndex(a2[i], cfg.BinSize2, bins2)
		col := binIndex(a1[i], cfg.BinSize1, bins1)
		table.Cells[row][col]++
	}
	if cfg.Format == FormatRelative {
		for i := range table.Cells {
			for j := range table.Cells[i] {
				table.Cells[i][j] /= total
			}
		}
	}
	return *table, nil
}

// shiftFor lifts a negative minimum above zero by a whole number of bins.
func shiftFor(min, binsize float64) float64 {
	if min >= 0 {
		return 0
	}
	return (math.Floor(min/-binsize) + 1) * binsize
}

// binCount returns the index of the last, open-ended bin.
func binCount(max, binsize float64) int {
	bins := int(math.Ceil(max/binsize)) - 1
	if bins < 0 {
		bins = 0
	}
	return bins
}

// binIndex maps a shifted value onto its bin, clamping into the open-ended
// outer bins.
func binIndex(v, binsize float64, bins int) int {
	idx := int(math.Floor(v / binsize))
	if idx < 0 {
		idx = 0
	}
	if idx > bins {
		idx = bins
	}
	return idx
}

// binLabels prints the bin edges on the original, unshifted scale.
func binLabels(bins int, binsize, shift float64) []string {
	if bins == 0 {
		return []string{"(-inf ; inf)"}
	}
	labels := make([]string, 0, bins+1)
	labels = append(labels, fmt.Sprintf("(-inf ; %.1f)", binsize-shift))
	for i := 1; i < bins; i++ {
		low := float64(i) * binsize
		labels = append(labels, fmt.Sprintf("[%.1f ; %.1f)", low-shift, low+binsize-shift))
	}
	labels = append(labels, fmt.Sprintf("[%.1f ; inf)", float64(bins)*binsize-shift))
	return labels
}
