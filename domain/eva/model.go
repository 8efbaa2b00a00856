package eva

import (
	"goeva/domain/core"
)

// FittedModel is an immutable fitted distribution plus the extraction
// context needed to translate quantiles into return levels.
type FittedModel struct {
	Family         Family    `json:"family"`
	Method         Method    `json:"method"`
	Params         []float64 `json:"params"` // layout per Family.ParamNames
	Threshold      float64   `json:"threshold"`
	Rate           float64   `json:"rate"` // events per block
	NumEvents      int       `json:"num_events"`
	NumberOfBlocks float64   `json:"number_of_blocks"`
}

// ReturnLevelCurve maps return periods (block-size units) to estimated
// return levels, optionally bracketed by confidence bounds.
type ReturnLevelCurve struct {
	Periods    []float64 `json:"periods"`
	Levels     []float64 `json:"levels"`
	Lower      []float64 `json:"lower,omitempty"`
	Upper      []float64 `json:"upper,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// Len returns the number of grid points.
func (c ReturnLevelCurve) Len() int {
	return len(c.Periods)
}

// HasConfidence reports whether confidence bounds are attached.
func (c ReturnLevelCurve) HasConfidence() bool {
	return len(c.Lower) == len(c.Periods) && len(c.Upper) == len(c.Periods) && c.Len() > 0
}

// Table renders the curve as a plain numeric table for export.
func (c ReturnLevelCurve) Table() *core.Table {
	if c.HasConfidence() {
		t := core.NewTable("return_levels", "return_period", "return_value", "lower", "upper")
		for i := range c.Periods {
			t.AddRow(c.Periods[i], c.Levels[i], c.Lower[i], c.Upper[i])
		}
		return t
	}
	t := core.NewTable("return_levels", "return_period", "return_value")
	for i := range c.Periods {
		t.AddRow(c.Periods[i], c.Levels[i])
	}
	return t
}
