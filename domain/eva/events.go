package eva

import (
	"time"
)

// ExtremeEvent is one extracted extreme observation together with its
// empirical plotting position.
type ExtremeEvent struct {
	Time         time.Time `json:"time"`
	Value        float64   `json:"value"`
	Probability  float64   `json:"probability"`   // Weibull non-exceedance probability
	ReturnPeriod float64   `json:"return_period"` // in block-size units
}

// ExtremeSeries is the immutable result of one extraction pass. Events
// are ordered chronologically; each extraction call produces a fresh
// value rather than updating a previous one.
type ExtremeSeries struct {
	Events         []ExtremeEvent `json:"events"`
	Method         Method         `json:"method"`
	Threshold      float64        `json:"threshold"` // 0 under BM
	Declustered    bool           `json:"declustered"`
	DeclusterRun   time.Duration  `json:"decluster_run,omitempty"`
	BlockSize      float64        `json:"block_size_days"`
	NumberOfBlocks float64        `json:"number_of_blocks"`
}

// Len returns the number of extracted events.
func (s ExtremeSeries) Len() int {
	return len(s.Events)
}

// Values returns the event magnitudes in chronological order.
func (s ExtremeSeries) Values() []float64 {
	out := make([]float64, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Value
	}
	return out
}

// Exceedances returns event magnitudes shifted by the extraction
// threshold, the fit input for threshold-based families.
func (s ExtremeSeries) Exceedances() []float64 {
	out := make([]float64, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Value - s.Threshold
	}
	return out
}

// Rate returns the exceedance rate, events per block.
func (s ExtremeSeries) Rate() float64 {
	return float64(len(s.Events)) / s.NumberOfBlocks
}
