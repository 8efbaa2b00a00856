package ingest

import (
	"math"
	"time"

	"goeva/domain/core"

	"github.com/montanaflynn/stats"
)

// Frame holds the parsed contents of a data file: a shared chronological
// timestamp index plus one numeric column per value field. Missing and
// sentinel observations are stored as NaN.
type Frame struct {
	// ID identifies this ingested dataset in logs and reports.
	ID core.DatasetID `json:"id"`
	// Columns lists value column names in file order.
	Columns []string `json:"columns"`
	// Times is the timestamp index shared by all columns.
	Times []time.Time `json:"times"`
	// SkippedRows counts data rows dropped for unparseable dates.
	SkippedRows int `json:"skipped_rows"`

	data map[string][]float64
}

// NumRows returns the number of parsed data rows.
func (f *Frame) NumRows() int {
	return len(f.Times)
}

// Column returns the raw values of the named column, NaN for missing.
func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.data[name]
	if !ok {
		return nil, core.NewInvalidInputError("column", "no column named "+name)
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, nil
}

// Series converts the named column into a time series, dropping missing
// observations. The dropped count is returned alongside.
func (f *Frame) Series(name string) (core.TimeSeries, int, error) {
	col, ok := f.data[name]
	if !ok {
		return core.TimeSeries{}, 0, core.NewInvalidInputError("column", "no column named "+name)
	}
	return core.NewTimeSeries(f.Times, col)
}

// ColumnSummary describes one column for the ingest report.
type ColumnSummary struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
}

// Summaries computes descriptive statistics for every value column.
// Columns with no valid observations report NaN statistics.
func (f *Frame) Summaries() []ColumnSummary {
	summaries := make([]ColumnSummary, 0, len(f.Columns))
	for _, name := range f.Columns {
		summaries = append(summaries, f.summarize(name))
	}
	return summaries
}

func (f *Frame) summarize(name string) ColumnSummary {
	col := f.data[name]
	valid := make([]float64, 0, len(col))
	missing := 0
	for _, v := range col {
		if math.IsNaN(v) {
			missing++
			continue
		}
		valid = append(valid, v)
	}

	summary := ColumnSummary{
		Column:  name,
		Count:   len(valid),
		Missing: missing,
		Min:     math.NaN(),
		Max:     math.NaN(),
		Mean:    math.NaN(),
		Median:  math.NaN(),
	}
	if len(valid) == 0 {
		return summary
	}

	if min, err := stats.Min(valid); err == nil {
		summary.Min = min
	}
	if max, err := stats.Max(valid); err == nil {
		summary.Max = max
	}
	if mean, err := stats.Mean(valid); err == nil {
		summary.Mean = mean
	}
	if median, err := stats.Median(valid); err == nil {
		summary.Median = median
	}
	return summary
}
