package ingest

// Default column names for composite date fields, matching the NOAA
// delimited-file convention this reader was built around.
const (
	DefaultDateColumn = "Date"
	DefaultTimeColumn = "HrMn"
)

// DefaultSentinels are the numeric codes treated as missing data.
func DefaultSentinels() []float64 {
	return []float64{999, 999.9, 999.999}
}

// Options controls how raw files are parsed into a Frame.
type Options struct {
	// Delimiter separates fields in text files. Defaults to ",".
	Delimiter string `json:"delimiter"`
	// VoidRows is the number of leading rows to discard before the
	// header row.
	VoidRows int `json:"void_rows"`
	// DateColumn names the yyyymmdd column. Defaults to "Date".
	DateColumn string `json:"date_column"`
	// TimeColumn names the hhmm column. Defaults to "HrMn".
	TimeColumn string `json:"time_column"`
	// Sentinels are numeric codes converted to missing values.
	// Defaults to 999, 999.9 and 999.999.
	Sentinels []float64 `json:"sentinels"`
}

// Normalize fills zero-valued fields with defaults.
func (o Options) Normalize() Options {
	if o.Delimiter == "" {
		o.Delimiter = ","
	}
	if o.DateColumn == "" {
		o.DateColumn = DefaultDateColumn
	}
	if o.TimeColumn == "" {
		o.TimeColumn = DefaultTimeColumn
	}
	if o.Sentinels == nil {
		o.Sentinels = DefaultSentinels()
	}
	return o
}
