// Package ingest reads delimited text and XLSX files into numeric
// frames indexed by composite yyyymmdd + hhmm date columns.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"goeva/domain/core"
	"goeva/internal/log"
)

// ReadDelimited reads a delimiter-separated text file into a Frame.
// A whitespace delimiter (" ") splits on runs of blanks.
func ReadDelimited(path string, opts Options) (*Frame, error) {
	opts = opts.Normalize()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	var records [][]string
	if strings.TrimSpace(opts.Delimiter) == "" {
		records, err = readWhitespaceRecords(file)
	} else {
		reader := csv.NewReader(file)
		reader.Comma = []rune(opts.Delimiter)[0]
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		reader.TrimLeadingSpace = true
		records, err = reader.ReadAll()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	frame, err := buildFrame(records, opts)
	if err != nil {
		return nil, err
	}
	if frame.SkippedRows > 0 {
		log.Warnw("skipped rows with unparseable dates",
			"path", path,
			"skipped_rows", frame.SkippedRows)
	}
	log.Infow("ingested delimited file",
		"dataset_id", frame.ID.String(),
		"path", path,
		"columns", len(frame.Columns),
		"rows", frame.NumRows())
	return frame, nil
}

func readWhitespaceRecords(file *os.File) ([][]string, error) {
	var records [][]string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		records = append(records, fields)
	}
	return records, scanner.Err()
}

// buildFrame converts raw string records into a Frame. The first
// opts.VoidRows records are discarded, the next record is the header,
// and the rest are data rows.
func buildFrame(records [][]string, opts Options) (*Frame, error) {
	if len(records) < opts.VoidRows+2 {
		return nil, fmt.Errorf("file must have at least a header row and one data row")
	}
	records = records[opts.VoidRows:]

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	// Trailing delimiters produce empty header cells.
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	dateIdx, timeIdx := -1, -1
	for i, h := range headers {
		switch h {
		case opts.DateColumn:
			dateIdx = i
		case opts.TimeColumn:
			timeIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, core.NewInvalidInputError("date_column", "no column named "+opts.DateColumn)
	}
	if timeIdx < 0 {
		return nil, core.NewInvalidInputError("time_column", "no column named "+opts.TimeColumn)
	}

	var valueCols []string
	for i, h := range headers {
		if i == dateIdx || i == timeIdx || h == "" {
			continue
		}
		valueCols = append(valueCols, h)
	}
	if len(valueCols) == 0 {
		return nil, core.NewInvalidInputError("columns", "no value columns besides the date fields")
	}

	frame := &Frame{
		ID:      core.DatasetID(core.NewID()),
		Columns: valueCols,
		data:    make(map[string][]float64, len(valueCols)),
	}
	for _, name := range valueCols {
		frame.data[name] = make([]float64, 0, len(records)-1)
	}

	for _, row := range records[1:] {
		ts, ok := parseRowTime(row, dateIdx, timeIdx)
		if !ok {
			frame.SkippedRows++
			continue
		}
		frame.Times = append(frame.Times, ts)
		for i, h := range headers {
			if i == dateIdx || i == timeIdx || h == "" {
				continue
			}
			value := math.NaN()
			if i < len(row) {
				value = parseValue(row[i], opts.Sentinels)
			}
			frame.data[h] = append(frame.data[h], value)
		}
	}

	frame.sortByTime()
	return frame, nil
}

// parseRowTime assembles a timestamp from the composite date fields.
// The date column holds yyyymmdd and the time column holds hhmm, both
// as integers (possibly float-formatted).
func parseRowTime(row []string, dateIdx, timeIdx int) (time.Time, bool) {
	if dateIdx >= len(row) || timeIdx >= len(row) {
		return time.Time{}, false
	}
	dv, err := strconv.ParseFloat(strings.TrimSpace(row[dateIdx]), 64)
	if err != nil {
		return time.Time{}, false
	}
	tv, err := strconv.ParseFloat(strings.TrimSpace(row[timeIdx]), 64)
	if err != nil {
		return time.Time{}, false
	}

	d := int(dv)
	year, month, day := d/10000, (d/100)%100, d%100
	t := int(tv)
	hour, minute := t/100, t%100

	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2).
	if ts.Year() != year || ts.Month() != time.Month(month) || ts.Day() != day {
		return time.Time{}, false
	}
	return ts, true
}

// parseValue coerces a raw field to a float64, mapping blanks,
// unparseable text and sentinel codes to NaN.
func parseValue(field string, sentinels []float64) float64 {
	s := strings.ReplaceAll(field, " ", "")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	for _, sentinel := range sentinels {
		if v == sentinel {
			return math.NaN()
		}
	}
	return v
}

// sortByTime reorders all rows chronologically, keeping input order for
// equal timestamps.
func (f *Frame) sortByTime() {
	idx := make([]int, len(f.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return f.Times[idx[a]].Before(f.Times[idx[b]]) })

	times := make([]time.Time, len(idx))
	for i, j := range idx {
		times[i] = f.Times[j]
	}
	f.Times = times

	for name, col := range f.data {
		ordered := make([]float64, len(idx))
		for i, j := range idx {
			ordered[i] = col[j]
		}
		f.data[name] = ordered
	}
}
