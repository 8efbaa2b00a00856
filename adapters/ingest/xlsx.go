package ingest

import (
	"fmt"

	"goeva/internal/log"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads a worksheet into a Frame with the same parsing rules
// as ReadDelimited. An empty sheet name selects "Sheet1".
func ReadXLSX(path, sheet string, opts Options) (*Frame, error) {
	opts = opts.Normalize()
	if sheet == "" {
		sheet = "Sheet1"
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	frame, err := buildFrame(rows, opts)
	if err != nil {
		return nil, err
	}
	if frame.SkippedRows > 0 {
		log.Warnw("skipped rows with unparseable dates",
			"path", path,
			"skipped_rows", frame.SkippedRows)
	}
	log.Infow("ingested Excel file",
		"dataset_id", frame.ID.String(),
		"path", path,
		"sheet", sheet,
		"columns", len(frame.Columns),
		"rows", frame.NumRows())
	return frame, nil
}
