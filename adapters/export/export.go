// Package export writes analysis result tables to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"goeva/domain/core"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes a table to path with a header row. Missing values
// are written as empty cells.
func WriteCSV(table *core.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(table.Columns); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for j, v := range row {
			record[j] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteLabeledCSV writes a labeled table to path. Column labels form
// the header row, prefixed by an empty cell over the row labels.
func WriteLabeledCSV(table *core.LabeledTable, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{""}, table.ColLabels...)
	if err := w.Write(header); err != nil {
		return err
	}
	record := make([]string, len(table.ColLabels)+1)
	for i, row := range table.Cells {
		record[0] = table.RowLabels[i]
		for j, v := range row {
			record[j+1] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteXLSX writes each table to its own worksheet in a single workbook.
func WriteXLSX(path string, tables ...*core.Table) error {
	if len(tables) == 0 {
		return core.NewInvalidInputError("tables", "nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range tables {
		sheet, err := ensureSheet(f, sheetName(table.Name, i), i)
		if err != nil {
			return err
		}
		for c, name := range table.Columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return err
			}
		}
		for r, row := range table.Rows {
			for c, v := range row {
				if math.IsNaN(v) {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}
	}
	return f.SaveAs(path)
}

// WriteLabeledXLSX writes each labeled table to its own worksheet.
func WriteLabeledXLSX(path string, tables ...*core.LabeledTable) error {
	if len(tables) == 0 {
		return core.NewInvalidInputError("tables", "nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range tables {
		sheet, err := ensureSheet(f, sheetName(table.Name, i), i)
		if err != nil {
			return err
		}
		for c, label := range table.ColLabels {
			cell, _ := excelize.CoordinatesToCellName(c+2, 1)
			if err := f.SetCellValue(sheet, cell, label); err != nil {
				return err
			}
		}
		for r, row := range table.Cells {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetCellValue(sheet, cell, table.RowLabels[r]); err != nil {
				return err
			}
			for c, v := range row {
				if math.IsNaN(v) {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+2, r+2)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}
	}
	return f.SaveAs(path)
}

// ensureSheet renames the default sheet for the first table and creates
// new sheets for the rest.
func ensureSheet(f *excelize.File, name string, i int) (string, error) {
	if i == 0 {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return "", err
		}
		return name, nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return "", err
	}
	return name, nil
}

// sheetName sanitizes a table name into a legal worksheet name.
func sheetName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("Sheet%d", i+1)
	}
	// Worksheet names are capped at 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
