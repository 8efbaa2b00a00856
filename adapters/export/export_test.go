package export

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"goeva/domain/core"

	"github.com/xuri/excelize/v2"
)

func sampleTable(t *testing.T) *core.Table {
	t.Helper()
	table := core.NewTable("return_levels", "return_period", "return_value")
	if err := table.AddRow(10, 4.5); err != nil {
		t.Fatalf("AddRow failed: %v", err)
	}
	if err := table.AddRow(100, math.NaN()); err != nil {
		t.Fatalf("AddRow failed: %v", err)
	}
	return table
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.csv")
	if err := WriteCSV(sampleTable(t), path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "return_period" || records[0][1] != "return_value" {
		t.Errorf("Unexpected header row: %v", records[0])
	}
	if records[1][0] != "10" || records[1][1] != "4.5" {
		t.Errorf("Unexpected first data row: %v", records[1])
	}
	if records[2][1] != "" {
		t.Errorf("Expected NaN written as empty cell, got %q", records[2][1])
	}
}

func TestWriteLabeledCSV(t *testing.T) {
	table := core.NewLabeledTable("joint_probability",
		[]string{"[0.0 ; 4.0)", "[4.0 ; inf)"},
		[]string{"(-inf ; 0.5)", "[0.5 ; inf)"})
	table.Cells[0][0] = 2
	table.Cells[1][1] = 3

	path := filepath.Join(t.TempDir(), "joint.csv")
	if err := WriteLabeledCSV(table, path); err != nil {
		t.Fatalf("WriteLabeledCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	if records[0][0] != "" || records[0][1] != "(-inf ; 0.5)" {
		t.Errorf("Unexpected header row: %v", records[0])
	}
	if records[1][0] != "[0.0 ; 4.0)" || records[1][1] != "2" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
	if records[2][2] != "3" {
		t.Errorf("Expected cell (1,1) = 3, got %q", records[2][2])
	}
}

func TestWriteXLSXSheetPerTable(t *testing.T) {
	first := sampleTable(t)
	second := core.NewTable("mean_residual_life", "threshold", "mean_excess")
	if err := second.AddRow(1.0, 0.7); err != nil {
		t.Fatalf("AddRow failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "results.xlsx")
	if err := WriteXLSX(path, first, second); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "return_levels" || sheets[1] != "mean_residual_life" {
		t.Fatalf("Expected one sheet per table, got %v", sheets)
	}

	rows, err := f.GetRows("return_levels")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("Expected at least 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "return_period" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][0] != "10" || rows[1][1] != "4.5" {
		t.Errorf("Unexpected data row: %v", rows[1])
	}

	// The NaN cell in row 3 stays empty.
	value, err := f.GetCellValue("return_levels", "B3")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty cell for NaN, got %q", value)
	}
}

func TestWriteLabeledXLSX(t *testing.T) {
	table := core.NewLabeledTable("joint_probability",
		[]string{"row a", "row b"},
		[]string{"col a", "col b"})
	table.Cells[0][1] = 0.25

	path := filepath.Join(t.TempDir(), "joint.xlsx")
	if err := WriteLabeledXLSX(path, table); err != nil {
		t.Fatalf("WriteLabeledXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue("joint_probability", "B1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if header != "col a" {
		t.Errorf("Expected col label in B1, got %q", header)
	}
	rowLabel, err := f.GetCellValue("joint_probability", "A2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if rowLabel != "row a" {
		t.Errorf("Expected row label in A2, got %q", rowLabel)
	}
	cell, err := f.GetCellValue("joint_probability", "C2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if cell != "0.25" {
		t.Errorf("Expected 0.25 in C2, got %q", cell)
	}
}

func TestWriteXLSXRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteXLSX(path); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}
