package core

import "fmt"

// Table is a plain numeric result table. Diagnostics and fitting stages
// produce tables; rendering and export live in adapters.
type Table struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// NewTable creates an empty table with the given column names.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AddRow appends a row, enforcing column arity.
func (t *Table) AddRow(values ...float64) error {
	if len(values) != len(t.Columns) {
		return NewInvalidInputError("table row",
			fmt.Sprintf("expected %d values, got %d", len(t.Columns), len(values)))
	}
	row := make([]float64, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// LabeledTable is a table with string row and column labels, used for
// binned joint frequency tables.
type LabeledTable struct {
	Name      string      `json:"name"`
	RowLabels []string    `json:"row_labels"`
	ColLabels []string    `json:"col_labels"`
	Cells     [][]float64 `json:"cells"`
}

// NewLabeledTable creates a labeled table with zeroed cells.
func NewLabeledTable(name string, rowLabels, colLabels []string) *LabeledTable {
	cells := make([][]float64, len(rowLabels))
	for i := range cells {
		cells[i] = make([]float64, len(colLabels))
	}
	return &LabeledTable{Name: name, RowLabels: rowLabels, ColLabels: colLabels, Cells: cells}
}
