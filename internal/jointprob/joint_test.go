package jointprob

import (
	"math"
	"testing"

	"goeva/domain/core"
)

func TestJointProbabilityKnownGrid(t *testing.T) {
	v1 := []float64{0.1, 0.4, 0.7, 1.1}
	v2 := []float64{1, 5, 9, 13}

	table, err := JointProbability(v1, v2, JointConfig{BinSize1: 0.5, BinSize2: 4, Format: FormatAbsolute})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantCols := []string{"(-inf ; 0.5)", "[0.5 ; 1.0)", "[1.0 ; inf)"}
	wantRows := []string{"(-inf ; 4.0)", "[4.0 ; 8.0)", "[8.0 ; 12.0)", "[12.0 ; inf)"}
	if len(table.ColLabels) != len(wantCols) {
		t.Fatalf("Expected %d columns, got %d", len(wantCols), len(table.ColLabels))
	}
	for i, want := range wantCols {
		if table.ColLabels[i] != want {
			t.Errorf("Column %d: expected %q, got %q", i, want, table.ColLabels[i])
		}
	}
	for i, want := range wantRows {
		if table.RowLabels[i] != want {
			t.Errorf("Row %d: expected %q, got %q", i, want, table.RowLabels[i])
		}
	}

	wantCells := map[[2]int]float64{
		{0, 0}: 1, // (0.1, 1)
		{1, 0}: 1, // (0.4, 5)
		{2, 1}: 1, // (0.7, 9)
		{3, 2}: 1, // (1.1, 13)
	}
	var total float64
	for i := range table.Cells {
		for j := range table.Cells[i] {
			total += table.Cells[i][j]
			if want := wantCells[[2]int{i, j}]; table.Cells[i][j] != want {
				t.Errorf("Cell (%d,%d): expected %v, got %v", i, j, want, table.Cells[i][j])
			}
		}
	}
	if total != 4 {
		t.Errorf("Expected 4 counted pairs, got %v", total)
	}
}

func TestJointProbabilityRelativeSumsToOne(t *testing.T) {
	v1 := []float64{0.2, 0.9, 1.4, 2.2, 0.6, 1.8}
	v2 := []float64{3, 7, 11, 2, 9, 5}

	table, err := JointProbability(v1, v2, JointConfig{BinSize1: 0.5, BinSize2: 4})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var total float64
	for i := range table.Cells {
		for j := range table.Cells[i] {
			total += table.Cells[i][j]
		}
	}
	if math.Abs(total-1) > 1e-12 {
		t.Errorf("Relative cells should sum to 1, got %v", total)
	}
}

func TestJointProbabilityNegativeValues(t *testing.T) {
	v1 := []float64{-2.5, -1.0, 0.5}
	v2 := []float64{1, 1, 1}

	table, err := JointProbability(v1, v2, JointConfig{BinSize1: 1, BinSize2: 4, Format: FormatAbsolute})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantCols := []string{"(-inf ; -2.0)", "[-2.0 ; -1.0)", "[-1.0 ; 0.0)", "[0.0 ; inf)"}
	for i, want := range wantCols {
		if table.ColLabels[i] != want {
			t.Errorf("Column %d: expected %q, got %q", i, want, table.ColLabels[i])
		}
	}
	// -2.5 sits below -2, -1.0 in [-1, 0), 0.5 in the open top bin.
	if table.Cells[0][0] != 1 || table.Cells[0][2] != 1 || table.Cells[0][3] != 1 {
		t.Errorf("Counts landed in the wrong bins: %v", table.Cells[0])
	}
}

func TestJointProbabilityDropsNaNPairs(t *testing.T) {
	v1 := []float64{0.1, math.NaN(), 0.3}
	v2 := []float64{1, 2, math.NaN()}

	table, err := JointProbability(v1, v2, JointConfig{BinSize1: 0.5, BinSize2: 4, Format: FormatAbsolute})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var total float64
	for i := range table.Cells {
		for j := range table.Cells[i] {
			total += table.Cells[i][j]
		}
	}
	if total != 1 {
		t.Errorf("Expected a single surviving pair, got %v", total)
	}
}

func TestJointProbabilityValidation(t *testing.T) {
	if _, err := JointProbability([]float64{1, 2}, []float64{1}, JointConfig{}); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for mismatched lengths, got %v", err)
	}
	if _, err := JointProbability([]float64{math.Inf(1)}, []float64{1}, JointConfig{}); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for infinite value, got %v", err)
	}
	nan := math.NaN()
	if _, err := JointProbability([]float64{nan}, []float64{nan}, JointConfig{}); !core.IsInvalidInput(err) {
		t.Errorf("Expected empty series error, got %v", err)
	}
	if _, err := JointProbability([]float64{1}, []float64{1}, JointConfig{Format: "percent"}); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for unknown format, got %v", err)
	}
}

func TestAssociatedValueMedian(t *testing.T) {
	v1 := []float64{1.0, 4.6, 4.8, 5.0, 5.2, 5.4, 9.0}
	v2 := []float64{50, 9.2, 9.6, 10.0, 10.4, 10.8, 70}

	got, err := AssociatedValue(v1, v2, 5.0, 0.5, 0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// The in-range second values are symmetric around 10.
	if math.Abs(got-10) > 1e-6 {
		t.Errorf("Expected conditional median 10, got %v", got)
	}

	higher, err := AssociatedValue(v1, v2, 5.0, 0.5, 0.75)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if higher <= got {
		t.Errorf("Higher confidence should raise the associated value: %v vs %v", higher, got)
	}
}

func TestAssociatedValueValidation(t *testing.T) {
	v1 := []float64{1, 2, 3}
	v2 := []float64{4, 5, 6}

	if _, err := AssociatedValue(v1, v2, 50, 0.5, 0.5); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input when nothing is in range, got %v", err)
	}
	if _, err := AssociatedValue(v1, v2, 2, 1, 1.5); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for confidence outside (0,1), got %v", err)
	}
	if _, err := AssociatedValue(v1, v2[:2], 2, 1, 0.5); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for mismatched lengths, got %v", err)
	}

	constant := []float64{7, 7, 7}
	if _, err := AssociatedValue(v1, constant, 2, 5, 0.5); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for zero spread, got %v", err)
	}
}
