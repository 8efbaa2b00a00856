package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"goeva/domain/core"
	"goeva/domain/eva"
	"goeva/internal/dist"

	"golang.org/x/exp/rand"
)

// writeTailFile writes a CSV of hourly GPD-distributed observations.
func writeTailFile(t *testing.T, n int, seed uint64) string {
	t.Helper()
	truth := dist.GenPareto{Mu: 0, Sigma: 1.5, Xi: 0.2, Src: rand.NewSource(seed)}

	var sb strings.Builder
	sb.WriteString("Date,HrMn,Hs\n")
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		fmt.Fprintf(&sb, "%s,%s,%.6f\n", ts.Format("20060102"), ts.Format("1504"), truth.Rand())
	}

	path := filepath.Join(t.TempDir(), "tail.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}
	return path
}

func TestThresholdServiceRun(t *testing.T) {
	path := writeTailFile(t, 800, 21)
	svc := NewThresholdService()

	report, err := svc.Run(context.Background(), ThresholdRequest{
		Path:       path,
		Column:     "Hs",
		Thresholds: []float64{0, 0.5, 1.0},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.AnalysisID == "" {
		t.Error("Expected a generated analysis ID")
	}
	if report.MeanResidualLife.NumRows() != 3 {
		t.Errorf("Expected 3 mean residual life rows, got %d", report.MeanResidualLife.NumRows())
	}
	if len(report.Estimates) != 3 {
		t.Fatalf("Expected 3 empirical estimates, got %d", len(report.Estimates))
	}
	for _, est := range report.Estimates {
		if est.Exceedances <= 0 {
			t.Errorf("Expected positive exceedance count for %s, got %d", est.Rule, est.Exceedances)
		}
	}
	if report.Stability != nil {
		t.Error("Expected no stability table without a family")
	}
}

func TestThresholdServiceAutoGridAndStability(t *testing.T) {
	path := writeTailFile(t, 800, 23)
	svc := NewThresholdService()

	report, err := svc.Run(context.Background(), ThresholdRequest{
		Path:     path,
		Column:   "Hs",
		GridSize: 20,
		Family:   eva.FamilyGPD,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.MeanResidualLife.NumRows() != 20 {
		t.Errorf("Expected 20 grid rows, got %d", report.MeanResidualLife.NumRows())
	}
	if report.Stability == nil {
		t.Fatal("Expected a parameter stability table")
	}
	if report.Stability.NumRows() != 20 {
		t.Errorf("Expected 20 stability rows, got %d", report.Stability.NumRows())
	}
}

func TestThresholdServiceExportsCSV(t *testing.T) {
	path := writeTailFile(t, 400, 29)
	outPath := filepath.Join(t.TempDir(), "diag.csv")
	svc := NewThresholdService()

	_, err := svc.Run(context.Background(), ThresholdRequest{
		Path:       path,
		Column:     "Hs",
		Thresholds: []float64{0, 0.5},
		Family:     eva.FamilyGPD,
		OutputPath: outPath,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("Expected mean residual life export: %v", err)
	}
	stabilityPath := strings.TrimSuffix(outPath, ".csv") + "_parameter_stability.csv"
	if _, err := os.Stat(stabilityPath); err != nil {
		t.Errorf("Expected stability export: %v", err)
	}
}

func TestThresholdServiceUnknownColumn(t *testing.T) {
	path := writeTailFile(t, 50, 31)
	svc := NewThresholdService()

	_, err := svc.Run(context.Background(), ThresholdRequest{
		Path:   path,
		Column: "Missing",
	})
	if !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}

func TestThresholdGrid(t *testing.T) {
	grid := thresholdGrid([]float64{2, 4, 10}, 4)
	want := []float64{2, 4, 6, 8}
	if len(grid) != len(want) {
		t.Fatalf("Expected %d candidates, got %d", len(want), len(grid))
	}
	for i, v := range want {
		if grid[i] != v {
			t.Errorf("Expected grid[%d] = %v, got %v", i, v, grid[i])
		}
	}
}
