package resample

import (
	"context"
	"math"
	"testing"

	"goeva/domain/core"
)

func linearData(n int) (x, y []float64) {
	x = make([]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = 2 + 3*float64(i) + 0.5*math.Sin(float64(i))
	}
	return x, y
}

func affine(x float64, params []float64) float64 {
	return params[0] + params[1]*x
}

func TestCurveFitSubsample(t *testing.T) {
	x, y := linearData(20)
	xNew := []float64{0, 5, 10, 25}
	cfg := CurveFitConfig{
		ConfidencePercent: 95,
		Simulations:       40,
		Strategy:          StrategySubsample,
		Seed:              7,
		Workers:           2,
	}

	band, err := CurveFit(context.Background(), affine,
		[]float64{-10, -10}, []float64{10, 10}, x, y, xNew, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(band.Params[0]-2) > 0.3 || math.Abs(band.Params[1]-3) > 0.1 {
		t.Errorf("Fitted params too far from (2, 3): %v", band.Params)
	}
	if len(band.Fit) != len(xNew) || len(band.Lower) != len(xNew) || len(band.Upper) != len(xNew) {
		t.Fatalf("Band arrays should align with the evaluation grid")
	}
	for j := range xNew {
		if !(band.Lower[j] <= band.Fit[j] && band.Fit[j] <= band.Upper[j]) {
			t.Errorf("x=%v: expected %v <= %v <= %v", xNew[j], band.Lower[j], band.Fit[j], band.Upper[j])
		}
	}
}

func TestCurveFitKDE(t *testing.T) {
	x, y := linearData(20)
	xNew := []float64{2, 8, 15}
	cfg := CurveFitConfig{
		Simulations: 40,
		Strategy:    StrategyKDE,
		Seed:        11,
		Workers:     2,
	}

	band, err := CurveFit(context.Background(), affine,
		[]float64{-10, -10}, []float64{10, 10}, x, y, xNew, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(band.Params[1]-3) > 0.2 {
		t.Errorf("Fitted slope too far from 3: %v", band.Params[1])
	}
	for j := range xNew {
		if !(band.Lower[j] <= band.Fit[j] && band.Fit[j] <= band.Upper[j]) {
			t.Errorf("x=%v: expected %v <= %v <= %v", xNew[j], band.Lower[j], band.Fit[j], band.Upper[j])
		}
		if band.Upper[j] <= band.Lower[j] {
			t.Errorf("x=%v: kernel resampling should produce a band with width", xNew[j])
		}
	}
}

func TestCurveFitReproducibleWithSeed(t *testing.T) {
	x, y := linearData(15)
	xNew := []float64{1, 7}
	cfg := CurveFitConfig{Simulations: 20, Strategy: StrategyKDE, Seed: 5, Workers: 3}

	first, err := CurveFit(context.Background(), affine,
		[]float64{-10, -10}, []float64{10, 10}, x, y, xNew, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := CurveFit(context.Background(), affine,
		[]float64{-10, -10}, []float64{10, 10}, x, y, xNew, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for j := range xNew {
		if first.Lower[j] != second.Lower[j] || first.Upper[j] != second.Upper[j] {
			t.Errorf("x=%v: bands differ between identical runs", xNew[j])
		}
	}
}

func TestCurveFitValidation(t *testing.T) {
	ctx := context.Background()
	x, y := linearData(10)
	xNew := []float64{1}
	lo, up := []float64{-10, -10}, []float64{10, 10}
	cfg := CurveFitConfig{Simulations: 5, Seed: 1}

	if _, err := CurveFit(ctx, affine, []float64{-10}, up, x, y, xNew, cfg); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for mismatched bounds, got %v", err)
	}
	if _, err := CurveFit(ctx, affine, []float64{10, -10}, []float64{-10, 10}, x, y, xNew, cfg); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for inverted bounds, got %v", err)
	}
	if _, err := CurveFit(ctx, affine, lo, up, x, y[:5], xNew, cfg); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for mismatched data, got %v", err)
	}
	if _, err := CurveFit(ctx, affine, lo, up, x, y, nil, cfg); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for empty grid, got %v", err)
	}

	bad := cfg
	bad.Strategy = Strategy("jackknife")
	if _, err := CurveFit(ctx, affine, lo, up, x, y, xNew, bad); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for unknown strategy, got %v", err)
	}

	bad = cfg
	bad.ConfidencePercent = 120
	if _, err := CurveFit(ctx, affine, lo, up, x, y, xNew, bad); !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input for confidence over 100, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"kde", StrategyKDE, false},
		{"KDE", StrategyKDE, false},
		{"subsample", StrategySubsample, false},
		{"montecarlo", StrategySubsample, false},
		{" Montecarlo ", StrategySubsample, false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStrategy(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStrategy(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestStartPoint(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		lo, hi, want float64
	}{
		{0, 10, 5},
		{-4, 4, 0},
		{math.Inf(-1), inf, 1},
		{2, inf, 3},
		{math.Inf(-1), 2, 1},
	}
	for _, tt := range tests {
		if got := startPoint(tt.lo, tt.hi); got != tt.want {
			t.Errorf("startPoint(%v, %v): expected %v, got %v", tt.lo, tt.hi, tt.want, got)
		}
	}
}
