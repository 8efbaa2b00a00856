package app

import (
	"context"
	"encoding/csv"
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

// stormSeries builds an hourly series with a calm baseline and isolated
// storm peaks every ten days, drawn from a seeded GPD above base.
func stormSeries(t *testing.T, years int, base float64, seed uint64) (core.TimeSeries, int) {
	t.Helper()
	src := rand.NewSource(seed)
	gpd := dist.GenPareto{Mu: 0, Sigma: 1.5, Xi: 0.1, Src: src}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	hours := years * 365 * 24
	times := make([]time.Time, hours)
	values := make([]float64, hours)
	storms := 0
	for i := 0; i < hours; i++ {
		times[i] = start.Add(time.Duration(i) * time.Hour)
		values[i] = 1.0
		if i%240 == 0 {
			values[i] = base + 0.001 + gpd.Rand()
			storms++
		}
	}

	series, _, err := core.NewTimeSeries(times, values)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}
	return series, storms
}

func TestAnalysisServiceRunPOT(t *testing.T) {
	series, storms := stormSeries(t, 3, 5.0, 7)
	svc := NewAnalysisService()

	bootstrap := eva.BootstrapConfig{
		Simulations: 25,
		Confidence:  0.95,
		Truncate:    true,
		Workers:     2,
		Seed:        11,
	}
	result, err := svc.Run(context.Background(), AnalysisRequest{
		Series:     series,
		Extraction: eva.POTConfig(5.0, 24*time.Hour),
		Fits:       []eva.FitConfig{{Family: eva.FamilyGPD, Bootstrap: &bootstrap}},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.AnalysisID == "" {
		t.Error("Expected a generated analysis ID")
	}
	if result.Extremes.Len() != storms {
		t.Errorf("Expected %d extracted events, got %d", storms, result.Extremes.Len())
	}
	if len(result.Results) != 1 {
		t.Fatalf("Expected 1 family result, got %d", len(result.Results))
	}

	fr := result.Results[0]
	if fr.Family != eva.FamilyGPD {
		t.Errorf("Expected GPD result, got %s", fr.Family)
	}
	if fr.Model.NumEvents != storms {
		t.Errorf("Expected model over %d events, got %d", storms, fr.Model.NumEvents)
	}

	curve := fr.Curve
	if !curve.HasConfidence() {
		t.Fatal("Expected confidence bounds on the curve")
	}
	for i := range curve.Periods {
		if curve.Lower[i] > curve.Levels[i] || curve.Levels[i] > curve.Upper[i] {
			t.Errorf("Expected bounds to bracket the point estimate at T=%v", curve.Periods[i])
		}
		if i > 0 && curve.Levels[i] < curve.Levels[i-1] {
			t.Errorf("Expected non-decreasing levels, got %v < %v at %d",
				curve.Levels[i], curve.Levels[i-1], i)
		}
	}
}

func TestAnalysisServiceMultipleFamilies(t *testing.T) {
	series, _ := stormSeries(t, 30, 5.0, 13)
	svc := NewAnalysisService()

	result, err := svc.Run(context.Background(), AnalysisRequest{
		Series:     series,
		Extraction: eva.BMConfig(),
		Fits: []eva.FitConfig{
			{Family: eva.FamilyGEV},
			{Family: eva.FamilyGumbel},
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("Expected 2 family results, got %d", len(result.Results))
	}
	if result.Results[0].Family != eva.FamilyGEV || result.Results[1].Family != eva.FamilyGumbel {
		t.Errorf("Expected results in request order, got %s, %s",
			result.Results[0].Family, result.Results[1].Family)
	}
	for _, fr := range result.Results {
		if fr.Model.Threshold != 0 {
			t.Errorf("Expected zero threshold under block maxima, got %v", fr.Model.Threshold)
		}
		if fr.Curve.HasConfidence() {
			t.Error("Expected point estimates without bounds")
		}
		if fr.Curve.Len() == 0 {
			t.Error("Expected a non-empty curve")
		}
	}
}

func TestAnalysisServiceRejectsIncompatibleFit(t *testing.T) {
	series, _ := stormSeries(t, 3, 5.0, 17)
	svc := NewAnalysisService()

	_, err := svc.Run(context.Background(), AnalysisRequest{
		Series:     series,
		Extraction: eva.POTConfig(5.0, 24*time.Hour),
		Fits:       []eva.FitConfig{{Family: eva.FamilyGEV}},
	})
	if !core.IsUnsupported(err) {
		t.Errorf("Expected unsupported configuration error, got %v", err)
	}
}

func TestDefaultFits(t *testing.T) {
	pot := DefaultFits(eva.MethodPOT)
	if len(pot) != 1 || pot[0].Family != eva.FamilyGPD || pot[0].Bootstrap == nil {
		t.Errorf("Expected default POT fit to be GPD with bootstrap, got %+v", pot)
	}
	bm := DefaultFits(eva.MethodBM)
	if len(bm) != 1 || bm[0].Family != eva.FamilyGEV {
		t.Errorf("Expected default BM fit to be GEV, got %+v", bm)
	}
}

func TestRunFileEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "waves.csv")
	outPath := filepath.Join(dir, "curve.csv")

	var sb strings.Builder
	sb.WriteString("Date,HrMn,Hs\n")
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	storms := 0
	for i := 0; i < 2*365*4; i++ {
		ts := start.Add(time.Duration(i*6) * time.Hour)
		value := 1.0
		if i%40 == 0 {
			value = 6.0 + float64((i/40)%5)*0.8
			storms++
		}
		fmt.Fprintf(&sb, "%s,%s,%.3f\n", ts.Format("20060102"), ts.Format("1504"), value)
	}
	if err := os.WriteFile(dataPath, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}

	svc := NewAnalysisService()
	result, err := svc.RunFile(context.Background(), FileAnalysisRequest{
		Path:   dataPath,
		Column: "Hs",
		Analysis: AnalysisRequest{
			Extraction: eva.POTConfig(5.0, 24*time.Hour),
			Fits:       []eva.FitConfig{{Family: eva.FamilyGPD}},
		},
		OutputPath: outPath,
	})
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if result.Extremes.Len() != storms {
		t.Errorf("Expected %d events, got %d", storms, result.Extremes.Len())
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("Expected exported curve file: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read exported curve: %v", err)
	}
	if len(records) < 10 {
		t.Fatalf("Expected a populated curve export, got %d records", len(records))
	}
	if records[0][0] != "return_period" || records[0][1] != "return_value" {
		t.Errorf("Unexpected export header: %v", records[0])
	}
}

func TestRunFileUnknownColumn(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "waves.csv")
	contents := "Date,HrMn,Hs\n20100101,0000,1.0\n20100101,0100,2.0\n"
	if err := os.WriteFile(dataPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}

	svc := NewAnalysisService()
	_, err := svc.RunFile(context.Background(), FileAnalysisRequest{
		Path:   dataPath,
		Column: "Tp",
		Analysis: AnalysisRequest{
			Extraction: eva.POTConfig(0.5, time.Hour),
		},
	})
	if !core.IsInvalidInput(err) {
		t.Errorf("Expected invalid input error for unknown column, got %v", err)
	}
}

func TestFamilySlug(t *testing.T) {
	tests := []struct {
		family eva.Family
		want   string
	}{
		{eva.FamilyGPD, "gpd"},
		{eva.FamilyLogNormal, "log_normal"},
		{eva.FamilyPearson3, "pearson_3"},
	}
	for _, tt := range tests {
		if got := familySlug(tt.family); got != tt.want {
			t.Errorf("familySlug(%s): expected %q, got %q", tt.family, tt.want, got)
		}
	}
}
