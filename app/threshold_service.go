package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"goeva/adapters/export"
	"goeva/adapters/ingest"
	"goeva/domain/core"
	"goeva/domain/eva"
	"goeva/internal/log"
	"goeva/internal/threshold"

	"gonum.org/v1/gonum/floats"
)

// DefaultThresholdGridSize is the number of candidate thresholds used
// when the caller does not supply a grid.
const DefaultThresholdGridSize = 100

// ThresholdService runs threshold selection diagnostics for peaks over
// threshold analyses.
type ThresholdService struct{}

// NewThresholdService creates a threshold diagnostics service.
func NewThresholdService() *ThresholdService {
	return &ThresholdService{}
}

// ThresholdRequest defines one diagnostics run over a data file.
type ThresholdRequest struct {
	Path   string         `json:"path"`
	Sheet  string         `json:"sheet,omitempty"`
	Column string         `json:"column"`
	Ingest ingest.Options `json:"ingest"`
	// Thresholds is the candidate grid. Empty builds an even grid
	// across the observed range.
	Thresholds []float64        `json:"thresholds,omitempty"`
	GridSize   int              `json:"grid_size,omitempty"`
	Config     threshold.Config `json:"config"`
	// Family, when set, adds the parameter stability table.
	Family     eva.Family `json:"family,omitempty"`
	OutputPath string     `json:"output_path,omitempty"`
}

// ThresholdReport contains the diagnostics for one column.
type ThresholdReport struct {
	AnalysisID       core.AnalysisID      `json:"analysis_id"`
	MeanResidualLife *core.Table          `json:"mean_residual_life"`
	Estimates        []threshold.Estimate `json:"estimates"`
	Stability        *core.Table          `json:"stability,omitempty"`
	RuntimeMs        int64                `json:"runtime_ms"`
}

// Run computes the mean residual life table, the empirical threshold
// estimates and, when a family is requested, the parameter stability
// table.
func (s *ThresholdService) Run(ctx context.Context, req ThresholdRequest) (*ThresholdReport, error) {
	startTime := time.Now()

	analysisID := core.AnalysisID(core.NewID())
	frame, err := ReadFrame(req.Path, req.Sheet, req.Ingest)
	if err != nil {
		return nil, err
	}
	series, _, err := frame.Series(req.Column)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", req.Column, err)
	}

	grid := req.Thresholds
	if len(grid) == 0 {
		size := req.GridSize
		if size <= 0 {
			size = DefaultThresholdGridSize
		}
		grid = thresholdGrid(series.Values, size)
	}

	mrl, err := threshold.MeanResidualLife(series, grid, req.Config)
	if err != nil {
		return nil, fmt.Errorf("mean residual life: %w", err)
	}
	estimates, err := threshold.EmpiricalThresholds(series, req.Config)
	if err != nil {
		return nil, fmt.Errorf("empirical thresholds: %w", err)
	}

	report := &ThresholdReport{
		AnalysisID:       analysisID,
		MeanResidualLife: &mrl,
		Estimates:        estimates,
	}
	if req.Family != "" {
		stability, err := threshold.ParameterStability(series, req.Family, grid, req.Config)
		if err != nil {
			return nil, fmt.Errorf("parameter stability: %w", err)
		}
		report.Stability = &stability
	}

	if req.OutputPath != "" {
		if err := exportThresholdReport(report, req.OutputPath); err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
	}

	report.RuntimeMs = time.Since(startTime).Milliseconds()
	log.Infow("threshold diagnostics complete",
		"analysis_id", analysisID.String(),
		"column", req.Column,
		"grid_points", len(grid),
		"estimates", len(estimates),
		"duration_ms", report.RuntimeMs)
	return report, nil
}

// thresholdGrid builds size evenly spaced candidates from the observed
// minimum up to but excluding the maximum, so the top candidate always
// keeps at least one exceedance.
func thresholdGrid(values []float64, size int) []float64 {
	lo := floats.Min(values)
	hi := floats.Max(values)
	grid := make([]float64, size)
	step := (hi - lo) / float64(size)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}

func exportThresholdReport(report *ThresholdReport, path string) error {
	tables := []*core.Table{report.MeanResidualLife}
	if report.Stability != nil {
		tables = append(tables, report.Stability)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.WriteXLSX(path, tables...)
	case ".csv":
		for i, table := range tables {
			out := path
			if i > 0 {
				ext := filepath.Ext(path)
				out = strings.TrimSuffix(path, ext) + "_" + table.Name + ext
			}
			if err := export.WriteCSV(table, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return core.NewInvalidInputError("output", "use a .csv or .xlsx output path")
	}
}
