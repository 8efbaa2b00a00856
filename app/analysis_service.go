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
	"goeva/internal/extremes"
	"goeva/internal/fitting"
	"goeva/internal/log"
	"goeva/internal/resample"

	"golang.org/x/sync/errgroup"
)

// AnalysisService runs the extreme value pipeline: event extraction,
// distribution fitting and return-level estimation with optional
// bootstrap confidence bounds.
type AnalysisService struct{}

// NewAnalysisService creates an analysis service.
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

// AnalysisRequest defines one analysis run over an in-memory series.
type AnalysisRequest struct {
	AnalysisID core.AnalysisID      `json:"analysis_id,omitempty"`
	Series     core.TimeSeries      `json:"-"`
	Extraction eva.ExtractionConfig `json:"extraction"`
	// Fits lists the families to fit. Empty selects the conventional
	// default for the extraction method.
	Fits []eva.FitConfig `json:"fits,omitempty"`
	// Periods overrides the standard return-period grid.
	Periods []float64 `json:"periods,omitempty"`
}

// FamilyResult holds the fitted model and curve for one family.
type FamilyResult struct {
	Family eva.Family           `json:"family"`
	Model  eva.FittedModel      `json:"model"`
	Curve  eva.ReturnLevelCurve `json:"curve"`
}

// AnalysisResult contains the complete output of an analysis run.
type AnalysisResult struct {
	AnalysisID core.AnalysisID   `json:"analysis_id"`
	Extremes   eva.ExtremeSeries `json:"extremes"`
	Results    []FamilyResult    `json:"results"`
	RuntimeMs  int64             `json:"runtime_ms"`
}

// DefaultFits returns the conventional family choice for a method:
// GPD for peaks over threshold, GEV for block maxima, both with
// bootstrap confidence bounds.
func DefaultFits(method eva.Method) []eva.FitConfig {
	cfg := eva.DefaultBootstrapConfig()
	family := eva.FamilyGPD
	if method == eva.MethodBM {
		family = eva.FamilyGEV
	}
	return []eva.FitConfig{{Family: family, Bootstrap: &cfg}}
}

// Run executes extraction and all requested fits. Families are fitted
// concurrently; the first failure cancels the remaining fits.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	startTime := time.Now()

	analysisID := req.AnalysisID
	if analysisID == "" {
		analysisID = core.AnalysisID(core.NewID())
	}

	set, err := extremes.Extract(req.Series, req.Extraction)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	log.Infow("extremes extracted",
		"analysis_id", analysisID.String(),
		"method", set.Method.String(),
		"events", set.Len(),
		"blocks", set.NumberOfBlocks)

	fits := req.Fits
	if len(fits) == 0 {
		fits = DefaultFits(set.Method)
	}
	periods := req.Periods
	if len(periods) == 0 {
		periods = fitting.ReturnPeriodGrid()
	}

	results := make([]FamilyResult, len(fits))
	g, gctx := errgroup.WithContext(ctx)
	for i, fit := range fits {
		i, fit := i, fit
		g.Go(func() error {
			fitStart := time.Now()
			model, err := fitting.FitModel(set, fit.Family)
			if err != nil {
				return fmt.Errorf("fit %s: %w", fit.Family, err)
			}

			var curve eva.ReturnLevelCurve
			if fit.Bootstrap != nil {
				curve, err = resample.Bootstrap(gctx, model, periods, *fit.Bootstrap)
			} else {
				curve, err = fitting.ReturnLevels(model, periods)
			}
			if err != nil {
				return fmt.Errorf("return levels for %s: %w", fit.Family, err)
			}

			log.Infow("family fitted",
				"analysis_id", analysisID.String(),
				"family", fit.Family.String(),
				"params", model.Params,
				"curve_points", curve.Len(),
				"duration_ms", time.Since(fitStart).Milliseconds())
			results[i] = FamilyResult{Family: fit.Family, Model: model, Curve: curve}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AnalysisResult{
		AnalysisID: analysisID,
		Extremes:   set,
		Results:    results,
		RuntimeMs:  time.Since(startTime).Milliseconds(),
	}, nil
}

// FileAnalysisRequest defines an analysis run sourced from a data file.
type FileAnalysisRequest struct {
	Path   string         `json:"path"`
	Sheet  string         `json:"sheet,omitempty"` // XLSX only
	Column string         `json:"column"`
	Ingest ingest.Options `json:"ingest"`
	// Analysis carries everything but the series, which RunFile fills.
	Analysis AnalysisRequest `json:"analysis"`
	// OutputPath, when set, exports the return-level curves. The
	// extension selects the format (.csv or .xlsx).
	OutputPath string `json:"output_path,omitempty"`
}

// RunFile reads a data file, runs the analysis on the selected column
// and optionally exports the resulting curves.
func (s *AnalysisService) RunFile(ctx context.Context, req FileAnalysisRequest) (*AnalysisResult, error) {
	frame, err := ReadFrame(req.Path, req.Sheet, req.Ingest)
	if err != nil {
		return nil, err
	}

	series, dropped, err := frame.Series(req.Column)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", req.Column, err)
	}
	log.Infow("series prepared",
		"dataset_id", frame.ID.String(),
		"column", req.Column,
		"observations", series.Len(),
		"dropped", dropped,
		"fingerprint", series.Fingerprint().String())

	analysis := req.Analysis
	analysis.Series = series
	result, err := s.Run(ctx, analysis)
	if err != nil {
		return nil, err
	}

	if req.OutputPath != "" {
		if err := exportCurves(result, req.OutputPath); err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
		log.Infow("curves exported", "analysis_id", result.AnalysisID.String(), "path", req.OutputPath)
	}
	return result, nil
}

// ReadFrame loads a data file, dispatching on the extension the same
// way for every caller: .xlsx goes through the Excel reader, anything
// else through the delimited reader.
func ReadFrame(path, sheet string, opts ingest.Options) (*ingest.Frame, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ingest.ReadXLSX(path, sheet, opts)
	}
	return ingest.ReadDelimited(path, opts)
}

// exportCurves writes one table per fitted family. CSV output for
// multiple families writes one file per family with the family slug
// appended to the file name.
func exportCurves(result *AnalysisResult, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		tables := make([]*core.Table, len(result.Results))
		for i, r := range result.Results {
			t := r.Curve.Table()
			t.Name = familySlug(r.Family)
			tables[i] = t
		}
		return export.WriteXLSX(path, tables...)
	case ".csv":
		for _, r := range result.Results {
			out := path
			if len(result.Results) > 1 {
				ext := filepath.Ext(path)
				out = strings.TrimSuffix(path, ext) + "_" + familySlug(r.Family) + ext
			}
			if err := export.WriteCSV(r.Curve.Table(), out); err != nil {
				return err
			}
		}
		return nil
	default:
		return core.NewInvalidInputError("output", "use a .csv or .xlsx output path")
	}
}

func familySlug(f eva.Family) string {
	slug := strings.ToLower(f.String())
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "-", "_")
	return slug
}
