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
	"goeva/internal/jointprob"
	"goeva/internal/log"
)

// JointService builds joint probability tables and associated value
// estimates for variable pairs.
type JointService struct{}

// NewJointService creates a joint probability service.
func NewJointService() *JointService {
	return &JointService{}
}

// JointRequest defines one joint probability run over a data file.
type JointRequest struct {
	Path       string                `json:"path"`
	Sheet      string                `json:"sheet,omitempty"`
	Column1    string                `json:"column1"`
	Column2    string                `json:"column2"`
	Ingest     ingest.Options        `json:"ingest"`
	Joint      jointprob.JointConfig `json:"joint"`
	OutputPath string                `json:"output_path,omitempty"`
}

// JointReport contains the binned joint frequency table.
type JointReport struct {
	AnalysisID core.AnalysisID    `json:"analysis_id"`
	Table      *core.LabeledTable `json:"table"`
	RuntimeMs  int64              `json:"runtime_ms"`
}

// Run bins the two columns into a joint frequency table and optionally
// exports it.
func (s *JointService) Run(ctx context.Context, req JointRequest) (*JointReport, error) {
	startTime := time.Now()

	analysisID := core.AnalysisID(core.NewID())
	v1, v2, err := readPair(req.Path, req.Sheet, req.Column1, req.Column2, req.Ingest)
	if err != nil {
		return nil, err
	}

	table, err := jointprob.JointProbability(v1, v2, req.Joint)
	if err != nil {
		return nil, fmt.Errorf("joint probability: %w", err)
	}

	if req.OutputPath != "" {
		if err := exportLabeled(&table, req.OutputPath); err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
	}

	report := &JointReport{
		AnalysisID: analysisID,
		Table:      &table,
		RuntimeMs:  time.Since(startTime).Milliseconds(),
	}
	log.Infow("joint probability complete",
		"analysis_id", analysisID.String(),
		"columns", req.Column1+"/"+req.Column2,
		"rows", len(table.RowLabels),
		"cols", len(table.ColLabels),
		"duration_ms", report.RuntimeMs)
	return report, nil
}

// AssociatedRequest defines an associated value query: the most likely
// value of the second column when the first sits near a design value.
type AssociatedRequest struct {
	Path        string         `json:"path"`
	Sheet       string         `json:"sheet,omitempty"`
	Column1     string         `json:"column1"`
	Column2     string         `json:"column2"`
	Ingest      ingest.Options `json:"ingest"`
	Value       float64        `json:"value"`
	SearchRange float64        `json:"search_range"`
	Confidence  float64        `json:"confidence"`
}

// Associated estimates the associated value for the request.
func (s *JointService) Associated(ctx context.Context, req AssociatedRequest) (float64, error) {
	v1, v2, err := readPair(req.Path, req.Sheet, req.Column1, req.Column2, req.Ingest)
	if err != nil {
		return 0, err
	}
	confidence := req.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	return jointprob.AssociatedValue(v1, v2, req.Value, req.SearchRange, confidence)
}

// readPair loads two raw columns from a data file, keeping missing
// values as NaN so downstream pair filtering sees aligned rows.
func readPair(path, sheet, column1, column2 string, opts ingest.Options) ([]float64, []float64, error) {
	frame, err := ReadFrame(path, sheet, opts)
	if err != nil {
		return nil, nil, err
	}
	v1, err := frame.Column(column1)
	if err != nil {
		return nil, nil, fmt.Errorf("column %s: %w", column1, err)
	}
	v2, err := frame.Column(column2)
	if err != nil {
		return nil, nil, fmt.Errorf("column %s: %w", column2, err)
	}
	return v1, v2, nil
}

func exportLabeled(table *core.LabeledTable, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.WriteLabeledXLSX(path, table)
	case ".csv":
		return export.WriteLabeledCSV(table, path)
	default:
		return core.NewInvalidInputError("output", "use a .csv or .xlsx output path")
	}
}
