package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goeva/adapters/export"
	"goeva/adapters/ingest"
	"goeva/app"
	"goeva/domain/core"
	"goeva/domain/eva"
	"goeva/internal/config"
	"goeva/internal/extremes"
	"goeva/internal/jointprob"
	"goeva/internal/log"
	"goeva/internal/threshold"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env falls back to the system environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var debug bool
	rootCmd := &cobra.Command{
		Use:   "goeva",
		Short: "Extreme value analysis for time series of environmental loads",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(debug)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newExtractCmd(cfg),
		newFitCmd(cfg),
		newThresholdsCmd(cfg),
		newJointCmd(cfg),
	)

	err = rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ingestFlags groups the file parsing options shared by all commands.
type ingestFlags struct {
	sheet      string
	delimiter  string
	dateColumn string
	timeColumn string
	voidRows   int
}

func (f *ingestFlags) register(cmd *cobra.Command, cfg config.IngestConfig) {
	cmd.Flags().StringVar(&f.sheet, "sheet", cfg.Sheet, "Worksheet name for .xlsx input (default Sheet1)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", cfg.Delimiter, "Field delimiter for text input")
	cmd.Flags().StringVar(&f.dateColumn, "date-column", cfg.DateColumn, "Name of the yyyymmdd column")
	cmd.Flags().StringVar(&f.timeColumn, "time-column", cfg.TimeColumn, "Name of the hhmm column")
	cmd.Flags().IntVar(&f.voidRows, "void-rows", cfg.VoidRows, "Leading rows to discard before the header")
}

func (f *ingestFlags) options() ingest.Options {
	return ingest.Options{
		Delimiter:  f.delimiter,
		VoidRows:   f.voidRows,
		DateColumn: f.dateColumn,
		TimeColumn: f.timeColumn,
	}
}

// extractionFlags groups the event extraction options shared by the
// extract and fit commands.
type extractionFlags struct {
	method      string
	threshold   float64
	runHours    float64
	noDecluster bool
	blockDays   float64
}

func (f *extractionFlags) register(cmd *cobra.Command, cfg config.ExtractionConfig) {
	cmd.Flags().StringVar(&f.method, "method", "POT", "Extraction method: POT or BM")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "POT threshold (required for POT)")
	cmd.Flags().Float64Var(&f.runHours, "run-hours", cfg.RunHours, "Declustering run length in hours")
	cmd.Flags().BoolVar(&f.noDecluster, "no-decluster", false, "Keep every exceedance as a separate event")
	cmd.Flags().Float64Var(&f.blockDays, "block-days", cfg.BlockDays, "Block size in days")
}

func (f *extractionFlags) config(cmd *cobra.Command) (eva.ExtractionConfig, error) {
	method, err := eva.ParseMethod(f.method)
	if err != nil {
		return eva.ExtractionConfig{}, err
	}
	if method == eva.MethodBM {
		cfg := eva.BMConfig()
		cfg.BlockSize = f.blockDays
		return cfg, nil
	}

	if !cmd.Flags().Changed("threshold") {
		return eva.ExtractionConfig{}, core.NewInvalidInputError("threshold", "required for POT extraction")
	}
	run := time.Duration(f.runHours * float64(time.Hour))
	cfg := eva.POTConfig(f.threshold, run)
	cfg.BlockSize = f.blockDays
	if f.noDecluster {
		decluster := false
		cfg.Decluster = &decluster
	}
	return cfg, nil
}

func newExtractCmd(cfg *config.Config) *cobra.Command {
	var (
		inFlags  ingestFlags
		exFlags  extractionFlags
		column   string
		output   string
		maxPrint int
	)

	cmd := &cobra.Command{
		Use:   "extract [data-file]",
		Short: "Extract extreme events from a time series",
		Long: `Extract extreme events by peaks over threshold or block maxima and
report their Weibull plotting positions.

Example: goeva extract waves.csv --column Hs --threshold 5 --run-hours 24`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := exFlags.config(cmd)
			if err != nil {
				return err
			}
			return runExtract(args[0], column, inFlags.options(), inFlags.sheet, cfg, output, maxPrint)
		},
	}

	inFlags.register(cmd, cfg.Ingest)
	exFlags.register(cmd, cfg.Extraction)
	cmd.Flags().StringVar(&column, "column", "", "Value column to analyse")
	cmd.Flags().StringVar(&output, "output", "", "Export events to a .csv or .xlsx file")
	cmd.Flags().IntVar(&maxPrint, "max-print", 20, "Maximum events to list on stdout")
	cmd.MarkFlagRequired("column")

	return cmd
}

func runExtract(path, column string, opts ingest.Options, sheet string, cfg eva.ExtractionConfig, output string, maxPrint int) error {
	frame, err := app.ReadFrame(path, sheet, opts)
	if err != nil {
		return err
	}
	series, dropped, err := frame.Series(column)
	if err != nil {
		return fmt.Errorf("column %s: %w", column, err)
	}

	set, err := extremes.Extract(series, cfg)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	fmt.Printf("\n=== EXTREME EVENTS ===\n")
	fmt.Printf("Method: %s\n", set.Method)
	if set.Method == eva.MethodPOT {
		fmt.Printf("Threshold: %g\n", set.Threshold)
		fmt.Printf("Declustered: %t (run %s)\n", set.Declustered, set.DeclusterRun)
	}
	fmt.Printf("Observations: %d (%d missing dropped)\n", series.Len(), dropped)
	fmt.Printf("Events: %d over %.2f blocks (rate %.3f per block)\n",
		set.Len(), set.NumberOfBlocks, set.Rate())

	shown := set.Len()
	if maxPrint > 0 && shown > maxPrint {
		shown = maxPrint
	}
	fmt.Println()
	for i := 0; i < shown; i++ {
		e := set.Events[i]
		fmt.Printf("%4d. %s  value=%.4f  T=%.3f\n",
			i+1, e.Time.Format(time.RFC3339), e.Value, e.ReturnPeriod)
	}
	if shown < set.Len() {
		fmt.Printf("   ... and %d more\n", set.Len()-shown)
	}

	if output != "" {
		if err := exportEvents(set, output); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("\nEvents exported to %s\n", output)
	}
	return nil
}

// exportEvents writes the event list as a labeled table with one row
// per event, labeled by timestamp.
func exportEvents(set eva.ExtremeSeries, path string) error {
	labels := make([]string, set.Len())
	for i, e := range set.Events {
		labels[i] = e.Time.Format(time.RFC3339)
	}
	table := core.NewLabeledTable("extreme_events", labels,
		[]string{"value", "probability", "return_period"})
	for i, e := range set.Events {
		table.Cells[i][0] = e.Value
		table.Cells[i][1] = e.Probability
		table.Cells[i][2] = e.ReturnPeriod
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.WriteLabeledXLSX(path, table)
	case ".csv":
		return export.WriteLabeledCSV(table, path)
	default:
		return core.NewInvalidInputError("output", "use a .csv or .xlsx output path")
	}
}

func newFitCmd(cfg *config.Config) *cobra.Command {
	var (
		inFlags    ingestFlags
		exFlags    extractionFlags
		column     string
		family     string
		analysisID string
		confidence float64
		sims       int
		noTruncate bool
		point      bool
		seed       uint64
		workers    int
		periods    []float64
		output     string
	)

	cmd := &cobra.Command{
		Use:   "fit [data-file]",
		Short: "Fit a distribution and estimate return levels",
		Long: `Fit an extreme value distribution to extracted events and build the
return-level curve, with parametric bootstrap confidence bounds unless
--point is given.

Example: goeva fit waves.csv --column Hs --threshold 5 --family GPD --sims 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := exFlags.config(cmd)
			if err != nil {
				return err
			}
			return runFit(cmd, args[0], column, inFlags, cfg, family, analysisID,
				confidence, sims, noTruncate, point, seed, workers, periods, output)
		},
	}

	inFlags.register(cmd, cfg.Ingest)
	exFlags.register(cmd, cfg.Extraction)
	cmd.Flags().StringVar(&column, "column", "", "Value column to analyse")
	cmd.Flags().StringVar(&family, "family", "", "Distribution family (default GPD for POT, GEV for BM)")
	cmd.Flags().StringVar(&analysisID, "analysis-id", "", "Reuse an analysis identifier instead of generating one")
	cmd.Flags().Float64Var(&confidence, "confidence", cfg.Bootstrap.Confidence, "Confidence level for bootstrap bounds")
	cmd.Flags().IntVar(&sims, "sims", cfg.Bootstrap.Simulations, "Number of bootstrap simulations")
	cmd.Flags().BoolVar(&noTruncate, "no-truncate", false, "Disable rejection of divergent simulations")
	cmd.Flags().BoolVar(&point, "point", false, "Point estimates only, no bootstrap")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 draws one)")
	cmd.Flags().IntVar(&workers, "workers", cfg.Bootstrap.Workers, "Bootstrap worker count (0 uses all CPUs)")
	cmd.Flags().Float64SliceVar(&periods, "periods", nil, "Custom return periods")
	cmd.Flags().StringVar(&output, "output", "", "Export the curve to a .csv or .xlsx file")
	cmd.MarkFlagRequired("column")

	return cmd
}

func runFit(cmd *cobra.Command, path, column string, inFlags ingestFlags, cfg eva.ExtractionConfig,
	familyName, analysisID string, confidence float64, sims int, noTruncate, point bool,
	seed uint64, workers int, periods []float64, output string) error {

	var fam eva.Family
	if familyName == "" {
		fam = eva.FamilyGPD
		if cfg.Method == eva.MethodBM {
			fam = eva.FamilyGEV
		}
	} else {
		var err error
		fam, err = eva.ParseFamily(familyName)
		if err != nil {
			return err
		}
	}

	var id core.AnalysisID
	if analysisID != "" {
		var err error
		id, err = core.ParseAnalysisID(analysisID)
		if err != nil {
			return err
		}
	}

	fit := eva.FitConfig{Family: fam}
	if !point {
		fit.Bootstrap = &eva.BootstrapConfig{
			Simulations: sims,
			Confidence:  confidence,
			Truncate:    !noTruncate,
			Seed:        seed,
			Workers:     workers,
		}
	}

	svc := app.NewAnalysisService()
	result, err := svc.RunFile(cmd.Context(), app.FileAnalysisRequest{
		Path:   path,
		Sheet:  inFlags.sheet,
		Column: column,
		Ingest: inFlags.options(),
		Analysis: app.AnalysisRequest{
			AnalysisID: id,
			Extraction: cfg,
			Fits:       []eva.FitConfig{fit},
			Periods:    periods,
		},
		OutputPath: output,
	})
	if err != nil {
		return err
	}

	fr := result.Results[0]
	fmt.Printf("\n=== FITTED MODEL ===\n")
	fmt.Printf("Analysis ID: %s\n", result.AnalysisID)
	fmt.Printf("Family: %s on %s extremes\n", fr.Family, result.Extremes.Method)
	fmt.Printf("Events: %d over %.2f blocks\n", fr.Model.NumEvents, fr.Model.NumberOfBlocks)
	names := fr.Family.ParamNames()
	for i, p := range fr.Model.Params {
		fmt.Printf("  %-9s %12.6f\n", names[i]+":", p)
	}

	curve := fr.Curve
	fmt.Printf("\n=== RETURN LEVELS ===\n")
	if curve.HasConfidence() {
		fmt.Printf("%12s %12s %12s %12s  (%.0f%% confidence)\n",
			"period", "level", "lower", "upper", curve.Confidence*100)
		for i := range curve.Periods {
			fmt.Printf("%12.3f %12.4f %12.4f %12.4f\n",
				curve.Periods[i], curve.Levels[i], curve.Lower[i], curve.Upper[i])
		}
	} else {
		fmt.Printf("%12s %12s\n", "period", "level")
		for i := range curve.Periods {
			fmt.Printf("%12.3f %12.4f\n", curve.Periods[i], curve.Levels[i])
		}
	}

	if output != "" {
		fmt.Printf("\nCurve exported to %s\n", output)
	}
	fmt.Printf("Runtime: %d ms\n", result.RuntimeMs)
	return nil
}

func newThresholdsCmd(cfg *config.Config) *cobra.Command {
	var (
		inFlags    ingestFlags
		column     string
		thresholds []float64
		gridSize   int
		uStart     float64
		uStep      float64
		confidence float64
		decluster  bool
		runHours   float64
		stability  bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "thresholds [data-file]",
		Short: "Run threshold selection diagnostics",
		Long: `Compute the mean residual life table, empirical threshold estimates
and, with --stability, the GPD parameter stability table.

Example: goeva thresholds waves.csv --column Hs --grid-size 50 --stability`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := threshold.Config{
				Decluster:  decluster,
				Run:        time.Duration(runHours * float64(time.Hour)),
				Confidence: confidence,
				UStart:     uStart,
				UStep:      uStep,
			}
			req := app.ThresholdRequest{
				Path:       args[0],
				Sheet:      inFlags.sheet,
				Column:     column,
				Ingest:     inFlags.options(),
				Thresholds: thresholds,
				GridSize:   gridSize,
				Config:     cfg,
				OutputPath: output,
			}
			if stability {
				req.Family = eva.FamilyGPD
			}
			return runThresholds(cmd, req)
		},
	}

	inFlags.register(cmd, cfg.Ingest)
	cmd.Flags().StringVar(&column, "column", "", "Value column to analyse")
	cmd.Flags().Float64SliceVar(&thresholds, "thresholds", nil, "Explicit candidate thresholds")
	cmd.Flags().IntVar(&gridSize, "grid-size", app.DefaultThresholdGridSize, "Candidate grid size when no thresholds are given")
	cmd.Flags().Float64Var(&uStart, "u-start", 0, "Starting threshold for the empirical search")
	cmd.Flags().Float64Var(&uStep, "u-step", 0.1, "Step size for the empirical search")
	cmd.Flags().Float64Var(&confidence, "confidence", cfg.Bootstrap.Confidence, "Confidence level for mean residual life bands")
	cmd.Flags().BoolVar(&decluster, "decluster", false, "Decluster exceedances before counting")
	cmd.Flags().Float64Var(&runHours, "run-hours", cfg.Extraction.RunHours, "Declustering run length in hours")
	cmd.Flags().BoolVar(&stability, "stability", false, "Add the GPD parameter stability table")
	cmd.Flags().StringVar(&output, "output", "", "Export tables to a .csv or .xlsx file")
	cmd.MarkFlagRequired("column")

	return cmd
}

func runThresholds(cmd *cobra.Command, req app.ThresholdRequest) error {
	svc := app.NewThresholdService()
	report, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== EMPIRICAL THRESHOLD ESTIMATES ===\n")
	for _, est := range report.Estimates {
		fmt.Printf("%-18s u=%-10.4f exceedances=%d\n", est.Rule, est.Threshold, est.Exceedances)
	}

	fmt.Printf("\n=== MEAN RESIDUAL LIFE ===\n")
	fmt.Printf("%12s %12s %12s %12s %12s\n",
		"threshold", "mean_excess", "lower", "upper", "count")
	for _, row := range report.MeanResidualLife.Rows {
		fmt.Printf("%12.4f %12.4f %12.4f %12.4f %12.0f\n",
			row[0], row[1], row[2], row[3], row[4])
	}

	if report.Stability != nil {
		fmt.Printf("\n=== GPD PARAMETER STABILITY ===\n")
		fmt.Printf("%12s %12s %12s\n", "threshold", "shape", "scale")
		for _, row := range report.Stability.Rows {
			fmt.Printf("%12.4f %12.4f %12.4f\n", row[0], row[1], row[2])
		}
	}

	if req.OutputPath != "" {
		fmt.Printf("\nTables exported to %s\n", req.OutputPath)
	}
	return nil
}

func newJointCmd(cfg *config.Config) *cobra.Command {
	var (
		inFlags     ingestFlags
		column1     string
		column2     string
		binSize1    float64
		binSize2    float64
		absolute    bool
		value       float64
		searchRange float64
		confidence  float64
		output      string
	)

	cmd := &cobra.Command{
		Use:   "joint [data-file]",
		Short: "Build a joint probability table for two columns",
		Long: `Bin two simultaneous measurement columns into a joint frequency table.
With --search-range, also report the associated value of the second
column near --value.

Example: goeva joint waves.csv --column1 Hs --column2 Tp --binsize1 0.3 --binsize2 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoint(cmd, args[0], inFlags, column1, column2,
				binSize1, binSize2, absolute, value, searchRange, confidence, output)
		},
	}

	inFlags.register(cmd, cfg.Ingest)
	cmd.Flags().StringVar(&column1, "column1", "", "First value column")
	cmd.Flags().StringVar(&column2, "column2", "", "Second value column")
	cmd.Flags().Float64Var(&binSize1, "binsize1", 0.3, "Bin width for the first column")
	cmd.Flags().Float64Var(&binSize2, "binsize2", 4, "Bin width for the second column")
	cmd.Flags().BoolVar(&absolute, "absolute", false, "Report raw counts instead of fractions")
	cmd.Flags().Float64Var(&value, "value", 0, "Design value of the first column for the associated query")
	cmd.Flags().Float64Var(&searchRange, "search-range", 0, "Half-width of the associated value window")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.5, "Quantile for the associated value")
	cmd.Flags().StringVar(&output, "output", "", "Export the table to a .csv or .xlsx file")
	cmd.MarkFlagRequired("column1")
	cmd.MarkFlagRequired("column2")

	return cmd
}

func runJoint(cmd *cobra.Command, path string, inFlags ingestFlags, column1, column2 string,
	binSize1, binSize2 float64, absolute bool, value, searchRange, confidence float64, output string) error {

	format := jointprob.FormatRelative
	if absolute {
		format = jointprob.FormatAbsolute
	}
	svc := app.NewJointService()
	report, err := svc.Run(cmd.Context(), app.JointRequest{
		Path:    path,
		Sheet:   inFlags.sheet,
		Column1: column1,
		Column2: column2,
		Ingest:  inFlags.options(),
		Joint: jointprob.JointConfig{
			BinSize1: binSize1,
			BinSize2: binSize2,
			Format:   format,
		},
		OutputPath: output,
	})
	if err != nil {
		return err
	}

	table := report.Table
	fmt.Printf("\n=== JOINT PROBABILITY: %s vs %s ===\n", column2, column1)
	fmt.Printf("%-16s", "")
	for _, col := range table.ColLabels {
		fmt.Printf(" %14s", col)
	}
	fmt.Println()
	for i, row := range table.Cells {
		fmt.Printf("%-16s", table.RowLabels[i])
		for _, c := range row {
			fmt.Printf(" %14.4f", c)
		}
		fmt.Println()
	}

	if cmd.Flags().Changed("search-range") {
		assoc, err := svc.Associated(cmd.Context(), app.AssociatedRequest{
			Path:        path,
			Sheet:       inFlags.sheet,
			Column1:     column1,
			Column2:     column2,
			Ingest:      inFlags.options(),
			Value:       value,
			SearchRange: searchRange,
			Confidence:  confidence,
		})
		if err != nil {
			return fmt.Errorf("associated value: %w", err)
		}
		fmt.Printf("\n=== ASSOCIATED VALUE ===\n")
		fmt.Printf("%s near %g (+/- %g): %s = %.4f at confidence %.2f\n",
			column1, value, searchRange, column2, assoc, confidence)
	}

	if output != "" {
		fmt.Printf("\nTable exported to %s\n", output)
	}
	return nil
}
