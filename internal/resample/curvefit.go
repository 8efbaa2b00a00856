package resample

import (
	"context"
	"math"
	"runtime"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"goeva/domain/core"
)

// CurveFunc evaluates a parametric curve at x.
type CurveFunc func(x float64, params []float64) float64

// Strategy selects how synthetic samples are produced for the generic
// curve-fit bootstrap.
type Strategy string

const (
	// StrategySubsample refits on random subsets of the observed pairs.
	StrategySubsample Strategy = "subsample"
	// StrategyKDE refits on draws from a bivariate kernel density estimate.
	StrategyKDE Strategy = "kde"
)

// ParseStrategy reads a strategy tag, accepting the legacy "montecarlo"
// spelling for subsampling.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subsample", "montecarlo":
		return StrategySubsample, nil
	case "kde":
		return StrategyKDE, nil
	}
	return "", core.NewInvalidInputError("how", "unrecognized resampling strategy")
}

// CurveFitConfig controls the generic curve-fit bootstrap.
type CurveFitConfig struct {
	ConfidencePercent float64  `json:"confidence_percent"` // default 90
	Simulations       int      `json:"simulations"`        // default 1000
	Strategy          Strategy `json:"strategy"`           // default kde
	SampleFraction    float64  `json:"sample_fraction"`    // subsample only, default 0.4
	Poisson           *bool    `json:"poisson,omitempty"`  // kde only, default true
	MaxAttempts       int      `json:"max_attempts"`
	Workers           int      `json:"workers"` // default all CPUs
	Seed              uint64   `json:"seed"`
}

// Normalize validates the configuration and fills defaults.
func (c CurveFitConfig) Normalize() (CurveFitConfig, error) {
	if c.ConfidencePercent == 0 {
		c.ConfidencePercent = 90
	}
	if c.ConfidencePercent <= 0 || c.ConfidencePercent >= 100 {
		return c, core.NewInvalidInputError("confidence", "must be a percentage in (0, 100)")
	}
	if c.Simulations == 0 {
		c.Simulations = 1000
	}
	if c.Simulations < 0 {
		return c, core.NewInvalidInputError("simulations", "must be positive")
	}
	if c.Strategy == "" {
		c.Strategy = StrategyKDE
	}
	if c.Strategy != StrategySubsample && c.Strategy != StrategyKDE {
		return c, core.NewInvalidInputError("how", "unrecognized resampling strategy")
	}
	if c.SampleFraction == 0 {
		c.SampleFraction = 0.4
	}
	if c.SampleFraction < 0 || c.SampleFraction > 1 {
		return c, core.NewInvalidInputError("sample_fraction", "must be in (0, 1]")
	}
	if c.Poisson == nil {
		poisson := true
		c.Poisson = &poisson
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 100 * c.Simulations
		if c.MaxAttempts < 1000 {
			c.MaxAttempts = 1000
		}
	}
	if c.MaxAttempts < c.Simulations {
		return c, core.NewInvalidInputError("max_attempts", "must be at least the simulation count")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

// CurveBand is a fitted curve evaluated on a new grid together with its
// bootstrap confidence band. Unlike return level curves, points where the
// band is undefined are kept as NaN to stay aligned with the grid.
type CurveBand struct {
	X      []float64 `json:"x"`
	Fit    []float64 `json:"fit"`
	Lower  []float64 `json:"lower"`
	Upper  []float64 `json:"upper"`
	Params []float64 `json:"params"`
}

// CurveFit fits fn to the (x, y) pairs by bounded least squares and brackets
// the fitted curve on xNew with a resampling confidence band. lower and
// upper bound each parameter; infinities leave a side unbounded.
func CurveFit(ctx context.Context, fn CurveFunc, lower, upper []float64, x, y, xNew []float64, cfg CurveFitConfig) (CurveBand, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return CurveBand{}, err
	}
	if len(lower) == 0 || len(lower) != len(upper) {
		return CurveBand{}, core.NewInvalidInputError("bounds", "lower and upper must be non-empty and equal length")
	}
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || lower[i] >= upper[i] {
			return CurveBand{}, core.NewInvalidInputError("bounds", "each lower bound must be below its upper bound")
		}
	}
	if len(x) != len(y) {
		return CurveBand{}, core.NewInvalidInputError("data", "x and y must have equal length")
	}
	if len(x) < 2 {
		return CurveBand{}, core.NewInvalidInputError("data", "needs at least 2 points")
	}
	if len(xNew) == 0 {
		return CurveBand{}, core.NewInvalidInputError("x_new", "must not be empty")
	}

	params, err := fitBounded(fn, x, y, lower, upper)
	if err != nil {
		return CurveBand{}, err
	}
	fit := evaluateCurve(fn, params, xNew)

	subsetSize := int(cfg.SampleFraction * float64(len(x)))
	if cfg.Strategy == StrategySubsample && subsetSize < 1 {
		return CurveBand{}, core.NewInvalidInputError("sample_fraction", "subset has no points")
	}
	if cfg.Strategy == StrategyKDE {
		// Probe once so a degenerate point cloud fails fast instead of
		// burning the attempt budget.
		if _, err := NewKDE2D(x, y, rand.NewSource(1)); err != nil {
			return CurveBand{}, err
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	sims, err := simulatePool(ctx, cfg.Simulations, cfg.MaxAttempts, cfg.Workers, seed,
		func(src rand.Source) func() ([]float64, bool) {
			rnd := rand.New(src)
			if cfg.Strategy == StrategySubsample {
				return func() ([]float64, bool) {
					idx := rnd.Perm(len(x))[:subsetSize]
					xs := make([]float64, subsetSize)
					ys := make([]float64, subsetSize)
					for i, j := range idx {
						xs[i] = x[j]
						ys[i] = y[j]
					}
					p, err := fitBounded(fn, xs, ys, lower, upper)
					if err != nil {
						return nil, false
					}
					return evaluateCurve(fn, p, xNew), true
				}
			}
			kde, kdeErr := NewKDE2D(x, y, src)
			poisson := distuv.Poisson{Lambda: float64(len(x)), Src: src}
			return func() ([]float64, bool) {
				if kdeErr != nil {
					return nil, false
				}
				size := len(x)
				if *cfg.Poisson {
					size = int(poisson.Rand())
				}
				if size < 2 {
					return nil, false
				}
				xs, ys := kde.Resample(size, rnd)
				p, err := fitBounded(fn, xs, ys, lower, upper)
				if err != nil {
					return nil, false
				}
				return evaluateCurve(fn, p, xNew), true
			}
		})
	if err != nil {
		return CurveBand{}, err
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + cfg.ConfidencePercent/200)
	lowerBand := make([]float64, len(xNew))
	upperBand := make([]float64, len(xNew))
	for j := range xNew {
		lowerBand[j], upperBand[j] = interval(sims, j, z)
	}
	return CurveBand{X: xNew, Fit: fit, Lower: lowerBand, Upper: upperBand, Params: params}, nil
}

// fitBounded minimizes the sum of squared residuals with an infinite
// penalty outside the parameter box, starting from the midpoint of the
// bounds.
func fitBounded(fn CurveFunc, x, y, lower, upper []float64) ([]float64, error) {
	x0 := make([]float64, len(lower))
	for i := range x0 {
		x0[i] = startPoint(lower[i], upper[i])
	}
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			for i, p := range params {
				if p < lower[i] || p > upper[i] {
					return math.Inf(1)
				}
			}
			var sse float64
			for i := range x {
				r := y[i] - fn(x[i], params)
				sse += r * r
			}
			if math.IsNaN(sse) {
				return math.Inf(1)
			}
			return sse
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, core.NewFitError("least squares", err)
	}
	if result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, core.NewFitError("least squares", nil)
	}
	return result.X, nil
}

// startPoint picks the optimizer start inside a possibly half-open interval.
func startPoint(lo, hi float64) float64 {
	switch {
	case !math.IsInf(lo, -1) && !math.IsInf(hi, 1):
		return (lo + hi) / 2
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return 1
	case math.IsInf(hi, 1):
		return lo + 1
	default:
		return hi - 1
	}
}

func evaluateCurve(fn CurveFunc, params, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = fn(v, params)
	}
	return out
}
