// Package threshold provides diagnostics for choosing a peaks-over-threshold
// cutoff: mean residual life tables, empirical selection rules, and fitted
// parameter stability scans.
package threshold

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"goeva/domain/core"
	"goeva/domain/eva"
	"goeva/internal/dist"
	"goeva/internal/extremes"
)

// Selection rule labels as they appear in the estimates table.
const (
	RuleQuantile   = "90% Quantile"
	RuleSquareRoot = "Square Root Rule"
	RuleLogarithm  = "Logarithm Rule"
)

// Config carries the shared knobs for the threshold diagnostics.
type Config struct {
	Decluster  bool          `json:"decluster"`
	Run        time.Duration `json:"run"`
	Confidence float64       `json:"confidence"` // mean residual life bands, default 0.95
	UStart     float64       `json:"u_start"`    // search start for the counting rules
	UStep      float64       `json:"u_step"`     // search increment, default 0.1
}

// Normalize fills defaults and validates the configuration.
func (c Config) Normalize() (Config, error) {
	if c.Confidence == 0 {
		c.Confidence = 0.95
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return c, core.NewInvalidInputError("confidence", "must be strictly between 0 and 1")
	}
	if c.UStep == 0 {
		c.UStep = 0.1
	}
	if c.UStep < 0 || !isFinite(c.UStep) {
		return c, core.NewInvalidInputError("u_step", "must be a positive finite number")
	}
	if !isFinite(c.UStart) {
		return c, core.NewInvalidInputError("u_start", "must be finite")
	}
	if c.Decluster && c.Run == 0 {
		c.Run = eva.DefaultDeclusterRun
	}
	return c, nil
}

// Estimate is one empirical threshold recommendation.
type Estimate struct {
	Rule        string  `json:"rule"`
	Threshold   float64 `json:"threshold"`
	Exceedances int     `json:"exceedances"`
}

// MeanResidualLife tabulates the mean excess over each candidate threshold
// together with a normal-approximation confidence band. Candidates above the
// sample maximum are dropped; candidates yielding no exceedances produce a
// NaN row with a zero count.
func MeanResidualLife(ts core.TimeSeries, thresholds []float64, cfg Config) (core.Table, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return core.Table{}, err
	}
	if ts.Len() == 0 {
		return core.Table{}, core.ErrEmptySeries
	}
	if len(thresholds) == 0 {
		return core.Table{}, core.NewInvalidInputError("thresholds", "must not be empty")
	}

	max := floats.Max(ts.Values)
	kept := make([]float64, 0, len(thresholds))
	for _, u := range thresholds {
		if !isFinite(u) {
			return core.Table{}, core.NewInvalidInputError("thresholds", "must be finite")
		}
		if u <= max {
			kept = append(kept, u)
		}
	}
	if len(kept) == 0 {
		return core.Table{}, core.NewInvalidInputError("thresholds", "all candidates lie above the sample maximum")
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + cfg.Confidence/2)

	table := core.NewTable("mean_residual_life", "threshold", "mean_excess", "lower", "upper", "exceedances")
	for _, u := range kept {
		ex := extremes.ExceedanceValues(ts, u, cfg.Decluster, cfg.Run)
		if len(ex) == 0 {
			if err := table.AddRow(u, math.NaN(), math.NaN(), math.NaN(), 0); err != nil {
				return core.Table{}, err
			}
			continue
		}
		residuals := make([]float64, len(ex))
		for i, v := range ex {
			residuals[i] = v - u
		}
		mean := stat.Mean(residuals, nil)
		half := z * math.Sqrt(stat.Variance(residuals, nil)) / math.Sqrt(float64(len(residuals)))
		if err := table.AddRow(u, mean, mean-half, mean+half, float64(len(residuals))); err != nil {
			return core.Table{}, err
		}
	}
	return *table, nil
}

// EmpiricalThresholds evaluates the three stock selection rules and returns
// one estimate per rule. The quantile rule reads the 90th percentile off the
// data directly; the counting rules walk the threshold up from UStart until
// the exceedance count falls to their target.
func EmpiricalThresholds(ts core.TimeSeries, cfg Config) ([]Estimate, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	n := ts.Len()
	if n == 0 {
		return nil, core.ErrEmptySeries
	}
	if n < 3 {
		return nil, core.NewInvalidInputError("series", "needs at least 3 samples for threshold rules")
	}

	q := quantileLinear(ts.Values, 0.90)
	estimates := []Estimate{{
		Rule:        RuleQuantile,
		Threshold:   q,
		Exceedances: extremes.CountExceedances(ts, q, cfg.Decluster, cfg.Run),
	}}

	sqrtTarget := int(math.Sqrt(float64(n)))
	logTarget := int(math.Pow(float64(n), 2.0/3.0) / math.Log(math.Log(float64(n))))
	for _, rule := range []struct {
		label  string
		target int
	}{
		{RuleSquareRoot, sqrtTarget},
		{RuleLogarithm, logTarget},
	} {
		target := rule.target
		if target < 1 {
			target = 1
		}
		u := cfg.UStart
		count := extremes.CountExceedances(ts, u, cfg.Decluster, cfg.Run)
		for count > target {
			u += cfg.UStep
			count = extremes.CountExceedances(ts, u, cfg.Decluster, cfg.Run)
		}
		estimates = append(estimates, Estimate{Rule: rule.label, Threshold: u, Exceedances: count})
	}
	return estimates, nil
}

// ParameterStability refits the distribution at each candidate threshold with
// the location pinned to zero and tabulates the resulting shape and scale.
// Only the generalized Pareto family is supported. Thresholds above the
// sample maximum are dropped; a threshold whose fit fails produces a NaN row.
func ParameterStability(ts core.TimeSeries, family eva.Family, thresholds []float64, cfg Config) (core.Table, error) {
	if family != eva.FamilyGPD {
		return core.Table{}, fmt.Errorf("%w: parameter stability for %s", core.ErrNotImplemented, family)
	}
	cfg, err := cfg.Normalize()
	if err != nil {
		return core.Table{}, err
	}
	if ts.Len() == 0 {
		return core.Table{}, core.ErrEmptySeries
	}
	if len(thresholds) == 0 {
		return core.Table{}, core.NewInvalidInputError("thresholds", "must not be empty")
	}

	max := floats.Max(ts.Values)
	table := core.NewTable("parameter_stability", "threshold", "shape", "scale")
	for _, u := range thresholds {
		if !isFinite(u) {
			return core.Table{}, core.NewInvalidInputError("thresholds", "must be finite")
		}
		if u > max {
			continue
		}
		ex := extremes.ExceedanceValues(ts, u, cfg.Decluster, cfg.Run)
		residuals := make([]float64, len(ex))
		for i, v := range ex {
			residuals[i] = v - u
		}
		params, err := dist.FitFixedLoc(eva.FamilyGPD, residuals, 0)
		if err != nil {
			if addErr := table.AddRow(u, math.NaN(), math.NaN()); addErr != nil {
				return core.Table{}, addErr
			}
			continue
		}
		if err := table.AddRow(u, params[0], params[2]); err != nil {
			return core.Table{}, err
		}
	}
	if table.NumRows() == 0 {
		return core.Table{}, core.NewInvalidInputError("thresholds", "all candidates lie above the sample maximum")
	}
	return *table, nil
}

// quantileLinear interpolates the p-th quantile the way numerical stacks
// usually do, positioning at p*(n-1) on the sorted sample.
func quantileLinear(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
