package dist

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"goeva/domain/core"
	"goeva/domain/eva"
)

// eulerGamma is the Euler-Mascheroni constant, used for Gumbel-family
// moment starting points.
const eulerGamma = 0.5772156649015329

// Fit estimates family parameters from data by maximum likelihood using
// a derivative-free simplex search. The returned vector follows
// eva.Family.ParamNames. Optimizer failure or a non-finite optimum is a
// fatal fit error.
func Fit(family eva.Family, data []float64) ([]float64, error) {
	return fitMLE(family, data, nil)
}

// FitFixedLoc estimates parameters with the location pinned to loc,
// used by bootstrap refits to prevent threshold drift.
func FitFixedLoc(family eva.Family, data []float64, loc float64) ([]float64, error) {
	return fitMLE(family, data, &loc)
}

// LocationIndex returns the index of the location parameter in the
// family's parameter vector.
func LocationIndex(family eva.Family) int {
	for i, name := range family.ParamNames() {
		if name == "location" {
			return i
		}
	}
	return -1
}

func fitMLE(family eva.Family, data []float64, fixedLoc *float64) ([]float64, error) {
	if !family.Valid() {
		return nil, core.NewInvalidInputError("distribution", "unrecognized family")
	}
	if len(data) < 2 {
		return nil, core.NewFitError(family.String(), errors.New("need at least two observations"))
	}
	sd := math.Sqrt(stat.Variance(data, nil))
	if sd == 0 || math.IsNaN(sd) {
		return nil, core.NewFitError(family.String(), errors.New("degenerate sample, zero variance"))
	}

	full := startingParams(family, data)
	locIdx := LocationIndex(family)

	// embed rebuilds the full parameter vector from the optimizer's
	// view, reinserting a pinned location if one is set.
	embed := func(x []float64) []float64 {
		if fixedLoc == nil {
			out := make([]float64, len(x))
			copy(out, x)
			return out
		}
		out := make([]float64, 0, len(x)+1)
		out = append(out, x[:locIdx]...)
		out = append(out, *fixedLoc)
		out = append(out, x[locIdx:]...)
		return out
	}

	var x0 []float64
	if fixedLoc != nil {
		for i, v := range full {
			if i != locIdx {
				x0 = append(x0, v)
			}
		}
	} else {
		x0 = full
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return negLogLikelihood(family, embed(x), data)
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, core.NewFitError(family.String(), err)
	}
	if result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, core.NewFitError(family.String(), errors.New("non-finite likelihood at optimum"))
	}
	params := embed(result.X)
	if _, ok := tryNew(family, params, nil); !ok {
		return nil, core.NewFitError(family.String(), errors.New("invalid parameters at optimum"))
	}
	return params, nil
}

// negLogLikelihood evaluates the negative log likelihood of params for
// data, returning +Inf for parameter vectors outside the family's
// domain or data outside the implied support.
func negLogLikelihood(family eva.Family, params, data []float64) float64 {
	d, ok := tryNew(family, params, nil)
	if !ok {
		return math.Inf(1)
	}
	var nll float64
	for _, x := range data {
		lp := d.LogProb(x)
		// A +Inf log density marks a degenerate spike (e.g. a
		// bounded-support family collapsing onto a data point),
		// rejected the same way as out-of-support points.
		if math.IsNaN(lp) || math.IsInf(lp, 0) {
			return math.Inf(1)
		}
		nll -= lp
	}
	return nll
}

// startingParams builds moment-based initial guesses per family.
func startingParams(family eva.Family, data []float64) []float64 {
	mean := stat.Mean(data, nil)
	sd := math.Sqrt(stat.Variance(data, nil))
	min := floats.Min(data)

	switch family {
	case eva.FamilyGPD:
		return []float64{0.1, min - 0.1*sd, sd}
	case eva.FamilyGEV:
		sigma := sd * math.Sqrt(6) / math.Pi
		return []float64{0.1, mean - eulerGamma*sigma, sigma}
	case eva.FamilyGumbel:
		sigma := sd * math.Sqrt(6) / math.Pi
		return []float64{mean - eulerGamma*sigma, sigma}
	case eva.FamilyWeibull:
		return []float64{1.2, min - 0.1*sd, sd}
	case eva.FamilyLogNormal:
		loc := min - 0.1*sd
		logs := make([]float64, len(data))
		for i, x := range data {
			logs[i] = math.Log(x - loc)
		}
		logSD := math.Sqrt(stat.Variance(logs, nil))
		if logSD <= 0 || math.IsNaN(logSD) {
			logSD = 0.5
		}
		return []float64{logSD, loc, math.Exp(stat.Mean(logs, nil))}
	case eva.FamilyPearson3:
		return []float64{stat.Skew(data, nil), mean, sd}
	}
	return nil
}
