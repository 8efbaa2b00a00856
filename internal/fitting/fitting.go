// Package fitting fits extreme value distributions to extracted event sets
// and evaluates return level curves from the fitted parameters.
package fitting

import (
	"fmt"
	"math"
	"sort"

	"goeva/domain/core"
	"goeva/domain/eva"
	"goeva/internal/dist"
)

// FitModel estimates the family parameters for an extracted event set by
// maximum likelihood. The generalized extreme value family is fitted to the
// raw event values; every other family is fitted to the exceedances over the
// extraction threshold, which equals the raw values for block maxima.
func FitModel(set eva.ExtremeSeries, family eva.Family) (eva.FittedModel, error) {
	if !family.Valid() {
		return eva.FittedModel{}, core.NewInvalidInputError("family", "unknown distribution family")
	}
	if !set.Method.Valid() {
		return eva.FittedModel{}, core.NewInvalidInputError("method", "unknown extraction method")
	}
	if !family.SupportsMethod(set.Method) {
		return eva.FittedModel{}, core.NewUnsupportedError(fmt.Sprintf("%s fit on %s extremes", family, set.Method))
	}
	if set.Len() == 0 {
		return eva.FittedModel{}, core.ErrEmptySeries
	}

	var data []float64
	if family == eva.FamilyGEV {
		data = set.Values()
	} else {
		data = set.Exceedances()
	}
	params, err := dist.Fit(family, data)
	if err != nil {
		return eva.FittedModel{}, err
	}

	return eva.FittedModel{
		Family:         family,
		Method:         set.Method,
		Params:         params,
		Threshold:      set.Threshold,
		Rate:           set.Rate(),
		NumEvents:      set.Len(),
		NumberOfBlocks: set.NumberOfBlocks,
	}, nil
}

// ReturnPeriodGrid builds the default evaluation grid: thirty log-spaced
// periods between 0.1 and 1000 blocks merged with the standard engineering
// return periods.
func ReturnPeriodGrid() []float64 {
	periods := make([]float64, 0, 38)
	for i := 0; i < 30; i++ {
		periods = append(periods, math.Pow(10, -1+4*float64(i)/29))
	}
	periods = append(periods, 2, 5, 10, 25, 50, 100, 200, 500)
	sort.Float64s(periods)

	out := periods[:1]
	for _, p := range periods[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// CurveValues evaluates the return level at each period against an already
// constructed distribution. Periods outside the support of the quantile
// transform come back as NaN, keeping the result aligned with the input grid.
func CurveValues(d dist.Dist, threshold, rate float64, periods []float64) []float64 {
	levels := make([]float64, len(periods))
	for i, t := range periods {
		levels[i] = threshold + d.Quantile(1-1/(rate*t))
	}
	return levels
}

// ReturnLevels evaluates the fitted model over the period grid and drops the
// points where the quantile transform is undefined or unbounded.
func ReturnLevels(model eva.FittedModel, periods []float64) (eva.ReturnLevelCurve, error) {
	d, err := dist.New(model.Family, model.Params, nil)
	if err != nil {
		return eva.ReturnLevelCurve{}, err
	}
	raw := CurveValues(d, model.Threshold, model.Rate, periods)

	keptP := make([]float64, 0, len(periods))
	keptL := make([]float64, 0, len(periods))
	for i, level := range raw {
		if math.IsNaN(level) || math.IsInf(level, 0) {
			continue
		}
		keptP = append(keptP, periods[i])
		keptL = append(keptL, level)
	}
	return eva.ReturnLevelCurve{Periods: keptP, Levels: keptL}, nil
}

// ReturnLevel evaluates a single return period, NaN when undefined.
func ReturnLevel(model eva.FittedModel, period float64) float64 {
	d, err := dist.New(model.Family, model.Params, nil)
	if err != nil {
		return math.NaN()
	}
	return model.Threshold + d.Quantile(1-1/(model.Rate*period))
}
