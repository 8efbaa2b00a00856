package resample

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"goeva/domain/core"
	"goeva/domain/eva"
	"goeva/internal/dist"
	"goeva/internal/fitting"
)

// Bootstrap surrounds a fitted model's return level curve with a parametric
// bootstrap band. Each simulation draws a Poisson event count around the
// observed one, samples that many values from the fitted distribution,
// refits the family with the location pinned to the original estimate, and
// re-evaluates the curve with the simulated rate. With truncation enabled a
// simulation is rejected when any of its levels exceeds the original curve
// evaluated at the periods scaled by the simulation count; rejected draws
// are retried until the attempt budget runs out. Grid points where the
// point estimate or either bound is non-finite are dropped from the result.
func Bootstrap(ctx context.Context, model eva.FittedModel, periods []float64, cfg eva.BootstrapConfig) (eva.ReturnLevelCurve, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return eva.ReturnLevelCurve{}, err
	}
	if len(periods) == 0 {
		return eva.ReturnLevelCurve{}, core.NewInvalidInputError("periods", "must not be empty")
	}
	if model.NumEvents < 1 {
		return eva.ReturnLevelCurve{}, core.NewInvalidInputError("model", "has no events to resample")
	}
	if model.NumberOfBlocks <= 0 || math.IsNaN(model.NumberOfBlocks) || math.IsInf(model.NumberOfBlocks, 0) {
		return eva.ReturnLevelCurve{}, core.NewInvalidInputError("model", "block count must be positive and finite")
	}

	fitted, err := dist.New(model.Family, model.Params, nil)
	if err != nil {
		return eva.ReturnLevelCurve{}, err
	}
	point := fitting.CurveValues(fitted, model.Threshold, model.Rate, periods)

	var ceiling []float64
	if cfg.Truncate {
		scaled := make([]float64, len(periods))
		for i, t := range periods {
			scaled[i] = float64(cfg.Simulations) * t
		}
		ceiling = fitting.CurveValues(fitted, model.Threshold, model.Rate, scaled)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	locIdx := dist.LocationIndex(model.Family)
	loc := model.Params[locIdx]

	sims, err := simulatePool(ctx, cfg.Simulations, cfg.MaxAttempts, cfg.Workers, seed,
		func(src rand.Source) func() ([]float64, bool) {
			sampler, samplerErr := dist.New(model.Family, model.Params, src)
			poisson := distuv.Poisson{Lambda: float64(model.NumEvents), Src: src}
			return func() ([]float64, bool) {
				if samplerErr != nil {
					return nil, false
				}
				n := int(poisson.Rand())
				sample := make([]float64, n)
				for i := range sample {
					sample[i] = sampler.Rand()
				}
				params, err := dist.FitFixedLoc(model.Family, sample, loc)
				if err != nil {
					return nil, false
				}
				refit, err := dist.New(model.Family, params, nil)
				if err != nil {
					return nil, false
				}
				curve := fitting.CurveValues(refit, model.Threshold, float64(n)/model.NumberOfBlocks, periods)
				for j := range curve {
					if ceiling != nil && curve[j] > ceiling[j] {
						return nil, false
					}
				}
				return curve, true
			}
		})
	if err != nil {
		return eva.ReturnLevelCurve{}, err
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + cfg.Confidence/2)
	keptP := make([]float64, 0, len(periods))
	keptL := make([]float64, 0, len(periods))
	keptLo := make([]float64, 0, len(periods))
	keptUp := make([]float64, 0, len(periods))
	for j := range periods {
		lower, upper := interval(sims, j, z)
		if !finiteAll(point[j], lower, upper) {
			continue
		}
		keptP = append(keptP, periods[j])
		keptL = append(keptL, point[j])
		keptLo = append(keptLo, lower)
		keptUp = append(keptUp, upper)
	}
	return eva.ReturnLevelCurve{
		Periods:    keptP,
		Levels:     keptL,
		Lower:      keptLo,
		Upper:      keptUp,
		Confidence: cfg.Confidence,
	}, nil
}

func finiteAll(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
