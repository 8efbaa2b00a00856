package dist

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"goeva/domain/core"
	"goeva/domain/eva"
)

// Dist is the uniform view over supported families used by the fitter,
// the return-level evaluator and the parametric bootstrap. Quantile
// returns NaN for probabilities outside [0, 1].
type Dist interface {
	CDF(x float64) float64
	Quantile(p float64) float64
	LogProb(x float64) float64
	Rand() float64
}

// unitDist is the method set required of wrapped library distributions.
type unitDist interface {
	CDF(x float64) float64
	Quantile(p float64) float64
	LogProb(x float64) float64
	Rand() float64
}

// guarded adapts a library distribution to the Dist quantile contract:
// probabilities outside [0, 1] return NaN instead of panicking.
type guarded struct {
	base unitDist
}

func (g guarded) CDF(x float64) float64     { return g.base.CDF(x) }
func (g guarded) LogProb(x float64) float64 { return g.base.LogProb(x) }
func (g guarded) Rand() float64             { return g.base.Rand() }

func (g guarded) Quantile(p float64) float64 {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN()
	}
	return g.base.Quantile(p)
}

// shifted adds a location offset to a zero-located distribution, giving
// the (shape, location, scale) convention for families whose library
// form carries no location parameter.
type shifted struct {
	base unitDist
	loc  float64
}

func (s shifted) CDF(x float64) float64     { return s.base.CDF(x - s.loc) }
func (s shifted) LogProb(x float64) float64 { return s.base.LogProb(x - s.loc) }
func (s shifted) Rand() float64             { return s.base.Rand() + s.loc }

func (s shifted) Quantile(p float64) float64 {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN()
	}
	return s.base.Quantile(p) + s.loc
}

// New binds a family tag and parameter vector to a concrete
// distribution. The vector layout follows eva.Family.ParamNames.
func New(family eva.Family, params []float64, src rand.Source) (Dist, error) {
	d, ok := tryNew(family, params, src)
	if !ok {
		return nil, core.NewInvalidInputError("params",
			fmt.Sprintf("invalid parameter vector %v for %s", params, family))
	}
	return d, nil
}

// tryNew is the non-erroring form of New used inside likelihood
// evaluation, where invalid parameters are a rejected optimizer step
// rather than a caller mistake.
func tryNew(family eva.Family, params []float64, src rand.Source) (Dist, bool) {
	if len(params) != family.NumParams() {
		return nil, false
	}
	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, false
		}
	}
	switch family {
	case eva.FamilyGPD:
		if params[2] <= 0 {
			return nil, false
		}
		return GenPareto{Xi: params[0], Mu: params[1], Sigma: params[2], Src: src}, true
	case eva.FamilyGEV:
		if params[2] <= 0 {
			return nil, false
		}
		return GenExtreme{Xi: params[0], Mu: params[1], Sigma: params[2], Src: src}, true
	case eva.FamilyGumbel:
		if params[1] <= 0 {
			return nil, false
		}
		return guarded{base: distuv.GumbelRight{Mu: params[0], Beta: params[1], Src: src}}, true
	case eva.FamilyWeibull:
		if params[0] <= 0 || params[2] <= 0 {
			return nil, false
		}
		return shifted{base: distuv.Weibull{K: params[0], Lambda: params[2], Src: src}, loc: params[1]}, true
	case eva.FamilyLogNormal:
		if params[0] <= 0 || params[2] <= 0 {
			return nil, false
		}
		return shifted{base: distuv.LogNormal{Mu: math.Log(params[2]), Sigma: params[0], Src: src}, loc: params[1]}, true
	case eva.FamilyPearson3:
		if params[2] <= 0 {
			return nil, false
		}
		return Pearson3{Skew: params[0], Mu: params[1], Sigma: params[2], Src: src}, true
	}
	return nil, false
}
