package dist

import (
	"math"

	"golang.org/x/exp/rand"
)

// GenPareto is the generalized Pareto distribution with location Mu,
// scale Sigma and shape Xi. Xi > 0 gives a heavy upper tail, Xi == 0
// the exponential limit, Xi < 0 a bounded upper tail at Mu - Sigma/Xi.
type GenPareto struct {
	Mu    float64
	Sigma float64
	Xi    float64

	Src rand.Source
}

// CDF computes the cumulative distribution function at x.
func (g GenPareto) CDF(x float64) float64 {
	z := (x - g.Mu) / g.Sigma
	if z < 0 {
		return 0
	}
	if g.Xi == 0 {
		return 1 - math.Exp(-z)
	}
	arg := 1 + g.Xi*z
	if arg <= 0 {
		// Above the upper endpoint for Xi < 0.
		return 1
	}
	return 1 - math.Exp(-math.Log1p(g.Xi*z)/g.Xi)
}

// Quantile returns the inverse CDF at probability p. Values of p
// outside [0, 1] yield NaN.
func (g GenPareto) Quantile(p float64) float64 {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN()
	}
	if g.Xi == 0 {
		return g.Mu - g.Sigma*math.Log(1-p)
	}
	return g.Mu + g.Sigma/g.Xi*math.Expm1(-g.Xi*math.Log(1-p))
}

// LogProb computes the natural logarithm of the density at x. Points
// outside the support yield -Inf.
func (g GenPareto) LogProb(x float64) float64 {
	z := (x - g.Mu) / g.Sigma
	if z < 0 {
		return math.Inf(-1)
	}
	if g.Xi == 0 {
		return -math.Log(g.Sigma) - z
	}
	arg := 1 + g.Xi*z
	if arg <= 0 {
		return math.Inf(-1)
	}
	return -math.Log(g.Sigma) - (1/g.Xi+1)*math.Log1p(g.Xi*z)
}

// Rand returns a random sample drawn from the distribution.
func (g GenPareto) Rand() float64 {
	var u float64
	if g.Src == nil {
		u = rand.Float64()
	} else {
		u = rand.New(g.Src).Float64()
	}
	return g.Quantile(u)
}

// NumParameters returns the number of parameters in the distribution.
func (GenPareto) NumParameters() int { return 3 }
