package resample

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"goeva/domain/core"
)

// KDE1D is a univariate Gaussian kernel density estimate with the
// normal-reference bandwidth.
type KDE1D struct {
	points []float64
	bw     float64
}

// NewKDE1D builds the estimate over the given sample. The bandwidth is
// (4/3)^(1/5) * A * n^(-1/5) where A is the smaller of the sample standard
// deviation and the normalized interquartile range.
func NewKDE1D(data []float64) (KDE1D, error) {
	if len(data) < 2 {
		return KDE1D{}, core.NewInvalidInputError("sample", "kernel density needs at least 2 points")
	}
	sd := stat.StdDev(data, nil)
	iqr := (percentileLinear(data, 0.75) - percentileLinear(data, 0.25)) / 1.349
	a := sd
	if iqr > 0 && iqr < a {
		a = iqr
	}
	bw := math.Pow(4.0/3.0, 0.2) * a * math.Pow(float64(len(data)), -0.2)
	if bw <= 0 || math.IsNaN(bw) || math.IsInf(bw, 0) {
		return KDE1D{}, core.NewInvalidInputError("sample", "kernel density needs non-zero spread")
	}
	points := make([]float64, len(data))
	copy(points, data)
	return KDE1D{points: points, bw: bw}, nil
}

// Bandwidth reports the kernel bandwidth.
func (k KDE1D) Bandwidth() float64 { return k.bw }

// CDF evaluates the mixture distribution function at v.
func (k KDE1D) CDF(v float64) float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	var sum float64
	for _, p := range k.points {
		sum += norm.CDF((v - p) / k.bw)
	}
	return sum / float64(len(k.points))
}

// Quantile inverts the mixture distribution function by bisection.
func (k KDE1D) Quantile(p float64) float64 {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return math.NaN()
	}
	lo, hi := k.points[0], k.points[0]
	for _, v := range k.points {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	lo -= 10 * k.bw
	hi += 10 * k.bw
	for i := 0; i < 100 && k.CDF(lo) > p; i++ {
		lo -= 10 * k.bw
	}
	for i := 0; i < 100 && k.CDF(hi) < p; i++ {
		hi += 10 * k.bw
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if k.CDF(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// KDE2D is a bivariate Gaussian kernel density estimate over paired samples,
// used to draw synthetic (x, y) points. The kernel covariance is the sample
// covariance scaled by the squared Scott factor n^(-1/6).
type KDE2D struct {
	x, y  []float64
	noise *distmv.Normal
}

// NewKDE2D builds the estimate; the source seeds the resampling noise.
func NewKDE2D(x, y []float64, src rand.Source) (*KDE2D, error) {
	if len(x) != len(y) {
		return nil, core.NewInvalidInputError("sample", "x and y must have equal length")
	}
	n := len(x)
	if n < 2 {
		return nil, core.NewInvalidInputError("sample", "kernel density needs at least 2 points")
	}
	obs := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		obs.Set(i, 0, x[i])
		obs.Set(i, 1, y[i])
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, obs, nil)
	factor := math.Pow(float64(n), -1.0/6)
	var scaled mat.SymDense
	scaled.ScaleSym(factor*factor, &cov)

	noise, ok := distmv.NewNormal([]float64{0, 0}, &scaled, src)
	if !ok {
		return nil, core.NewInvalidInputError("sample", "degenerate covariance, cannot build kernel density")
	}
	return &KDE2D{x: x, y: y, noise: noise}, nil
}

// Resample draws m synthetic pairs: a uniformly chosen observation plus
// kernel noise.
func (k *KDE2D) Resample(m int, rnd *rand.Rand) (xs, ys []float64) {
	xs = make([]float64, m)
	ys = make([]float64, m)
	for i := 0; i < m; i++ {
		j := rnd.Intn(len(k.x))
		step := k.noise.Rand(nil)
		xs[i] = k.x[j] + step[0]
		ys[i] = k.y[j] + step[1]
	}
	return xs, ys
}

// percentileLinear interpolates the p-th sample quantile at position
// p*(n-1) on the sorted copy.
func percentileLinear(values []float64, p float64) float64 {
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
