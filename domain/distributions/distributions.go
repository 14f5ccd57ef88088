// Package distributions evaluates probability mass and density functions of
// common laws over plotting grids.
package distributions

import (
	"fmt"
	"math"

	"gostatlab/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// GridPoints is the number of points of a continuous grid.
const GridPoints = 400

// Kind distinguishes probability mass from probability density series.
type Kind string

const (
	Discrete   Kind = "discrete"
	Continuous Kind = "continuous"
)

// Series is a law evaluated over a grid: Y[i] is the pmf or pdf at X[i].
type Series struct {
	Name string    `json:"name"`
	Kind Kind      `json:"kind"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// Dirac puts all mass on a, evaluated over xs.
func Dirac(a float64, xs []float64) Series {
	y := make([]float64, len(xs))
	for i, x := range xs {
		if x == a {
			y[i] = 1
		}
	}
	return Series{Name: fmt.Sprintf("dirac(%g)", a), Kind: Discrete, X: append([]float64(nil), xs...), Y: y}
}

// DiscreteUniform gives mass 1/n to each of 0..n-1.
func DiscreteUniform(n int) (Series, error) {
	if n <= 0 {
		return Series{}, core.NewDomainError("n", float64(n), "> 0")
	}
	x := arange(0, n)
	y := make([]float64, n)
	for i := range y {
		y[i] = 1 / float64(n)
	}
	return Series{Name: fmt.Sprintf("uniform_discrete(%d)", n), Kind: Discrete, X: x, Y: y}, nil
}

// Binomial evaluates B(n, p) over 0..n.
func Binomial(n int, p float64) (Series, error) {
	if n <= 0 {
		return Series{}, core.NewDomainError("n", float64(n), "> 0")
	}
	if !core.InUnitInterval(p) {
		return Series{}, core.NewDomainError("p", p, "[0,1]")
	}
	dist := distuv.Binomial{N: float64(n), P: p}
	x := arange(0, n+1)
	return Series{Name: fmt.Sprintf("binomial(%d, %g)", n, p), Kind: Discrete, X: x, Y: apply(x, dist.Prob)}, nil
}

// Poisson evaluates P(lambda) over 0..upto-1.
func Poisson(lambda float64, upto int) (Series, error) {
	if !(lambda > 0) {
		return Series{}, core.NewDomainError("lambda", lambda, "> 0")
	}
	if upto <= 0 {
		return Series{}, core.NewDomainError("upto", float64(upto), "> 0")
	}
	dist := distuv.Poisson{Lambda: lambda}
	x := arange(0, upto)
	return Series{Name: fmt.Sprintf("poisson(%g)", lambda), Kind: Discrete, X: x, Y: apply(x, dist.Prob)}, nil
}

// Zipf evaluates the zeta law k^-a / ζ(a) over 1..size.
func Zipf(a float64, size int) (Series, error) {
	if !(a > 1) {
		return Series{}, core.NewDomainError("a", a, "> 1")
	}
	if size <= 0 {
		return Series{}, core.NewDomainError("size", float64(size), "> 0")
	}
	norm := mathext.Zeta(a, 1)
	x := arange(1, size+1)
	y := apply(x, func(k float64) float64 { return math.Pow(k, -a) / norm })
	return Series{Name: fmt.Sprintf("zipf(%g)", a), Kind: Discrete, X: x, Y: y}, nil
}

// PoissonContinuous draws the Poisson pmf over a continuous grid on
// [0, 20], evaluating the mass at the nearest integer.
func PoissonContinuous(lambda float64) (Series, error) {
	if !(lambda > 0) {
		return Series{}, core.NewDomainError("lambda", lambda, "> 0")
	}
	dist := distuv.Poisson{Lambda: lambda}
	x := linspace(0, 20)
	y := apply(x, func(v float64) float64 { return dist.Prob(math.RoundToEven(v)) })
	return Series{Name: fmt.Sprintf("poisson_continuous(%g)", lambda), Kind: Continuous, X: x, Y: y}, nil
}

// Normal evaluates N(mu, sigma²) over mu ± 4 sigma.
func Normal(mu, sigma float64) (Series, error) {
	if !(sigma > 0) {
		return Series{}, core.NewDomainError("sigma", sigma, "> 0")
	}
	dist := distuv.Normal{Mu: mu, Sigma: sigma}
	x := linspace(mu-4*sigma, mu+4*sigma)
	return Series{Name: fmt.Sprintf("normal(%g, %g)", mu, sigma), Kind: Continuous, X: x, Y: apply(x, dist.Prob)}, nil
}

// LogNormal evaluates the log-normal law whose logarithm is N(mu, sigma²),
// over [0.001, 10].
func LogNormal(mu, sigma float64) (Series, error) {
	if !(sigma > 0) {
		return Series{}, core.NewDomainError("sigma", sigma, "> 0")
	}
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma}
	x := linspace(0.001, 10)
	return Series{Name: fmt.Sprintf("lognormal(%g, %g)", mu, sigma), Kind: Continuous, X: x, Y: apply(x, dist.Prob)}, nil
}

// UniformContinuous evaluates U(a, b) over [a, b].
func UniformContinuous(a, b float64) (Series, error) {
	if !(b > a) {
		return Series{}, core.NewDomainError("b", b, fmt.Sprintf("> %g", a))
	}
	dist := distuv.Uniform{Min: a, Max: b}
	x := linspace(a, b)
	return Series{Name: fmt.Sprintf("uniform_continuous(%g, %g)", a, b), Kind: Continuous, X: x, Y: apply(x, dist.Prob)}, nil
}

// ChiSquared evaluates χ²(k) over [0, 20].
func ChiSquared(k float64) (Series, error) {
	if !(k > 0) {
		return Series{}, core.NewDomainError("k", k, "> 0")
	}
	dist := distuv.ChiSquared{K: k}
	x := linspace(0, 20)
	return Series{Name: fmt.Sprintf("chi2(%g)", k), Kind: Continuous, X: x, Y: apply(x, dist.Prob)}, nil
}

// Pareto evaluates the Pareto law with scale 1 and shape alpha over [1, 10].
func Pareto(alpha float64) (Series, error) {
	if !(alpha > 0) {
		return Series{}, core.NewDomainError("alpha", alpha, "> 0")
	}
	dist := distuv.Pareto{Xm: 1, Alpha: alpha}
	x := linspace(1, 10)
	return Series{Name: fmt.Sprintf("pareto(%g)", alpha), Kind: Continuous, X: x, Y: apply(x, dist.Prob)}, nil
}

// Mean returns Σ x·p.
func Mean(x, p []float64) (float64, error) {
	if len(x) != len(p) {
		return 0, fmt.Errorf("%w: %d values, %d weights", core.ErrLengthMismatch, len(x), len(p))
	}
	if len(x) == 0 {
		return 0, core.ErrInsufficientData
	}
	return floats.Dot(x, p), nil
}

// StdDev returns sqrt(Σ p·(x - mean)²) with mean = Σ x·p.
func StdDev(x, p []float64) (float64, error) {
	mean, err := Mean(x, p)
	if err != nil {
		return 0, err
	}
	d := append([]float64(nil), x...)
	floats.AddConst(-mean, d)
	floats.Mul(d, d)
	return math.Sqrt(floats.Dot(d, p)), nil
}

func arange(from, to int) []float64 {
	out := make([]float64, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func linspace(lo, hi float64) []float64 {
	x := floats.Span(make([]float64, GridPoints), lo, hi)
	x[GridPoints-1] = hi
	return x
}

func apply(x []float64, f func(float64) float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = f(v)
	}
	return y
}
