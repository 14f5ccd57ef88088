// Package normality tests whether a sample plausibly comes from a normal
// distribution.
package normality

import (
	"fmt"
	"math"
	"sort"

	"gostatlab/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance level used by IsNormal callers that do
// not choose one.
const DefaultAlpha = 0.05

// MaxSampleSize is the largest n for which Royston's approximation holds.
const MaxSampleSize = 5000

// Result is the outcome of a Shapiro-Wilk test.
type Result struct {
	N      int     `json:"n"`
	W      float64 `json:"w"`
	PValue float64 `json:"p_value"`
}

// IsNormal reports whether normality is not rejected at level alpha.
func (r Result) IsNormal(alpha float64) bool {
	return r.PValue > alpha
}

// Royston (1992) polynomial coefficients, lowest order first.
var (
	coefAN   = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	coefAN1  = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	coefG    = []float64{-2.273, 0.459}
	coefMu   = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	coefSig  = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	coefMuL  = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	coefSigL = []float64{-0.4803, -0.082676, 0.0030302}
)

// ShapiroWilk computes the W statistic and its p-value using Royston's
// approximation. NaNs are dropped; 3 <= n <= MaxSampleSize is required.
func ShapiroWilk(values []float64) (Result, error) {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	n := len(x)
	if n < 3 {
		return Result{}, fmt.Errorf("%w: shapiro-wilk needs at least 3 values, got %d", core.ErrInsufficientData, n)
	}
	if n > MaxSampleSize {
		return Result{}, core.NewDomainError("n", float64(n), fmt.Sprintf("<= %d", MaxSampleSize))
	}
	sort.Float64s(x)
	if x[n-1]-x[0] == 0 {
		return Result{}, fmt.Errorf("%w: all values are identical", core.ErrDomain)
	}

	a := coefficients(n)

	mean := floats.Sum(x) / float64(n)
	ssq := 0.0
	for _, v := range x {
		ssq += (v - mean) * (v - mean)
	}
	num := floats.Dot(a, x)
	w := math.Min(1, num*num/ssq)

	return Result{N: n, W: w, PValue: pValue(w, n)}, nil
}

// coefficients returns the antisymmetric weights a_1..a_n.
func coefficients(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt2/2, math.Sqrt2/2
		return a
	}

	m := make([]float64, n)
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}
	mm := floats.Dot(m, m)
	u := 1 / math.Sqrt(float64(n))

	an := m[n-1]/math.Sqrt(mm) + poly(coefAN, u)
	a[n-1], a[0] = an, -an

	first := 1
	phi := (mm - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
	if n > 5 {
		an1 := m[n-2]/math.Sqrt(mm) + poly(coefAN1, u)
		a[n-2], a[1] = an1, -an1
		first = 2
		phi = (mm - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
	}
	scale := math.Sqrt(phi)
	for i := first; i < n-first; i++ {
		a[i] = m[i] / scale
	}
	return a
}

func pValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clamp01(p)
	}
	if w >= 1 {
		return 1
	}

	y := math.Log(1 - w)
	nf := float64(n)
	var z float64
	if n <= 11 {
		gamma := poly(coefG, nf)
		if y >= gamma {
			return 0
		}
		y = -math.Log(gamma - y)
		mu := poly(coefMu, nf)
		sigma := math.Exp(poly(coefSig, nf))
		z = (y - mu) / sigma
	} else {
		ln := math.Log(nf)
		mu := poly(coefMuL, ln)
		sigma := math.Exp(poly(coefSigL, ln))
		z = (y - mu) / sigma
	}
	return clamp01(distuv.UnitNormal.Survival(z))
}

// poly evaluates c[0] + c[1]x + c[2]x² + ...
func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
