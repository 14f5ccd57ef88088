package distributions

import (
	"math"
	"testing"

	"gostatlab/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func trapezoid(s Series) float64 {
	area := 0.0
	for i := 1; i < len(s.X); i++ {
		area += (s.X[i] - s.X[i-1]) * (s.Y[i] + s.Y[i-1]) / 2
	}
	return area
}

func TestBinomial_MeanAndStdDev(t *testing.T) {
	s, err := Binomial(20, 0.4)
	require.NoError(t, err)
	require.Len(t, s.X, 21)
	assert.Equal(t, Discrete, s.Kind)
	assert.InDelta(t, 1.0, floats.Sum(s.Y), 1e-9)

	mean, err := Mean(s.X, s.Y)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, mean, 1e-9)

	std, err := StdDev(s.X, s.Y)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(4.8), std, 1e-9)
}

func TestDiscreteUniform(t *testing.T) {
	s, err := DiscreteUniform(10)
	require.NoError(t, err)

	mean, err := Mean(s.X, s.Y)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, mean, 1e-12)

	std, err := StdDev(s.X, s.Y)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(99.0/12.0), std, 1e-12)
}

func TestPoisson_TruncatedGrid(t *testing.T) {
	s, err := Poisson(5, 20)
	require.NoError(t, err)
	require.Len(t, s.X, 20)
	assert.InDelta(t, 1.0, floats.Sum(s.Y), 1e-5)
	assert.InDelta(t, math.Exp(-5), s.Y[0], 1e-12)

	mean, err := Mean(s.X, s.Y)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, mean, 1e-3)
}

func TestZipf_FirstMass(t *testing.T) {
	s, err := Zipf(2, 20)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.X[0])
	assert.InDelta(t, 6/(math.Pi*math.Pi), s.Y[0], 1e-9)
	assert.InDelta(t, s.Y[0]/4, s.Y[1], 1e-12)
}

func TestDirac(t *testing.T) {
	s := Dirac(0, arange(-5, 6))
	require.Len(t, s.Y, 11)
	assert.Equal(t, 1.0, s.Y[5])
	assert.Equal(t, 1.0, floats.Sum(s.Y))
}

func TestNormal_Grid(t *testing.T) {
	s, err := Normal(0, 1)
	require.NoError(t, err)
	require.Len(t, s.X, GridPoints)
	assert.Equal(t, Continuous, s.Kind)
	assert.Equal(t, -4.0, s.X[0])
	assert.InDelta(t, 4.0, s.X[GridPoints-1], 1e-12)
	assert.InDelta(t, s.Y[0], s.Y[GridPoints-1], 1e-15)
	assert.InDelta(t, 1.0, trapezoid(s), 1e-3)
}

func TestContinuousLawsIntegrate(t *testing.T) {
	chi, err := ChiSquared(3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, trapezoid(chi), 0.01)

	uni, err := UniformContinuous(0, 1)
	require.NoError(t, err)
	for _, y := range uni.Y {
		assert.Equal(t, 1.0, y)
	}

	par, err := Pareto(3)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, par.Y[0], 1e-12)

	ln, err := LogNormal(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, trapezoid(ln), 0.02)
}

func TestPoissonContinuous(t *testing.T) {
	s, err := PoissonContinuous(5)
	require.NoError(t, err)
	require.Len(t, s.X, GridPoints)
	assert.InDelta(t, math.Exp(-5), s.Y[0], 1e-12)
}

func TestInvalidParameters(t *testing.T) {
	_, err := Binomial(0, 0.5)
	assert.ErrorIs(t, err, core.ErrDomain)
	_, err = Binomial(10, 1.5)
	assert.ErrorIs(t, err, core.ErrDomain)
	_, err = Poisson(0, 10)
	assert.ErrorIs(t, err, core.ErrDomain)
	_, err = Zipf(1, 10)
	assert.ErrorIs(t, err, core.ErrDomain)
	_, err = Normal(0, 0)
	assert.ErrorIs(t, err, core.ErrDomain)
	_, err = UniformContinuous(1, 1)
	assert.ErrorIs(t, err, core.ErrDomain)
	_, err = Mean([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestByName(t *testing.T) {
	assert.Len(t, Names(), 11)

	s, err := ByName("binomial", Params{"n": 10, "p": 0.5})
	require.NoError(t, err)
	assert.Len(t, s.X, 11)

	s, err = ByName("normal", nil)
	require.NoError(t, err)
	assert.Equal(t, "normal(0, 1)", s.Name)

	_, err = ByName("cauchy", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = ByName("binomial", Params{"n": 2.5})
	assert.ErrorIs(t, err, core.ErrDomain)
}
