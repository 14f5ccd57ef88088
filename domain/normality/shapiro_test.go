package normality

import (
	"math"
	"testing"

	"gostatlab/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func normalScores(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}
	return x
}

func TestShapiroWilk_NormalScoresAreNormal(t *testing.T) {
	for _, n := range []int{8, 30, 200} {
		r, err := ShapiroWilk(normalScores(n))
		require.NoError(t, err)
		assert.Equal(t, n, r.N)
		assert.Greater(t, r.W, 0.95, "n=%d", n)
		assert.True(t, r.IsNormal(DefaultAlpha), "n=%d p=%v", n, r.PValue)
	}
}

func TestShapiroWilk_SkewedIsRejected(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = math.Exp(float64(i))
	}
	r, err := ShapiroWilk(x)
	require.NoError(t, err)
	assert.Less(t, r.W, 0.8)
	assert.False(t, r.IsNormal(DefaultAlpha), "p=%v", r.PValue)
}

func TestShapiroWilk_ThreeValues(t *testing.T) {
	r, err := ShapiroWilk([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.W, 1e-12)
	assert.InDelta(t, 1.0, r.PValue, 1e-9)
}

func TestShapiroWilk_SmallSampleBounds(t *testing.T) {
	r, err := ShapiroWilk([]float64{2.1, 3.4, 1.9, 5.6, 4.4, 3.3, 2.8})
	require.NoError(t, err)
	assert.Greater(t, r.W, 0.0)
	assert.LessOrEqual(t, r.W, 1.0)
	assert.GreaterOrEqual(t, r.PValue, 0.0)
	assert.LessOrEqual(t, r.PValue, 1.0)
}

func TestShapiroWilk_IgnoresNaN(t *testing.T) {
	clean, err := ShapiroWilk(normalScores(12))
	require.NoError(t, err)

	dirty, err := ShapiroWilk(append(normalScores(12), math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, clean, dirty)
}

func TestShapiroWilk_Errors(t *testing.T) {
	_, err := ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = ShapiroWilk([]float64{4, 4, 4, 4})
	assert.ErrorIs(t, err, core.ErrDomain)

	_, err = ShapiroWilk(make([]float64, MaxSampleSize+1))
	assert.ErrorIs(t, err, core.ErrDomain)
}

func TestCoefficientsAreUnitNorm(t *testing.T) {
	for _, n := range []int{4, 5, 6, 11, 12, 50} {
		a := coefficients(n)
		sum := 0.0
		for _, v := range a {
			sum += v * v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "n=%d", n)
		assert.InDelta(t, -a[0], a[n-1], 1e-12)
	}
}
