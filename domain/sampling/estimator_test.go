package sampling

import (
	"math"
	"testing"

	"gostatlab/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opinionSample(t *testing.T) Sample {
	t.Helper()
	s, err := NewSample([]string{"Pour", "Contre", "Sans opinion"}, []int64{40, 45, 15})
	require.NoError(t, err)
	return s
}

func TestNewSample_Validation(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		counts     []int64
		wantErr    error
	}{
		{"length mismatch", []string{"a", "b"}, []int64{1}, core.ErrLengthMismatch},
		{"duplicate", []string{"a", "a"}, []int64{1, 2}, core.ErrDuplicateCategory},
		{"negative count", []string{"a", "b"}, []int64{1, -2}, core.ErrDomain},
		{"blank name", []string{"a", " "}, []int64{1, 2}, core.ErrDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSample(tt.categories, tt.counts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewSample_CopiesInput(t *testing.T) {
	counts := []int64{1, 2}
	s, err := NewSample([]string{"a", "b"}, counts)
	require.NoError(t, err)

	counts[0] = 99
	got, ok := s.Count("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), got)
	assert.Equal(t, int64(3), s.Size())
}

func TestComputeProportion_OpinionSample(t *testing.T) {
	props, err := ComputeProportion(opinionSample(t), 2)
	require.NoError(t, err)

	assert.Equal(t, Proportions{
		{Category: "Pour", Value: 0.4},
		{Category: "Contre", Value: 0.45},
		{Category: "Sans opinion", Value: 0.15},
	}, props)
	assert.InDelta(t, 1.0, props.Sum(), 1e-9)
}

func TestComputeProportion_SumsToOne(t *testing.T) {
	samples := [][]int64{
		{1, 1, 1},
		{852, 911, 422},
		{7, 0, 0, 3},
		{13, 17, 19, 23, 29},
	}
	for _, counts := range samples {
		names := make([]string, len(counts))
		for i := range names {
			names[i] = string(rune('a' + i))
		}
		s, err := NewSample(names, counts)
		require.NoError(t, err)

		props, err := ComputeProportion(s, 3)
		require.NoError(t, err)
		// each proportion carries at most 0.0005 of rounding error
		assert.InDelta(t, 1.0, props.Sum(), 0.0005*float64(len(counts)))
	}
}

func TestComputeProportion_EmptySampleFails(t *testing.T) {
	s, err := NewSample([]string{"Pour", "Contre"}, []int64{0, 0})
	require.NoError(t, err)

	props, err := ComputeProportion(s, 2)
	assert.ErrorIs(t, err, core.ErrDivisionByZero)
	assert.Nil(t, props)
}

func TestNewSample_RejectsOverflowingSize(t *testing.T) {
	for _, counts := range [][]int64{
		{math.MaxInt64, 1},
		{math.MaxInt64, math.MaxInt64, 2},
	} {
		names := make([]string, len(counts))
		for i := range names {
			names[i] = string(rune('a' + i))
		}
		_, err := NewSample(names, counts)
		assert.ErrorIs(t, err, core.ErrDomain, counts)
		assert.NotErrorIs(t, err, core.ErrDivisionByZero)
	}

	s, err := NewSample([]string{"a", "b"}, []int64{math.MaxInt64 - 1, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), s.Size())
}

func TestComputeProportion_RejectsUnvalidatedOverflow(t *testing.T) {
	wraps := Sample{Categories: []string{"a", "b"}, Counts: []int64{math.MaxInt64, 1}}
	wrapsToZero := Sample{Categories: []string{"a", "b", "c"}, Counts: []int64{math.MaxInt64, math.MaxInt64, 2}}

	for _, s := range []Sample{wraps, wrapsToZero} {
		props, err := ComputeProportion(s, 2)
		assert.ErrorIs(t, err, core.ErrDomain)
		assert.Nil(t, props)

		_, err = EvaluateSample(s, DefaultZ)
		assert.ErrorIs(t, err, core.ErrDomain)
	}
}

func TestComputeProportion_TiesRoundHalfToEven(t *testing.T) {
	s, err := NewSample([]string{"a", "b"}, []int64{1, 7})
	require.NoError(t, err)

	props, err := ComputeProportion(s, 2)
	require.NoError(t, err)
	assert.Equal(t, Proportions{{Category: "a", Value: 0.12}, {Category: "b", Value: 0.88}}, props)
}

func TestComputeProportion_RejectsUnvalidatedNegativeCounts(t *testing.T) {
	s := Sample{Categories: []string{"a", "b"}, Counts: []int64{5, -1}}
	_, err := ComputeProportion(s, 2)
	assert.ErrorIs(t, err, core.ErrDomain)
}

func TestConfidenceInterval_OpinionSample(t *testing.T) {
	tests := []struct {
		p    float64
		want Interval
	}{
		{0.4, Interval{Lower: 0.304, Upper: 0.496}},
		{0.45, Interval{Lower: 0.352, Upper: 0.548}},
		{0.15, Interval{Lower: 0.08, Upper: 0.22}},
	}
	for _, tt := range tests {
		iv, err := ConfidenceInterval(tt.p, 100, DefaultZ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, iv, "p=%v", tt.p)
	}
}

func TestComputeInterval_Symmetric(t *testing.T) {
	for _, p := range []float64{0.1, 0.25, 0.5, 0.63, 0.9} {
		for _, n := range []int64{10, 100, 2185} {
			iv, err := FluctuationInterval(p, n, DefaultZ)
			require.NoError(t, err)
			// bounds are rounded independently, so allow one unit in the last place
			assert.InDelta(t, iv.Upper-p, p-iv.Lower, 0.0011, "p=%v n=%d", p, n)
		}
	}
}

func TestComputeInterval_Degenerate(t *testing.T) {
	for _, policy := range []Policy{PolicyConfidence, PolicyFluctuation} {
		for _, p := range []float64{0, 1} {
			iv, err := ComputeInterval(p, 50, DefaultZ, policy)
			require.NoError(t, err)
			assert.Equal(t, Interval{Lower: p, Upper: p}, iv)
			assert.Zero(t, iv.Width())
		}
	}
}

func TestComputeInterval_ClampingPolicies(t *testing.T) {
	ci, err := ConfidenceInterval(0.01, 10, DefaultZ)
	require.NoError(t, err)
	assert.Equal(t, Interval{Lower: 0, Upper: 0.072}, ci)

	fi, err := FluctuationInterval(0.01, 10, DefaultZ)
	require.NoError(t, err)
	assert.Equal(t, Interval{Lower: -0.052, Upper: 0.072}, fi)

	hi, err := FluctuationInterval(0.99, 10, DefaultZ)
	require.NoError(t, err)
	assert.Greater(t, hi.Upper, 1.0)

	hc, err := ConfidenceInterval(0.99, 10, DefaultZ)
	require.NoError(t, err)
	assert.Equal(t, 1.0, hc.Upper)
}

func TestComputeInterval_Errors(t *testing.T) {
	tests := []struct {
		name    string
		p       float64
		n       int64
		z       float64
		policy  Policy
		wantErr error
	}{
		{"p below zero", -0.1, 10, DefaultZ, PolicyConfidence, core.ErrDomain},
		{"p above one", 1.2, 10, DefaultZ, PolicyConfidence, core.ErrDomain},
		{"p NaN", math.NaN(), 10, DefaultZ, PolicyConfidence, core.ErrDomain},
		{"n zero", 0.5, 0, DefaultZ, PolicyConfidence, core.ErrDivisionByZero},
		{"n negative", 0.5, -3, DefaultZ, PolicyConfidence, core.ErrDomain},
		{"z zero", 0.5, 10, 0, PolicyConfidence, core.ErrDomain},
		{"z infinite", 0.5, 10, math.Inf(1), PolicyConfidence, core.ErrDomain},
		{"unknown policy", 0.5, 10, DefaultZ, Policy("wilson"), core.ErrDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeInterval(tt.p, tt.n, tt.z, tt.policy)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClassifyContainment_BoundaryInclusive(t *testing.T) {
	iv := Interval{Lower: 0.2, Upper: 0.4}

	tests := []struct {
		reference float64
		want      Containment
	}{
		{0.2, Inside},
		{0.4, Inside},
		{0.3, Inside},
		{0.1999, Outside},
		{0.4001, Outside},
	}
	for _, tt := range tests {
		got, err := ClassifyContainment(tt.reference, iv)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "reference=%v", tt.reference)
	}
}

func TestClassifyContainment_ReferenceProportion(t *testing.T) {
	reference := core.Round(852.0/2185.0, 2)
	require.Equal(t, 0.39, reference)

	got, err := ClassifyContainment(reference, Interval{Lower: 0.304, Upper: 0.496})
	require.NoError(t, err)
	assert.Equal(t, Inside, got)
}

func TestClassifyContainment_RejectsOutOfRangeReference(t *testing.T) {
	_, err := ClassifyContainment(1.5, Interval{Lower: 0, Upper: 1})
	assert.ErrorIs(t, err, core.ErrDomain)
}

func TestClassifyContainment_RejectsInvertedInterval(t *testing.T) {
	_, err := ClassifyContainment(0.4, Interval{Lower: 0.496, Upper: 0.304})
	assert.ErrorIs(t, err, core.ErrDomain)

	_, err = ClassifyContainment(0.4, Interval{Lower: math.NaN(), Upper: 0.5})
	assert.ErrorIs(t, err, core.ErrDomain)

	got, err := ClassifyContainment(0.4, Interval{Lower: 0.4, Upper: 0.4})
	require.NoError(t, err)
	assert.Equal(t, Inside, got)
}

func TestBatchEvaluate_IndependentRows(t *testing.T) {
	names := []string{"Pour", "Contre", "Sans opinion"}
	var samples []Sample
	for _, counts := range [][]int64{{40, 45, 15}, {0, 0, 0}, {10, 10, 0}} {
		s, err := NewSample(names, counts)
		require.NoError(t, err)
		samples = append(samples, s)
	}

	result := BatchEvaluate(samples, DefaultZ)

	require.Len(t, result.Rows, 2)
	require.Len(t, result.Failures, 1)

	assert.Equal(t, 1, result.Failures[0].Index)
	assert.ErrorIs(t, result.Failures[0].Err, core.ErrDivisionByZero)

	first := result.Rows[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, int64(100), first.SampleSize)
	assert.Equal(t, "Pour", first.Intervals[0].Category)
	assert.Equal(t, Interval{Lower: 0.304, Upper: 0.496}, first.Intervals[0].Interval)

	third := result.Rows[1]
	assert.Equal(t, 2, third.Index)
	assert.Equal(t, int64(20), third.SampleSize)
	assert.Equal(t, 0.5, third.Intervals[0].Proportion)
	assert.Equal(t, Interval{Lower: 0.281, Upper: 0.719}, third.Intervals[0].Interval)
	assert.Equal(t, Interval{Lower: 0, Upper: 0}, third.Intervals[2].Interval)
}

func TestBatchEvaluate_Empty(t *testing.T) {
	result := BatchEvaluate(nil, DefaultZ)
	assert.Empty(t, result.Rows)
	assert.Empty(t, result.Failures)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Confidence ")
	require.NoError(t, err)
	assert.Equal(t, PolicyConfidence, p)

	p, err = ParsePolicy("fluctuation")
	require.NoError(t, err)
	assert.Equal(t, PolicyFluctuation, p)

	_, err = ParsePolicy("bayes")
	assert.ErrorIs(t, err, core.ErrDomain)
}

func TestZScore(t *testing.T) {
	z, err := ZScore(0.95)
	require.NoError(t, err)
	assert.InDelta(t, DefaultZ, z, 0.001)

	z, err = ZScore(0.99)
	require.NoError(t, err)
	assert.InDelta(t, 2.576, z, 0.001)

	for _, level := range []float64{0, 1, -0.5, math.NaN()} {
		_, err := ZScore(level)
		assert.ErrorIs(t, err, core.ErrDomain)
	}
}
