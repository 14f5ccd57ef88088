package app

import (
	"context"
	"errors"
	"testing"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
	"gostatlab/domain/estimation"
	"gostatlab/domain/sampling"
	apperrors "gostatlab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Save(ctx context.Context, report *estimation.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) Get(ctx context.Context, id core.ReportID) (*estimation.Report, error) {
	args := m.Called(ctx, id)
	report, _ := args.Get(0).(*estimation.Report)
	return report, args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, limit int) ([]estimation.ReportSummary, error) {
	args := m.Called(ctx, limit)
	summaries, _ := args.Get(0).([]estimation.ReportSummary)
	return summaries, args.Error(1)
}

func pollTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable(
		[]string{"Pour", "Contre", "Sans opinion"},
		[][]string{
			{"40", "45", "15"},
			{"38", "42", "20"},
			{"42", "41", "17"},
		},
	)
	require.NoError(t, err)
	return table
}

func populationReferences(t *testing.T, svc *EstimationService) sampling.Proportions {
	t.Helper()
	refs, err := svc.ReferenceFromCounts([]string{"Pour", "Contre", "Sans opinion"}, []int64{852, 911, 422})
	require.NoError(t, err)
	return refs
}

func TestReferenceFromCounts(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	refs := populationReferences(t, svc)

	assert.Equal(t, sampling.Proportions{
		{Category: "Pour", Value: 0.39},
		{Category: "Contre", Value: 0.42},
		{Category: "Sans opinion", Value: 0.19},
	}, refs)

	_, err := svc.ReferenceFromCounts([]string{"a"}, []int64{0})
	assert.ErrorIs(t, err, core.ErrDivisionByZero)
}

func TestEstimate_FluctuationStep(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	report, err := svc.Estimate(context.Background(), EstimateRequest{
		Label:      "poll",
		Table:      pollTable(t),
		References: populationReferences(t, svc),
	})
	require.NoError(t, err)

	step := report.Fluctuation
	assert.Equal(t, int64(3), step.SampleCount)
	assert.Equal(t, []estimation.CategoryMean{
		{Category: "Pour", Mean: 40},
		{Category: "Contre", Mean: 43},
		{Category: "Sans opinion", Mean: 17},
	}, step.Means)

	require.Len(t, step.Checks, 3)
	pour := step.Checks[0]
	assert.Equal(t, 0.4, pour.Frequency)
	assert.Equal(t, sampling.Interval{Lower: -0.154, Upper: 0.954}, pour.Interval)
	assert.Equal(t, sampling.Inside, pour.Containment)
	assert.Equal(t, 0.39, *pour.Reference)

	contre := step.Checks[1]
	assert.Equal(t, 0.43, contre.Frequency)
	assert.Equal(t, sampling.Interval{Lower: -0.13, Upper: 0.99}, contre.Interval)
}

func TestEstimate_FluctuationMeansRoundHalfToEven(t *testing.T) {
	table, err := dataset.NewTable(
		[]string{"Pour", "Contre"},
		[][]string{{"40", "60"}, {"41", "59"}},
	)
	require.NoError(t, err)

	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	report, err := svc.Estimate(context.Background(), EstimateRequest{Label: "ties", Table: table})
	require.NoError(t, err)

	// 40.5 -> 40 and 59.5 -> 60
	assert.Equal(t, []estimation.CategoryMean{
		{Category: "Pour", Mean: 40},
		{Category: "Contre", Mean: 60},
	}, report.Fluctuation.Means)
	assert.Equal(t, 0.4, report.Fluctuation.Checks[0].Frequency)
	assert.Equal(t, 0.6, report.Fluctuation.Checks[1].Frequency)
}

func TestEstimate_ConfidenceStep(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	report, err := svc.Estimate(context.Background(), EstimateRequest{
		Table:      pollTable(t),
		References: populationReferences(t, svc),
	})
	require.NoError(t, err)

	step := report.Confidence
	assert.Equal(t, 0, step.SampleIndex)
	assert.Equal(t, int64(100), step.SampleSize)
	require.Len(t, step.Checks, 3)

	want := []sampling.Interval{
		{Lower: 0.304, Upper: 0.496},
		{Lower: 0.352, Upper: 0.548},
		{Lower: 0.08, Upper: 0.22},
	}
	for i, c := range step.Checks {
		assert.Equal(t, want[i], c.Interval, c.Category)
		assert.Equal(t, sampling.Inside, c.Containment, c.Category)
		assert.Equal(t, sampling.Inside, c.FluctuationContainment, c.Category)
	}

	inside, outside := report.CountContainment()
	assert.Equal(t, 3, inside)
	assert.Equal(t, 0, outside)
}

func TestEstimate_WithoutReferences(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	report, err := svc.Estimate(context.Background(), EstimateRequest{Table: pollTable(t), Sample: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Confidence.SampleIndex)
	for _, c := range report.Confidence.Checks {
		assert.Nil(t, c.Reference)
		assert.Empty(t, c.Containment)
	}
	assert.Equal(t, 3, report.SampleCount)
	assert.NotEmpty(t, report.ID)
}

func TestEstimate_BatchLimit(t *testing.T) {
	opts := DefaultEstimationOptions()
	opts.BatchLimit = 2
	svc := NewEstimationService(opts, nil)

	report, err := svc.Estimate(context.Background(), EstimateRequest{Table: pollTable(t)})
	require.NoError(t, err)
	require.Len(t, report.Batch.Rows, 2)
	assert.Equal(t, 1, report.Batch.Rows[1].Index)
}

func TestEstimate_Errors(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	ctx := context.Background()

	_, err := svc.Estimate(ctx, EstimateRequest{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = svc.Estimate(ctx, EstimateRequest{Table: pollTable(t), Sample: 9})
	assert.ErrorIs(t, err, core.ErrRowNotFound)

	zeros, err := dataset.NewTable([]string{"a", "b"}, [][]string{{"0", "0"}, {"0", "0"}})
	require.NoError(t, err)
	_, err = svc.Estimate(ctx, EstimateRequest{Table: zeros})
	assert.ErrorIs(t, err, core.ErrDivisionByZero)

	empty, err := dataset.NewTable([]string{"a"}, nil)
	require.NoError(t, err)
	_, err = svc.Estimate(ctx, EstimateRequest{Table: empty})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	bad := sampling.Proportions{{Category: "Pour", Value: 1.5}}
	_, err = svc.Estimate(ctx, EstimateRequest{Table: pollTable(t), References: bad})
	assert.ErrorIs(t, err, core.ErrDomain)
}

func TestEstimate_ConfidenceSampleEmpty(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	table, err := dataset.NewTable([]string{"a", "b"}, [][]string{{"0", "0"}, {"4", "6"}})
	require.NoError(t, err)

	_, err = svc.Estimate(context.Background(), EstimateRequest{Table: table})
	assert.ErrorIs(t, err, core.ErrDivisionByZero)

	report, err := svc.Estimate(context.Background(), EstimateRequest{Table: table, Sample: 1})
	require.NoError(t, err)
	require.Len(t, report.Batch.Failures, 1)
	assert.Equal(t, 0, report.Batch.Failures[0].Index)
}

func TestEvaluateSamples_MatchesSequential(t *testing.T) {
	var samples []sampling.Sample
	for i := 0; i < 40; i++ {
		counts := []int64{int64(i * 3 % 17), int64(i % 5), int64(i * 7 % 11)}
		if i%9 == 0 {
			counts = []int64{0, 0, 0}
		}
		s, err := sampling.NewSample([]string{"a", "b", "c"}, counts)
		require.NoError(t, err)
		samples = append(samples, s)
	}

	opts := DefaultEstimationOptions()
	opts.BatchWorkers = 8
	svc := NewEstimationService(opts, nil)

	got, err := svc.EvaluateSamples(context.Background(), samples)
	require.NoError(t, err)
	assert.Equal(t, sampling.BatchEvaluate(samples, opts.Z), got)
	assert.NotEmpty(t, got.Failures)
}

func TestEvaluateSamples_Cancelled(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)
	s, err := sampling.NewSample([]string{"a"}, []int64{1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.EvaluateSamples(ctx, []sampling.Sample{s, s})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimate_Persists(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*estimation.Report")).Return(nil)
	svc := NewEstimationService(DefaultEstimationOptions(), repo)

	report, err := svc.Estimate(context.Background(), EstimateRequest{Label: "saved", Table: pollTable(t), Persist: true})
	require.NoError(t, err)
	repo.AssertCalled(t, "Save", mock.Anything, report)

	_, err = svc.Estimate(context.Background(), EstimateRequest{Table: pollTable(t)})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestEstimate_SaveFailure(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc := NewEstimationService(DefaultEstimationOptions(), repo)

	_, err := svc.Estimate(context.Background(), EstimateRequest{Table: pollTable(t), Persist: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestReports(t *testing.T) {
	id := core.NewReportID()
	stored := &estimation.Report{ID: id, Label: "stored"}

	repo := new(MockReportRepository)
	repo.On("Get", mock.Anything, id).Return(stored, nil)
	repo.On("List", mock.Anything, 10).Return([]estimation.ReportSummary{stored.Summary()}, nil)
	svc := NewEstimationService(DefaultEstimationOptions(), repo)

	got, err := svc.GetReport(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "stored", got.Label)

	list, err := svc.ListReports(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	repo.AssertExpectations(t)
}

func TestReports_PersistenceDisabled(t *testing.T) {
	svc := NewEstimationService(DefaultEstimationOptions(), nil)

	_, err := svc.GetReport(context.Background(), core.NewReportID())
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	_, err = svc.ListReports(context.Background(), 5)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}
