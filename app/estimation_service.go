package app

import (
	"context"
	"fmt"
	"time"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
	"gostatlab/domain/estimation"
	"gostatlab/domain/sampling"
	"gostatlab/internal"
	"gostatlab/internal/errors"
	"gostatlab/ports"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ErrPersistenceDisabled is returned by report lookups when no report
// store is configured.
var ErrPersistenceDisabled = errors.New(errors.CodeNotFound, "report persistence is disabled")

// EstimationOptions tunes the estimation workflow
type EstimationOptions struct {
	Z            float64
	Precision    int // decimals of observed and reference frequencies
	BatchLimit   int // samples evaluated in the batch step, 0 for all
	BatchWorkers int
}

// DefaultEstimationOptions returns the 95% settings used in class.
func DefaultEstimationOptions() EstimationOptions {
	return EstimationOptions{Z: sampling.DefaultZ, Precision: 2, BatchLimit: 5, BatchWorkers: 4}
}

// EstimationService runs interval estimation over sample tables
type EstimationService struct {
	options EstimationOptions
	repo    ports.ReportRepository
	logger  *internal.Logger
}

// NewEstimationService creates an estimation service. repo may be nil, in
// which case reports are never persisted.
func NewEstimationService(options EstimationOptions, repo ports.ReportRepository) *EstimationService {
	if options.BatchWorkers < 1 {
		options.BatchWorkers = 1
	}
	return &EstimationService{
		options: options,
		repo:    repo,
		logger:  internal.DefaultLogger.WithComponent("Estimation"),
	}
}

// Options returns the service settings.
func (s *EstimationService) Options() EstimationOptions {
	return s.options
}

// EstimateRequest describes one estimation run over a samples table
type EstimateRequest struct {
	Label      string
	Table      *dataset.Table
	Columns    []string             // categories; every column when empty
	References sampling.Proportions // known population proportions, optional
	Sample     int                  // row used for the confidence step
	Persist    bool
}

// Proportions returns the observed proportions of a sample at the
// configured precision.
func (s *EstimationService) Proportions(sample sampling.Sample) (sampling.Proportions, error) {
	return sampling.ComputeProportion(sample, s.options.Precision)
}

// ReferenceFromCounts turns population counts into reference proportions.
func (s *EstimationService) ReferenceFromCounts(categories []string, counts []int64) (sampling.Proportions, error) {
	population, err := sampling.NewSample(categories, counts)
	if err != nil {
		return nil, err
	}
	return sampling.ComputeProportion(population, s.options.Precision)
}

// EvaluateSamples is BatchEvaluate spread over BatchWorkers goroutines.
// Rows and failures come back in input order, identical to the
// sequential result.
func (s *EstimationService) EvaluateSamples(ctx context.Context, samples []sampling.Sample) (sampling.BatchResult, error) {
	type outcome struct {
		row sampling.BatchRow
		err error
	}
	outcomes := make([]outcome, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.BatchWorkers)
	for i := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := sampling.EvaluateRow(i, samples[i], s.options.Z)
			outcomes[i] = outcome{row: row, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sampling.BatchResult{}, err
	}

	result := sampling.BatchResult{Rows: make([]sampling.BatchRow, 0, len(samples))}
	for i, o := range outcomes {
		if o.err != nil {
			s.logger.Warn("Sample %d skipped: %v", i, o.err)
			result.Failures = append(result.Failures, sampling.NewBatchFailure(i, o.err))
			continue
		}
		result.Rows = append(result.Rows, o.row)
	}
	return result, nil
}

// Estimate runs the fluctuation, confidence and batch steps over the
// samples of req.Table.
func (s *EstimationService) Estimate(ctx context.Context, req EstimateRequest) (*estimation.Report, error) {
	start := time.Now()
	if req.Table == nil {
		return nil, errors.InvalidInput("samples table is required")
	}
	samples, err := req.Table.Samples(req.Columns)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read samples")
	}
	if len(samples) == 0 {
		return nil, errors.Wrap(fmt.Errorf("%w: table has no samples", core.ErrInsufficientData), "failed to read samples")
	}
	if req.Sample < 0 || req.Sample >= len(samples) {
		return nil, errors.Wrap(core.NewNotFoundError(core.ErrRowNotFound, fmt.Sprint(req.Sample)), "invalid confidence sample")
	}

	fluctuation, err := s.fluctuationStep(samples, req.References)
	if err != nil {
		return nil, errors.Wrap(err, "fluctuation step failed")
	}
	confidence, err := s.confidenceStep(req.Sample, samples[req.Sample], fluctuation, req.References)
	if err != nil {
		return nil, errors.Wrap(err, "confidence step failed")
	}

	batchSamples := samples
	if s.options.BatchLimit > 0 && len(batchSamples) > s.options.BatchLimit {
		batchSamples = batchSamples[:s.options.BatchLimit]
	}
	batch, err := s.EvaluateSamples(ctx, batchSamples)
	if err != nil {
		return nil, errors.Wrap(err, "batch step failed")
	}

	report := &estimation.Report{
		ID:          core.NewReportID(),
		Label:       req.Label,
		Z:           s.options.Z,
		SampleCount: len(samples),
		Categories:  samples[0].Categories,
		References:  req.References,
		Fluctuation: fluctuation,
		Confidence:  confidence,
		Batch:       batch,
		CreatedAt:   time.Now().UTC(),
	}

	if req.Persist && s.repo != nil {
		if err := s.repo.Save(ctx, report); err != nil {
			return nil, errors.Wrap(err, "failed to save report")
		}
	}

	inside, outside := report.CountContainment()
	s.logger.Info("Estimated %d samples in %s (%d references inside, %d outside)",
		len(samples), time.Since(start).Round(time.Microsecond), inside, outside)
	return report, nil
}

// fluctuationStep treats the rounded mean counts as one sample of the
// population and builds unclamped intervals with n = number of samples.
func (s *EstimationService) fluctuationStep(samples []sampling.Sample, refs sampling.Proportions) (estimation.FluctuationStep, error) {
	categories := samples[0].Categories
	n := int64(len(samples))

	means := make([]estimation.CategoryMean, len(categories))
	total := 0.0
	column := make([]float64, len(samples))
	for j, name := range categories {
		for i, sample := range samples {
			column[i] = float64(sample.Counts[j])
		}
		m := core.Round(stat.Mean(column, nil), 0)
		means[j] = estimation.CategoryMean{Category: name, Mean: m}
		total += m
	}
	if total == 0 {
		return estimation.FluctuationStep{}, core.ErrDivisionByZero
	}

	checks := make([]estimation.FluctuationCheck, len(categories))
	for j, m := range means {
		freq := core.Round(m.Mean/total, s.options.Precision)
		iv, err := sampling.FluctuationInterval(freq, n, s.options.Z)
		if err != nil {
			return estimation.FluctuationStep{}, fmt.Errorf("category %q: %w", m.Category, err)
		}
		check := estimation.FluctuationCheck{Category: m.Category, Frequency: freq, Interval: iv}
		if ref, ok := refs.Get(m.Category); ok {
			c, err := sampling.ClassifyContainment(ref, iv)
			if err != nil {
				return estimation.FluctuationStep{}, fmt.Errorf("reference for %q: %w", m.Category, err)
			}
			check.Reference = &ref
			check.Containment = c
		}
		checks[j] = check
	}
	return estimation.FluctuationStep{SampleCount: n, Means: means, Checks: checks}, nil
}

// confidenceStep estimates the population from one sample and checks each
// reference against both the confidence and the fluctuation interval.
func (s *EstimationService) confidenceStep(index int, sample sampling.Sample, fluctuation estimation.FluctuationStep, refs sampling.Proportions) (estimation.ConfidenceStep, error) {
	n := sample.Size()
	if n < 0 {
		return estimation.ConfidenceStep{}, fmt.Errorf("sample %d: %w: sample size overflows int64", index, core.ErrDomain)
	}
	if n == 0 {
		return estimation.ConfidenceStep{}, fmt.Errorf("sample %d: %w", index, core.ErrDivisionByZero)
	}

	checks := make([]estimation.ConfidenceCheck, len(sample.Categories))
	for j, name := range sample.Categories {
		p := float64(sample.Counts[j]) / float64(n)
		iv, err := sampling.ConfidenceInterval(p, n, s.options.Z)
		if err != nil {
			return estimation.ConfidenceStep{}, fmt.Errorf("category %q: %w", name, err)
		}
		check := estimation.ConfidenceCheck{
			Category:  name,
			Frequency: core.Round(p, s.options.Precision),
			Interval:  iv,
		}
		if ref, ok := refs.Get(name); ok {
			c, err := sampling.ClassifyContainment(ref, iv)
			if err != nil {
				return estimation.ConfidenceStep{}, fmt.Errorf("reference for %q: %w", name, err)
			}
			check.Reference = &ref
			check.Containment = c
			if j < len(fluctuation.Checks) {
				fc, err := sampling.ClassifyContainment(ref, fluctuation.Checks[j].Interval)
				if err != nil {
					return estimation.ConfidenceStep{}, err
				}
				check.FluctuationContainment = fc
			}
		}
		checks[j] = check
	}
	return estimation.ConfidenceStep{SampleIndex: index, SampleSize: n, Checks: checks}, nil
}

// GetReport loads a stored report.
func (s *EstimationService) GetReport(ctx context.Context, id core.ReportID) (*estimation.Report, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.Get(ctx, id)
}

// ListReports lists stored reports, newest first.
func (s *EstimationService) ListReports(ctx context.Context, limit int) ([]estimation.ReportSummary, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.List(ctx, limit)
}
