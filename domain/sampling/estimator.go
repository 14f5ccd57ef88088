// Package sampling computes observed proportions of categorical samples and
// the normal-approximation intervals around them.
package sampling

import (
	"fmt"
	"math"

	"gostatlab/domain/core"
)

var errSizeOverflow = fmt.Errorf("%w: sample size overflows int64", core.ErrDomain)

// ComputeProportion returns count/n for every category, rounded to
// precision decimals, in sample order. A sample whose counts sum to zero
// fails with core.ErrDivisionByZero; negative counts or a sum past
// math.MaxInt64 fail with core.ErrDomain.
func ComputeProportion(s Sample, precision int) (Proportions, error) {
	if precision < 0 {
		return nil, fmt.Errorf("%w: precision=%d, want >= 0", core.ErrDomain, precision)
	}
	for i, c := range s.Counts {
		if c < 0 {
			return nil, fmt.Errorf("%w: count for %q is %d, want >= 0", core.ErrDomain, s.Categories[i], c)
		}
	}
	n := s.Size()
	if n < 0 {
		return nil, errSizeOverflow
	}
	if n == 0 {
		return nil, core.ErrDivisionByZero
	}

	out := make(Proportions, len(s.Categories))
	for i, name := range s.Categories {
		out[i] = CategoryProportion{
			Category: name,
			Value:    core.Round(float64(s.Counts[i])/float64(n), precision),
		}
	}
	return out, nil
}

// ComputeInterval returns p ± z·sqrt(p(1-p)/n), rounded to
// IntervalPrecision decimals. PolicyConfidence clamps the bounds to [0, 1];
// PolicyFluctuation leaves them as computed.
func ComputeInterval(p float64, n int64, z float64, policy Policy) (Interval, error) {
	if math.IsNaN(p) || !core.InUnitInterval(p) {
		return Interval{}, core.NewDomainError("p", p, "[0,1]")
	}
	if n == 0 {
		return Interval{}, core.ErrDivisionByZero
	}
	if n < 0 {
		return Interval{}, core.NewDomainError("n", float64(n), "> 0")
	}
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return Interval{}, core.NewDomainError("z", z, "finite and > 0")
	}

	margin := z * math.Sqrt(p*(1-p)/float64(n))
	lower, upper := p-margin, p+margin

	switch policy {
	case PolicyConfidence:
		lower = math.Max(0, lower)
		upper = math.Min(1, upper)
	case PolicyFluctuation:
	default:
		return Interval{}, fmt.Errorf("%w: unknown interval policy %q", core.ErrDomain, policy)
	}

	return Interval{
		Lower: core.Round(lower, IntervalPrecision),
		Upper: core.Round(upper, IntervalPrecision),
	}, nil
}

// ConfidenceInterval is ComputeInterval with PolicyConfidence.
func ConfidenceInterval(p float64, n int64, z float64) (Interval, error) {
	return ComputeInterval(p, n, z, PolicyConfidence)
}

// FluctuationInterval is ComputeInterval with PolicyFluctuation.
func FluctuationInterval(p float64, n int64, z float64) (Interval, error) {
	return ComputeInterval(p, n, z, PolicyFluctuation)
}

// ClassifyContainment reports whether reference lies in the closed interval.
// An interval with Lower > Upper is rejected.
func ClassifyContainment(reference float64, iv Interval) (Containment, error) {
	if math.IsNaN(reference) || !core.InUnitInterval(reference) {
		return "", core.NewDomainError("reference", reference, "[0,1]")
	}
	if math.IsNaN(iv.Lower) || math.IsNaN(iv.Upper) || iv.Lower > iv.Upper {
		return "", fmt.Errorf("%w: interval %s has lower > upper", core.ErrDomain, iv)
	}
	if iv.Lower <= reference && reference <= iv.Upper {
		return Inside, nil
	}
	return Outside, nil
}

// EvaluateSample computes, for every category of s, the observed proportion
// and its confidence interval using the sample's own size.
func EvaluateSample(s Sample, z float64) ([]CategoryInterval, error) {
	for i, c := range s.Counts {
		if c < 0 {
			return nil, fmt.Errorf("%w: count for %q is %d, want >= 0", core.ErrDomain, s.Categories[i], c)
		}
	}
	n := s.Size()
	if n < 0 {
		return nil, errSizeOverflow
	}
	if n == 0 {
		return nil, core.ErrDivisionByZero
	}
	out := make([]CategoryInterval, len(s.Categories))
	for i, name := range s.Categories {
		p := float64(s.Counts[i]) / float64(n)
		iv, err := ConfidenceInterval(p, n, z)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		out[i] = CategoryInterval{
			Category:   name,
			Proportion: core.Round(p, IntervalPrecision),
			Interval:   iv,
		}
	}
	return out, nil
}

// BatchEvaluate evaluates every sample independently, in input order. A
// sample that fails is recorded in Failures and skipped; the remaining
// samples are still evaluated.
func BatchEvaluate(samples []Sample, z float64) BatchResult {
	result := BatchResult{Rows: make([]BatchRow, 0, len(samples))}
	for i, s := range samples {
		row, err := EvaluateRow(i, s, z)
		if err != nil {
			result.Failures = append(result.Failures, NewBatchFailure(i, err))
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

// EvaluateRow evaluates one positional sample of a batch.
func EvaluateRow(index int, s Sample, z float64) (BatchRow, error) {
	intervals, err := EvaluateSample(s, z)
	if err != nil {
		return BatchRow{}, err
	}
	return BatchRow{Index: index, SampleSize: s.Size(), Intervals: intervals}, nil
}

// NewBatchFailure wraps err for the sample at index.
func NewBatchFailure(index int, err error) BatchFailure {
	return BatchFailure{Index: index, Err: err, Cause: err.Error()}
}
