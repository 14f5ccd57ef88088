// Package estimation holds the result of a full sampling analysis: the
// fluctuation check over many samples, the confidence check on one sample
// and the per-sample batch.
package estimation

import (
	"time"

	"gostatlab/domain/core"
	"gostatlab/domain/sampling"
)

// CategoryMean is the rounded mean count of one category across samples.
type CategoryMean struct {
	Category string  `json:"category"`
	Mean     float64 `json:"mean"`
}

// FluctuationCheck compares a reference proportion with the fluctuation
// interval around the observed frequency.
type FluctuationCheck struct {
	Category    string               `json:"category"`
	Frequency   float64              `json:"frequency"`
	Interval    sampling.Interval    `json:"interval"`
	Reference   *float64             `json:"reference,omitempty"`
	Containment sampling.Containment `json:"containment,omitempty"`
}

// FluctuationStep is the analysis of many samples drawn from a known
// population. SampleCount is the n used for the intervals.
type FluctuationStep struct {
	SampleCount int64              `json:"sample_count"`
	Means       []CategoryMean     `json:"means"`
	Checks      []FluctuationCheck `json:"checks"`
}

// ConfidenceCheck compares a reference proportion with both the
// confidence interval of one sample and the fluctuation interval.
type ConfidenceCheck struct {
	Category               string               `json:"category"`
	Frequency              float64              `json:"frequency"`
	Interval               sampling.Interval    `json:"interval"`
	Reference              *float64             `json:"reference,omitempty"`
	Containment            sampling.Containment `json:"containment,omitempty"`
	FluctuationContainment sampling.Containment `json:"fluctuation_containment,omitempty"`
}

// ConfidenceStep is the estimation from a single sample.
type ConfidenceStep struct {
	SampleIndex int               `json:"sample_index"`
	SampleSize  int64             `json:"sample_size"`
	Checks      []ConfidenceCheck `json:"checks"`
}

// Report is the outcome of one estimation run.
type Report struct {
	ID          core.ReportID        `json:"id"`
	Label       string               `json:"label"`
	Z           float64              `json:"z"`
	SampleCount int                  `json:"sample_count"`
	Categories  []string             `json:"categories"`
	References  sampling.Proportions `json:"references,omitempty"`
	Fluctuation FluctuationStep      `json:"fluctuation"`
	Confidence  ConfidenceStep       `json:"confidence"`
	Batch       sampling.BatchResult `json:"batch"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ReportSummary is the listing view of a stored report.
type ReportSummary struct {
	ID          core.ReportID `json:"id" db:"id"`
	Label       string        `json:"label" db:"label"`
	Z           float64       `json:"z" db:"z"`
	SampleCount int           `json:"sample_count" db:"sample_count"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Summary returns the listing view of r.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:          r.ID,
		Label:       r.Label,
		Z:           r.Z,
		SampleCount: r.SampleCount,
		CreatedAt:   r.CreatedAt,
	}
}

// CountContainment tallies how many reference checks landed inside and
// outside their confidence interval.
func (r *Report) CountContainment() (inside, outside int) {
	for _, c := range r.Confidence.Checks {
		switch c.Containment {
		case sampling.Inside:
			inside++
		case sampling.Outside:
			outside++
		}
	}
	return inside, outside
}
