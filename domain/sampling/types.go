package sampling

import (
	"fmt"
	"math"
	"strings"

	"gostatlab/domain/core"
)

// DefaultZ is the two-tailed z-score for a 95% confidence level.
const DefaultZ = 1.96

// IntervalPrecision is the number of decimals interval bounds are rounded to.
const IntervalPrecision = 3

// Sample is one observed set of category counts. Category order is
// significant and preserved by every derived value.
type Sample struct {
	Categories []string `json:"categories"`
	Counts     []int64  `json:"counts"`
}

// NewSample validates and builds a Sample. The slices are copied.
func NewSample(categories []string, counts []int64) (Sample, error) {
	if len(categories) != len(counts) {
		return Sample{}, fmt.Errorf("%w: %d categories, %d counts", core.ErrLengthMismatch, len(categories), len(counts))
	}
	seen := make(map[string]bool, len(categories))
	var n int64
	for i, name := range categories {
		if strings.TrimSpace(name) == "" {
			return Sample{}, fmt.Errorf("%w: category %d has an empty name", core.ErrDomain, i)
		}
		if seen[name] {
			return Sample{}, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)
		}
		seen[name] = true
		if counts[i] < 0 {
			return Sample{}, fmt.Errorf("%w: count for %q is %d, want >= 0", core.ErrDomain, name, counts[i])
		}
		if n > math.MaxInt64-counts[i] {
			return Sample{}, fmt.Errorf("%w: counts overflow int64 at %q", core.ErrDomain, name)
		}
		n += counts[i]
	}
	return Sample{
		Categories: append([]string(nil), categories...),
		Counts:     append([]int64(nil), counts...),
	}, nil
}

// Size returns n, the sum of all counts. A sum that overflows int64 is
// reported as -1; NewSample never builds such a sample.
func (s Sample) Size() int64 {
	var n int64
	for _, c := range s.Counts {
		if c > 0 && n > math.MaxInt64-c {
			return -1
		}
		n += c
	}
	return n
}

// Count returns the count recorded for category.
func (s Sample) Count(category string) (int64, bool) {
	for i, name := range s.Categories {
		if name == category {
			return s.Counts[i], true
		}
	}
	return 0, false
}

// CategoryProportion pairs a category with its observed share of the sample.
type CategoryProportion struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// Proportions is an ordered list of category proportions.
type Proportions []CategoryProportion

// Get returns the proportion recorded for category.
func (ps Proportions) Get(category string) (float64, bool) {
	for _, p := range ps {
		if p.Category == category {
			return p.Value, true
		}
	}
	return 0, false
}

// Sum returns the sum of all proportions.
func (ps Proportions) Sum() float64 {
	total := 0.0
	for _, p := range ps {
		total += p.Value
	}
	return total
}

// Interval is a closed range [Lower, Upper].
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns Upper - Lower.
func (iv Interval) Width() float64 {
	return iv.Upper - iv.Lower
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Lower, iv.Upper)
}

// Policy selects how an interval is bounded.
type Policy string

const (
	// PolicyConfidence describes plausible population proportions from a
	// single sample; bounds are clamped to [0, 1].
	PolicyConfidence Policy = "confidence"
	// PolicyFluctuation describes the spread of proportions across repeated
	// samples of a known population; bounds are left unclamped.
	PolicyFluctuation Policy = "fluctuation"
)

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyConfidence:
		return PolicyConfidence, nil
	case PolicyFluctuation:
		return PolicyFluctuation, nil
	default:
		return "", fmt.Errorf("%w: unknown interval policy %q", core.ErrDomain, s)
	}
}

// Containment is the outcome of testing a reference value against an interval.
type Containment string

const (
	Inside  Containment = "INSIDE"
	Outside Containment = "OUTSIDE"
)

// CategoryInterval is the interval computed for one category of a sample.
type CategoryInterval struct {
	Category   string   `json:"category"`
	Proportion float64  `json:"proportion"`
	Interval   Interval `json:"interval"`
}

// BatchRow holds the per-category intervals of one successfully evaluated sample.
type BatchRow struct {
	Index      int                `json:"index"`
	SampleSize int64              `json:"sample_size"`
	Intervals  []CategoryInterval `json:"intervals"`
}

// BatchFailure records a sample that could not be evaluated.
type BatchFailure struct {
	Index int    `json:"index"`
	Err   error  `json:"-"`
	Cause string `json:"error"`
}

// BatchResult is the outcome of BatchEvaluate. Rows and Failures are both
// ordered by sample index.
type BatchResult struct {
	Rows     []BatchRow     `json:"rows"`
	Failures []BatchFailure `json:"failures,omitempty"`
}
