// Package descriptive computes summary statistics, quantile spreads and
// chart-ready aggregates (box plots, histograms, category bins) over a
// single numeric column.
package descriptive

import (
	"fmt"
	"math"
	"sort"

	"gostatlab/domain/core"

	"github.com/montanaflynn/stats"
)

// SummaryPrecision is the number of decimals summary values are rounded to.
const SummaryPrecision = 2

// Summary holds the central-tendency and dispersion parameters of a column.
type Summary struct {
	Count            int     `json:"count"`
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
	Mode             float64 `json:"mode"`
	StdDev           float64 `json:"std_dev"`
	MeanAbsDeviation float64 `json:"mean_abs_deviation"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	Range            float64 `json:"range"`
}

// Spread holds quartile and decile based dispersion.
type Spread struct {
	Q1          float64 `json:"q1"`
	Q3          float64 `json:"q3"`
	D1          float64 `json:"d1"`
	D9          float64 `json:"d9"`
	IQR         float64 `json:"iqr"`
	Interdecile float64 `json:"interdecile"`
}

// Summarize computes the summary parameters of values. NaN values are
// ignored. StdDev is the sample standard deviation (n-1); it is 0 for a
// single value.
func Summarize(values []float64) (Summary, error) {
	data := finite(values)
	if len(data) == 0 {
		return Summary{}, core.ErrInsufficientData
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}
	min, err := stats.Min(data)
	if err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	max, err := stats.Max(data)
	if err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}

	stdDev := 0.0
	if len(data) > 1 {
		stdDev, err = stats.StandardDeviationSample(data)
		if err != nil {
			return Summary{}, fmt.Errorf("standard deviation: %w", err)
		}
	}

	// deviations are taken from the reported (rounded) mean
	center := core.Round(mean, SummaryPrecision)
	deviations := make([]float64, len(data))
	for i, x := range data {
		deviations[i] = math.Abs(x - center)
	}
	mad, err := stats.Mean(deviations)
	if err != nil {
		return Summary{}, fmt.Errorf("mean absolute deviation: %w", err)
	}

	return Summary{
		Count:            len(data),
		Mean:             core.Round(mean, SummaryPrecision),
		Median:           core.Round(median, SummaryPrecision),
		Mode:             mode(data, min),
		StdDev:           core.Round(stdDev, SummaryPrecision),
		MeanAbsDeviation: core.Round(mad, SummaryPrecision),
		Min:              min,
		Max:              max,
		Range:            core.Round(max-min, SummaryPrecision),
	}, nil
}

// mode returns the smallest of the most frequent values. When every value
// occurs once, each one is a mode and the smallest is min.
func mode(data []float64, min float64) float64 {
	modes, err := stats.Mode(data)
	if err != nil || len(modes) == 0 {
		return min
	}
	sort.Float64s(modes)
	return modes[0]
}

// ComputeSpread returns quartiles, first and ninth deciles and the
// interquartile and interdecile distances of values.
func ComputeSpread(values []float64) (Spread, error) {
	sorted := sortedFinite(values)
	if len(sorted) == 0 {
		return Spread{}, core.ErrInsufficientData
	}

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	d1 := Quantile(sorted, 0.1)
	d9 := Quantile(sorted, 0.9)

	return Spread{
		Q1:          core.Round(q1, SummaryPrecision),
		Q3:          core.Round(q3, SummaryPrecision),
		D1:          core.Round(d1, SummaryPrecision),
		D9:          core.Round(d9, SummaryPrecision),
		IQR:         core.Round(q3-q1, SummaryPrecision),
		Interdecile: core.Round(d9-d1, SummaryPrecision),
	}, nil
}

// Quantile returns the q-th quantile of ascending-sorted data, linearly
// interpolating between the two closest ranks: h = (n-1)q.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(q) {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func sortedFinite(values []float64) []float64 {
	out := finite(values)
	sort.Float64s(out)
	return out
}
