package descriptive

import (
	"fmt"
	"math"

	"gostatlab/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoxPlot is the five-number summary behind a box-and-whisker chart.
// Whiskers reach the most extreme values within 1.5·IQR of the box.
type BoxPlot struct {
	Median       float64   `json:"median"`
	Q1           float64   `json:"q1"`
	Q3           float64   `json:"q3"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers,omitempty"`
}

// ComputeBoxPlot builds the box plot of values, ignoring NaNs.
func ComputeBoxPlot(values []float64) (BoxPlot, error) {
	sorted := sortedFinite(values)
	if len(sorted) == 0 {
		return BoxPlot{}, core.ErrInsufficientData
	}

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	lowFence, highFence := q1-1.5*iqr, q3+1.5*iqr

	box := BoxPlot{
		Median:       Quantile(sorted, 0.5),
		Q1:           q1,
		Q3:           q3,
		LowerWhisker: q1,
		UpperWhisker: q3,
	}
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		if v < box.LowerWhisker {
			box.LowerWhisker = v
		}
		if v > box.UpperWhisker {
			box.UpperWhisker = v
		}
	}
	return box, nil
}

// Histogram holds equal-width bins. Edges has len(Counts)+1 entries and
// every bin is [Edges[i], Edges[i+1]) except the last, which is closed.
type Histogram struct {
	Edges   []float64 `json:"edges"`
	Counts  []float64 `json:"counts"`
	Density bool      `json:"density"`
}

// ComputeHistogram bins values into the given number of equal-width bins
// between their min and max. With density set, each bin holds
// count / (total · width) so the bars integrate to 1.
func ComputeHistogram(values []float64, bins int, density bool) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, core.NewDomainError("bins", float64(bins), "> 0")
	}
	sorted := sortedFinite(values)
	if len(sorted) == 0 {
		return Histogram{}, core.ErrInsufficientData
	}

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	edges[bins] = hi

	// stat.Histogram treats the last divider as exclusive; nudge it so the
	// maximum lands in the last bin.
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	if density {
		total := floats.Sum(counts)
		for i := range counts {
			width := edges[i+1] - edges[i]
			counts[i] = counts[i] / (total * width)
		}
	}
	return Histogram{Edges: edges, Counts: counts, Density: density}, nil
}

// Island surface categories (km²) used by the island index exercise.
var (
	SurfaceEdges  = []float64{0, 10, 25, 50, 100, 2500, 5000, 10000, math.Inf(1)}
	SurfaceLabels = []string{"0-10", "10-25", "25-50", "50-100", "100-2500", "2500-5000", "5000-10000", ">=10000"}
)

// BinCount is the number of values that fell into one labeled bin.
type BinCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Binning is the result of Cut.
type Binning struct {
	Bins     []BinCount `json:"bins"`
	Unbinned int        `json:"unbinned"`
}

// Cut assigns every value to the right-closed bin (edges[i], edges[i+1]]
// and counts values per label, in label order. Values outside every bin,
// including values equal to edges[0], and NaNs count as unbinned.
func Cut(values []float64, edges []float64, labels []string) (Binning, error) {
	if len(edges) < 2 {
		return Binning{}, fmt.Errorf("%w: need at least 2 edges, got %d", core.ErrInsufficientData, len(edges))
	}
	if len(labels) != len(edges)-1 {
		return Binning{}, fmt.Errorf("%w: %d labels for %d bins", core.ErrLengthMismatch, len(labels), len(edges)-1)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Binning{}, fmt.Errorf("%w: edges must be strictly increasing at index %d", core.ErrDomain, i)
		}
	}

	out := Binning{Bins: make([]BinCount, len(labels))}
	for i, label := range labels {
		out.Bins[i].Label = label
	}
	for _, v := range values {
		idx := binIndex(v, edges)
		if idx < 0 {
			out.Unbinned++
			continue
		}
		out.Bins[idx].Count++
	}
	return out, nil
}

func binIndex(v float64, edges []float64) int {
	if math.IsNaN(v) || v <= edges[0] || v > edges[len(edges)-1] {
		return -1
	}
	for i := 1; i < len(edges); i++ {
		if v <= edges[i] {
			return i - 1
		}
	}
	return -1
}
