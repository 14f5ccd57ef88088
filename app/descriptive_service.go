package app

import (
	"fmt"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
	"gostatlab/domain/descriptive"
	"gostatlab/domain/distributions"
	"gostatlab/domain/normality"
	"gostatlab/internal"
	"gostatlab/internal/errors"
)

// ColumnReport gathers the descriptive statistics of one numeric column
type ColumnReport struct {
	Column  string              `json:"column"`
	Summary descriptive.Summary `json:"summary"`
	Spread  descriptive.Spread  `json:"spread"`
	BoxPlot descriptive.BoxPlot `json:"box_plot"`
}

// NormalityReport is a Shapiro-Wilk result with its decision
type NormalityReport struct {
	Name   string           `json:"name"`
	Result normality.Result `json:"result"`
	Alpha  float64          `json:"alpha"`
	Normal bool             `json:"normal"`
}

// DistributionReport is a law's grid with its moments
type DistributionReport struct {
	Series distributions.Series `json:"series"`
	Mean   float64              `json:"mean"`
	StdDev float64              `json:"std_dev"`
}

// DescriptiveService computes summaries, charts data and tests on tables
type DescriptiveService struct {
	logger *internal.Logger
}

// NewDescriptiveService creates a descriptive statistics service
func NewDescriptiveService() *DescriptiveService {
	return &DescriptiveService{logger: internal.DefaultLogger.WithComponent("Descriptive")}
}

// DescribeValues summarizes a list of values.
func (s *DescriptiveService) DescribeValues(name string, values []float64) (*ColumnReport, error) {
	summary, err := descriptive.Summarize(values)
	if err != nil {
		return nil, errors.Wrapf(err, "column %s", name)
	}
	spread, err := descriptive.ComputeSpread(values)
	if err != nil {
		return nil, errors.Wrapf(err, "column %s", name)
	}
	box, err := descriptive.ComputeBoxPlot(values)
	if err != nil {
		return nil, errors.Wrapf(err, "column %s", name)
	}
	return &ColumnReport{Column: name, Summary: summary, Spread: spread, BoxPlot: box}, nil
}

// DescribeTable summarizes every numeric column of table, in header order.
func (s *DescriptiveService) DescribeTable(table *dataset.Table) ([]ColumnReport, error) {
	columns := table.NumericColumns()
	if len(columns) == 0 {
		return nil, errors.Wrap(fmt.Errorf("%w: table has no numeric column", core.ErrInsufficientData), "failed to describe table")
	}

	reports := make([]ColumnReport, 0, len(columns))
	for _, name := range columns {
		values, err := table.NumericColumn(name)
		if err != nil {
			return nil, err
		}
		report, err := s.DescribeValues(name, values)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	s.logger.Debug("Described %d numeric columns", len(reports))
	return reports, nil
}

// Histogram bins a numeric column into equal-width bins.
func (s *DescriptiveService) Histogram(table *dataset.Table, column string, bins int, density bool) (descriptive.Histogram, error) {
	values, err := table.NumericColumn(column)
	if err != nil {
		return descriptive.Histogram{}, err
	}
	return descriptive.ComputeHistogram(values, bins, density)
}

// SurfaceBins counts values of column per island surface category.
func (s *DescriptiveService) SurfaceBins(table *dataset.Table, column string) (descriptive.Binning, error) {
	return s.Bins(table, column, descriptive.SurfaceEdges, descriptive.SurfaceLabels)
}

// Bins counts values of column per right-closed labeled bin.
func (s *DescriptiveService) Bins(table *dataset.Table, column string, edges []float64, labels []string) (descriptive.Binning, error) {
	values, err := table.NumericColumn(column)
	if err != nil {
		return descriptive.Binning{}, err
	}
	return descriptive.Cut(values, edges, labels)
}

// Normality runs a Shapiro-Wilk test on values. A non-positive alpha
// selects normality.DefaultAlpha.
func (s *DescriptiveService) Normality(name string, values []float64, alpha float64) (*NormalityReport, error) {
	if alpha <= 0 {
		alpha = normality.DefaultAlpha
	}
	if alpha >= 1 {
		return nil, errors.Wrap(core.NewDomainError("alpha", alpha, "in (0, 1)"), "invalid significance level")
	}
	result, err := normality.ShapiroWilk(values)
	if err != nil {
		return nil, errors.Wrapf(err, "normality test on %s", name)
	}
	normal := result.IsNormal(alpha)
	s.logger.Info("Shapiro-Wilk on %s: W=%.4f p=%.4f normal=%t", name, result.W, result.PValue, normal)
	return &NormalityReport{Name: name, Result: result, Alpha: alpha, Normal: normal}, nil
}

// Distribution evaluates a named law over its grid.
func (s *DescriptiveService) Distribution(name string, params distributions.Params) (*DistributionReport, error) {
	series, err := distributions.ByName(name, params)
	if err != nil {
		return nil, errors.Wrapf(err, "distribution %s", name)
	}
	report := &DistributionReport{Series: series}
	if series.Kind == distributions.Discrete {
		if report.Mean, err = distributions.Mean(series.X, series.Y); err != nil {
			return nil, err
		}
		if report.StdDev, err = distributions.StdDev(series.X, series.Y); err != nil {
			return nil, err
		}
	}
	return report, nil
}
