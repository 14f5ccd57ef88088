package ports

import (
	"context"

	"gostatlab/domain/core"
	"gostatlab/domain/estimation"
)

// ReportRepository defines the interface for estimation report storage
type ReportRepository interface {
	// Save stores a report, replacing any report with the same ID
	Save(ctx context.Context, report *estimation.Report) error

	// Get retrieves a report by ID; a missing report yields core.ErrReportNotFound
	Get(ctx context.Context, id core.ReportID) (*estimation.Report, error)

	// List returns the most recent reports first, at most limit of them
	List(ctx context.Context, limit int) ([]estimation.ReportSummary, error)
}
