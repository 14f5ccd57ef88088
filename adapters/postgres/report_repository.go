package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gostatlab/domain/core"
	"gostatlab/domain/estimation"
	"gostatlab/ports"

	"github.com/jmoiron/sqlx"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository. Queries are
// rebound to the placeholder style of the driver behind db.
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &reportRepository{db: db}
}

type reportRow struct {
	ID          string    `db:"id"`
	Label       string    `db:"label"`
	Z           float64   `db:"z"`
	SampleCount int       `db:"sample_count"`
	Payload     string    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}

// Save inserts the report or replaces the stored copy with the same ID
func (r *reportRepository) Save(ctx context.Context, report *estimation.Report) error {
	if report.ID == "" {
		report.ID = core.NewReportID()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO interval_reports (id, label, z, sample_count, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		label = excluded.label,
		z = excluded.z,
		sample_count = excluded.sample_count,
		payload = excluded.payload`)

	_, err = r.db.ExecContext(ctx, query,
		report.ID.String(), report.Label, report.Z, report.SampleCount, string(payload), report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get retrieves a report by its ID
func (r *reportRepository) Get(ctx context.Context, id core.ReportID) (*estimation.Report, error) {
	query := r.db.Rebind(`SELECT id, label, z, sample_count, payload, created_at
	FROM interval_reports WHERE id = ?`)

	var row reportRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError(core.ErrReportNotFound, id.String())
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report estimation.Report
	if err := json.Unmarshal([]byte(row.Payload), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	report.ID = core.ReportID(row.ID)
	report.CreatedAt = row.CreatedAt
	return &report, nil
}

// List returns report summaries, newest first
func (r *reportRepository) List(ctx context.Context, limit int) ([]estimation.ReportSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := r.db.Rebind(`SELECT id, label, z, sample_count, created_at
	FROM interval_reports
	ORDER BY created_at DESC
	LIMIT ?`)

	summaries := []estimation.ReportSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return summaries, nil
}
