package migration

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"gostatlab/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// Migration is one versioned schema step. Statements must be valid for
// both postgres and sqlite.
type Migration struct {
	Version    string
	Name       string
	Statements []string
}

// Checksum identifies the content of the migration.
func (m Migration) Checksum() string {
	h := sha256.New()
	for _, s := range m.Statements {
		h.Write([]byte(s))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Status reports whether a migration has been applied.
type Status struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

var migrations = []Migration{
	{
		Version: "001",
		Name:    "create_interval_reports",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS interval_reports (
				id TEXT PRIMARY KEY,
				label TEXT NOT NULL,
				z DOUBLE PRECISION NOT NULL,
				sample_count INTEGER NOT NULL,
				payload TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version: "002",
		Name:    "index_interval_reports_created_at",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_interval_reports_created_at ON interval_reports (created_at DESC)`,
		},
	},
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	migrations []Migration
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{migrations: migrations}
}

// Version returns the latest schema version known to the runner
func (r *MigrationRunner) Version() string {
	return r.migrations[len(r.migrations)-1].Version
}

// Run applies all pending migrations in version order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.ensureMigrationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create schema_migrations table")
	}

	applied, err := r.applied(ctx, db)
	if err != nil {
		return errors.Wrap(err, "failed to read applied migrations")
	}

	for _, m := range r.migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := r.apply(ctx, db, m); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s_%s", m.Version, m.Name)
		}
	}
	return nil
}

// Status lists every known migration and whether it has been applied
func (r *MigrationRunner) Status(ctx context.Context, db *sqlx.DB) ([]Status, error) {
	if err := r.ensureMigrationsTable(ctx, db); err != nil {
		return nil, errors.Wrap(err, "failed to create schema_migrations table")
	}
	applied, err := r.applied(ctx, db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read applied migrations")
	}

	out := make([]Status, len(r.migrations))
	for i, m := range r.migrations {
		out[i] = Status{Version: m.Version, Name: m.Name}
		if at, ok := applied[m.Version]; ok {
			at := at
			out[i].Applied = true
			out[i].AppliedAt = &at
		}
	}
	return out, nil
}

func (r *MigrationRunner) ensureMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`)
	return err
}

func (r *MigrationRunner) applied(ctx context.Context, db *sqlx.DB) (map[string]time.Time, error) {
	var rows []struct {
		Version   string    `db:"version"`
		AppliedAt time.Time `db:"applied_at"`
	}
	if err := db.SelectContext(ctx, &rows, "SELECT version, applied_at FROM schema_migrations"); err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.Version] = row.AppliedAt
	}
	return out, nil
}

func (r *MigrationRunner) apply(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	insert := tx.Rebind("INSERT INTO schema_migrations (version, checksum, applied_at) VALUES (?, ?, ?)")
	if _, err := tx.ExecContext(ctx, insert, m.Version, m.Checksum(), time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}
