package postgres

import (
	"context"
	"fmt"
	"time"

	"gostatlab/internal"
	"gostatlab/internal/config"
	"gostatlab/internal/errors"
	"gostatlab/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the configured database, checks it is reachable and
// brings its schema up to date.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	logger := internal.DefaultLogger.WithComponent("Database")

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect using %s", cfg.Driver), err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite allows a single writer; in-memory databases are per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to migrate schema", err)
	}
	logger.Info("Connected to %s, schema version %s", cfg.Driver, runner.Version())
	return db, nil
}
