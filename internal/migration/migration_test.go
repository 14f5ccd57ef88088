package migration

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun_CreatesReportTable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	runner := NewRunner()

	require.NoError(t, runner.Run(ctx, db))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM interval_reports"))
	assert.Equal(t, 0, count)
	assert.Equal(t, "002", runner.Version())
}

func TestRun_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	runner := NewRunner()

	require.NoError(t, runner.Run(ctx, db))
	require.NoError(t, runner.Run(ctx, db))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 2, count)
}

func TestStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	runner := NewRunner()

	before, err := runner.Status(ctx, db)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.False(t, before[0].Applied)
	assert.Nil(t, before[0].AppliedAt)

	require.NoError(t, runner.Run(ctx, db))

	after, err := runner.Status(ctx, db)
	require.NoError(t, err)
	for _, s := range after {
		assert.True(t, s.Applied, s.Version)
		assert.NotNil(t, s.AppliedAt)
	}
}

func TestChecksumStable(t *testing.T) {
	m := migrations[0]
	assert.Equal(t, m.Checksum(), m.Checksum())
	assert.NotEqual(t, migrations[0].Checksum(), migrations[1].Checksum())
}
