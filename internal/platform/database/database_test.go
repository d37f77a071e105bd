package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/srgjo27/event_escrow/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	pg := database.Config{Driver: database.DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", DBName: "escrow"}
	assert.Equal(t, "postgres://u:p@db:5432/escrow?sslmode=disable", pg.DSN())

	mem := database.Config{Driver: database.DriverSQLite, SQLitePath: ":memory:"}
	assert.Contains(t, mem.DSN(), ":memory:")
	assert.Contains(t, mem.DSN(), "foreign_keys(1)")
}

func TestOpen_SQLiteAndInitializeSchemaTwice(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "escrow.db"),
		MaxRetries: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.InitializeSchema(ctx, db))
	require.NoError(t, database.InitializeSchema(ctx, db))

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"bookings", "escrow_accounts", "escrow_ledger", "events"}, tables)
}

func TestInitializeSchema_UnknownDriver(t *testing.T) {
	db := sqlx.NewDb(nil, "mysql")

	err := database.InitializeSchema(context.Background(), db)
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestOpen_GivesUpAfterRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.Open(ctx, database.Config{
		Driver:     "no-such-driver",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	assert.ErrorContains(t, err, "connect database")
}
