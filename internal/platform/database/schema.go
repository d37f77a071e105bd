package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		organizer TEXT NOT NULL,
		fee BIGINT NOT NULL CHECK (fee >= 0),
		start_time BIGINT NOT NULL,
		cancellation_window_days INTEGER NOT NULL CHECK (cancellation_window_days >= 0),
		attendance_secret_hash TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		event_id TEXT NOT NULL REFERENCES events (id),
		participant TEXT NOT NULL,
		amount_paid BIGINT NOT NULL CHECK (amount_paid >= 0),
		booked_at BIGINT NOT NULL,
		PRIMARY KEY (event_id, participant)
	)`,
	`CREATE TABLE IF NOT EXISTS escrow_accounts (
		event_id TEXT NOT NULL REFERENCES events (id),
		participant TEXT NOT NULL,
		held BIGINT NOT NULL CHECK (held >= 0),
		paid_out BIGINT NOT NULL CHECK (paid_out >= 0),
		PRIMARY KEY (event_id, participant)
	)`,
}

// The ledger's seq is assigned by the database so appends never read the
// table. Only its column type differs between drivers.
var ledgerTable = map[string]string{
	DriverPostgres: "seq BIGSERIAL PRIMARY KEY",
	DriverSQLite:   "seq INTEGER PRIMARY KEY AUTOINCREMENT",
}

func ledgerSchema(driver string) ([]string, error) {
	seq, ok := ledgerTable[driver]
	if !ok {
		return nil, fmt.Errorf("initialize schema: unsupported driver %q", driver)
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS escrow_ledger (
		` + seq + `,
		id TEXT NOT NULL UNIQUE,
		event_id TEXT NOT NULL REFERENCES events (id),
		participant TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount BIGINT NOT NULL CHECK (amount >= 0),
		reason TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS escrow_ledger_event_idx ON escrow_ledger (event_id, seq)`,
	}, nil
}

// InitializeSchema creates the tables when they are missing.
func InitializeSchema(ctx context.Context, db *sqlx.DB) error {
	ledger, err := ledgerSchema(db.DriverName())
	if err != nil {
		return err
	}

	stmts := append(append([]string{}, schema...), ledger...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}
	return nil
}
