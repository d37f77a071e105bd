package sqlstore

import (
	"context"
	"database/sql"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/jmoiron/sqlx"

	"github.com/srgjo27/event_escrow/internal/platform/database"
	"github.com/srgjo27/event_escrow/internal/platform/logging"
)

// Transactor runs each escrow operation in a single database transaction
// and reruns it on serialization failures.
type Transactor struct {
	manager  *trmanager.Manager
	settings trmsql.Settings
	attempts int
}

func NewTransactor(db *sqlx.DB, attempts int) *Transactor {
	if attempts < 1 {
		attempts = 1
	}

	isolation := sql.LevelSerializable
	if db.DriverName() == database.DriverSQLite {
		isolation = sql.LevelDefault
	}

	return &Transactor{
		manager: trmanager.Must(trmsqlx.NewDefaultFactory(db)),
		settings: trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: isolation}),
		),
		attempts: attempts,
	}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		err = t.manager.DoWithSettings(ctx, t.settings, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}

		logging.FromContext(ctx).
			WithError(err).
			WithField("attempt", attempt).
			Warn("Transaction conflicted, retrying")
	}
	return err
}
