package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type Config struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	MaxRetries int
	RetryDelay time.Duration
}

func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		if c.SQLitePath == ":memory:" {
			return "file::memory:?_pragma=foreign_keys(1)"
		}
		return "file:" + c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

// Open connects to the configured database, retrying while it comes up.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = 2 * time.Second
	}

	var db *sqlx.DB
	var err error

	for i := 1; i <= maxRetries; i++ {
		logrus.WithFields(logrus.Fields{
			"driver":  cfg.Driver,
			"attempt": i,
			"of":      maxRetries,
		}).Info("Connecting to database")

		db, err = sqlx.Open(cfg.Driver, cfg.DSN())
		if err == nil {
			err = db.PingContext(ctx)
			if err != nil {
				_ = db.Close()
			}
		}

		if err == nil {
			configurePool(db, cfg.Driver)
			logrus.Info("Database connected successfully")
			return db, nil
		}

		if i == maxRetries {
			break
		}

		logrus.WithError(err).Warnf("Database not ready yet. Waiting %s...", retryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("connect database: %w", err)
}

func configurePool(db *sqlx.DB, driver string) {
	if driver == DriverSQLite {
		// One connection: sqlite serialises writers anyway, and an in-memory
		// database only exists on the connection that created it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
}
