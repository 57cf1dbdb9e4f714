package database

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/censo/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Open connects to the SQL database configured in conf.Storage and waits for it to be ready.
func Open(ctx context.Context, conf core.StorageConfig) (*sqlx.DB, error) {
	switch conf.Driver {
	case core.DriverSQLite, core.DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported SQL driver %q", conf.Driver)
	}

	db, err := sqlx.Open(conf.Driver, conf.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Driver == core.DriverSQLite {
		// sqlite allows a single writer; serialize through one connection
		db.SetMaxOpenConns(1)
	}
	if err := ping(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func setupGoose(driver string) error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect(driver)
}

// Migrate applies all pending migrations.
func Migrate(db *sql.DB, driver string) error {
	return Run(db, driver, "up")
}

// Run executes a goose command (up, down, status, version, redo, reset...) against
// the embedded migrations.
func Run(db *sql.DB, driver, command string, args ...string) error {
	if err := setupGoose(driver); err != nil {
		return errors.Wrap(err, "configuring migrations")
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
