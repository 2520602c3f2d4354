// Package database provides the Postgres connection pool, migrations and the
// repositories over the merchant, order and customer tables.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"merchant-chat-api/migrations"
)

// Options configures the connection pool
type Options struct {
	MaxOpenConns int
	AutoMigrate  bool
}

// NewDB connects to Postgres and, when requested, applies the embedded migrations
func NewDB(dsn string, opts Options, logger *logrus.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if opts.AutoMigrate {
		if err := ApplyMigrations(db.DB, logger); err != nil {
			CloseDB(db, logger)
			return nil, err
		}
	}

	logger.Info("Database connected")
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB, logger *logrus.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.WithError(err).Error("Error closing database connection")
		return
	}
	logger.Info("Database connection closed")
}

// ApplyMigrations runs database migrations using embedded files.
func ApplyMigrations(db *sql.DB, logger *logrus.Logger) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}
	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No database migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("Database migrations applied")
	return nil
}
