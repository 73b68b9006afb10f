package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies every pending up migration for the connection's dialect.
func (db *DB) RunMigrations() error {
	m, err := db.newMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}

// RollbackMigrations reverts the given number of applied migrations.
func (db *DB) RollbackMigrations(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := db.newMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down failed: %w", err)
	}
	return nil
}

// newMigrator opens a dedicated connection because closing a migrator closes
// the *sql.DB it was built on.
func (db *DB) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+db.Dialect.MigrationsSubdir())
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	conn, err := sql.Open(db.Dialect.DriverName(), db.dsn)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := db.Dialect.MigrationDriver(conn)
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.Dialect.DriverName(), driver)
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return m, nil
}
