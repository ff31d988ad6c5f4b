package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate runs all pending up-migrations from the given directory.
// A directory with no pending migrations is not an error.
func Migrate(dsn, migrationsDir string) error {
	if migrationsDir == "" {
		return nil
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsDir), dsn)
	if err != nil {
		return fmt.Errorf("db: migrate new: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}
