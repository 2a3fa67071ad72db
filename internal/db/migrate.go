// internal/db/migrate.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
)

// Migrator runs the embedded migrations by hand, without the automatic
// upgrade New performs.
type Migrator struct {
	m *migrate.Migrate
}

// OpenMigrator opens the SQLite file at path, creating its directory if needed.
func OpenMigrator(path string) (*Migrator, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", ensureForeignKeysEnabledDSN(absPath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	m, err := newMigrate(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. It reports false when nothing changed.
func (m *Migrator) Up() (bool, error) {
	return changed(m.m.Up())
}

// Down rolls back one migration. It reports false when nothing changed.
func (m *Migrator) Down() (bool, error) {
	err := m.m.Steps(-1)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return changed(err)
}

// Version returns the applied version. An empty database is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) Close() error {
	sourceErr, dbErr := m.m.Close()
	return errors.Join(sourceErr, dbErr)
}

func changed(err error) (bool, error) {
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
