package postgres

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/idlerpg/internal/config"
)

// ErrNoChange is returned when a migration leaves the schema unchanged.
var ErrNoChange = migrate.ErrNoChange

// Migrator applies the versioned SQL files of a migrations directory.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens a migrator for the database in cfg reading *.sql files from dir.
//
// Precondition: dir contains golang-migrate style NNNNNN_name.{up,down}.sql files.
// Postcondition: Returns a Migrator that must be closed, or a non-nil error.
func NewMigrator(cfg config.DatabaseConfig, dir string) (*Migrator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving migrations directory: %w", err)
	}
	dsn := "pgx5://" + strings.TrimPrefix(cfg.DSN(), "postgres://")
	m, err := migrate.New("file://"+filepath.ToSlash(abs), dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration.
//
// Postcondition: returns ErrNoChange when the schema was already current.
func (m *Migrator) Up() error { return m.m.Up() }

// Down reverts every applied migration.
func (m *Migrator) Down() error { return m.m.Down() }

// Steps applies n migrations forward, or -n backward when n is negative.
func (m *Migrator) Steps(n int) error { return m.m.Steps(n) }

// Version returns the current schema version and whether it is dirty.
// A database with no applied migrations reports version 0.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
