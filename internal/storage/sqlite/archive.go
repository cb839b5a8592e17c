// Package sqlite archives balance simulation reports in a local SQLite file.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/idlerpg/internal/sim"
)

// ErrReportNotFound is returned when a report lookup yields no results.
var ErrReportNotFound = errors.New("report not found")

// Archive is a local report history.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive at path, creating parent directories and
// the schema as needed. A leading "~" expands to the home directory.
//
// Postcondition: Returns a ready Archive or a non-nil error.
func Open(path string) (*Archive, error) {
	if path != "" && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("archive: cannot expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: cannot create directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: cannot connect to database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migration failed: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			batch_id        TEXT PRIMARY KEY,
			generated_at    TEXT NOT NULL,
			base_seed       TEXT NOT NULL,
			runs            INTEGER NOT NULL,
			target_zone     INTEGER NOT NULL,
			completion_rate REAL NOT NULL,
			report          TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at DESC);
	`)
	return err
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores rep. Saving the same batch twice is a no-op.
//
// Precondition: rep must be non-nil.
func (a *Archive) Save(ctx context.Context, rep *sim.SimReport) error {
	data, err := rep.JSON()
	if err != nil {
		return err
	}
	h := rep.Header()
	_, err = a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reports
			(batch_id, generated_at, base_seed, runs, target_zone, completion_rate, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.BatchID, h.GeneratedAt.UTC().Format(time.RFC3339Nano), strconv.FormatUint(h.BaseSeed, 10),
		h.Runs, h.TargetZone, h.CompletionRate, string(data),
	)
	if err != nil {
		return fmt.Errorf("archive: saving report %s: %w", h.BatchID, err)
	}
	return nil
}

// Get retrieves a report by batch ID.
//
// Postcondition: Returns the report or ErrReportNotFound.
func (a *Archive) Get(ctx context.Context, batchID string) (*sim.SimReport, error) {
	var data string
	err := a.db.QueryRowContext(ctx, `SELECT report FROM reports WHERE batch_id = ?`, batchID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("archive: querying report %s: %w", batchID, err)
	}
	return sim.ParseJSON([]byte(data))
}

// List returns up to limit report headers, newest first.
//
// Precondition: limit > 0.
func (a *Archive) List(ctx context.Context, limit int) ([]sim.Header, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT batch_id, generated_at, base_seed, runs, target_zone, completion_rate
		FROM reports ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: listing reports: %w", err)
	}
	defer rows.Close()

	var out []sim.Header
	for rows.Next() {
		var (
			h         sim.Header
			generated string
			seed      string
		)
		if err := rows.Scan(&h.BatchID, &generated, &seed, &h.Runs, &h.TargetZone, &h.CompletionRate); err != nil {
			return nil, fmt.Errorf("archive: scanning report row: %w", err)
		}
		if h.GeneratedAt, err = time.Parse(time.RFC3339Nano, generated); err != nil {
			return nil, fmt.Errorf("archive: parsing generated_at of %s: %w", h.BatchID, err)
		}
		if h.BaseSeed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("archive: parsing base seed of %s: %w", h.BatchID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
