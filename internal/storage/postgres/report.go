package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/idlerpg/internal/sim"
)

// ErrReportNotFound is returned when a report lookup yields no results.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository stores balance simulation reports.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts rep. Saving the same batch twice is a no-op.
//
// Precondition: rep must be non-nil with a UUID BatchID.
func (r *ReportRepository) Save(ctx context.Context, rep *sim.SimReport) error {
	data, err := rep.JSON()
	if err != nil {
		return err
	}
	h := rep.Header()
	_, err = r.db.Exec(ctx, `
		INSERT INTO sim_reports (batch_id, generated_at, base_seed, runs, target_zone, completion_rate, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (batch_id) DO NOTHING`,
		h.BatchID, h.GeneratedAt, strconv.FormatUint(h.BaseSeed, 10),
		int32(h.Runs), int32(h.TargetZone), h.CompletionRate, data,
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", h.BatchID, err)
	}
	return nil
}

// Get retrieves a report by batch ID.
//
// Postcondition: Returns the report or ErrReportNotFound.
func (r *ReportRepository) Get(ctx context.Context, batchID string) (*sim.SimReport, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT report FROM sim_reports WHERE batch_id = $1`, batchID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("querying report %s: %w", batchID, err)
	}
	return sim.ParseJSON(data)
}

// List returns up to limit report headers, newest first.
//
// Precondition: limit > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]sim.Header, error) {
	rows, err := r.db.Query(ctx, `
		SELECT batch_id::text, generated_at, base_seed, runs, target_zone, completion_rate
		FROM sim_reports ORDER BY generated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	out := make([]sim.Header, 0)
	for rows.Next() {
		var (
			h          sim.Header
			seed       string
			runs, zone int32
		)
		if err := rows.Scan(&h.BatchID, &h.GeneratedAt, &seed, &runs, &zone, &h.CompletionRate); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if h.BaseSeed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing base seed of %s: %w", h.BatchID, err)
		}
		h.Runs, h.TargetZone = uint32(runs), uint32(zone)
		out = append(out, h)
	}
	return out, rows.Err()
}
