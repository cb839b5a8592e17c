package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/snapshot"
)

// ErrSnapshotNotFound is returned when no snapshot is stored for a character.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores the latest snapshot of each character as JSONB.
type SnapshotRepository struct {
	db  *pgxpool.Pool
	cfg balance.Config
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
// Loaded snapshots are defaulted and clamped under cfg.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool, cfg balance.Config) *SnapshotRepository {
	return &SnapshotRepository{db: db, cfg: cfg}
}

// Save upserts snap as the current snapshot of its character.
//
// Precondition: snap.Character.Name must be non-empty; snap.ID must be a UUID.
// Postcondition: Load(snap.Character.Name) returns snap.
func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.Snapshot) error {
	if snap.Character.Name == "" {
		return errors.New("saving snapshot: character name must not be empty")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO character_snapshots (character_name, snapshot_id, version, data, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (character_name) DO UPDATE
		SET snapshot_id = EXCLUDED.snapshot_id,
		    version     = EXCLUDED.version,
		    data        = EXCLUDED.data,
		    saved_at    = EXCLUDED.saved_at,
		    updated_at  = NOW()`,
		snap.Character.Name, snap.ID, snap.Version, snap, snap.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot for %q: %w", snap.Character.Name, err)
	}
	return nil
}

// Load returns the stored snapshot of the named character.
//
// Postcondition: Returns the Snapshot or ErrSnapshotNotFound.
func (r *SnapshotRepository) Load(ctx context.Context, name string) (snapshot.Snapshot, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT data FROM character_snapshots WHERE character_name = $1`, name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snapshot.Snapshot{}, ErrSnapshotNotFound
		}
		return snapshot.Snapshot{}, fmt.Errorf("loading snapshot for %q: %w", name, err)
	}
	snap, err := snapshot.Decode(data, r.cfg)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("loading snapshot for %q: %w", name, err)
	}
	return snap, nil
}

// ListNames returns the names of every character with a stored snapshot, sorted.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *SnapshotRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT character_name FROM character_snapshots ORDER BY character_name`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot names: %w", err)
	}
	return names, nil
}

// Delete removes the snapshot of the named character.
//
// Postcondition: Returns nil on success, ErrSnapshotNotFound if no row was deleted.
func (r *SnapshotRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM character_snapshots WHERE character_name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting snapshot for %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}
