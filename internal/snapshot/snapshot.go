// Package snapshot serializes a character's complete game state, including the
// position of its random stream, so a host can persist and resume it exactly.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/combat"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
	"github.com/cory-johannsen/idlerpg/internal/game/progression"
	"github.com/cory-johannsen/idlerpg/internal/game/tick"
)

// Version is the snapshot format written by Encode.
const Version = 1

// ErrChecksumMismatch is returned by Decode when a stored checksum does not
// match the snapshot payload.
var ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")

// RNG records a seeded stream and how far it has advanced.
type RNG struct {
	Seed     uint64 `json:"seed"`
	Position uint64 `json:"position"`
}

// Snapshot is the full persisted state of one character.
type Snapshot struct {
	Version   int                 `json:"version"`
	ID        string              `json:"id"`
	SavedAt   time.Time           `json:"saved_at"`
	Character character.Character `json:"character"`
	Combat    combat.State        `json:"combat"`
	Equipment inventory.Equipment `json:"equipment"`
	RNG       RNG                 `json:"rng"`
}

// envelope wraps the payload with its integrity checksum.
type envelope struct {
	Checksum string          `json:"checksum,omitempty"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// Capture copies s and the stream position of src into a new Snapshot.
//
// Precondition: s and src must be non-nil.
// Postcondition: the Snapshot shares no pointers with s.
func Capture(s *tick.GameState, src *dice.SeededSource, now time.Time) Snapshot {
	snap := Snapshot{
		Version:   Version,
		ID:        uuid.NewString(),
		SavedAt:   now.UTC(),
		Character: s.Character,
		Combat:    s.Combat,
		Equipment: s.Equipment.Clone(),
		RNG:       RNG{Seed: src.Seed(), Position: src.Position()},
	}
	if s.Combat.CurrentEnemy != nil {
		enemy := *s.Combat.CurrentEnemy
		snap.Combat.CurrentEnemy = &enemy
	}
	return snap
}

// Restore rebuilds the game state and random stream recorded in snap.
// A snapshot without a combat section starts at full health.
//
// Precondition: eng must be non-nil.
// Postcondition: ticking the result with the returned source continues the
// trajectory that was captured.
func (snap Snapshot) Restore(eng *tick.Engine) (*tick.GameState, *dice.SeededSource) {
	s := &tick.GameState{
		Character: snap.Character,
		Combat:    snap.Combat,
		Equipment: snap.Equipment.Clone(),
	}
	if s.Combat.CurrentEnemy != nil {
		enemy := *s.Combat.CurrentEnemy
		s.Combat.CurrentEnemy = &enemy
	}
	if s.Combat.PlayerMaxHP <= 0 && !s.Combat.IsRegenerating && s.Combat.CurrentEnemy == nil {
		s.Combat = combat.NewState(eng.Stats(s).MaxHP)
	}
	return s, dice.RestoreSeededSource(snap.RNG.Seed, snap.RNG.Position)
}

// defaults is the Snapshot that decoded fields are layered onto.
func defaults(cfg balance.Config) Snapshot {
	return Snapshot{
		Version: Version,
		Character: character.Character{
			Progression: progression.New(),
			Attributes:  character.BaseAttributes(cfg.Stats.BaseAttribute),
		},
	}
}

// Encode renders snap as JSON with a blake2b-256 checksum over the payload.
func Encode(snap Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	data, err := json.Marshal(envelope{Checksum: checksum(payload), Snapshot: payload})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot envelope: %w", err)
	}
	return data, nil
}

// Decode parses data produced by Encode. Missing fields take their defaults
// under cfg; a missing checksum is accepted, and a bare snapshot object without
// an envelope is accepted as well.
//
// Postcondition: returns ErrChecksumMismatch when a present checksum fails;
// level is at least 1, the zone is one the prestige rank can access, and the
// subzone lies in [1, cfg.Progression.SubzonesPerZone].
func Decode(data []byte, cfg balance.Config) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	payload := []byte(env.Snapshot)
	if len(payload) == 0 {
		payload = data
	} else if env.Checksum != "" {
		var compact bytes.Buffer
		if err := json.Compact(&compact, payload); err != nil {
			return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
		}
		if checksum(compact.Bytes()) != env.Checksum {
			return Snapshot{}, ErrChecksumMismatch
		}
	}

	snap := defaults(cfg)
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	clamp(&snap, cfg)
	return snap, nil
}

func checksum(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// clamp repairs out-of-range progression fields from hand-edited or older saves.
func clamp(snap *Snapshot, cfg balance.Config) {
	p := &snap.Character.Progression
	p.CharacterLevel = max(p.CharacterLevel, 1)
	p.CurrentZone = min(max(p.CurrentZone, 1), progression.MaxZoneForPrestige(p.PrestigeRank))
	p.CurrentSubzone = min(max(p.CurrentSubzone, 1), max(cfg.Progression.SubzonesPerZone, 1))
	if snap.Combat.PlayerCurrentHP < 0 {
		snap.Combat.PlayerCurrentHP = 0
	}
}
