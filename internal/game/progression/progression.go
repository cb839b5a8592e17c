// Package progression holds the leveling, zone advancement, and prestige state
// machine of a single character.
package progression

import (
	"math"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
)

// Curve selects an XP-per-level formula. The interactive engine and the balance
// simulator use different curves and must never be unified.
type Curve int

const (
	// GameplayCurve is floor(base * level^exponent); used by the interactive engine.
	GameplayCurve Curve = iota
	// SimulatorCurve is floor(base * growth^level); used by the balance simulator.
	SimulatorCurve
)

// String returns the curve name.
func (c Curve) String() string {
	switch c {
	case GameplayCurve:
		return "gameplay"
	case SimulatorCurve:
		return "simulator"
	default:
		return "unknown"
	}
}

// XPForLevel returns the XP needed to go from level to level+1.
//
// Precondition: level >= 1.
// Postcondition: result >= 1, saturating at math.MaxUint64.
func (c Curve) XPForLevel(p balance.ProgressionConfig, level uint32) uint64 {
	if level < 1 {
		level = 1
	}
	var raw float64
	switch c {
	case SimulatorCurve:
		raw = p.SimulatorXPBase * math.Pow(p.SimulatorXPGrowth, float64(level))
	default:
		raw = p.GameplayXPBase * math.Pow(float64(level), p.GameplayXPExponent)
	}
	raw = math.Floor(raw)
	switch {
	case math.IsNaN(raw) || raw < 1:
		return 1
	case raw >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(raw)
}

// State is the leveling and location state of one character.
//
// Invariant: PrestigeRank >= PrestigeRequiredForZone(CurrentZone).
// Invariant: 1 <= CurrentZone <= balance.MaxZone; CurrentSubzone >= 1.
type State struct {
	CharacterLevel uint32 `json:"character_level"`
	CharacterXP    uint64 `json:"character_xp"`
	CurrentZone    uint32 `json:"current_zone"`
	CurrentSubzone uint32 `json:"current_subzone"`
	KillsInSubzone uint32 `json:"kills_in_subzone"`
	PrestigeRank   uint32 `json:"prestige_rank"`
	TotalKills     uint64 `json:"total_kills"`
}

// New returns a fresh level-1 state at zone 1, subzone 1, rank 0.
func New() State {
	return State{CharacterLevel: 1, CurrentZone: 1, CurrentSubzone: 1}
}

// AddXP credits xp and applies every level-up it pays for.
//
// Postcondition: CharacterXP < curve.XPForLevel(CharacterLevel); returns the
// number of levels gained, which may exceed one.
func (s *State) AddXP(xp uint64, curve Curve, p balance.ProgressionConfig) uint32 {
	if s.CharacterLevel < 1 {
		s.CharacterLevel = 1
	}
	if s.CharacterXP > math.MaxUint64-xp {
		s.CharacterXP = math.MaxUint64
	} else {
		s.CharacterXP += xp
	}
	var gained uint32
	for s.CharacterLevel < math.MaxUint32 {
		need := curve.XPForLevel(p, s.CharacterLevel)
		if s.CharacterXP < need {
			break
		}
		s.CharacterXP -= need
		s.CharacterLevel++
		gained++
	}
	return gained
}

// KillOutcome describes what a recorded kill did to the character's location.
type KillOutcome struct {
	// Boss is true when the kill was a boss kill.
	Boss bool
	// ZoneBoss is true when the boss guarded the final subzone of its zone.
	ZoneBoss bool
	// SubzoneAdvanced is true when the character moved to the next subzone.
	SubzoneAdvanced bool
	// ZoneAdvanced is true when the character moved to the next zone.
	ZoneAdvanced bool
	// Gated is true when a zone boss fell but the next zone needs a higher prestige rank.
	Gated bool
	// AtCap is true when a zone boss fell in the last zone.
	AtCap bool
	// Zone and Subzone are the location after the kill.
	Zone    uint32
	Subzone uint32
}

// ShouldSpawnBoss reports whether the next spawn in the current subzone is its boss.
func (s State) ShouldSpawnBoss(killsForBoss uint32) bool {
	return s.KillsInSubzone >= killsForBoss
}

// IsZoneBossSubzone reports whether the current subzone's boss is the zone boss.
func (s State) IsZoneBossSubzone(subzonesPerZone uint32) bool {
	return s.CurrentSubzone >= subzonesPerZone
}

// RecordKill counts a kill and applies boss advancement.
//
// Precondition: subzonesPerZone >= 1.
// Postcondition: TotalKills is incremented; CurrentZone never exceeds balance.MaxZone
// and never moves into a zone the current rank cannot access.
func (s *State) RecordKill(isBoss bool, subzonesPerZone uint32) KillOutcome {
	s.TotalKills++
	out := KillOutcome{Boss: isBoss}
	if !isBoss {
		s.KillsInSubzone++
		out.Zone, out.Subzone = s.CurrentZone, s.CurrentSubzone
		return out
	}

	s.KillsInSubzone = 0
	if s.CurrentSubzone < subzonesPerZone {
		s.CurrentSubzone++
		out.SubzoneAdvanced = true
		out.Zone, out.Subzone = s.CurrentZone, s.CurrentSubzone
		return out
	}

	out.ZoneBoss = true
	next := s.CurrentZone + 1
	switch {
	case next > balance.MaxZone:
		out.AtCap = true
	case !CanAccessZone(s.PrestigeRank, next):
		out.Gated = true
	default:
		s.CurrentZone = next
		s.CurrentSubzone = 1
		out.ZoneAdvanced = true
	}
	out.Zone, out.Subzone = s.CurrentZone, s.CurrentSubzone
	return out
}

// RetreatFromBoss resets the subzone kill count after the character dies to a
// boss, so the boss reappears only after another full set of regular kills.
func (s *State) RetreatFromBoss() {
	s.KillsInSubzone = 0
}

// Prestige increments the rank and resets level, XP, location, and kill counters.
//
// Postcondition: PrestigeRank == old+1; CharacterLevel == 1; CurrentZone == CurrentSubzone == 1.
func (s *State) Prestige() {
	rank := s.PrestigeRank + 1
	*s = New()
	s.PrestigeRank = rank
}

// ILvl returns the item level of the current location:
// (zone-1)*subzonesPerZone + subzone.
func (s State) ILvl(subzonesPerZone uint32) uint32 {
	zone := max(s.CurrentZone, 1)
	return (zone-1)*subzonesPerZone + s.CurrentSubzone
}

// XPMultiplier returns the prestige XP multiplier 1 + perRank*rank.
func XPMultiplier(rank uint32, perRank float64) float64 {
	return 1 + perRank*float64(rank)
}
