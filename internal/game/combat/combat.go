// Package combat implements the real-time auto-battle between a character and
// the single enemy of its current encounter.
package combat

import (
	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
)

// Phase is the encounter state machine position.
type Phase int

const (
	NoEncounter Phase = iota
	Fighting
	Regenerating
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case NoEncounter:
		return "no encounter"
	case Fighting:
		return "fighting"
	case Regenerating:
		return "regenerating"
	default:
		return "unknown"
	}
}

// State is the combat half of a game state.
//
// Invariant: PlayerCurrentHP <= PlayerMaxHP.
// Invariant: CurrentEnemy == nil whenever IsRegenerating is true.
type State struct {
	PlayerCurrentHP float64 `json:"player_current_hp"`
	PlayerMaxHP     float64 `json:"player_max_hp"`
	CurrentEnemy    *Enemy  `json:"current_enemy,omitempty"`
	IsRegenerating  bool    `json:"is_regenerating"`
	AttackTimer     float64 `json:"attack_timer"`
	RegenTimer      float64 `json:"regen_timer"`
}

// NewState returns a combat state with a full-health player.
func NewState(maxHP float64) State {
	return State{PlayerCurrentHP: maxHP, PlayerMaxHP: maxHP}
}

// Phase reports where the encounter state machine is.
func (s *State) Phase() Phase {
	switch {
	case s.IsRegenerating:
		return Regenerating
	case s.CurrentEnemy != nil:
		return Fighting
	default:
		return NoEncounter
	}
}

// NeedsSpawn reports whether the caller should spawn an enemy this tick.
func (s *State) NeedsSpawn() bool {
	return s.CurrentEnemy == nil && !s.IsRegenerating
}

// Spawn enters the Fighting phase against enemy.
//
// Precondition: NeedsSpawn() is true.
// Postcondition: Phase() == Fighting.
func (s *State) Spawn(enemy Enemy) {
	s.CurrentEnemy = &enemy
}

// SyncMaxHP applies a recomputed maximum, clamping current HP to it.
// While regenerating, current HP tracks the regen fraction of the new maximum.
//
// Postcondition: PlayerCurrentHP <= PlayerMaxHP.
func (s *State) SyncMaxHP(maxHP float64, regenSeconds float64) {
	s.PlayerMaxHP = maxHP
	if s.IsRegenerating {
		s.PlayerCurrentHP = maxHP * regenFraction(s.RegenTimer, regenSeconds)
	}
	if s.PlayerCurrentHP > maxHP {
		s.PlayerCurrentHP = maxHP
	}
}

// Advance moves the encounter forward by dt seconds.
//
// While fighting, one exchange resolves per elapsed attack interval, with the
// remainder carried in AttackTimer. While regenerating, HP refills linearly until
// RegenSeconds have elapsed.
//
// Precondition: dt is finite and >= 0; p comes from DeriveStats.
// Postcondition: events are returned in resolution order; an EnemyKilled always
// precedes a PlayerKilled from the same exchange.
func (s *State) Advance(dt float64, p PlayerStats, cfg balance.CombatConfig, src dice.Source) []Event {
	var events []Event
	if s.IsRegenerating {
		s.RegenTimer += dt
		if s.RegenTimer >= cfg.RegenSeconds {
			s.IsRegenerating = false
			s.RegenTimer = 0
			s.PlayerCurrentHP = s.PlayerMaxHP
			events = append(events, PlayerRecovered{MaxHP: s.PlayerMaxHP})
		} else {
			s.PlayerCurrentHP = s.PlayerMaxHP * regenFraction(s.RegenTimer, cfg.RegenSeconds)
		}
		return events
	}
	if s.CurrentEnemy == nil {
		return nil
	}

	interval := p.AttackInterval
	if !(interval > 0) {
		interval = cfg.AttackIntervalSeconds
	}
	s.AttackTimer += dt
	for s.AttackTimer >= interval && s.CurrentEnemy != nil {
		s.AttackTimer -= interval
		events = append(events, s.exchange(p, src)...)
	}
	return events
}

func regenFraction(elapsed, total float64) float64 {
	if !(total > 0) {
		return 1
	}
	return min(1, max(0, elapsed/total))
}
