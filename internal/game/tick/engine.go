// Package tick resolves one fixed time step of combat and progression for a
// single character. It is shared verbatim by the interactive host and the
// balance simulator.
package tick

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/combat"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/loot"
	"github.com/cory-johannsen/idlerpg/internal/game/progression"
)

// ErrCannotPrestige is returned by Prestige when the level requirement is unmet.
var ErrCannotPrestige = errors.New("prestige level requirement not met")

// ErrNoPendingChallenge is returned by ResolveChallenge when no challenge is pending.
var ErrNoPendingChallenge = errors.New("no pending challenge")

// Options selects the variant behaviors of an Engine.
type Options struct {
	// Curve is the XP curve; the interactive engine uses GameplayCurve.
	Curve progression.Curve
	// DisableLoot skips drop rolls entirely. Disabled loot consumes no draws.
	DisableLoot bool
	// KeepEquipmentOnPrestige overrides balance.PrestigeConfig.ClearEquipment.
	KeepEquipmentOnPrestige bool
}

// Engine applies ticks to game states. An Engine holds only immutable
// configuration and is safe for concurrent use across distinct states.
type Engine struct {
	cfg  balance.Config
	opts Options
}

// NewEngine returns an Engine for cfg.
//
// Precondition: cfg.Validate() == nil.
func NewEngine(cfg balance.Config, opts Options) *Engine {
	return &Engine{cfg: cfg, opts: opts}
}

// Config returns the balance configuration the engine was built with.
func (e *Engine) Config() balance.Config { return e.cfg }

// NewGameState returns a fresh level-1 state with full HP.
//
// Precondition: name must be non-empty.
func (e *Engine) NewGameState(name string) (*GameState, error) {
	c, err := character.New(name, e.cfg.Stats.BaseAttribute)
	if err != nil {
		return nil, fmt.Errorf("creating game state: %w", err)
	}
	s := &GameState{Character: *c}
	s.Combat = combat.NewState(e.Stats(s).MaxHP)
	return s, nil
}

// Stats derives the current combat stats of s.
func (e *Engine) Stats(s *GameState) combat.PlayerStats {
	return combat.DeriveStats(e.cfg, s.Character.Attributes, s.Character.Progression.CharacterLevel, s.Equipment.Totals())
}

// ClampDelta returns dt limited to [0, maxDelta]. Non-finite and negative values become 0.
//
// Postcondition: 0 <= result <= max(maxDelta, 0).
func ClampDelta(dt, maxDelta float64) float64 {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return 0
	}
	if maxDelta >= 0 && dt > maxDelta {
		return maxDelta
	}
	return dt
}

// Tick advances s by dt seconds and returns every observable event in order.
//
// Order: derive stats and sync max HP; spawn when idle; advance combat; settle
// deaths (XP, kill, loot); roll discoveries. Exactly four discovery draws are
// consumed every tick.
//
// Precondition: s is non-nil; dt is finite and >= 0 (see ClampDelta); src is
// owned by the caller and seeded for reproducibility when required.
// Postcondition: the same (s, dt, src) always yields the same s' and events.
func (e *Engine) Tick(s *GameState, dt float64, src dice.Source) []Event {
	var events []Event
	stats := e.Stats(s)
	s.Combat.SyncMaxHP(stats.MaxHP, e.cfg.Combat.RegenSeconds)

	if s.Combat.NeedsSpawn() {
		enemy := e.spawn(s, src)
		s.Combat.Spawn(enemy)
		events = append(events, EnemySpawned{Enemy: enemy})
	}

	for _, ce := range s.Combat.Advance(dt, stats, e.cfg.Combat, src) {
		switch ev := ce.(type) {
		case combat.Exchange:
			events = append(events, PlayerAttacked{Damage: ev.PlayerDamage, Crit: ev.Crit, EnemyHP: ev.EnemyHP, Healed: ev.Healed})
			if ev.Countered {
				events = append(events, EnemyAttacked{Damage: ev.EnemyDamage, Reflected: ev.Reflected, PlayerHP: ev.PlayerHP})
			}
		case combat.EnemyKilled:
			events = append(events, e.settleKill(s, ev.Enemy, stats, src)...)
		case combat.PlayerKilled:
			if ev.Enemy.IsBoss {
				s.Character.Progression.RetreatFromBoss()
			}
			events = append(events, PlayerDied{Enemy: ev.Enemy})
		case combat.PlayerRecovered:
			events = append(events, PlayerRecovered{})
		}
	}

	return append(events, e.rollDiscoveries(s, src)...)
}

func (e *Engine) spawn(s *GameState, src dice.Source) combat.Enemy {
	p := s.Character.Progression
	boss := p.ShouldSpawnBoss(e.cfg.Progression.KillsForBoss)
	zoneBoss := boss && p.IsZoneBossSubzone(e.cfg.Progression.SubzonesPerZone)
	return combat.SpawnEnemy(e.cfg.Enemies, p.CurrentZone, p.ILvl(e.cfg.Progression.SubzonesPerZone), boss, zoneBoss, src)
}

// KillXP returns the XP a kill of enemy grants to s.
//
// Postcondition: result >= 1.
func (e *Engine) KillXP(s *GameState, enemy combat.Enemy, stats combat.PlayerStats) uint64 {
	xp := e.cfg.Progression.KillXPBase + e.cfg.Progression.KillXPPerILvl*float64(enemy.ILvl)
	switch {
	case enemy.IsZoneBoss:
		xp *= e.cfg.Enemies.ZoneBossXPMult
	case enemy.IsBoss:
		xp *= e.cfg.Enemies.BossXPMult
	}
	xp *= progression.XPMultiplier(s.Character.Progression.PrestigeRank, e.cfg.Prestige.XPBonusPerRank)
	cha := s.Character.Attributes.Charisma + s.Equipment.Totals().Attributes.Charisma
	xp *= combat.XPMultiplier(e.cfg.Stats, cha, stats.XPGainPercent)
	xp = math.Floor(xp)
	switch {
	case math.IsNaN(xp) || xp < 1:
		return 1
	case xp >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(xp)
}

func (e *Engine) settleKill(s *GameState, enemy combat.Enemy, stats combat.PlayerStats, src dice.Source) []Event {
	xp := e.KillXP(s, enemy, stats)
	events := []Event{EnemyDied{Enemy: enemy, XP: xp}}
	events = append(events, e.grantXP(s, xp, src)...)

	p := &s.Character.Progression
	zone, subzone := p.CurrentZone, p.CurrentSubzone
	out := p.RecordKill(enemy.IsBoss, e.cfg.Progression.SubzonesPerZone)
	switch {
	case out.ZoneBoss:
		events = append(events, BossDefeated{Zone: zone, XP: xp, ZoneAdvanced: out.ZoneAdvanced, Gated: out.Gated, AtCap: out.AtCap})
	case out.Boss:
		events = append(events, SubzoneBossDefeated{Zone: zone, Subzone: subzone, XP: xp, SubzoneAdvanced: out.SubzoneAdvanced})
	}
	if out.SubzoneAdvanced {
		events = append(events, SubzoneAdvanced{Zone: out.Zone, Subzone: out.Subzone})
	}
	if out.ZoneAdvanced {
		events = append(events, ZoneAdvanced{Zone: out.Zone})
	}

	if !e.opts.DisableLoot {
		item := loot.Drop(e.cfg.Loot, p.PrestigeRank, e.RarityBonus(s), enemy.ILvl, enemy.IsBoss, src)
		if item != nil {
			equipped := loot.AutoEquipIfBetter(e.cfg.Loot, &s.Equipment, item, s.Character.Attributes)
			events = append(events, ItemDropped{Item: item, Equipped: equipped})
		}
	}
	return events
}

func (e *Engine) grantXP(s *GameState, xp uint64, src dice.Source) []Event {
	gained := s.Character.Progression.AddXP(xp, e.opts.Curve, e.cfg.Progression)
	if gained == 0 {
		return nil
	}
	raised := s.Character.GrantLevelAttributes(gained, e.cfg.Stats.AttributesOnLevel, src)
	return []Event{LeveledUp{Level: s.Character.Progression.CharacterLevel, Gained: gained, Attributes: raised}}
}

// RarityBonus returns the rarity shift, in percent, earned outside prestige.
func (e *Engine) RarityBonus(s *GameState) float64 {
	bonus := s.Character.SideProgress.RarityBonus
	if s.Character.SideProgress.HavenDiscovered {
		bonus += e.cfg.Discovery.HavenRarityBonus
	}
	return bonus
}

func (e *Engine) rollDiscoveries(s *GameState, src dice.Source) []Event {
	var events []Event
	d := &s.Character.Discoveries
	side := &s.Character.SideProgress
	dc := e.cfg.Discovery

	if dice.Chance(src, dc.DungeonChance) && !d.ActiveDungeon {
		d.ActiveDungeon = true
		events = append(events, DungeonDiscovered{})
	}
	if dice.Chance(src, dc.FishingChance) && !d.FishingSpot {
		d.FishingSpot = true
		events = append(events, FishingSpotDiscovered{})
	}
	// The challenge kind comes from where the draw fell inside the success band.
	if u := src.Float64(); u < dc.ChallengeChance && d.PendingChallenge == "" {
		kinds := character.ChallengeKinds[:min(dc.ChallengeKindCount, len(character.ChallengeKinds))]
		idx := min(int(u/dc.ChallengeChance*float64(len(kinds))), len(kinds)-1)
		d.PendingChallenge = kinds[idx]
		events = append(events, ChallengeDiscovered{Challenge: d.PendingChallenge})
	}
	if dice.Chance(src, dc.HavenChance) && !side.HavenDiscovered &&
		s.Character.Progression.PrestigeRank >= dc.HavenMinPrestige {
		side.HavenDiscovered = true
		events = append(events, HavenDiscovered{})
	}
	return events
}

// Discovery names a transient discovery the host can dismiss.
type Discovery int

const (
	DiscoveryDungeon Discovery = iota
	DiscoveryFishingSpot
	DiscoveryChallenge
)

// ClearDiscovery dismisses a discovery once the host has dealt with it.
func (e *Engine) ClearDiscovery(s *GameState, d Discovery) {
	switch d {
	case DiscoveryDungeon:
		s.Character.Discoveries.ActiveDungeon = false
	case DiscoveryFishingSpot:
		s.Character.Discoveries.FishingSpot = false
	case DiscoveryChallenge:
		s.Character.Discoveries.PendingChallenge = ""
	}
}

// Prestige resets s for the next prestige rank.
//
// Equipment is cleared only when balance.PrestigeConfig.ClearEquipment is set and
// the engine was not built with KeepEquipmentOnPrestige. Any encounter ends and
// HP is refilled to the new maximum.
//
// Precondition: s.Character.CanPrestige(cfg.Prestige.MinLevel).
// Postcondition: returns ErrCannotPrestige and leaves s untouched when the precondition fails.
func (e *Engine) Prestige(s *GameState) (Event, error) {
	if !s.Character.CanPrestige(e.cfg.Prestige.MinLevel) {
		return nil, fmt.Errorf("prestige at level %d (need %d): %w",
			s.Character.Progression.CharacterLevel, e.cfg.Prestige.MinLevel, ErrCannotPrestige)
	}
	s.Character.Prestige(e.cfg.Stats.BaseAttribute)
	cleared := e.cfg.Prestige.ClearEquipment && !e.opts.KeepEquipmentOnPrestige
	if cleared {
		s.Equipment.Clear()
	}
	s.Combat = combat.NewState(e.Stats(s).MaxHP)
	return PrestigePerformed{Rank: s.Character.Progression.PrestigeRank, EquipmentCleared: cleared}, nil
}

// ResolveChallenge settles the pending challenge using rewards.
//
// Precondition: s.Character.Discoveries.PendingChallenge is set.
// Postcondition: the pending challenge is cleared; a won challenge increments
// ChallengesWon and applies the reward. LeveledUp follows ChallengeResolved when
// the reward XP grants levels.
func (e *Engine) ResolveChallenge(s *GameState, won bool, rewards challenge.RewardSource, src dice.Source) ([]Event, error) {
	kind := s.Character.Discoveries.PendingChallenge
	if kind == "" {
		return nil, ErrNoPendingChallenge
	}
	r, err := rewards.Reward(kind, won, s.Character.Progression.PrestigeRank)
	if err != nil {
		return nil, fmt.Errorf("resolving %s challenge: %w", kind, err)
	}
	s.Character.Discoveries.PendingChallenge = ""
	side := &s.Character.SideProgress
	if won {
		side.ChallengesWon++
	}
	side.FishingRank += r.FishingRanks
	if r.RarityBonus > 0 && !math.IsInf(r.RarityBonus, 0) {
		side.RarityBonus += r.RarityBonus
	}
	events := []Event{ChallengeResolved{Challenge: kind, Won: won, Reward: r}}
	if r.XP > 0 {
		events = append(events, e.grantXP(s, r.XP, src)...)
	}
	return events, nil
}

// View returns a read-only copy of s for display.
func (e *Engine) View(s *GameState) View {
	p := s.Character.Progression
	v := View{
		Name:         s.Character.Name,
		Level:        p.CharacterLevel,
		XP:           p.CharacterXP,
		XPToNext:     e.opts.Curve.XPForLevel(e.cfg.Progression, p.CharacterLevel),
		Zone:         p.CurrentZone,
		Subzone:      p.CurrentSubzone,
		Kills:        p.KillsInSubzone,
		PrestigeRank: p.PrestigeRank,
		Attributes:   s.Character.Attributes,
		SideProgress: s.Character.SideProgress,
		Discoveries:  s.Character.Discoveries,
		PlayerHP:     s.Combat.PlayerCurrentHP,
		PlayerMaxHP:  s.Combat.PlayerMaxHP,
		Regenerating: s.Combat.IsRegenerating,
		Equipment:    s.Equipment.Clone(),
	}
	if s.Combat.CurrentEnemy != nil {
		enemy := *s.Combat.CurrentEnemy
		v.Enemy = &enemy
	}
	return v
}
