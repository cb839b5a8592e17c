package tick

import (
	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/combat"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// Event is a sealed sum of everything observable during one tick. Only this
// package implements it; consumers switch on the concrete type.
type Event interface {
	// Kind returns a stable snake_case name for logging and transport.
	Kind() string
	tickEvent()
}

// EnemySpawned is emitted when a new encounter begins.
type EnemySpawned struct{ Enemy combat.Enemy }

// PlayerAttacked is emitted for every player strike.
type PlayerAttacked struct {
	Damage  float64
	Crit    bool
	EnemyHP float64
	Healed  float64
}

// EnemyAttacked is emitted when a surviving enemy strikes back.
type EnemyAttacked struct {
	Damage    float64
	Reflected float64
	PlayerHP  float64
}

// EnemyDied is emitted when the enemy falls, with the XP it granted.
type EnemyDied struct {
	Enemy combat.Enemy
	XP    uint64
}

// SubzoneBossDefeated is emitted when a subzone boss falls, with the XP it
// granted and whether the character moved on to the next subzone.
type SubzoneBossDefeated struct {
	Zone, Subzone   uint32
	XP              uint64
	SubzoneAdvanced bool
}

// BossDefeated is emitted when a zone boss falls, with the XP it granted and
// whether the zone advanced. Gated and AtCap explain why it did not.
type BossDefeated struct {
	Zone         uint32
	XP           uint64
	ZoneAdvanced bool
	Gated        bool
	AtCap        bool
}

// LeveledUp is emitted once per kill or reward that grants at least one level.
type LeveledUp struct {
	Level      uint32
	Gained     uint32
	Attributes []character.Attribute
}

// ItemDropped is emitted for each dropped item, whether or not it was equipped.
type ItemDropped struct {
	Item     *inventory.Item
	Equipped bool
}

// PlayerDied is emitted when the player's HP reaches zero.
type PlayerDied struct{ Enemy combat.Enemy }

// PlayerRecovered is emitted when regeneration completes.
type PlayerRecovered struct{}

// SubzoneAdvanced is emitted when the character moves to the next subzone.
type SubzoneAdvanced struct{ Zone, Subzone uint32 }

// ZoneAdvanced is emitted when the character moves to the next zone.
type ZoneAdvanced struct{ Zone uint32 }

// PrestigePerformed is emitted by Engine.Prestige.
type PrestigePerformed struct {
	Rank             uint32
	EquipmentCleared bool
}

// DungeonDiscovered is emitted when a dungeon discovery roll succeeds.
type DungeonDiscovered struct{}

// FishingSpotDiscovered is emitted when a fishing discovery roll succeeds.
type FishingSpotDiscovered struct{}

// ChallengeDiscovered is emitted when a challenge discovery roll succeeds.
type ChallengeDiscovered struct{ Challenge character.ChallengeKind }

// HavenDiscovered is emitted once per character when the haven is found.
type HavenDiscovered struct{}

// ChallengeResolved is emitted by Engine.ResolveChallenge.
type ChallengeResolved struct {
	Challenge character.ChallengeKind
	Won       bool
	Reward    challenge.Reward
}

func (EnemySpawned) Kind() string          { return "enemy_spawned" }
func (PlayerAttacked) Kind() string        { return "player_attacked" }
func (EnemyAttacked) Kind() string         { return "enemy_attacked" }
func (EnemyDied) Kind() string             { return "enemy_died" }
func (SubzoneBossDefeated) Kind() string   { return "subzone_boss_defeated" }
func (BossDefeated) Kind() string          { return "boss_defeated" }
func (LeveledUp) Kind() string             { return "leveled_up" }
func (ItemDropped) Kind() string           { return "item_dropped" }
func (PlayerDied) Kind() string            { return "player_died" }
func (PlayerRecovered) Kind() string       { return "player_recovered" }
func (SubzoneAdvanced) Kind() string       { return "subzone_advanced" }
func (ZoneAdvanced) Kind() string          { return "zone_advanced" }
func (PrestigePerformed) Kind() string     { return "prestige_performed" }
func (DungeonDiscovered) Kind() string     { return "dungeon_discovered" }
func (FishingSpotDiscovered) Kind() string { return "fishing_spot_discovered" }
func (ChallengeDiscovered) Kind() string   { return "challenge_discovered" }
func (HavenDiscovered) Kind() string       { return "haven_discovered" }
func (ChallengeResolved) Kind() string     { return "challenge_resolved" }

func (EnemySpawned) tickEvent()          {}
func (PlayerAttacked) tickEvent()        {}
func (EnemyAttacked) tickEvent()         {}
func (EnemyDied) tickEvent()             {}
func (SubzoneBossDefeated) tickEvent()   {}
func (BossDefeated) tickEvent()          {}
func (LeveledUp) tickEvent()             {}
func (ItemDropped) tickEvent()           {}
func (PlayerDied) tickEvent()            {}
func (PlayerRecovered) tickEvent()       {}
func (SubzoneAdvanced) tickEvent()       {}
func (ZoneAdvanced) tickEvent()          {}
func (PrestigePerformed) tickEvent()     {}
func (DungeonDiscovered) tickEvent()     {}
func (FishingSpotDiscovered) tickEvent() {}
func (ChallengeDiscovered) tickEvent()   {}
func (HavenDiscovered) tickEvent()       {}
func (ChallengeResolved) tickEvent()     {}
