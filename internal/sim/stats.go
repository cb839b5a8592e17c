package sim

import (
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// RunStats is the write-once outcome of a single run.
type RunStats struct {
	RunID         string `json:"run_id"`
	RunIndex      uint32 `json:"run_index"`
	Seed          uint64 `json:"seed"`
	FinalLevel    uint32 `json:"final_level"`
	FinalZone     uint32 `json:"final_zone"`
	FinalSubzone  uint32 `json:"final_subzone"`
	FinalPrestige uint32 `json:"final_prestige"`
	Kills         uint64 `json:"kills"`
	BossKills     uint64 `json:"boss_kills"`
	ZoneBossKills uint64 `json:"zone_boss_kills"`
	Deaths        uint64 `json:"deaths"`
	Ticks         uint64 `json:"ticks"`
	ItemsDropped  uint64 `json:"items_dropped"`
	ItemsEquipped uint64 `json:"items_equipped"`
	// DropsByRarity is indexed by inventory.Rarity.
	DropsByRarity [inventory.NumRarities]uint64 `json:"drops_by_rarity"`
	LevelUps      uint64                        `json:"level_ups"`
	Prestiges     uint32                        `json:"prestiges"`
	Dungeons      uint32                        `json:"dungeons"`
	FishingSpots  uint32                        `json:"fishing_spots"`
	Challenges    uint32                        `json:"challenges"`
	HavenFound    bool                          `json:"haven_found"`
	// ZoneReachedTick[i] is the first tick at which zone i+1 was entered.
	ZoneReachedTick []uint64 `json:"zone_reached_tick"`
	ReachedTarget   bool     `json:"reached_target"`
	// TicksToTarget is meaningful only when ReachedTarget is true.
	TicksToTarget uint64 `json:"ticks_to_target"`
}
