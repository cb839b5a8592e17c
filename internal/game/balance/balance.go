// Package balance defines the immutable tuning constants shared by the
// interactive engine and the balance simulator.
//
// A Config is built once (Default, optionally overlaid by a YAML file) and then
// passed by value into the simulation core. Nothing in the core reads ambient
// module-level tuning values.
package balance

import (
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
)

// KillsForBoss is the number of regular kills in a subzone before its boss spawns.
const KillsForBoss = 10

// MaxZone is the last zone; zone advancement never exceeds it.
const MaxZone = 10

// Config is the full set of balance constants.
type Config struct {
	// TickSeconds is the fixed simulation step. The batch runner and the
	// interactive host both pass exactly this value to every Tick call.
	TickSeconds float64           `yaml:"tick_seconds"`
	Progression ProgressionConfig `yaml:"progression"`
	Combat      CombatConfig      `yaml:"combat"`
	Enemies     EnemyConfig       `yaml:"enemies"`
	Stats       StatsConfig       `yaml:"stats"`
	Loot        LootConfig        `yaml:"loot"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Prestige    PrestigeConfig    `yaml:"prestige"`
}

// ProgressionConfig holds zone layout and XP reward constants.
type ProgressionConfig struct {
	SubzonesPerZone uint32 `yaml:"subzones_per_zone"`
	KillsForBoss    uint32 `yaml:"kills_for_boss"`
	// GameplayXPBase and GameplayXPExponent define base * level^exponent.
	GameplayXPBase     float64 `yaml:"gameplay_xp_base"`
	GameplayXPExponent float64 `yaml:"gameplay_xp_exponent"`
	// SimulatorXPBase and SimulatorXPGrowth define base * growth^level.
	SimulatorXPBase   float64 `yaml:"simulator_xp_base"`
	SimulatorXPGrowth float64 `yaml:"simulator_xp_growth"`
	// KillXPBase + KillXPPerILvl*ilvl is the XP of a regular kill.
	KillXPBase    float64 `yaml:"kill_xp_base"`
	KillXPPerILvl float64 `yaml:"kill_xp_per_ilvl"`
}

// CombatConfig holds encounter timing constants.
type CombatConfig struct {
	AttackIntervalSeconds float64 `yaml:"attack_interval_seconds"`
	RegenSeconds          float64 `yaml:"regen_seconds"`
}

// EnemyConfig scales spawned enemies by item level.
type EnemyConfig struct {
	BaseHP          float64 `yaml:"base_hp"`
	HPPerILvl       float64 `yaml:"hp_per_ilvl"`
	BaseDamage      float64 `yaml:"base_damage"`
	DamagePerILvl   float64 `yaml:"damage_per_ilvl"`
	HPVariance      float64 `yaml:"hp_variance"`
	BossHPMult      float64 `yaml:"boss_hp_mult"`
	BossDamageMult  float64 `yaml:"boss_damage_mult"`
	BossXPMult      float64 `yaml:"boss_xp_mult"`
	ZoneBossHPMult  float64 `yaml:"zone_boss_hp_mult"`
	ZoneBossDmgMult float64 `yaml:"zone_boss_damage_mult"`
	ZoneBossXPMult  float64 `yaml:"zone_boss_xp_mult"`
}

// StatsConfig holds the coefficients that turn attributes into combat stats.
type StatsConfig struct {
	BaseAttribute     int     `yaml:"base_attribute"`
	BaseHP            float64 `yaml:"base_hp"`
	HPPerCON          float64 `yaml:"hp_per_con"`
	HPPerLevel        float64 `yaml:"hp_per_level"`
	BaseDamage        float64 `yaml:"base_damage"`
	DamagePerSTR      float64 `yaml:"damage_per_str"`
	DamagePerINT      float64 `yaml:"damage_per_int"`
	DamagePerLevel    float64 `yaml:"damage_per_level"`
	BaseCritChance    float64 `yaml:"base_crit_chance"`
	CritPerDEX        float64 `yaml:"crit_per_dex"`
	MaxCritChance     float64 `yaml:"max_crit_chance"`
	BaseCritMult      float64 `yaml:"base_crit_mult"`
	ReductionPerWIS   float64 `yaml:"reduction_per_wis"`
	MaxReduction      float64 `yaml:"max_reduction"`
	XPPerCHA          float64 `yaml:"xp_per_cha"`
	AttributesOnLevel int     `yaml:"attributes_on_level"`
}

// RarityTier holds the per-rarity item generation rules.
type RarityTier struct {
	Weight       float64         `yaml:"weight"`
	Redistribute float64         `yaml:"redistribute"`
	MinAttrs     int             `yaml:"min_attrs"`
	MaxAttrs     int             `yaml:"max_attrs"`
	AttrBonus    dice.Expression `yaml:"attr_bonus"`
	MinAffixes   int             `yaml:"min_affixes"`
	MaxAffixes   int             `yaml:"max_affixes"`
	AffixMin     int             `yaml:"affix_min"`
	AffixMax     int             `yaml:"affix_max"`
	HPBonusMin   int             `yaml:"hp_bonus_min"`
	HPBonusMax   int             `yaml:"hp_bonus_max"`
}

// LootConfig holds drop chance and rarity constants.
type LootConfig struct {
	BaseDropChance    float64 `yaml:"base_drop_chance"`
	DropChancePerRank float64 `yaml:"drop_chance_per_rank"`
	DropChanceCap     float64 `yaml:"drop_chance_cap"`
	// RarityShiftPerRank is the rarity bonus, in percent, granted per prestige rank.
	RarityShiftPerRank float64 `yaml:"rarity_shift_per_rank"`
	CommonFloor        float64 `yaml:"common_floor"`
	BossAlwaysDrops    bool    `yaml:"boss_always_drops"`
	// Tiers is indexed by rarity, Common first.
	Tiers [5]RarityTier `yaml:"tiers"`
	// AffixWeights maps affix name to its scoring weight.
	AffixWeights map[string]float64 `yaml:"affix_weights"`
}

// DiscoveryConfig holds the per-tick Bernoulli discovery chances.
type DiscoveryConfig struct {
	DungeonChance      float64 `yaml:"dungeon_chance"`
	FishingChance      float64 `yaml:"fishing_chance"`
	ChallengeChance    float64 `yaml:"challenge_chance"`
	HavenChance        float64 `yaml:"haven_chance"`
	HavenMinPrestige   uint32  `yaml:"haven_min_prestige"`
	HavenRarityBonus   float64 `yaml:"haven_rarity_bonus"`
	ChallengeKindCount int     `yaml:"challenge_kind_count"`
}

// PrestigeConfig holds prestige gating and reward constants.
type PrestigeConfig struct {
	MinLevel       uint32  `yaml:"min_level"`
	XPBonusPerRank float64 `yaml:"xp_bonus_per_rank"`
	// ClearEquipment makes the interactive engine empty all slots on prestige.
	// The balance simulator never clears equipment.
	ClearEquipment bool `yaml:"clear_equipment"`
}

// Default returns the reference balance constants.
//
// Postcondition: Default().Validate() == nil.
func Default() Config {
	return Config{
		TickSeconds: 0.1,
		Progression: ProgressionConfig{
			SubzonesPerZone:    10,
			KillsForBoss:       KillsForBoss,
			GameplayXPBase:     100,
			GameplayXPExponent: 1.5,
			SimulatorXPBase:    100,
			SimulatorXPGrowth:  1.1,
			KillXPBase:         5,
			KillXPPerILvl:      2,
		},
		Combat: CombatConfig{
			AttackIntervalSeconds: 1.5,
			RegenSeconds:          2.5,
		},
		Enemies: EnemyConfig{
			BaseHP:          20,
			HPPerILvl:       8,
			BaseDamage:      3,
			DamagePerILvl:   1,
			HPVariance:      0.1,
			BossHPMult:      3,
			BossDamageMult:  1.25,
			BossXPMult:      5,
			ZoneBossHPMult:  5,
			ZoneBossDmgMult: 1.5,
			ZoneBossXPMult:  10,
		},
		Stats: StatsConfig{
			BaseAttribute:     10,
			BaseHP:            50,
			HPPerCON:          10,
			HPPerLevel:        5,
			BaseDamage:        10,
			DamagePerSTR:      2,
			DamagePerINT:      1,
			DamagePerLevel:    1,
			BaseCritChance:    0.05,
			CritPerDEX:        0.01,
			MaxCritChance:     0.75,
			BaseCritMult:      2.0,
			ReductionPerWIS:   0.005,
			MaxReduction:      0.75,
			XPPerCHA:          0.01,
			AttributesOnLevel: 1,
		},
		Loot: LootConfig{
			BaseDropChance:     0.15,
			DropChancePerRank:  0.01,
			DropChanceCap:      0.25,
			RarityShiftPerRank: 1.0,
			CommonFloor:        10,
			BossAlwaysDrops:    true,
			Tiers: [5]RarityTier{
				{Weight: 55, Redistribute: 0, MinAttrs: 1, MaxAttrs: 1, AttrBonus: dice.MustParse("1d2")},
				{Weight: 30, Redistribute: 0.50, MinAttrs: 1, MaxAttrs: 2, AttrBonus: dice.MustParse("1d3+1"),
					MinAffixes: 1, MaxAffixes: 1, AffixMin: 5, AffixMax: 10, HPBonusMin: 10, HPBonusMax: 30},
				{Weight: 10, Redistribute: 0.30, MinAttrs: 2, MaxAttrs: 2, AttrBonus: dice.MustParse("1d4+2"),
					MinAffixes: 2, MaxAffixes: 3, AffixMin: 8, AffixMax: 15, HPBonusMin: 25, HPBonusMax: 60},
				{Weight: 4, Redistribute: 0.15, MinAttrs: 2, MaxAttrs: 3, AttrBonus: dice.MustParse("1d6+4"),
					MinAffixes: 3, MaxAffixes: 4, AffixMin: 12, AffixMax: 20, HPBonusMin: 50, HPBonusMax: 100},
				{Weight: 1, Redistribute: 0.05, MinAttrs: 3, MaxAttrs: 3, AttrBonus: dice.MustParse("1d8+7"),
					MinAffixes: 4, MaxAffixes: 5, AffixMin: 15, AffixMax: 30, HPBonusMin: 80, HPBonusMax: 150},
			},
			AffixWeights: map[string]float64{
				"damage_percent":    2.0,
				"crit_chance":       1.5,
				"crit_multiplier":   1.0,
				"attack_speed":      1.5,
				"hp_bonus":          0.3,
				"damage_reduction":  1.5,
				"hp_regen":          0.8,
				"damage_reflection": 0.7,
				"xp_gain":           1.0,
			},
		},
		Discovery: DiscoveryConfig{
			DungeonChance:      0.0002,
			FishingChance:      0.0005,
			ChallengeChance:    0.0001,
			HavenChance:        0.00005,
			HavenMinPrestige:   10,
			HavenRarityBonus:   5,
			ChallengeKindCount: 5,
		},
		Prestige: PrestigeConfig{
			MinLevel:       10,
			XPBonusPerRank: 0.1,
			ClearEquipment: false,
		},
	}
}
