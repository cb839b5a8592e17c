package balance

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Validate checks that the Config satisfies its invariants.
//
// Postcondition: returns nil iff every field is in range.
func (c Config) Validate() error {
	var errs []error
	if !(c.TickSeconds > 0) || math.IsInf(c.TickSeconds, 0) {
		errs = append(errs, fmt.Errorf("tick_seconds must be > 0; got %v", c.TickSeconds))
	}
	if c.Progression.SubzonesPerZone < 1 {
		errs = append(errs, errors.New("progression.subzones_per_zone must be >= 1"))
	}
	if c.Progression.KillsForBoss < 1 {
		errs = append(errs, errors.New("progression.kills_for_boss must be >= 1"))
	}
	if c.Progression.GameplayXPBase <= 0 || c.Progression.SimulatorXPBase <= 0 {
		errs = append(errs, errors.New("progression xp bases must be > 0"))
	}
	if c.Progression.SimulatorXPGrowth < 1 {
		errs = append(errs, errors.New("progression.simulator_xp_growth must be >= 1"))
	}
	if c.Combat.AttackIntervalSeconds <= 0 {
		errs = append(errs, errors.New("combat.attack_interval_seconds must be > 0"))
	}
	if c.Combat.RegenSeconds <= 0 {
		errs = append(errs, errors.New("combat.regen_seconds must be > 0"))
	}
	if c.Enemies.HPVariance < 0 || c.Enemies.HPVariance >= 1 {
		errs = append(errs, fmt.Errorf("enemies.hp_variance must be in [0, 1); got %v", c.Enemies.HPVariance))
	}
	if c.Loot.DropChanceCap < 0 || c.Loot.DropChanceCap > 1 {
		errs = append(errs, fmt.Errorf("loot.drop_chance_cap must be in [0, 1]; got %v", c.Loot.DropChanceCap))
	}
	if c.Loot.CommonFloor < 0 || c.Loot.CommonFloor > c.Loot.Tiers[0].Weight {
		errs = append(errs, fmt.Errorf("loot.common_floor must be in [0, common weight]; got %v", c.Loot.CommonFloor))
	}
	var redistribute float64
	for i, t := range c.Loot.Tiers {
		redistribute += t.Redistribute
		if t.Weight < 0 {
			errs = append(errs, fmt.Errorf("loot.tiers[%d].weight must be >= 0", i))
		}
		if t.MinAttrs < 1 || t.MaxAttrs < t.MinAttrs {
			errs = append(errs, fmt.Errorf("loot.tiers[%d] attribute count range is invalid", i))
		}
		if t.AttrBonus.Count < 1 && t.AttrBonus.Modifier < 1 {
			errs = append(errs, fmt.Errorf("loot.tiers[%d].attr_bonus must be set", i))
		}
		if t.MinAffixes < 0 || t.MaxAffixes < t.MinAffixes {
			errs = append(errs, fmt.Errorf("loot.tiers[%d] affix count range is invalid", i))
		}
		if t.AffixMax < t.AffixMin || t.HPBonusMax < t.HPBonusMin {
			errs = append(errs, fmt.Errorf("loot.tiers[%d] affix value range is invalid", i))
		}
	}
	if math.Abs(redistribute-1) > 1e-9 {
		errs = append(errs, fmt.Errorf("loot.tiers redistribute ratios must sum to 1; got %v", redistribute))
	}
	for _, p := range []float64{c.Discovery.DungeonChance, c.Discovery.FishingChance, c.Discovery.ChallengeChance, c.Discovery.HavenChance} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("discovery chances must be in [0, 1]; got %v", p))
		}
	}
	if c.Discovery.ChallengeKindCount < 1 {
		errs = append(errs, errors.New("discovery.challenge_kind_count must be >= 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("balance validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Parse decodes YAML over Default so omitted keys keep their reference values.
//
// Postcondition: returns a valid Config or a non-nil error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing balance: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a balance YAML file. An empty path yields Default.
//
// Precondition: path is empty or names a readable file.
// Postcondition: returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading balance file %q: %w", path, err)
	}
	return Parse(data)
}

// AffixWeight returns the scoring weight for the named affix, or 0 when unknown.
func (c LootConfig) AffixWeight(name string) float64 {
	return c.AffixWeights[name]
}
