// Package sim runs the tick engine many times with seeded randomness and
// aggregates the outcomes into a balance report.
package sim

import "github.com/cory-johannsen/idlerpg/internal/game/balance"

const (
	// DefaultNumRuns is used when NumRuns is unset in a config loaded from a file.
	DefaultNumRuns = 100
	// MaxNumRuns bounds a single batch.
	MaxNumRuns = 1_000_000
	// DefaultMaxTicksPerRun is roughly 28 hours of game time at 0.1s per tick.
	DefaultMaxTicksPerRun = 1_000_000
	// DefaultTargetZone is used when TargetZone is 0.
	DefaultTargetZone = 5
	// MaxTargetPrestige bounds TargetPrestige.
	MaxTargetPrestige = 1000
)

// SimConfig describes one batch of runs.
type SimConfig struct {
	NumRuns uint32 `json:"num_runs" mapstructure:"num_runs"`
	// Seed is the base seed; run i uses Seed+i. Nil asks the runner to pick one.
	Seed             *uint64 `json:"seed,omitempty" mapstructure:"seed"`
	MaxTicksPerRun   uint64  `json:"max_ticks_per_run" mapstructure:"max_ticks_per_run"`
	TargetZone       uint32  `json:"target_zone" mapstructure:"target_zone"`
	TargetPrestige   uint32  `json:"target_prestige" mapstructure:"target_prestige"`
	SimulateLoot     bool    `json:"simulate_loot" mapstructure:"simulate_loot"`
	SimulatePrestige bool    `json:"simulate_prestige" mapstructure:"simulate_prestige"`
}

// DefaultSimConfig returns the batch tool defaults.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		NumRuns:        DefaultNumRuns,
		MaxTicksPerRun: DefaultMaxTicksPerRun,
		TargetZone:     DefaultTargetZone,
		SimulateLoot:   true,
	}
}

// Normalize clamps every field into range so a malformed value never fails a batch.
//
// Postcondition: NumRuns <= MaxNumRuns; MaxTicksPerRun >= 1;
// 1 <= TargetZone <= balance.MaxZone; TargetPrestige <= MaxTargetPrestige.
// NumRuns == 0 is preserved and yields an empty report.
func (c SimConfig) Normalize() SimConfig {
	c.NumRuns = min(c.NumRuns, MaxNumRuns)
	if c.MaxTicksPerRun == 0 {
		c.MaxTicksPerRun = DefaultMaxTicksPerRun
	}
	switch {
	case c.TargetZone == 0:
		c.TargetZone = DefaultTargetZone
	case c.TargetZone > balance.MaxZone:
		c.TargetZone = balance.MaxZone
	}
	c.TargetPrestige = min(c.TargetPrestige, MaxTargetPrestige)
	if c.Seed != nil {
		seed := *c.Seed
		c.Seed = &seed
	}
	return c
}

// SeedForRun derives the seed of run runIdx from base, wrapping on overflow.
func SeedForRun(base uint64, runIdx uint32) uint64 {
	return base + uint64(runIdx)
}
