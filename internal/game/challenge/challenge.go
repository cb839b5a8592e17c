// Package challenge defines the reward contract between minigame challenges and
// the tick engine. The minigames themselves live outside the simulation core.
package challenge

import (
	"github.com/cory-johannsen/idlerpg/internal/game/character"
)

// Reward is what winning a challenge grants.
type Reward struct {
	XP           uint64  `json:"xp" yaml:"xp"`
	FishingRanks uint32  `json:"fishing_ranks" yaml:"fishing_ranks"`
	RarityBonus  float64 `json:"rarity_bonus" yaml:"rarity_bonus"`
}

// IsZero reports whether r grants nothing.
func (r Reward) IsZero() bool {
	return r == Reward{}
}

// RewardSource resolves the reward for a finished challenge.
type RewardSource interface {
	// Reward returns the reward for a challenge of kind finished by a character at
	// prestige rank. Losing a challenge may still yield a consolation reward.
	Reward(kind character.ChallengeKind, won bool, rank uint32) (Reward, error)
}

// StaticRewards is a RewardSource backed by a fixed table. Losses grant nothing.
type StaticRewards map[character.ChallengeKind]Reward

// DefaultRewards returns the built-in reward table.
//
// Postcondition: every entry of character.ChallengeKinds has a non-zero reward.
func DefaultRewards() StaticRewards {
	return StaticRewards{
		"chess":       {XP: 500, RarityBonus: 1},
		"morris":      {XP: 250, RarityBonus: 0.5},
		"gomoku":      {XP: 250, RarityBonus: 0.5},
		"minesweeper": {XP: 150, FishingRanks: 1},
		"go":          {XP: 750, RarityBonus: 1.5},
	}
}

// Reward implements RewardSource.
//
// Postcondition: returns the zero Reward when won is false or kind is unknown.
func (s StaticRewards) Reward(kind character.ChallengeKind, won bool, _ uint32) (Reward, error) {
	if !won {
		return Reward{}, nil
	}
	return s[kind], nil
}
