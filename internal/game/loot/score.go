package loot

import (
	"math"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// ScoreItem rates item for a character with attrs. Attribute bonuses are weighted
// by how strongly the character already leans on that attribute; affixes are
// weighted by the balance affix weights.
//
// Postcondition: result is finite; non-finite intermediate results score 0.
func ScoreItem(cfg balance.LootConfig, item *inventory.Item, attrs character.Attributes) float64 {
	if item == nil {
		return 0
	}
	total := float64(max(1, attrs.Total()))
	var score float64
	for _, b := range item.Attributes {
		score += float64(b.Value) * (character.NumAttributes * float64(attrs.Get(b.Attribute)) / total)
	}
	for _, a := range item.Affixes {
		score += a.Value * cfg.AffixWeight(a.Kind.String())
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// AutoEquipIfBetter equips item when its slot is empty or when it scores strictly
// higher than the current item. Ties keep the current item.
//
// Precondition: eq and item are non-nil.
// Postcondition: returns true iff eq.Get(item.Slot) == item.
func AutoEquipIfBetter(cfg balance.LootConfig, eq *inventory.Equipment, item *inventory.Item, attrs character.Attributes) bool {
	current := eq.Get(item.Slot)
	if current != nil && ScoreItem(cfg, item, attrs) <= ScoreItem(cfg, current, attrs) {
		return false
	}
	_, err := eq.Equip(item)
	return err == nil
}
