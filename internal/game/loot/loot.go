// Package loot rolls item drops, generates items by rarity, and decides whether
// a drop replaces the item currently worn in its slot.
package loot

import (
	"math"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// DropChanceForPrestige returns the regular-kill drop probability at rank.
//
// Postcondition: result is non-decreasing in rank and never exceeds cfg.DropChanceCap.
func DropChanceForPrestige(cfg balance.LootConfig, rank uint32) float64 {
	return math.Min(cfg.BaseDropChance+cfg.DropChancePerRank*float64(rank), cfg.DropChanceCap)
}

// RarityWeights returns the percentage weights for each rarity after the prestige
// and bonus shift. Mass removed from Common is handed to the other tiers in the
// ratio of their Redistribute fields.
//
// Postcondition: result[Common] >= cfg.CommonFloor; the sum equals the sum of the base weights.
func RarityWeights(cfg balance.LootConfig, rank uint32, bonusPercent float64) [inventory.NumRarities]float64 {
	var w [inventory.NumRarities]float64
	for i, t := range cfg.Tiers {
		w[i] = t.Weight
	}
	shift := float64(rank)*cfg.RarityShiftPerRank + bonusPercent
	if math.IsNaN(shift) || shift < 0 {
		shift = 0
	}
	common := math.Max(cfg.CommonFloor, w[inventory.Common]-shift)
	removed := w[inventory.Common] - common
	w[inventory.Common] = common
	for i := inventory.Magic; i <= inventory.Legendary; i++ {
		w[i] += removed * cfg.Tiers[i].Redistribute
	}
	return w
}

// RollRarity draws a rarity from RarityWeights with exactly one Float64 draw.
func RollRarity(cfg balance.LootConfig, rank uint32, bonusPercent float64, src dice.Source) inventory.Rarity {
	w := RarityWeights(cfg, rank, bonusPercent)
	var total float64
	for _, v := range w {
		total += v
	}
	roll := src.Float64() * total
	var acc float64
	for i, v := range w {
		acc += v
		if roll < acc {
			return inventory.Rarity(i)
		}
	}
	return inventory.Legendary
}

// GenerateItem builds an item of rarity for slot at ilvl.
//
// Attribute bonuses are rolled from the tier's dice expression alone; ilvl is
// recorded on the item and scales the enemies that drop it, not its bonuses.
// Affix kinds are drawn without replacement from the catalog.
//
// Postcondition: the attribute and affix counts lie within the tier bounds and no
// attribute or affix kind repeats.
func GenerateItem(cfg balance.LootConfig, slot inventory.Slot, rarity inventory.Rarity, ilvl uint32, src dice.Source) *inventory.Item {
	tier := cfg.Tiers[rarity]
	item := &inventory.Item{Slot: slot, Rarity: rarity, ILvl: ilvl}

	attrs := append([]character.Attribute(nil), character.AllAttributes[:]...)
	n := min(dice.Between(src, tier.MinAttrs, tier.MaxAttrs), len(attrs))
	for i := 0; i < n; i++ {
		j := src.Intn(len(attrs))
		attr := attrs[j]
		attrs = append(attrs[:j], attrs[j+1:]...)
		item.Attributes = append(item.Attributes, inventory.AttributeBonus{
			Attribute: attr,
			Value:     dice.RollWith(src, tier.AttrBonus),
		})
	}

	kinds := append([]inventory.AffixKind(nil), inventory.AllAffixKinds[:]...)
	n = min(dice.Between(src, tier.MinAffixes, tier.MaxAffixes), len(kinds))
	for i := 0; i < n; i++ {
		j := src.Intn(len(kinds))
		kind := kinds[j]
		kinds = append(kinds[:j], kinds[j+1:]...)
		lo, hi := tier.AffixMin, tier.AffixMax
		if kind == inventory.HPBonus {
			lo, hi = tier.HPBonusMin, tier.HPBonusMax
		}
		item.Affixes = append(item.Affixes, inventory.Affix{Kind: kind, Value: float64(dice.Between(src, lo, hi))})
	}
	return item
}

// Drop rolls whether a kill drops an item and, if so, generates it.
// Bosses skip the chance draw when cfg.BossAlwaysDrops is set.
//
// Postcondition: returns nil when nothing dropped.
func Drop(cfg balance.LootConfig, rank uint32, bonusPercent float64, ilvl uint32, isBoss bool, src dice.Source) *inventory.Item {
	if !(isBoss && cfg.BossAlwaysDrops) && !dice.Chance(src, DropChanceForPrestige(cfg, rank)) {
		return nil
	}
	slot := inventory.AllSlots[src.Intn(inventory.NumSlots)]
	rarity := RollRarity(cfg, rank, bonusPercent, src)
	return GenerateItem(cfg, slot, rarity, ilvl, src)
}
