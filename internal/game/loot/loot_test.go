package loot_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
	"github.com/cory-johannsen/idlerpg/internal/game/loot"
)

var cfg = balance.Default().Loot

var baseAttr = balance.Default().Stats.BaseAttribute

func TestDropChance_BaseAndCap(t *testing.T) {
	assert.InDelta(t, 0.15, loot.DropChanceForPrestige(cfg, 0), 1e-12)
	assert.InDelta(t, 0.20, loot.DropChanceForPrestige(cfg, 5), 1e-12)
	assert.InDelta(t, 0.25, loot.DropChanceForPrestige(cfg, 10), 1e-12)
	assert.InDelta(t, 0.25, loot.DropChanceForPrestige(cfg, 500), 1e-12)
}

// TestDropChance_Monotonic_Property: the drop chance never decreases with rank and never exceeds the cap.
func TestDropChance_Monotonic_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.Uint32Range(0, 10_000).Draw(rt, "rank")
		a := loot.DropChanceForPrestige(cfg, r)
		b := loot.DropChanceForPrestige(cfg, r+1)
		assert.LessOrEqual(rt, a, b)
		assert.LessOrEqual(rt, b, cfg.DropChanceCap)
	})
}

func TestRarityWeights_Baseline(t *testing.T) {
	w := loot.RarityWeights(cfg, 0, 0)
	assert.Equal(t, [inventory.NumRarities]float64{55, 30, 10, 4, 1}, w)
}

func TestRarityWeights_Shift(t *testing.T) {
	w := loot.RarityWeights(cfg, 5, 5)
	assert.InDelta(t, 45, w[inventory.Common], 1e-9)
	assert.InDelta(t, 35, w[inventory.Magic], 1e-9)
	assert.InDelta(t, 13, w[inventory.Rare], 1e-9)
	assert.InDelta(t, 5.5, w[inventory.Epic], 1e-9)
	assert.InDelta(t, 1.5, w[inventory.Legendary], 1e-9)
}

// TestRarityWeights_Property: Common never drops below the floor and total mass is conserved.
func TestRarityWeights_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rank := rapid.Uint32Range(0, 1000).Draw(rt, "rank")
		bonus := rapid.Float64Range(0, 500).Draw(rt, "bonus")
		w := loot.RarityWeights(cfg, rank, bonus)
		assert.GreaterOrEqual(rt, w[inventory.Common], cfg.CommonFloor)
		var sum float64
		for _, v := range w {
			sum += v
		}
		assert.InDelta(rt, 100, sum, 1e-9)
	})
}

func TestRollRarity_CommonFloorHoldsAtMaxBonus(t *testing.T) {
	src := dice.NewSeededSource(2024)
	var counts [inventory.NumRarities]int
	const n = 20_000
	for i := 0; i < n; i++ {
		counts[loot.RollRarity(cfg, 1000, 1000, src)]++
	}
	share := float64(counts[inventory.Common]) / n
	assert.InDelta(t, 0.10, share, 0.015, "common share %v", share)
	assert.Positive(t, counts[inventory.Legendary])
}

func TestRollRarity_ConsumesOneDraw(t *testing.T) {
	src := dice.NewSeededSource(1)
	loot.RollRarity(cfg, 3, 0, src)
	ref := dice.NewSeededSource(1)
	ref.Float64()
	assert.Equal(t, ref.Position(), src.Position())
}

// TestGenerateItem_Bounds_Property checks counts, uniqueness, and value ranges for every rarity.
func TestGenerateItem_Bounds_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rarity := inventory.Rarity(rapid.IntRange(0, inventory.NumRarities-1).Draw(rt, "rarity"))
		slot := inventory.Slot(rapid.IntRange(0, inventory.NumSlots-1).Draw(rt, "slot"))
		ilvl := rapid.Uint32Range(1, 100).Draw(rt, "ilvl")
		src := dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))
		tier := cfg.Tiers[rarity]

		it := loot.GenerateItem(cfg, slot, rarity, ilvl, src)
		assert.Equal(rt, slot, it.Slot)
		assert.Equal(rt, rarity, it.Rarity)

		assert.GreaterOrEqual(rt, len(it.Attributes), tier.MinAttrs)
		assert.LessOrEqual(rt, len(it.Attributes), tier.MaxAttrs)
		seenAttr := map[character.Attribute]bool{}
		for _, b := range it.Attributes {
			assert.False(rt, seenAttr[b.Attribute], "duplicate attribute")
			seenAttr[b.Attribute] = true
			assert.GreaterOrEqual(rt, b.Value, tier.AttrBonus.Min())
			assert.LessOrEqual(rt, b.Value, tier.AttrBonus.Max())
		}

		assert.GreaterOrEqual(rt, len(it.Affixes), tier.MinAffixes)
		assert.LessOrEqual(rt, len(it.Affixes), tier.MaxAffixes)
		seenAffix := map[inventory.AffixKind]bool{}
		for _, a := range it.Affixes {
			assert.False(rt, seenAffix[a.Kind], "duplicate affix")
			seenAffix[a.Kind] = true
			lo, hi := tier.AffixMin, tier.AffixMax
			if a.Kind == inventory.HPBonus {
				lo, hi = tier.HPBonusMin, tier.HPBonusMax
			}
			assert.GreaterOrEqual(rt, a.Value, float64(lo))
			assert.LessOrEqual(rt, a.Value, float64(hi))
		}
	})
}

func TestGenerateItem_LegendaryRangeIgnoresILvl(t *testing.T) {
	for seed := uint64(0); seed < 500; seed++ {
		it := loot.GenerateItem(cfg, inventory.SlotWeapon, inventory.Legendary, 100, dice.NewSeededSource(seed))
		assert.Equal(t, uint32(100), it.ILvl)
		for _, b := range it.Attributes {
			require.GreaterOrEqual(t, b.Value, 8, "seed %d", seed)
			require.LessOrEqual(t, b.Value, 15, "seed %d", seed)
		}
	}
}

func TestGenerateItem_CommonHasNoAffixes(t *testing.T) {
	it := loot.GenerateItem(cfg, inventory.SlotRing, inventory.Common, 1, dice.NewSeededSource(9))
	assert.Empty(t, it.Affixes)
	require.Len(t, it.Attributes, 1)
}

func TestDrop_BossAlwaysDrops(t *testing.T) {
	src := dice.NewSeededSource(77)
	for i := 0; i < 200; i++ {
		require.NotNil(t, loot.Drop(cfg, 0, 0, 5, true, src))
	}
}

func TestDrop_RegularRate(t *testing.T) {
	src := dice.NewSeededSource(78)
	dropped := 0
	const n = 20_000
	for i := 0; i < n; i++ {
		if loot.Drop(cfg, 0, 0, 5, false, src) != nil {
			dropped++
		}
	}
	assert.InDelta(t, 0.15, float64(dropped)/n, 0.015)
}

func TestScoreItem(t *testing.T) {
	attrs := character.BaseAttributes(baseAttr)
	it := &inventory.Item{
		Slot:       inventory.SlotWeapon,
		Attributes: []inventory.AttributeBonus{{Attribute: character.Strength, Value: 5}},
		Affixes:    []inventory.Affix{{Kind: inventory.DamagePercent, Value: 10}},
	}
	// 5 * (6*10/60) + 10*2.0
	assert.InDelta(t, 25.0, loot.ScoreItem(cfg, it, attrs), 1e-9)
	assert.Zero(t, loot.ScoreItem(cfg, nil, attrs))
}

func TestScoreItem_NonFiniteIsZero(t *testing.T) {
	it := &inventory.Item{Affixes: []inventory.Affix{{Kind: inventory.XPGain, Value: math.Inf(1)}}}
	assert.Zero(t, loot.ScoreItem(cfg, it, character.BaseAttributes(baseAttr)))
	it = &inventory.Item{Affixes: []inventory.Affix{{Kind: inventory.XPGain, Value: math.NaN()}}}
	assert.Zero(t, loot.ScoreItem(cfg, it, character.BaseAttributes(baseAttr)))
}

func TestScoreItem_ZeroAttributesDenominator(t *testing.T) {
	it := &inventory.Item{Attributes: []inventory.AttributeBonus{{Attribute: character.Wisdom, Value: 3}}}
	assert.Zero(t, loot.ScoreItem(cfg, it, character.Attributes{}))
}

func TestAutoEquipIfBetter_TieKeepsCurrent(t *testing.T) {
	attrs := character.BaseAttributes(baseAttr)
	var eq inventory.Equipment
	current := &inventory.Item{Slot: inventory.SlotGloves, Affixes: []inventory.Affix{{Kind: inventory.CritChance, Value: 10}}}
	same := &inventory.Item{Slot: inventory.SlotGloves, Affixes: []inventory.Affix{{Kind: inventory.AttackSpeed, Value: 10}}}
	better := &inventory.Item{Slot: inventory.SlotGloves, Affixes: []inventory.Affix{{Kind: inventory.DamagePercent, Value: 10}}}

	assert.True(t, loot.AutoEquipIfBetter(cfg, &eq, current, attrs), "empty slot always equips")
	assert.False(t, loot.AutoEquipIfBetter(cfg, &eq, same, attrs), "equal score keeps current")
	assert.Same(t, current, eq.Get(inventory.SlotGloves))
	assert.True(t, loot.AutoEquipIfBetter(cfg, &eq, better, attrs))
	assert.Same(t, better, eq.Get(inventory.SlotGloves))
}
