package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

func TestEquipment_Empty(t *testing.T) {
	var e inventory.Equipment
	assert.Empty(t, e.Items())
	for _, s := range inventory.AllSlots {
		assert.Nil(t, e.Get(s))
	}
	assert.Zero(t, e.Totals().Attributes.Total())
}

func TestEquipment_EquipReplacesAtomically(t *testing.T) {
	var e inventory.Equipment
	first := &inventory.Item{Slot: inventory.SlotBoots, Rarity: inventory.Common}
	second := &inventory.Item{Slot: inventory.SlotBoots, Rarity: inventory.Magic}

	old, err := e.Equip(first)
	require.NoError(t, err)
	assert.Nil(t, old)

	old, err = e.Equip(second)
	require.NoError(t, err)
	assert.Same(t, first, old)
	assert.Same(t, second, e.Get(inventory.SlotBoots))
	assert.Len(t, e.Items(), 1)
}

func TestEquipment_EquipRejectsInvalid(t *testing.T) {
	var e inventory.Equipment
	_, err := e.Equip(nil)
	assert.Error(t, err)
	_, err = e.Equip(&inventory.Item{Slot: inventory.Slot(99)})
	assert.Error(t, err)
}

func TestEquipment_Totals(t *testing.T) {
	var e inventory.Equipment
	_, _ = e.Equip(&inventory.Item{
		Slot:       inventory.SlotWeapon,
		Attributes: []inventory.AttributeBonus{{Attribute: character.Strength, Value: 4}},
		Affixes:    []inventory.Affix{{Kind: inventory.DamagePercent, Value: 10}},
	})
	_, _ = e.Equip(&inventory.Item{
		Slot:       inventory.SlotAmulet,
		Attributes: []inventory.AttributeBonus{{Attribute: character.Strength, Value: 2}},
		Affixes:    []inventory.Affix{{Kind: inventory.DamagePercent, Value: 5}, {Kind: inventory.HPBonus, Value: 30}},
	})
	tot := e.Totals()
	assert.Equal(t, 6, tot.Attributes.Strength)
	assert.Equal(t, 15.0, tot.Affix(inventory.DamagePercent))
	assert.Equal(t, 30.0, tot.Affix(inventory.HPBonus))
	assert.Zero(t, tot.Affix(inventory.AffixKind(-1)))

	e.Clear()
	assert.Empty(t, e.Items())
}

// TestEquipment_AtMostOnePerSlot_Property: any sequence of equips leaves one item per slot.
func TestEquipment_AtMostOnePerSlot_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var e inventory.Equipment
		slots := rapid.SliceOfN(rapid.IntRange(0, inventory.NumSlots-1), 0, 50).Draw(rt, "slots")
		last := map[inventory.Slot]*inventory.Item{}
		for _, s := range slots {
			it := &inventory.Item{Slot: inventory.Slot(s)}
			_, err := e.Equip(it)
			require.NoError(rt, err)
			last[it.Slot] = it
		}
		assert.Len(rt, e.Items(), len(last))
		for s, it := range last {
			assert.Same(rt, it, e.Get(s))
		}
	})
}

func TestEquipment_CloneIsDeep(t *testing.T) {
	var e inventory.Equipment
	_, err := e.Equip(&inventory.Item{
		Slot:       inventory.SlotRing,
		Rarity:     inventory.Rare,
		Attributes: []inventory.AttributeBonus{{Attribute: character.Wisdom, Value: 2}},
		Affixes:    []inventory.Affix{{Kind: inventory.HPRegen, Value: 1}},
	})
	require.NoError(t, err)

	c := e.Clone()
	require.NotNil(t, c.Ring)
	assert.Equal(t, *e.Ring, *c.Ring)
	assert.NotSame(t, e.Ring, c.Ring)

	c.Ring.Attributes[0].Value = 9
	c.Ring.Affixes[0].Value = 9
	assert.Equal(t, 2, e.Ring.Attributes[0].Value)
	assert.Equal(t, 1.0, e.Ring.Affixes[0].Value)
	assert.Nil(t, c.Weapon)
}
