// Package inventory defines generated items, their rarity and affixes, and the
// seven-slot equipment a character wears.
package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/idlerpg/internal/game/character"
)

// Rarity orders item quality from Common to Legendary.
type Rarity int

const (
	Common Rarity = iota
	Magic
	Rare
	Epic
	Legendary
)

// NumRarities is the number of rarity tiers.
const NumRarities = 5

var rarityNames = [NumRarities]string{"common", "magic", "rare", "epic", "legendary"}

// AllRarities lists every rarity in ascending order.
var AllRarities = [NumRarities]Rarity{Common, Magic, Rare, Epic, Legendary}

// String returns the lower-case rarity name.
func (r Rarity) String() string {
	if r < 0 || int(r) >= NumRarities {
		return "unknown"
	}
	return rarityNames[r]
}

// Title returns the capitalised rarity name used in item names.
func (r Rarity) Title() string {
	s := r.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// MarshalText encodes the rarity by name.
func (r Rarity) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= NumRarities {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(rarityNames[r]), nil
}

// UnmarshalText decodes a rarity name.
func (r *Rarity) UnmarshalText(text []byte) error {
	for i, n := range rarityNames {
		if n == string(text) {
			*r = Rarity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rarity %q", text)
}

// AffixKind is one entry of the affix catalog.
type AffixKind int

const (
	DamagePercent AffixKind = iota
	CritChance
	CritMultiplier
	AttackSpeed
	HPBonus
	DamageReduction
	HPRegen
	DamageReflection
	XPGain
)

// NumAffixKinds is the size of the affix catalog.
const NumAffixKinds = 9

var affixNames = [NumAffixKinds]string{
	"damage_percent", "crit_chance", "crit_multiplier", "attack_speed", "hp_bonus",
	"damage_reduction", "hp_regen", "damage_reflection", "xp_gain",
}

// AllAffixKinds lists the catalog in canonical order. Generation draws from it by index.
var AllAffixKinds = [NumAffixKinds]AffixKind{
	DamagePercent, CritChance, CritMultiplier, AttackSpeed, HPBonus,
	DamageReduction, HPRegen, DamageReflection, XPGain,
}

// String returns the snake_case affix name used in balance files.
func (k AffixKind) String() string {
	if k < 0 || int(k) >= NumAffixKinds {
		return "unknown"
	}
	return affixNames[k]
}

// MarshalText encodes the affix kind by name.
func (k AffixKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= NumAffixKinds {
		return nil, fmt.Errorf("invalid affix kind %d", int(k))
	}
	return []byte(affixNames[k]), nil
}

// UnmarshalText decodes an affix name.
func (k *AffixKind) UnmarshalText(text []byte) error {
	for i, n := range affixNames {
		if n == string(text) {
			*k = AffixKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown affix %q", text)
}

// Affix is a typed percentage (or flat HP for HPBonus) modifier on an item.
type Affix struct {
	Kind  AffixKind `json:"kind"`
	Value float64   `json:"value"`
}

// AttributeBonus raises one attribute while the item is worn.
type AttributeBonus struct {
	Attribute character.Attribute `json:"attribute"`
	Value     int                 `json:"value"`
}

// Item is a generated piece of equipment. Items are never mutated after generation.
//
// Invariant: len(Affixes) is within the affix bounds of Rarity and no two
// affixes share a Kind.
type Item struct {
	Slot       Slot             `json:"slot"`
	Rarity     Rarity           `json:"rarity"`
	ILvl       uint32           `json:"ilvl"`
	Attributes []AttributeBonus `json:"attributes"`
	Affixes    []Affix          `json:"affixes,omitempty"`
}

// Clone returns a deep copy of i.
func (i *Item) Clone() *Item {
	c := *i
	c.Attributes = slices.Clone(i.Attributes)
	c.Affixes = slices.Clone(i.Affixes)
	return &c
}

// Name returns a display name such as "Rare Helmet (ilvl 12)".
func (i *Item) Name() string {
	return fmt.Sprintf("%s %s (ilvl %d)", i.Rarity.Title(), i.Slot.Title(), i.ILvl)
}

// AffixValue returns the value of the affix of kind, or 0 when absent.
func (i *Item) AffixValue(kind AffixKind) float64 {
	for _, a := range i.Affixes {
		if a.Kind == kind {
			return a.Value
		}
	}
	return 0
}
