package inventory

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/idlerpg/internal/game/character"
)

// Slot identifies one of the seven equipment slots.
type Slot int

const (
	SlotWeapon Slot = iota
	SlotArmor
	SlotHelmet
	SlotGloves
	SlotBoots
	SlotAmulet
	SlotRing
)

// NumSlots is the number of equipment slots.
const NumSlots = 7

var slotNames = [NumSlots]string{"weapon", "armor", "helmet", "gloves", "boots", "amulet", "ring"}

// AllSlots lists every slot in canonical order.
var AllSlots = [NumSlots]Slot{SlotWeapon, SlotArmor, SlotHelmet, SlotGloves, SlotBoots, SlotAmulet, SlotRing}

// String returns the lower-case slot name.
func (s Slot) String() string {
	if s < 0 || int(s) >= NumSlots {
		return "unknown"
	}
	return slotNames[s]
}

// Title returns the capitalised slot name.
func (s Slot) Title() string {
	n := s.String()
	return strings.ToUpper(n[:1]) + n[1:]
}

// MarshalText encodes the slot by name.
func (s Slot) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= NumSlots {
		return nil, fmt.Errorf("invalid slot %d", int(s))
	}
	return []byte(slotNames[s]), nil
}

// UnmarshalText decodes a slot name.
func (s *Slot) UnmarshalText(text []byte) error {
	for i, n := range slotNames {
		if n == string(text) {
			*s = Slot(i)
			return nil
		}
	}
	return fmt.Errorf("unknown slot %q", text)
}

// Equipment holds at most one item per slot.
type Equipment struct {
	Weapon *Item `json:"weapon,omitempty"`
	Armor  *Item `json:"armor,omitempty"`
	Helmet *Item `json:"helmet,omitempty"`
	Gloves *Item `json:"gloves,omitempty"`
	Boots  *Item `json:"boots,omitempty"`
	Amulet *Item `json:"amulet,omitempty"`
	Ring   *Item `json:"ring,omitempty"`
}

func (e *Equipment) slot(s Slot) **Item {
	switch s {
	case SlotWeapon:
		return &e.Weapon
	case SlotArmor:
		return &e.Armor
	case SlotHelmet:
		return &e.Helmet
	case SlotGloves:
		return &e.Gloves
	case SlotBoots:
		return &e.Boots
	case SlotAmulet:
		return &e.Amulet
	case SlotRing:
		return &e.Ring
	}
	return nil
}

// Get returns the item in slot, or nil when the slot is empty or unknown.
func (e *Equipment) Get(s Slot) *Item {
	if p := e.slot(s); p != nil {
		return *p
	}
	return nil
}

// Equip places item into its own slot and returns the item it replaced.
//
// Precondition: item is non-nil and item.Slot is a known slot.
// Postcondition: Get(item.Slot) == item.
func (e *Equipment) Equip(item *Item) (*Item, error) {
	if item == nil {
		return nil, fmt.Errorf("equip: item must not be nil")
	}
	p := e.slot(item.Slot)
	if p == nil {
		return nil, fmt.Errorf("equip: unknown slot %d", int(item.Slot))
	}
	old := *p
	*p = item
	return old, nil
}

// Clear empties every slot.
func (e *Equipment) Clear() {
	*e = Equipment{}
}

// Clone returns a deep copy of e.
func (e *Equipment) Clone() Equipment {
	var out Equipment
	for _, s := range AllSlots {
		if it := e.Get(s); it != nil {
			*out.slot(s) = it.Clone()
		}
	}
	return out
}

// Items returns the equipped items in slot order, skipping empty slots.
func (e *Equipment) Items() []*Item {
	var out []*Item
	for _, s := range AllSlots {
		if it := e.Get(s); it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Totals aggregates every bonus granted by the worn items.
type Totals struct {
	Attributes character.Attributes
	Affixes    [NumAffixKinds]float64
}

// Affix returns the summed value of kind across worn items.
func (t Totals) Affix(kind AffixKind) float64 {
	if kind < 0 || int(kind) >= NumAffixKinds {
		return 0
	}
	return t.Affixes[kind]
}

// Totals sums attribute bonuses and affix values over all worn items.
//
// Postcondition: result.Attributes holds deltas only (zero when nothing is worn).
func (e *Equipment) Totals() Totals {
	var t Totals
	for _, it := range e.Items() {
		for _, b := range it.Attributes {
			t.Attributes.Add(b.Attribute, b.Value)
		}
		for _, a := range it.Affixes {
			if a.Kind >= 0 && int(a.Kind) < NumAffixKinds {
				t.Affixes[a.Kind] += a.Value
			}
		}
	}
	return t
}
