// Package character defines the character domain model: attributes, side
// progress, discoveries, and prestige.
package character

import (
	"fmt"

	"github.com/cory-johannsen/idlerpg/internal/game/progression"
)

// Attribute identifies one of the six character attributes.
type Attribute int

const (
	Strength Attribute = iota
	Dexterity
	Constitution
	Intelligence
	Wisdom
	Charisma
)

// NumAttributes is the number of distinct attributes.
const NumAttributes = 6


// AllAttributes lists every attribute in canonical order.
var AllAttributes = [NumAttributes]Attribute{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

var attributeNames = [NumAttributes]string{"STR", "DEX", "CON", "INT", "WIS", "CHA"}

// String returns the short display label, e.g. "STR".
func (a Attribute) String() string {
	if a < 0 || int(a) >= NumAttributes {
		return fmt.Sprintf("<attribute %d>", int(a))
	}
	return attributeNames[a]
}

// MarshalText encodes the attribute by its label.
func (a Attribute) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= NumAttributes {
		return nil, fmt.Errorf("invalid attribute %d", int(a))
	}
	return []byte(attributeNames[a]), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (a *Attribute) UnmarshalText(text []byte) error {
	for i, n := range attributeNames {
		if n == string(text) {
			*a = Attribute(i)
			return nil
		}
	}
	return fmt.Errorf("unknown attribute %q", text)
}

// Attributes holds the six attribute values for a character.
type Attributes struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// BaseAttributes returns all six attributes at base.
func BaseAttributes(base int) Attributes {
	return Attributes{
		Strength: base, Dexterity: base, Constitution: base,
		Intelligence: base, Wisdom: base, Charisma: base,
	}
}

// Get returns the value of attr, or 0 for an unknown attribute.
func (a Attributes) Get(attr Attribute) int {
	switch attr {
	case Strength:
		return a.Strength
	case Dexterity:
		return a.Dexterity
	case Constitution:
		return a.Constitution
	case Intelligence:
		return a.Intelligence
	case Wisdom:
		return a.Wisdom
	case Charisma:
		return a.Charisma
	}
	return 0
}

// Add increases attr by delta. Unknown attributes are ignored.
func (a *Attributes) Add(attr Attribute, delta int) {
	switch attr {
	case Strength:
		a.Strength += delta
	case Dexterity:
		a.Dexterity += delta
	case Constitution:
		a.Constitution += delta
	case Intelligence:
		a.Intelligence += delta
	case Wisdom:
		a.Wisdom += delta
	case Charisma:
		a.Charisma += delta
	}
}

// Total returns the sum of all six attributes.
func (a Attributes) Total() int {
	return a.Strength + a.Dexterity + a.Constitution + a.Intelligence + a.Wisdom + a.Charisma
}

// Modifier returns the value of attr minus base.
func (a Attributes) Modifier(attr Attribute, base int) int {
	return a.Get(attr) - base
}

// SideProgress tracks activities that survive prestige.
type SideProgress struct {
	FishingRank     uint32 `json:"fishing_rank"`
	FishCaught      uint64 `json:"fish_caught"`
	HavenDiscovered bool   `json:"haven_discovered"`
	ChallengesWon   uint32 `json:"challenges_won"`
	// RarityBonus is the permanent rarity shift, in percent, earned from
	// challenges and the haven.
	RarityBonus float64 `json:"rarity_bonus"`
}

// Discoveries holds transient activities found by tick rolls and cleared by the host.
type Discoveries struct {
	ActiveDungeon    bool          `json:"active_dungeon"`
	FishingSpot      bool          `json:"fishing_spot"`
	PendingChallenge ChallengeKind `json:"pending_challenge,omitempty"`
}

// ChallengeKind names a minigame challenge. The empty kind means none.
type ChallengeKind string

// ChallengeKinds lists the challenges a discovery roll may offer, in draw order.
var ChallengeKinds = []ChallengeKind{"chess", "morris", "gomoku", "minesweeper", "go"}

// Character is the persistent state of one idle character.
type Character struct {
	Name         string            `json:"name"`
	Progression  progression.State `json:"progression"`
	Attributes   Attributes        `json:"attributes"`
	SideProgress SideProgress      `json:"side_progress"`
	Discoveries  Discoveries       `json:"discoveries"`
}
