package character

import (
	"errors"

	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/progression"
)

// New constructs a level-1 character with every attribute at baseAttr.
//
// Precondition: name must be non-empty.
// Postcondition: Returns a Character at zone 1, subzone 1, rank 0, or a non-nil error.
func New(name string, baseAttr int) (*Character, error) {
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	return &Character{
		Name:        name,
		Progression: progression.New(),
		Attributes:  BaseAttributes(baseAttr),
	}, nil
}

// CanPrestige reports whether the character has reached minLevel.
func (c *Character) CanPrestige(minLevel uint32) bool {
	return c.Progression.CharacterLevel >= minLevel
}

// Prestige applies a prestige reset to the character.
//
// Postcondition: rank is incremented; level, XP, location and kill counters are reset;
// all six attributes equal baseAttr; SideProgress and Discoveries are unchanged.
func (c *Character) Prestige(baseAttr int) {
	c.Progression.Prestige()
	c.Attributes = BaseAttributes(baseAttr)
}

// GrantLevelAttributes adds perLevel points to uniformly random attributes for each
// of levels gained and returns the attributes raised, in draw order.
//
// Postcondition: exactly levels*perLevel Intn(NumAttributes) draws are consumed.
func (c *Character) GrantLevelAttributes(levels uint32, perLevel int, src dice.Source) []Attribute {
	var raised []Attribute
	for i := uint32(0); i < levels; i++ {
		for j := 0; j < perLevel; j++ {
			attr := AllAttributes[src.Intn(NumAttributes)]
			c.Attributes.Add(attr, 1)
			raised = append(raised, attr)
		}
	}
	return raised
}
