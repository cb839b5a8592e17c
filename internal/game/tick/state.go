package tick

import (
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/combat"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// GameState is everything the tick engine mutates for one character.
type GameState struct {
	Character character.Character `json:"character"`
	Combat    combat.State        `json:"combat"`
	Equipment inventory.Equipment `json:"equipment"`
}

// View is a read-only copy of a GameState for display. Mutating a View never
// affects the state it was taken from.
type View struct {
	Name         string
	Level        uint32
	XP           uint64
	XPToNext     uint64
	Zone         uint32
	Subzone      uint32
	Kills        uint32
	PrestigeRank uint32
	Attributes   character.Attributes
	SideProgress character.SideProgress
	Discoveries  character.Discoveries
	PlayerHP     float64
	PlayerMaxHP  float64
	Regenerating bool
	Enemy        *combat.Enemy
	Equipment    inventory.Equipment
}
