package character_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
)

var base = balance.Default().Stats.BaseAttribute

func TestNew_RejectsEmptyName(t *testing.T) {
	_, err := character.New("", base)
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c, err := character.New("Ayla", base)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), c.Progression.CharacterLevel)
	assert.Equal(t, uint32(1), c.Progression.CurrentZone)
	assert.Equal(t, 60, c.Attributes.Total())
	for _, a := range character.AllAttributes {
		assert.Zero(t, c.Attributes.Modifier(a, base))
	}
}

func TestNew_CustomBase(t *testing.T) {
	c, err := character.New("Ayla", 12)
	require.NoError(t, err)
	assert.Equal(t, 72, c.Attributes.Total())
	assert.Equal(t, 0, c.Attributes.Modifier(character.Wisdom, 12))

	c.Progression.CharacterLevel = 10
	c.Attributes.Add(character.Wisdom, 5)
	c.Prestige(12)
	assert.Equal(t, character.BaseAttributes(12), c.Attributes)
}

func TestAttributes_GetAdd(t *testing.T) {
	a := character.BaseAttributes(base)
	a.Add(character.Wisdom, 3)
	a.Add(character.Attribute(42), 5)
	assert.Equal(t, 13, a.Get(character.Wisdom))
	assert.Zero(t, a.Get(character.Attribute(42)))
	assert.Equal(t, 63, a.Total())
}

func TestAttribute_TextRoundTrip(t *testing.T) {
	b, err := json.Marshal(map[string]character.Attribute{"a": character.Charisma})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"CHA"}`, string(b))

	var got map[string]character.Attribute
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, character.Charisma, got["a"])

	var bad character.Attribute
	assert.Error(t, bad.UnmarshalText([]byte("LCK")))
	assert.Equal(t, "<attribute 9>", character.Attribute(9).String())
}

func TestPrestige_ResetsAttributesKeepsSideProgress(t *testing.T) {
	c, err := character.New("Ayla", base)
	require.NoError(t, err)
	c.Progression.CharacterLevel = 12
	c.Progression.CurrentZone = 2
	c.Attributes.Add(character.Strength, 7)
	c.SideProgress = character.SideProgress{FishingRank: 3, HavenDiscovered: true, ChallengesWon: 2}
	c.Discoveries.FishingSpot = true

	require.True(t, c.CanPrestige(10))
	c.Prestige(base)

	assert.Equal(t, uint32(1), c.Progression.PrestigeRank)
	assert.Equal(t, uint32(1), c.Progression.CharacterLevel)
	assert.Equal(t, character.BaseAttributes(base), c.Attributes)
	assert.Equal(t, uint32(3), c.SideProgress.FishingRank)
	assert.True(t, c.SideProgress.HavenDiscovered)
	assert.True(t, c.Discoveries.FishingSpot)
	assert.False(t, c.CanPrestige(10))
}

// TestGrantLevelAttributes_Property: each level adds exactly perLevel points.
func TestGrantLevelAttributes_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		levels := rapid.Uint32Range(0, 20).Draw(rt, "levels")
		per := rapid.IntRange(0, 3).Draw(rt, "per")
		c, _ := character.New("x", base)
		raised := c.GrantLevelAttributes(levels, per, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		assert.Len(rt, raised, int(levels)*per)
		assert.Equal(rt, 60+int(levels)*per, c.Attributes.Total())
	})
}
