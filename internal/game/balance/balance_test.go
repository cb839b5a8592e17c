package balance_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, balance.Default().Validate())
}

func TestDefault_ReferenceConstants(t *testing.T) {
	cfg := balance.Default()
	assert.Equal(t, 0.1, cfg.TickSeconds)
	assert.Equal(t, uint32(10), cfg.Progression.KillsForBoss)
	assert.Equal(t, 0.25, cfg.Loot.DropChanceCap)
	assert.Equal(t, 55.0, cfg.Loot.Tiers[0].Weight)
	assert.Equal(t, "1d8+7", cfg.Loot.Tiers[4].AttrBonus.String())
	assert.Equal(t, 2.0, cfg.Loot.AffixWeight("damage_percent"))
	assert.Zero(t, cfg.Loot.AffixWeight("unknown"))
	assert.False(t, cfg.Prestige.ClearEquipment)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := balance.Parse([]byte(`
loot:
  drop_chance_cap: 0.5
  affix_weights:
    xp_gain: 3.0
prestige:
  clear_equipment: true
`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Loot.DropChanceCap)
	assert.Equal(t, 3.0, cfg.Loot.AffixWeight("xp_gain"))
	assert.Equal(t, 2.0, cfg.Loot.AffixWeight("damage_percent"), "unset weights keep defaults")
	assert.True(t, cfg.Prestige.ClearEquipment)
	assert.Equal(t, 0.15, cfg.Loot.BaseDropChance)
}

func TestParse_RejectsInvalid(t *testing.T) {
	_, err := balance.Parse([]byte("tick_seconds: 0\n"))
	assert.Error(t, err)

	_, err = balance.Parse([]byte("enemies:\n  hp_variance: 1.5\n"))
	assert.Error(t, err)

	_, err = balance.Parse([]byte("loot: [1, 2"))
	assert.Error(t, err)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := balance.Load("")
	require.NoError(t, err)
	assert.Equal(t, balance.Default().TickSeconds, cfg.TickSeconds)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("combat:\n  regen_seconds: 4\n"), 0o600))
	cfg, err := balance.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Combat.RegenSeconds)

	_, err = balance.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BundledContentMatchesDefault(t *testing.T) {
	cfg, err := balance.Load(filepath.Join("..", "..", "..", "content", "balance.yaml"))
	require.NoError(t, err)
	assert.Equal(t, balance.Default(), cfg)
}
