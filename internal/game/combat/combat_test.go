package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/combat"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

var cfg = balance.Default()

func baseStats() combat.PlayerStats {
	return combat.DeriveStats(cfg, character.BaseAttributes(cfg.Stats.BaseAttribute), 1, inventory.Totals{})
}

func TestDeriveStats_Base(t *testing.T) {
	p := baseStats()
	assert.Equal(t, 55.0, p.MaxHP)
	assert.Equal(t, 11.0, p.Damage)
	assert.InDelta(t, 0.05, p.CritChance, 1e-12)
	assert.Equal(t, 2.0, p.CritMultiplier)
	assert.Zero(t, p.DamageReduction)
	assert.Equal(t, 1.5, p.AttackInterval)
}

func TestDeriveStats_GearAndCaps(t *testing.T) {
	var gear inventory.Totals
	gear.Attributes.Add(character.Constitution, 2)
	gear.Affixes[inventory.HPBonus] = 30
	gear.Affixes[inventory.DamagePercent] = 50
	gear.Affixes[inventory.AttackSpeed] = 50
	gear.Affixes[inventory.CritChance] = 500
	gear.Affixes[inventory.DamageReduction] = 500
	p := combat.DeriveStats(cfg, character.BaseAttributes(cfg.Stats.BaseAttribute), 1, gear)
	assert.Equal(t, 50.0+20+5+30, p.MaxHP)
	assert.Equal(t, 16.5, p.Damage)
	assert.Equal(t, 1.0, p.AttackInterval)
	assert.Equal(t, 0.75, p.CritChance)
	assert.Equal(t, 0.75, p.DamageReduction)
}

func TestXPMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, combat.XPMultiplier(cfg.Stats, 10, 0))
	assert.InDelta(t, 1.15, combat.XPMultiplier(cfg.Stats, 15, 10), 1e-12)
}

func TestSpawnEnemy_Scaling(t *testing.T) {
	src := dice.NewSeededSource(4)
	e := combat.SpawnEnemy(cfg.Enemies, 1, 1, false, false, src)
	assert.Equal(t, uint32(1), e.ILvl)
	assert.GreaterOrEqual(t, e.HP, 25.0)
	assert.LessOrEqual(t, e.HP, 31.0)
	assert.Equal(t, 4.0, e.Damage)
	assert.False(t, e.IsBoss)

	boss := combat.SpawnEnemy(cfg.Enemies, 2, 13, true, false, src)
	assert.Equal(t, uint32(13), boss.ILvl)
	assert.Equal(t, 16*1.25, boss.Damage)
	assert.True(t, boss.IsBoss)
	assert.False(t, boss.IsZoneBoss)

	zb := combat.SpawnEnemy(cfg.Enemies, 1, 10, true, true, src)
	assert.Equal(t, 13*1.5, zb.Damage)
	assert.GreaterOrEqual(t, zb.HP, 449.0)
	assert.True(t, zb.IsZoneBoss)
}

func TestAdvance_NoEnemyIsNoop(t *testing.T) {
	s := combat.NewState(55)
	assert.Empty(t, s.Advance(10, baseStats(), cfg.Combat, dice.NewSeededSource(1)))
	assert.Equal(t, combat.NoEncounter, s.Phase())
}

func TestAdvance_CarriesRemainder(t *testing.T) {
	s := combat.NewState(55)
	s.Spawn(combat.Enemy{HP: 1e9, MaxHP: 1e9, Damage: 0, ILvl: 1})
	p := baseStats()
	src := dice.NewSeededSource(1)

	assert.Empty(t, s.Advance(1.0, p, cfg.Combat, src))
	evs := s.Advance(1.0, p, cfg.Combat, src)
	require.Len(t, evs, 1)
	assert.IsType(t, combat.Exchange{}, evs[0])
	assert.InDelta(t, 0.5, s.AttackTimer, 1e-9)

	evs = s.Advance(3.0, p, cfg.Combat, src)
	assert.Len(t, evs, 2)
	assert.InDelta(t, 0.5, s.AttackTimer, 1e-9)
}

func TestAdvance_EnemyKilledLeavesPlayerHP(t *testing.T) {
	s := combat.NewState(55)
	s.PlayerCurrentHP = 20
	s.Spawn(combat.Enemy{HP: 5, MaxHP: 5, Damage: 100, ILvl: 1})
	evs := s.Advance(1.5, baseStats(), cfg.Combat, dice.NewSeededSource(2))
	require.Len(t, evs, 2)
	assert.IsType(t, combat.EnemyKilled{}, evs[1])
	assert.Equal(t, 20.0, s.PlayerCurrentHP)
	assert.Nil(t, s.CurrentEnemy)
	assert.True(t, s.NeedsSpawn())
}

func TestAdvance_PlayerDeathThenRecovery(t *testing.T) {
	s := combat.NewState(55)
	s.Spawn(combat.Enemy{HP: 1e6, MaxHP: 1e6, Damage: 100, ILvl: 1})
	src := dice.NewSeededSource(3)
	p := baseStats()

	evs := s.Advance(1.5, p, cfg.Combat, src)
	require.Len(t, evs, 2)
	assert.IsType(t, combat.PlayerKilled{}, evs[1])
	assert.True(t, s.IsRegenerating)
	assert.Nil(t, s.CurrentEnemy)
	assert.Zero(t, s.PlayerCurrentHP)
	assert.False(t, s.NeedsSpawn())

	assert.Empty(t, s.Advance(1.25, p, cfg.Combat, src))
	assert.InDelta(t, 27.5, s.PlayerCurrentHP, 1e-9)

	evs = s.Advance(1.25, p, cfg.Combat, src)
	require.Len(t, evs, 1)
	assert.Equal(t, combat.PlayerRecovered{MaxHP: 55}, evs[0])
	assert.Equal(t, 55.0, s.PlayerCurrentHP)
	assert.False(t, s.IsRegenerating)
	assert.True(t, s.NeedsSpawn())
}

func TestAdvance_BothDieEnemyFirst(t *testing.T) {
	s := combat.NewState(55)
	s.PlayerCurrentHP = 5
	s.Spawn(combat.Enemy{HP: 15, MaxHP: 15, Damage: 10, ILvl: 1})
	p := baseStats()
	p.CritChance = 0
	p.ReflectPercent = 100

	evs := s.Advance(1.5, p, cfg.Combat, dice.NewSeededSource(5))
	require.Len(t, evs, 3)
	assert.IsType(t, combat.Exchange{}, evs[0])
	assert.IsType(t, combat.EnemyKilled{}, evs[1])
	assert.IsType(t, combat.PlayerKilled{}, evs[2])
	assert.True(t, s.IsRegenerating)
}

func TestAdvance_CritMultiplies(t *testing.T) {
	s := combat.NewState(55)
	s.Spawn(combat.Enemy{HP: 1e6, MaxHP: 1e6, ILvl: 1})
	p := baseStats()
	p.CritChance = 1
	evs := s.Advance(1.5, p, cfg.Combat, dice.NewSeededSource(5))
	require.Len(t, evs, 1)
	ex := evs[0].(combat.Exchange)
	assert.True(t, ex.Crit)
	assert.Equal(t, 22.0, ex.PlayerDamage)
}

func TestAdvance_RegenHealsClamped(t *testing.T) {
	s := combat.NewState(100)
	s.PlayerCurrentHP = 95
	s.Spawn(combat.Enemy{HP: 1e6, MaxHP: 1e6, Damage: 0, ILvl: 1})
	p := baseStats()
	p.RegenPercent = 10
	evs := s.Advance(1.5, p, cfg.Combat, dice.NewSeededSource(5))
	require.Len(t, evs, 1)
	assert.Equal(t, 5.0, evs[0].(combat.Exchange).Healed)
	assert.Equal(t, 100.0, s.PlayerCurrentHP)
}

func TestSyncMaxHP_Clamps(t *testing.T) {
	s := combat.NewState(100)
	s.SyncMaxHP(60, cfg.Combat.RegenSeconds)
	assert.Equal(t, 60.0, s.PlayerCurrentHP)
	s.SyncMaxHP(80, cfg.Combat.RegenSeconds)
	assert.Equal(t, 60.0, s.PlayerCurrentHP)
}

// TestAdvance_HPInvariant_Property: current HP never exceeds max HP.
func TestAdvance_HPInvariant_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))
		p := baseStats()
		p.RegenPercent = rapid.Float64Range(0, 50).Draw(rt, "regen")
		p.ReflectPercent = rapid.Float64Range(0, 50).Draw(rt, "reflect")
		s := combat.NewState(p.MaxHP)
		steps := rapid.IntRange(1, 300).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if s.NeedsSpawn() {
				s.Spawn(combat.SpawnEnemy(cfg.Enemies, 1, uint32(1+i%10), i%11 == 10, false, src))
			}
			s.Advance(0.1, p, cfg.Combat, src)
			require.LessOrEqual(rt, s.PlayerCurrentHP, s.PlayerMaxHP)
			require.False(rt, s.IsRegenerating && s.CurrentEnemy != nil)
		}
	})
}
