package combat

import (
	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
	"github.com/cory-johannsen/idlerpg/internal/game/inventory"
)

// PlayerStats are the combat values derived from attributes, level, and gear.
type PlayerStats struct {
	MaxHP           float64
	Damage          float64
	CritChance      float64
	CritMultiplier  float64
	DamageReduction float64
	AttackInterval  float64
	// RegenPercent of max HP is healed after each exchange the player survives.
	RegenPercent float64
	// ReflectPercent of damage taken is dealt back to the enemy.
	ReflectPercent float64
	XPGainPercent  float64
}

// DeriveStats computes PlayerStats. Item attribute bonuses add to attrs before
// any formula is applied.
//
// Postcondition: MaxHP >= 1; Damage >= 1; CritChance and DamageReduction lie in
// [0, their configured caps]; AttackInterval > 0.
func DeriveStats(cfg balance.Config, attrs character.Attributes, level uint32, gear inventory.Totals) PlayerStats {
	st := cfg.Stats
	eff := attrs
	for _, a := range character.AllAttributes {
		eff.Add(a, gear.Attributes.Get(a))
	}
	mod := func(a character.Attribute) float64 { return float64(eff.Get(a) - st.BaseAttribute) }

	maxHP := st.BaseHP + st.HPPerCON*mod(character.Constitution) + st.HPPerLevel*float64(level) +
		gear.Affix(inventory.HPBonus)
	damage := (st.BaseDamage + st.DamagePerSTR*mod(character.Strength) + st.DamagePerINT*mod(character.Intelligence) +
		st.DamagePerLevel*float64(level)) * (1 + gear.Affix(inventory.DamagePercent)/100)
	crit := st.BaseCritChance + st.CritPerDEX*mod(character.Dexterity) + gear.Affix(inventory.CritChance)/100
	reduction := st.ReductionPerWIS*mod(character.Wisdom) + gear.Affix(inventory.DamageReduction)/100

	interval := cfg.Combat.AttackIntervalSeconds / (1 + gear.Affix(inventory.AttackSpeed)/100)
	if !(interval > 0) {
		interval = cfg.Combat.AttackIntervalSeconds
	}

	return PlayerStats{
		MaxHP:           max(maxHP, 1),
		Damage:          max(damage, 1),
		CritChance:      clamp(crit, 0, st.MaxCritChance),
		CritMultiplier:  max(st.BaseCritMult+gear.Affix(inventory.CritMultiplier)/100, 1),
		DamageReduction: clamp(reduction, 0, st.MaxReduction),
		AttackInterval:  interval,
		RegenPercent:    gear.Affix(inventory.HPRegen),
		ReflectPercent:  gear.Affix(inventory.DamageReflection),
		XPGainPercent:   gear.Affix(inventory.XPGain),
	}
}

// XPMultiplier returns the charisma and gear XP multiplier 1 + (CHA-BaseAttribute)*perCHA + XPGain%.
func XPMultiplier(cfg balance.StatsConfig, charisma int, xpGainPercent float64) float64 {
	return max(0, 1+float64(charisma-cfg.BaseAttribute)*cfg.XPPerCHA+xpGainPercent/100)
}

func clamp(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}
