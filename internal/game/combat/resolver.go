package combat

import "github.com/cory-johannsen/idlerpg/internal/game/dice"

// exchange resolves one attack exchange against the current enemy.
//
// The player strikes first with exactly one crit draw. A surviving enemy strikes
// back; the blow is reduced by damage reduction and partly reflected.
//
// Precondition: s.CurrentEnemy != nil.
func (s *State) exchange(p PlayerStats, src dice.Source) []Event {
	enemy := s.CurrentEnemy
	ex := Exchange{}

	ex.Crit = dice.Chance(src, p.CritChance)
	ex.PlayerDamage = p.Damage
	if ex.Crit {
		ex.PlayerDamage *= p.CritMultiplier
	}
	enemy.HP -= ex.PlayerDamage

	if enemy.HP > 0 {
		ex.Countered = true
		ex.EnemyDamage = enemy.Damage * (1 - p.DamageReduction)
		s.PlayerCurrentHP -= ex.EnemyDamage
		ex.Reflected = ex.EnemyDamage * p.ReflectPercent / 100
		enemy.HP -= ex.Reflected
	}
	if s.PlayerCurrentHP > 0 && p.RegenPercent > 0 {
		heal := min(s.PlayerMaxHP*p.RegenPercent/100, s.PlayerMaxHP-s.PlayerCurrentHP)
		if heal > 0 {
			s.PlayerCurrentHP += heal
			ex.Healed = heal
		}
	}
	ex.EnemyHP = enemy.HP
	ex.PlayerHP = s.PlayerCurrentHP

	events := []Event{ex}
	if enemy.HP <= 0 {
		events = append(events, EnemyKilled{Enemy: *enemy})
		s.CurrentEnemy = nil
	}
	if s.PlayerCurrentHP <= 0 {
		killer := *enemy
		events = append(events, PlayerKilled{Enemy: killer})
		s.CurrentEnemy = nil
		s.PlayerCurrentHP = 0
		s.IsRegenerating = true
		s.RegenTimer = 0
		s.AttackTimer = 0
	}
	return events
}
