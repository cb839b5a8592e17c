package combat

import (
	"fmt"

	"github.com/cory-johannsen/idlerpg/internal/game/balance"
	"github.com/cory-johannsen/idlerpg/internal/game/dice"
)

// Enemy is the opponent of the current encounter.
type Enemy struct {
	Name       string  `json:"name"`
	HP         float64 `json:"hp"`
	MaxHP      float64 `json:"max_hp"`
	Damage     float64 `json:"damage"`
	IsBoss     bool    `json:"is_boss"`
	IsZoneBoss bool    `json:"is_zone_boss"`
	ILvl       uint32  `json:"ilvl"`
}

// IsDead reports whether the enemy's HP is at or below zero.
func (e *Enemy) IsDead() bool { return e.HP <= 0 }

var enemyNames = []string{
	"Rat", "Kobold", "Goblin", "Bandit", "Wolf", "Skeleton", "Orc", "Ghoul",
	"Harpy", "Troll", "Wraith", "Ogre", "Basilisk", "Golem", "Wyvern", "Lich",
}

// SpawnEnemy creates the enemy for a location. Exactly one Float64 draw is
// consumed for HP variance.
//
// Precondition: zone >= 1 and ilvl >= 1 (see progression.State.ILvl).
// Postcondition: HP == MaxHP > 0; zoneBoss implies boss.
func SpawnEnemy(cfg balance.EnemyConfig, zone, ilvl uint32, boss, zoneBoss bool, src dice.Source) Enemy {
	variance := 1 - cfg.HPVariance + 2*cfg.HPVariance*src.Float64()
	hp := (cfg.BaseHP + cfg.HPPerILvl*float64(ilvl)) * variance
	dmg := cfg.BaseDamage + cfg.DamagePerILvl*float64(ilvl)

	name := enemyNames[int(max(ilvl, 1)-1)%len(enemyNames)]
	switch {
	case zoneBoss:
		hp *= cfg.ZoneBossHPMult
		dmg *= cfg.ZoneBossDmgMult
		name = fmt.Sprintf("%s Overlord of Zone %d", name, zone)
	case boss:
		hp *= cfg.BossHPMult
		dmg *= cfg.BossDamageMult
		name = fmt.Sprintf("%s Chieftain", name)
	}
	hp = max(hp, 1)
	return Enemy{
		Name:       name,
		HP:         hp,
		MaxHP:      hp,
		Damage:     dmg,
		IsBoss:     boss || zoneBoss,
		IsZoneBoss: zoneBoss,
		ILvl:       ilvl,
	}
}
