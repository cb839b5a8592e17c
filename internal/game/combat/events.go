package combat

// Event is a sealed sum of combat outcomes. Only this package implements it.
type Event interface {
	combatEvent()
}

// Exchange records one resolved attack exchange.
type Exchange struct {
	PlayerDamage float64
	Crit         bool
	// Countered is true when the enemy survived the player's blow and struck back.
	Countered   bool
	EnemyDamage float64
	Reflected   float64
	Healed      float64
	PlayerHP    float64
	EnemyHP     float64
}

// EnemyKilled is emitted when the enemy's HP reaches zero or below.
type EnemyKilled struct {
	Enemy Enemy
}

// PlayerKilled is emitted when the player's HP reaches zero or below.
type PlayerKilled struct {
	Enemy Enemy
}

// PlayerRecovered is emitted when regeneration completes.
type PlayerRecovered struct {
	MaxHP float64
}

func (Exchange) combatEvent()        {}
func (EnemyKilled) combatEvent()     {}
func (PlayerKilled) combatEvent()    {}
func (PlayerRecovered) combatEvent() {}
