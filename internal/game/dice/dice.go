// Package dice provides the randomness abstraction used by the tick core and the
// balance simulator, plus dice-expression rolls for loot tables.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "1d8+7"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"1d8+7 → [4] +7 = 11"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	diceStr := fmt.Sprintf("%v", r.Dice)
	modStr := fmt.Sprintf("%+d", r.Modifier)
	return fmt.Sprintf("%s → %s %s = %d", r.Expression, diceStr, modStr, r.Total())
}

// Source is the randomness provider for every roll made by the simulation core.
//
// A Source is owned by exactly one game state or simulation run and is not
// required to be safe for concurrent use. Two sources built from the same seed
// MUST produce identical sequences.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// Chance reports whether a Bernoulli trial with probability p succeeds.
// Exactly one Float64 draw is consumed regardless of p.
//
// Postcondition: returns false when p <= 0 and true when p >= 1.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Between returns a uniformly distributed int in [lo, hi].
// One Intn draw is consumed when hi > lo; none otherwise.
//
// Postcondition: lo <= result <= hi when lo <= hi; returns lo when hi <= lo.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
