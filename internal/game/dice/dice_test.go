package dice_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlerpg/internal/game/dice"
)

// TestRollResult_Total verifies the postcondition: Total() == sum(Dice) + Modifier.
func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{
		Expression: "1d8+7",
		Dice:       []int{4},
		Modifier:   7,
	}
	assert.Equal(t, "1d8+7 → [4] +7 = 11", r.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}, Modifier: 0}
	assert.Panics(t, func() { _ = r.String() })
}

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in                   string
		count, sides, modify int
	}{
		{"d20", 1, 20, 0},
		{"2d6", 2, 6, 0},
		{"1d8+7", 1, 8, 7},
		{"1d4-1", 1, 4, -1},
		{"5", 0, 0, 5},
		{" 1D3+1 ", 1, 3, 1},
	}
	for _, tc := range cases {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.count, e.Count, tc.in)
		assert.Equal(t, tc.sides, e.Sides, tc.in)
		assert.Equal(t, tc.modify, e.Modifier, tc.in)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "d", "0d6", "1d1", "xd6", "1d6+x", "abc"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expected %q to be rejected", in)
	}
}

func TestExpression_MinMax(t *testing.T) {
	e := dice.MustParse("1d8+7")
	assert.Equal(t, 8, e.Min())
	assert.Equal(t, 15, e.Max())
	assert.Equal(t, "1d8+7", e.String())
}

func TestExpression_UnmarshalText(t *testing.T) {
	var e dice.Expression
	require.NoError(t, e.UnmarshalText([]byte("1d4+2")))
	assert.Equal(t, 3, e.Min())
	assert.Equal(t, 6, e.Max())
	assert.Error(t, e.UnmarshalText([]byte("1d")))
}

// TestRoll_WithinBounds_Property checks every roll total lies within [Min, Max].
func TestRoll_WithinBounds_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 5).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-10, 10).Draw(rt, "mod")
		seed := rapid.Uint64().Draw(rt, "seed")

		expr := dice.MustParse(fmt.Sprintf("%dd%d%+d", count, sides, mod))
		r, err := dice.Roll(expr, dice.NewSeededSource(seed))
		require.NoError(rt, err)
		assert.Len(rt, r.Dice, count)
		assert.GreaterOrEqual(rt, r.Total(), expr.Min())
		assert.LessOrEqual(rt, r.Total(), expr.Max())
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 200; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000))
		require.Equal(t, a.Float64(), b.Float64())
	}
	assert.Equal(t, a.Position(), b.Position())
}

func TestSeededSource_DifferentSeedsDiffer(t *testing.T) {
	a := dice.NewSeededSource(1)
	b := dice.NewSeededSource(2)
	differs := false
	for i := 0; i < 20; i++ {
		if a.Intn(1_000_000) != b.Intn(1_000_000) {
			differs = true
			break
		}
	}
	assert.True(t, differs)
}

func TestSeededSource_RestoreMatchesPosition(t *testing.T) {
	src := dice.NewSeededSource(7)
	for i := 0; i < 13; i++ {
		src.Intn(97)
		src.Float64()
	}
	pos := src.Position()
	var want [5]float64
	for i := range want {
		want[i] = src.Float64()
	}

	restored := dice.RestoreSeededSource(7, pos)
	assert.Equal(t, pos, restored.Position())
	for i := range want {
		assert.Equal(t, want[i], restored.Float64())
	}
}

func TestSeededSource_Intn_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
}

func TestChanceAndBetween(t *testing.T) {
	src := dice.NewSeededSource(3)
	for i := 0; i < 100; i++ {
		assert.False(t, dice.Chance(src, 0))
		assert.True(t, dice.Chance(src, 1))
		v := dice.Between(src, 5, 10)
		assert.GreaterOrEqual(t, v, 5)
		assert.LessOrEqual(t, v, 10)
	}
	assert.Equal(t, 4, dice.Between(src, 4, 4))
}

func TestCryptoSource_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

// TestRollWith_LoggedRollerMatchesBareSource ensures logging never perturbs a trajectory.
func TestRollWith_LoggedRollerMatchesBareSource(t *testing.T) {
	expr := dice.MustParse("3d6+1")
	bare := dice.NewSeededSource(99)
	logged := dice.NewLoggedRoller(dice.NewSeededSource(99), zap.NewNop())
	for i := 0; i < 50; i++ {
		assert.Equal(t, dice.RollWith(bare, expr), dice.RollWith(logged, expr))
		assert.Equal(t, bare.Float64(), logged.Float64())
	}
}

func TestRoller_RollExpr(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(5), zap.NewNop())
	res, err := r.RollExpr("2d4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.String(), "2d4"))
	_, err = r.RollExpr("nope")
	assert.Error(t, err)
}
