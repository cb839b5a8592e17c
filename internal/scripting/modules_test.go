package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlerpg/internal/game/dice"
	"github.com/cory-johannsen/idlerpg/internal/scripting"
)

func runScript(t testing.TB, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, mgr.Load(writeTempLua(t, "test.lua", luaSrc), 0))
	ret, err := mgr.CallHook(hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(1), logger), logger)
	defer mgr.Close()

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.FilterMessage("lua").All() {
		levels[e.Level.String()] = true
	}
	assert.True(t, levels["debug"], "expected debug log")
	assert.True(t, levels["info"], "expected info log")
	assert.True(t, levels["warn"], "expected warn log")
	assert.True(t, levels["error"], "expected error log")
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestEngineDice_Roll_InvalidExpressionErrors(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "bad.lua", `
		function do_roll() return engine.dice.roll("nope") end
	`), 0))
	_, err := mgr.CallHook("do_roll")
	assert.Error(t, err)
}

func TestProperty_DiceRoll_TotalEqualsDicePlusModifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "check.lua", `
		function check_invariant(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+1", "1d4-1", "1d8"}).Draw(rt, "expr")
		ret, err := mgr.CallHook("check_invariant", lua.LString(expr))
		if err != nil || ret != lua.LTrue {
			rt.Fatalf("total must equal dice + modifier for %s: (%v, %v)", expr, ret, err)
		}
	})
}

func TestEngineChallenge_Kinds(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function kinds()
			return #engine.challenge.kinds .. ":" .. engine.challenge.kinds[1]
		end
	`, "kinds")
	assert.Equal(t, lua.LString("5:chess"), ret)
}
