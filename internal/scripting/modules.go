package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idlerpg/internal/game/character"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(expr) -> {total=, dice=, modifier=}
//	engine.challenge.kinds -> array of challenge kind names
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.newLogModule(L))
	L.SetField(engine, "dice", m.newDiceModule(L))
	L.SetField(engine, "challenge", newChallengeModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) newLogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logFn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn("lua", zap.String("message", L.CheckString(1)))
			return 0
		}))
	}
	return mod
}

// newDiceModule exposes roll, whose dice field is the sum of the individual dice.
func (m *Manager) newDiceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		t := L.NewTable()
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.SetField(t, "dice", lua.LNumber(res.Total()-res.Modifier))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		L.Push(t)
		return 1
	}))
	return mod
}

func newChallengeModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	kinds := L.NewTable()
	for _, k := range character.ChallengeKinds {
		kinds.Append(lua.LString(k))
	}
	L.SetField(mod, "kinds", kinds)
	return mod
}
