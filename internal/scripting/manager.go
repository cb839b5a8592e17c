package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idlerpg/internal/game/dice"
)

// ErrNotLoaded is returned by CallHook before any script directory was loaded.
var ErrNotLoaded = errors.New("scripting: no scripts loaded")

// Manager owns one sandboxed LState and dispatches named hooks into it.
//
// Manager is safe for concurrent use; hook calls are serialized because an
// LState is single-threaded.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VM loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{roller: roller, logger: logger}
}

// Load creates a sandboxed VM, registers the engine.* module, then executes
// every *.lua file in scriptDir in lexicographic order. A successful Load
// replaces any previously loaded VM.
//
// Precondition: scriptDir must be a readable directory; instLimit >= 0.
// Postcondition: on error the previously loaded VM, if any, stays active.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		release := WithInstructionLimit(L, instLimit)
		err := L.DoFile(path)
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.state
	m.state, m.limit = L, instLimit
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// CallHook calls the named Lua global function with a fresh instruction budget.
// Returns (LNil, nil) when the hook is not defined.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook; Lua runtime errors
// and exhausted budgets are logged at Warn and returned wrapped.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L := m.state
	if L == nil {
		return lua.LNil, ErrNotLoaded
	}
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := WithInstructionLimit(L, m.limit)
	err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...)
	release()
	if err != nil {
		m.logger.Warn("lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: hook %q: %w", hook, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases the loaded VM. The Manager may be loaded again afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
