package scripting_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/scripting"
)

func scriptedRewards(t *testing.T, src string) *scripting.ScriptedRewards {
	t.Helper()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "rewards.lua", src), 0))
	return scripting.NewScriptedRewards(mgr, challenge.DefaultRewards())
}

func TestScriptedRewards_TableReturn(t *testing.T) {
	src := scriptedRewards(t, `
		function challenge_reward(kind, won, rank)
			if kind == "chess" and won then
				return {xp = 100 + rank, fishing_ranks = 2, rarity_bonus = 0.5}
			end
			return {}
		end
	`)
	r, err := src.Reward("chess", true, 3)
	require.NoError(t, err)
	assert.Equal(t, challenge.Reward{XP: 103, FishingRanks: 2, RarityBonus: 0.5}, r)

	r, err = src.Reward("chess", false, 3)
	require.NoError(t, err)
	assert.True(t, r.IsZero())
}

func TestScriptedRewards_NilFallsBack(t *testing.T) {
	src := scriptedRewards(t, `function challenge_reward() return nil end`)
	r, err := src.Reward("go", true, 0)
	require.NoError(t, err)
	assert.Equal(t, challenge.DefaultRewards()["go"], r)
}

func TestScriptedRewards_MissingHookFallsBack(t *testing.T) {
	src := scriptedRewards(t, `-- nothing`)
	r, err := src.Reward("minesweeper", true, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), r.FishingRanks)
}

func TestScriptedRewards_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"string":   `return "lots"`,
		"negative": `return {xp = -1}`,
		"type":     `return {rarity_bonus = "high"}`,
		"huge":     `return {fishing_ranks = 1e12}`,
		"error":    `error("boom")`,
	} {
		t.Run(name, func(t *testing.T) {
			src := scriptedRewards(t, "function challenge_reward(kind, won, rank) "+body+" end")
			r, err := src.Reward("chess", true, 0)
			assert.Error(t, err)
			assert.True(t, r.IsZero())
		})
	}
}

func TestScriptedRewards_BundledScript(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "content", "scripts")
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("bundled scripts not found: %v", err)
	}
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(dir, 0))
	src := scripting.NewScriptedRewards(mgr, challenge.DefaultRewards())

	for kind, want := range challenge.DefaultRewards() {
		r, err := src.Reward(kind, true, 0)
		require.NoError(t, err, kind)
		assert.Equal(t, want, r, kind)

		ranked, err := src.Reward(kind, true, 10)
		require.NoError(t, err, kind)
		assert.Greater(t, ranked.XP, want.XP, kind)

		loss, err := src.Reward(kind, false, 0)
		require.NoError(t, err, kind)
		assert.Equal(t, want.XP/10, loss.XP, kind)
		assert.Zero(t, loss.RarityBonus, kind)
	}
}
