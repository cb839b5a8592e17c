package scripting

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/idlerpg/internal/game/challenge"
	"github.com/cory-johannsen/idlerpg/internal/game/character"
)

// RewardHook is the Lua global called to price a finished challenge:
//
//	challenge_reward(kind, won, rank) -> {xp=, fishing_ranks=, rarity_bonus=} | nil
//
// A nil return defers to the fallback source.
const RewardHook = "challenge_reward"

const maxRewardXP = 1e15

// ScriptedRewards is a challenge.RewardSource driven by the challenge_reward hook.
type ScriptedRewards struct {
	mgr      *Manager
	fallback challenge.RewardSource
}

// NewScriptedRewards returns a RewardSource backed by mgr.
//
// Precondition: mgr and fallback must be non-nil.
func NewScriptedRewards(mgr *Manager, fallback challenge.RewardSource) *ScriptedRewards {
	return &ScriptedRewards{mgr: mgr, fallback: fallback}
}

// Reward implements challenge.RewardSource.
//
// Postcondition: a script error or a malformed return value yields a non-nil
// error and the zero Reward.
func (s *ScriptedRewards) Reward(kind character.ChallengeKind, won bool, rank uint32) (challenge.Reward, error) {
	ret, err := s.mgr.CallHook(RewardHook, lua.LString(kind), lua.LBool(won), lua.LNumber(rank))
	if err != nil {
		return challenge.Reward{}, err
	}
	switch v := ret.(type) {
	case *lua.LNilType:
		return s.fallback.Reward(kind, won, rank)
	case *lua.LTable:
		return rewardFromTable(v)
	default:
		return challenge.Reward{}, fmt.Errorf("scripting: %s returned %s, want table or nil", RewardHook, ret.Type())
	}
}

func rewardFromTable(t *lua.LTable) (challenge.Reward, error) {
	xp, err := nonNegative(t, "xp")
	if err != nil {
		return challenge.Reward{}, err
	}
	fish, err := nonNegative(t, "fishing_ranks")
	if err != nil {
		return challenge.Reward{}, err
	}
	bonus, err := nonNegative(t, "rarity_bonus")
	if err != nil {
		return challenge.Reward{}, err
	}
	if xp > maxRewardXP || fish > math.MaxUint32 {
		return challenge.Reward{}, fmt.Errorf("scripting: %s reward out of range (xp %v, fishing_ranks %v)", RewardHook, xp, fish)
	}
	return challenge.Reward{
		XP:           uint64(xp),
		FishingRanks: uint32(fish),
		RarityBonus:  bonus,
	}, nil
}

// nonNegative reads an optional numeric field; absent fields read as zero.
func nonNegative(t *lua.LTable, field string) (float64, error) {
	switch v := t.RawGetString(field).(type) {
	case *lua.LNilType:
		return 0, nil
	case lua.LNumber:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0, fmt.Errorf("scripting: %s.%s = %v, want a finite non-negative number", RewardHook, field, f)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("scripting: %s.%s is %s, want number", RewardHook, field, v.Type())
	}
}
