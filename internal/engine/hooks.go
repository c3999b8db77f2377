package engine

import (
	"strconv"

	"github.com/MRamiBalles/brainclicker/internal/domain/rules"
	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// AchievementHook rescans every locked achievement against the new snapshot
// and folds an UNLOCK_ACHIEVEMENT for each predicate that now holds.
func AchievementHook() Hook {
	return func(_, next state.GameState, a events.Action) []events.Action {
		// Unlocking feeds no metric, so it cannot satisfy anything new.
		if a.Type == events.ActionUnlockAchievement {
			return nil
		}
		ids := rules.NewlySatisfied(next)
		if len(ids) == 0 {
			return nil
		}
		out := make([]events.Action, len(ids))
		for i, id := range ids {
			out[i] = events.UnlockAchievement(id)
		}
		return out
	}
}

// LevelUpHook logs each level reached and clears the one-shot level-up flag.
func LevelUpHook(log *logger.Logger) Hook {
	return func(prev, next state.GameState, _ events.Action) []events.Action {
		if prev.JustLeveledUp || !next.JustLeveledUp {
			return nil
		}
		log.Event("LEVEL_UP", "store", "reached level "+strconv.Itoa(next.Level))
		return []events.Action{events.ResetLevelUpFlag()}
	}
}

// DefaultHooks is the hook chain the server runs: achievements first, then
// the level-up acknowledgement.
func DefaultHooks(log *logger.Logger) []Hook {
	return []Hook{AchievementHook(), LevelUpHook(log)}
}
