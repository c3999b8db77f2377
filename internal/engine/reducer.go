package engine

import (
	"sync"

	"github.com/MRamiBalles/brainclicker/internal/domain/catalog"
	"github.com/MRamiBalles/brainclicker/internal/domain/rules"
	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/events"
)

// Achievement ids latched directly by BUY_SKILL.
const (
	firstSkillAchievement  = "skill-1"
	fifthSkillAchievement  = "skill-5"
	fifthSkillLevelsNeeded = 5
)

// Reduce applies one action to st and returns the next snapshot.
// Failed preconditions and unknown action types return st unchanged.
// The input is never mutated: any slice that changes is cloned first.
func Reduce(st state.GameState, a events.Action) state.GameState {
	next, _ := reduce(st, a)
	return next
}

// reduce is Reduce that also reports whether the action was applied.
func reduce(st state.GameState, a events.Action) (state.GameState, bool) {
	switch a.Type {
	case events.ActionGeneratePoints:
		next := st.Clone()
		next.Points += a.Amount
		return next, true

	case events.ActionAddXP:
		return addXP(st, a.Amount), true

	case events.ActionIncrementClicks:
		next := st.Clone()
		next.TotalClicks++
		return next, true

	case events.ActionUpdateMaxCombo:
		if a.Combo <= st.MaxCombo {
			return st, false
		}
		next := st.Clone()
		next.MaxCombo = a.Combo
		return next, true

	case events.ActionUnlockAchievement:
		i := st.FindAchievement(a.ID)
		if i < 0 || st.Achievements[i].Unlocked {
			return st, false
		}
		next := st.Clone()
		next.Achievements[i].Unlocked = true
		return next, true

	case events.ActionResetLevelUpFlag:
		if !st.JustLeveledUp {
			return st, false
		}
		next := st.Clone()
		next.JustLeveledUp = false
		return next, true

	case events.ActionStartEvent:
		if a.Event == nil {
			return st, false
		}
		next := st.Clone()
		ev := *a.Event
		next.ActiveEvent = &ev
		return next, true

	case events.ActionTickEvent:
		if st.ActiveEvent == nil {
			return st, false
		}
		next := st.Clone()
		next.ActiveEvent.TimeLeft--
		return next, true

	case events.ActionEndEvent:
		if st.ActiveEvent == nil {
			return st, false
		}
		next := st.Clone()
		next.ActiveEvent = nil
		return next, true

	case events.ActionRebirth:
		if !rules.CanRebirth(st.Level) {
			return st, false
		}
		return rebirth(st), true

	case events.ActionBuyUpgrade:
		return buyUpgrade(st, a.ID)

	case events.ActionBuySkill:
		return buySkill(st, a.ID)

	case events.ActionGrantEurekaReward:
		next := st.Clone()
		next.Insight += rules.EurekaInsightReward
		return next, true
	}
	return st, false
}

// addXP levels up at most once per call, carrying the remainder.
func addXP(st state.GameState, amount float64) state.GameState {
	next := st.Clone()
	next.XP += amount
	if next.XP < next.XPToNextLevel {
		return next
	}
	next.XP -= next.XPToNextLevel
	next.Level++
	next.XPToNextLevel = rules.XPThreshold(next.Level)
	next.Points += rules.LevelUpPointBonus * float64(next.Level)
	next.JustLeveledUp = true
	return next
}

func buyUpgrade(st state.GameState, id string) (state.GameState, bool) {
	i := st.FindUpgrade(id)
	if i < 0 || st.Points < st.Upgrades[i].Cost {
		return st, false
	}
	next := st.Clone()
	u := &next.Upgrades[i]
	next.Points -= u.Cost
	u.Count++
	u.Cost = rules.NextUpgradeCost(u.Cost)
	return next, true
}

func buySkill(st state.GameState, id string) (state.GameState, bool) {
	i := st.FindSkill(id)
	if i < 0 {
		return st, false
	}
	sk := st.Skills[i]
	if sk.CurrentLevel >= sk.MaxLevel || st.Insight < sk.Cost {
		return st, false
	}
	if sk.Prerequisite != "" && st.SkillLevel(sk.Prerequisite) <= 0 {
		return st, false
	}

	next := st.Clone()
	next.Skills[i].CurrentLevel++
	next.Insight -= sk.Cost

	total := next.TotalSkillLevels()
	if total == 1 {
		latch(&next, firstSkillAchievement)
	}
	if total >= fifthSkillLevelsNeeded {
		latch(&next, fifthSkillAchievement)
	}
	return next, true
}

// latch unlocks an achievement on a snapshot the caller already owns.
func latch(st *state.GameState, id string) {
	if i := st.FindAchievement(id); i >= 0 {
		st.Achievements[i].Unlocked = true
	}
}

// rebirth resets the run and carries forward the prestige progression.
func rebirth(st state.GameState) state.GameState {
	next := st.Clone()

	next.Points = 0
	next.PointsPerClick = state.InitialPointsPerClick
	next.TotalClicks = 0
	next.Level = state.InitialLevel
	next.XP = 0
	next.XPToNextLevel = state.InitialXPToNextLevel
	next.JustLeveledUp = false
	next.MaxCombo = 0
	next.ActiveEvent = nil
	for i := range next.Upgrades {
		u := &next.Upgrades[i]
		u.Count = 0
		if u.BaseCost <= 0 {
			u.BaseCost = defaultBaseCost(u.ID)
		}
		if u.BaseCost > 0 {
			u.Cost = u.BaseCost
		}
	}

	next.Rebirths = st.Rebirths + 1
	next.PrestigeMultiplier = rules.PrestigeMultiplier(next.Rebirths)
	next.Insight = st.Insight + rules.RebirthInsight(st.Level)
	return next
}

var defaultCatalog = sync.OnceValue(catalog.Default)

// defaultBaseCost is the embedded catalogue price for id, or 0 if the
// catalogue has no such upgrade. It covers snapshots that lost base_cost.
func defaultBaseCost(id string) float64 {
	for _, u := range defaultCatalog().Upgrades {
		if u.ID == id {
			return u.Cost
		}
	}
	return 0
}
