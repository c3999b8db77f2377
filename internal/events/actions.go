// Package events defines the closed set of state-transition actions and the
// append-only journal that records every action the store applied.
package events

import "github.com/MRamiBalles/brainclicker/internal/domain/state"

// ActionType identifies one of the reducer's transitions.
type ActionType string

const (
	ActionGeneratePoints    ActionType = "GENERATE_POINTS"
	ActionAddXP             ActionType = "ADD_XP"
	ActionIncrementClicks   ActionType = "INCREMENT_CLICKS"
	ActionUpdateMaxCombo    ActionType = "UPDATE_MAX_COMBO"
	ActionUnlockAchievement ActionType = "UNLOCK_ACHIEVEMENT"
	ActionResetLevelUpFlag  ActionType = "RESET_LEVEL_UP_FLAG"
	ActionStartEvent        ActionType = "START_EVENT"
	ActionTickEvent         ActionType = "TICK_EVENT"
	ActionEndEvent          ActionType = "END_EVENT"
	ActionGrantEurekaReward ActionType = "GRANT_EUREKA_REWARD"
	ActionRebirth           ActionType = "REBIRTH"
	ActionBuyUpgrade        ActionType = "BUY_UPGRADE"
	ActionBuySkill          ActionType = "BUY_SKILL"
)

// Action is one dispatched transition. Only the payload field that belongs to
// Type is meaningful; build actions with the constructors below.
type Action struct {
	Type   ActionType         `json:"type"`
	Amount float64            `json:"amount,omitempty"` // GENERATE_POINTS, ADD_XP
	Combo  int                `json:"combo,omitempty"`  // UPDATE_MAX_COMBO
	ID     string             `json:"id,omitempty"`     // UNLOCK_ACHIEVEMENT, BUY_UPGRADE, BUY_SKILL
	Event  *state.ActiveEvent `json:"event,omitempty"`  // START_EVENT
}

func GeneratePoints(amount float64) Action {
	return Action{Type: ActionGeneratePoints, Amount: amount}
}

func AddXP(amount float64) Action {
	return Action{Type: ActionAddXP, Amount: amount}
}

func IncrementClicks() Action {
	return Action{Type: ActionIncrementClicks}
}

func UpdateMaxCombo(n int) Action {
	return Action{Type: ActionUpdateMaxCombo, Combo: n}
}

func UnlockAchievement(id string) Action {
	return Action{Type: ActionUnlockAchievement, ID: id}
}

func ResetLevelUpFlag() Action {
	return Action{Type: ActionResetLevelUpFlag}
}

// StartEvent copies ev so the caller cannot mutate the stored event afterwards.
func StartEvent(ev state.ActiveEvent) Action {
	return Action{Type: ActionStartEvent, Event: &ev}
}

func TickEvent() Action {
	return Action{Type: ActionTickEvent}
}

func EndEvent() Action {
	return Action{Type: ActionEndEvent}
}

func GrantEurekaReward() Action {
	return Action{Type: ActionGrantEurekaReward}
}

func Rebirth() Action {
	return Action{Type: ActionRebirth}
}

func BuyUpgrade(id string) Action {
	return Action{Type: ActionBuyUpgrade, ID: id}
}

func BuySkill(id string) Action {
	return Action{Type: ActionBuySkill, ID: id}
}

// Known reports whether t belongs to the closed action set.
func Known(t ActionType) bool {
	switch t {
	case ActionGeneratePoints, ActionAddXP, ActionIncrementClicks, ActionUpdateMaxCombo,
		ActionUnlockAchievement, ActionResetLevelUpFlag, ActionStartEvent, ActionTickEvent,
		ActionEndEvent, ActionGrantEurekaReward, ActionRebirth, ActionBuyUpgrade, ActionBuySkill:
		return true
	}
	return false
}
