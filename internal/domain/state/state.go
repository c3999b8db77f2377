// Package state defines the authoritative game state aggregate and its entities.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package state

// UpgradeType decides which aggregate stat an upgrade feeds.
type UpgradeType string

const (
	UpgradeClick UpgradeType = "click" // Feeds points per click
	UpgradeAuto  UpgradeType = "auto"  // Feeds points per second
)

// Category is a cosmetic grouping for the upgrade shop.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryAdvanced Category = "advanced"
	CategoryExpert   Category = "expert"
)

// SkillType separates always-on skills from triggered ones.
type SkillType string

const (
	SkillPassive SkillType = "passive"
	SkillActive  SkillType = "active"
)

// Effect tags the multiplier a skill contributes to.
type Effect string

const (
	EffectXP         Effect = "xpMultiplier"
	EffectClick      Effect = "clickMultiplier"
	EffectAuto       Effect = "autoMultiplier"
	EffectUpgrade    Effect = "upgradeMultiplier" // Synergy: multiplies click and auto totals
	EffectMultiplier Effect = "multiplier"        // Active burst, no passive contribution
)

// EventType identifies a timed multiplier window.
type EventType string

const EventOverload EventType = "OVERLOAD"

// Upgrade is a permanent, stackable purchase. Only Count and Cost change at runtime;
// BaseCost remembers the catalogue price a rebirth restores.
type Upgrade struct {
	ID              string      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	Description     string      `json:"description" yaml:"description"`
	Cost            float64     `json:"cost" yaml:"cost"`
	BaseCost        float64     `json:"base_cost" yaml:"-"`
	Value           float64     `json:"value" yaml:"value"` // Flat yield per unit owned
	Count           int         `json:"count" yaml:"-"`
	Type            UpgradeType `json:"type" yaml:"type"`
	UnlockedAtLevel int         `json:"unlocked_at_level,omitempty" yaml:"unlocked_at_level"` // 0 = always available
	Category        Category    `json:"category" yaml:"category"`
}

// Locked reports whether the upgrade is still gated behind a level.
func (u Upgrade) Locked(level int) bool {
	return u.UnlockedAtLevel > 0 && level < u.UnlockedAtLevel
}

// Skill is a node of the insight-funded skill tree. Only CurrentLevel changes at runtime.
type Skill struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	Cost         int       `json:"cost" yaml:"cost"` // Insight per level
	Type         SkillType `json:"type" yaml:"type"`
	Effect       Effect    `json:"effect" yaml:"effect"`
	Rate         float64   `json:"rate" yaml:"rate"` // Multiplier step per level
	MaxLevel     int       `json:"max_level" yaml:"max_level"`
	CurrentLevel int       `json:"current_level" yaml:"-"`
	Prerequisite string    `json:"prerequisite,omitempty" yaml:"prerequisite"`
}

// Metric names the state quantity an achievement predicate compares against.
type Metric string

const (
	MetricPoints            Metric = "points"
	MetricTotalClicks       Metric = "totalClicks"
	MetricTotalUpgrades     Metric = "totalUpgrades"
	MetricGatedUpgradeOwned Metric = "gatedUpgradeOwned"
	MetricLevel             Metric = "level"
	MetricMaxCombo          Metric = "maxCombo"
	MetricFinalPPS          Metric = "finalPPS"
	MetricFinalPPC          Metric = "finalPPC"
	MetricEventActive       Metric = "eventActive"
	MetricSkillLevels       Metric = "skillLevels"
)

// Achievement is a one-way latch unlocked when Metric reaches Threshold.
type Achievement struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Metric      Metric  `json:"metric" yaml:"metric"`
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	Unlocked    bool    `json:"unlocked" yaml:"-"`
}

// ActiveEvent is a transient multiplier window counted down once per second.
type ActiveEvent struct {
	Type       EventType `json:"type"`
	Multiplier float64   `json:"multiplier"`
	TimeLeft   int       `json:"time_left"` // Seconds
}

// GameState is the single root aggregate. Values are replaced, never patched in place.
type GameState struct {
	Points             float64 `json:"points"`
	PointsPerClick     float64 `json:"points_per_click"` // Base click yield
	TotalClicks        int     `json:"total_clicks"`
	Level              int     `json:"level"`
	XP                 float64 `json:"xp"`
	XPToNextLevel      float64 `json:"xp_to_next_level"`
	JustLeveledUp      bool    `json:"just_leveled_up"`
	MaxCombo           int     `json:"max_combo"`
	Rebirths           int     `json:"rebirths"`
	PrestigeMultiplier float64 `json:"prestige_multiplier"`
	Insight            int     `json:"insight"`

	Upgrades     []Upgrade     `json:"upgrades"`
	Skills       []Skill       `json:"skills"`
	Achievements []Achievement `json:"achievements"`
	ActiveEvent  *ActiveEvent  `json:"active_event"`
}

// Initial values for a fresh game.
const (
	InitialPointsPerClick = 1
	InitialLevel          = 1
	InitialXPToNextLevel  = 100
	InitialPrestige       = 1
)

// Initial builds the start-of-process snapshot from catalogue definitions.
// The slices are copied so the catalogue itself is never aliased.
func Initial(upgrades []Upgrade, skills []Skill, achievements []Achievement) GameState {
	st := GameState{
		PointsPerClick:     InitialPointsPerClick,
		Level:              InitialLevel,
		XPToNextLevel:      InitialXPToNextLevel,
		PrestigeMultiplier: InitialPrestige,
		Upgrades:           make([]Upgrade, len(upgrades)),
		Skills:             make([]Skill, len(skills)),
		Achievements:       make([]Achievement, len(achievements)),
	}
	for i, u := range upgrades {
		u.Count = 0
		if u.BaseCost == 0 {
			u.BaseCost = u.Cost
		}
		st.Upgrades[i] = u
	}
	for i, s := range skills {
		s.CurrentLevel = 0
		st.Skills[i] = s
	}
	for i, a := range achievements {
		a.Unlocked = false
		st.Achievements[i] = a
	}
	return st
}

// Clone returns a deep copy that shares no slice or pointer with the receiver.
func (s GameState) Clone() GameState {
	out := s
	out.Upgrades = append([]Upgrade(nil), s.Upgrades...)
	out.Skills = append([]Skill(nil), s.Skills...)
	out.Achievements = append([]Achievement(nil), s.Achievements...)
	if s.ActiveEvent != nil {
		ev := *s.ActiveEvent
		out.ActiveEvent = &ev
	}
	return out
}

// FindUpgrade returns the index of the upgrade with the given id, or -1.
func (s GameState) FindUpgrade(id string) int {
	for i, u := range s.Upgrades {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// FindSkill returns the index of the skill with the given id, or -1.
func (s GameState) FindSkill(id string) int {
	for i, sk := range s.Skills {
		if sk.ID == id {
			return i
		}
	}
	return -1
}

// FindAchievement returns the index of the achievement with the given id, or -1.
func (s GameState) FindAchievement(id string) int {
	for i, a := range s.Achievements {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// SkillLevel returns the current level of a skill, 0 when unknown.
func (s GameState) SkillLevel(id string) int {
	if i := s.FindSkill(id); i >= 0 {
		return s.Skills[i].CurrentLevel
	}
	return 0
}

// TotalSkillLevels sums purchased levels across the whole tree.
func (s GameState) TotalSkillLevels() int {
	total := 0
	for _, sk := range s.Skills {
		total += sk.CurrentLevel
	}
	return total
}

// TotalUpgrades sums owned units across every upgrade.
func (s GameState) TotalUpgrades() int {
	total := 0
	for _, u := range s.Upgrades {
		total += u.Count
	}
	return total
}

// OverloadActive reports whether an OVERLOAD window is running.
func (s GameState) OverloadActive() bool {
	return s.ActiveEvent != nil && s.ActiveEvent.Type == EventOverload
}
