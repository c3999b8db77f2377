package rules

import (
	"math"
	"testing"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testState() state.GameState {
	return state.Initial(
		[]state.Upgrade{
			{ID: "auto-1", Type: state.UpgradeAuto, Value: 5, Cost: 20},
			{ID: "click-1", Type: state.UpgradeClick, Value: 2, Cost: 10},
			{ID: "auto-4", Type: state.UpgradeAuto, Value: 50, Cost: 1000, UnlockedAtLevel: 15},
		},
		[]state.Skill{
			{ID: "skill-1", Effect: state.EffectXP, Rate: 0.10, MaxLevel: 5, Cost: 5},
			{ID: "skill-2", Effect: state.EffectClick, Rate: 0.05, MaxLevel: 10, Cost: 10},
			{ID: "skill-3", Effect: state.EffectAuto, Rate: 0.10, MaxLevel: 10, Cost: 15},
			{ID: "skill-4", Effect: state.EffectMultiplier, MaxLevel: 3, Cost: 20},
			{ID: "skill-5", Effect: state.EffectUpgrade, Rate: 0.05, MaxLevel: 5, Cost: 25, Prerequisite: "skill-1"},
		},
		nil,
	)
}

func TestStatCalculators(t *testing.T) {
	ups := []state.Upgrade{
		{Type: state.UpgradeAuto, Value: 5, Count: 3},
		{Type: state.UpgradeClick, Value: 2, Count: 10},
	}
	if got := PointsPerSecond(ups); got != 15 {
		t.Errorf("PointsPerSecond = %v, want 15", got)
	}
	if got := PointsPerClick(ups); got != 20 {
		t.Errorf("PointsPerClick = %v, want 20", got)
	}
	if got := PointsPerSecond(nil); got != 0 {
		t.Errorf("PointsPerSecond(nil) = %v, want 0", got)
	}
}

func TestSkillMultiplier(t *testing.T) {
	st := testState()
	if got := SkillMultiplier(st.Skills, state.EffectXP); got != 1 {
		t.Fatalf("unowned skill multiplier = %v, want 1", got)
	}

	st.Skills[0].CurrentLevel = 3
	if got := SkillMultiplier(st.Skills, state.EffectXP); !approx(got, 1.3) {
		t.Errorf("xp multiplier = %v, want 1.3", got)
	}

	st.Skills[3].CurrentLevel = 2
	if got := SkillMultiplier(st.Skills, state.EffectMultiplier); got != 1 {
		t.Errorf("active skill with zero rate should contribute 1, got %v", got)
	}
}

func TestPassiveGainComposition(t *testing.T) {
	st := testState()
	st.Upgrades[0].Count = 3 // 15 pps
	st.PrestigeMultiplier = 1.5
	st.Skills[0].CurrentLevel = 2 // xp 1.2
	st.Skills[2].CurrentLevel = 4 // auto 1.4
	st.Skills[4].CurrentLevel = 1 // synergy 1.05

	g := PassiveGain(st)
	if want := 15 * 1.5 * 1.4 * 1.05; !approx(g.Points, want) {
		t.Errorf("passive points = %v, want %v", g.Points, want)
	}
	if want := 15 * 1.2; !approx(g.XP, want) {
		t.Errorf("passive xp = %v, want %v", g.XP, want)
	}
}

func TestPassiveXPIgnoresPrestigeAndEvent(t *testing.T) {
	st := testState()
	st.Upgrades[0].Count = 2
	st.PrestigeMultiplier = 3
	st.ActiveEvent = &state.ActiveEvent{Type: state.EventOverload, Multiplier: 5, TimeLeft: 5}

	if g := PassiveGain(st); g.XP != 10 {
		t.Errorf("passive xp = %v, want 10", g.XP)
	}
}

func TestClickGainComposition(t *testing.T) {
	st := testState()
	st.Upgrades[1].Count = 10 // +20 click
	st.PrestigeMultiplier = 1.5
	st.Skills[0].CurrentLevel = 3 // xp 1.3
	st.Skills[1].CurrentLevel = 2 // click 1.1
	st.Skills[4].CurrentLevel = 1 // synergy 1.05

	g := ClickGain(st)
	if want := 21 * 1.5 * 1.1 * 1.05; !approx(g.Points, want) {
		t.Errorf("click points = %v, want %v", g.Points, want)
	}
	if want := 21 * 1.3; !approx(g.XP, want) {
		t.Errorf("click xp = %v, want %v", g.XP, want)
	}

	st.ActiveEvent = &state.ActiveEvent{Type: state.EventOverload, Multiplier: 5, TimeLeft: 3}
	boosted := ClickGain(st)
	if want := 21 * 5 * 1.5 * 1.1 * 1.05; !approx(boosted.Points, want) {
		t.Errorf("overload click points = %v, want %v", boosted.Points, want)
	}
	if !approx(boosted.XP, g.XP) {
		t.Errorf("overload must not boost click xp: got %v, want %v", boosted.XP, g.XP)
	}
}

func TestStatsFor(t *testing.T) {
	st := testState()
	st.Upgrades[0].Count = 3
	st.Upgrades[1].Count = 10
	st.PrestigeMultiplier = 2
	st.ActiveEvent = &state.ActiveEvent{Type: state.EventOverload, Multiplier: 5, TimeLeft: 3}

	s := StatsFor(st)
	if s.PointsPerSecond != 30 {
		t.Errorf("final pps = %v, want 30", s.PointsPerSecond)
	}
	if s.PointsPerClick != 42 {
		t.Errorf("final ppc = %v, want 42 (event excluded from HUD)", s.PointsPerClick)
	}
	if s.PrestigeBonus != 100 {
		t.Errorf("prestige bonus = %v, want 100", s.PrestigeBonus)
	}
	if s.Multipliers.Event != 5 {
		t.Errorf("event multiplier = %v, want 5", s.Multipliers.Event)
	}
}

func TestProgressionFormulas(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{1, 100},
		{2, 282},
		{6, 1469},
		{40, 25298},
	}
	for _, tt := range tests {
		if got := XPThreshold(tt.level); got != tt.want {
			t.Errorf("XPThreshold(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}

	costs := []float64{10}
	for i := 0; i < 3; i++ {
		costs = append(costs, NextUpgradeCost(costs[len(costs)-1]))
	}
	want := []float64{10, 13, 16, 20}
	for i := range want {
		if costs[i] != want[i] {
			t.Fatalf("cost chain = %v, want %v", costs, want)
		}
	}

	if PrestigeMultiplier(0) != 1 || PrestigeMultiplier(3) != 2.5 {
		t.Errorf("unexpected prestige multipliers")
	}
	if RebirthInsight(44) != 8 || RebirthInsight(40) != 8 || RebirthInsight(4) != 0 {
		t.Errorf("unexpected rebirth insight")
	}
	if CanRebirth(39) || !CanRebirth(40) {
		t.Errorf("rebirth gate must open at level 40")
	}
}

func TestNewlySatisfied(t *testing.T) {
	st := testState()
	st.Achievements = []state.Achievement{
		{ID: "points-1", Metric: state.MetricPoints, Threshold: 1000},
		{ID: "level-5", Metric: state.MetricLevel, Threshold: 5},
		{ID: "upgrade-4", Metric: state.MetricGatedUpgradeOwned, Threshold: 1},
		{ID: "event-1", Metric: state.MetricEventActive, Threshold: 1},
		{ID: "skill-1", Metric: state.MetricSkillLevels, Threshold: 1},
		{ID: "pps-1", Metric: state.MetricFinalPPS, Threshold: 1000},
		{ID: "combo-10", Metric: state.MetricMaxCombo, Threshold: 10, Unlocked: true},
	}

	if got := NewlySatisfied(st); len(got) != 0 {
		t.Fatalf("fresh state should satisfy nothing, got %v", got)
	}

	st.Points = 1000
	st.Level = 5
	st.MaxCombo = 50
	st.Upgrades[2].Count = 20 // gated, 1000 pps
	st.ActiveEvent = &state.ActiveEvent{Type: state.EventOverload, Multiplier: 5, TimeLeft: 1}

	got := NewlySatisfied(st)
	want := []string{"points-1", "level-5", "upgrade-4", "event-1", "pps-1"}
	if len(got) != len(want) {
		t.Fatalf("NewlySatisfied = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NewlySatisfied = %v, want %v", got, want)
		}
	}
}
