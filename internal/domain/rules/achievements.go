package rules

import "github.com/MRamiBalles/brainclicker/internal/domain/state"

// MetricValue reads the quantity an achievement predicate compares against.
// Boolean metrics read as 1 or 0.
func MetricValue(st state.GameState, m state.Metric) float64 {
	switch m {
	case state.MetricPoints:
		return st.Points
	case state.MetricTotalClicks:
		return float64(st.TotalClicks)
	case state.MetricTotalUpgrades:
		return float64(st.TotalUpgrades())
	case state.MetricGatedUpgradeOwned:
		for _, u := range st.Upgrades {
			if u.UnlockedAtLevel > 0 && u.Count > 0 {
				return 1
			}
		}
		return 0
	case state.MetricLevel:
		return float64(st.Level)
	case state.MetricMaxCombo:
		return float64(st.MaxCombo)
	case state.MetricFinalPPS:
		return StatsFor(st).PointsPerSecond
	case state.MetricFinalPPC:
		return StatsFor(st).PointsPerClick
	case state.MetricEventActive:
		if st.ActiveEvent != nil {
			return 1
		}
		return 0
	case state.MetricSkillLevels:
		return float64(st.TotalSkillLevels())
	}
	return 0
}

// Satisfied reports whether an achievement's predicate holds for st.
func Satisfied(st state.GameState, a state.Achievement) bool {
	return MetricValue(st, a.Metric) >= a.Threshold
}

// NewlySatisfied scans every locked achievement and returns, in catalogue
// order, the ids whose predicate now holds. Already-unlocked ones are skipped.
func NewlySatisfied(st state.GameState) []string {
	var ids []string
	for _, a := range st.Achievements {
		if a.Unlocked {
			continue
		}
		if Satisfied(st, a) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
