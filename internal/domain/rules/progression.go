package rules

import "math"

// Economy constants.
const (
	UpgradeCostGrowth     = 1.25 // Cost multiplier applied after each purchase
	LevelUpPointBonus     = 1000 // Points granted per new level reached
	RebirthMinLevel       = 40
	PrestigePerRebirth    = 0.5
	InsightLevelsPerPoint = 5 // Rebirth pays floor(level/5) insight
	EurekaInsightReward   = 1
)

// XPThreshold is the XP needed to leave the given level: floor(100 * level^1.5).
func XPThreshold(level int) float64 {
	return math.Floor(100 * math.Pow(float64(level), 1.5))
}

// NextUpgradeCost rounds half away from zero, matching the shop's displayed prices.
func NextUpgradeCost(cost float64) float64 {
	return math.Round(cost * UpgradeCostGrowth)
}

// PrestigeMultiplier is the permanent production bonus after n rebirths.
func PrestigeMultiplier(rebirths int) float64 {
	return 1 + float64(rebirths)*PrestigePerRebirth
}

// RebirthInsight is the insight paid out when rebirthing at level.
func RebirthInsight(level int) int {
	return level / InsightLevelsPerPoint
}

// CanRebirth reports whether a rebirth is allowed at level.
func CanRebirth(level int) bool {
	return level >= RebirthMinLevel
}
