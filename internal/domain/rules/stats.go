// Package rules contains the pure calculation logic for game mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "github.com/MRamiBalles/brainclicker/internal/domain/state"

// PointsPerSecond sums value*count across auto upgrades.
// Re-evaluate on every tick: there is deliberately no cache to invalidate.
func PointsPerSecond(upgrades []state.Upgrade) float64 {
	total := 0.0
	for _, u := range upgrades {
		if u.Type == state.UpgradeAuto {
			total += u.Value * float64(u.Count)
		}
	}
	return total
}

// PointsPerClick sums value*count across click upgrades.
// Only the upgrade component; callers add GameState.PointsPerClick.
func PointsPerClick(upgrades []state.Upgrade) float64 {
	total := 0.0
	for _, u := range upgrades {
		if u.Type == state.UpgradeClick {
			total += u.Value * float64(u.Count)
		}
	}
	return total
}

// SkillMultiplier folds every skill carrying the effect into
// Π (1 + rate*currentLevel). Unowned skills contribute 1.
func SkillMultiplier(skills []state.Skill, effect state.Effect) float64 {
	m := 1.0
	for _, s := range skills {
		if s.Effect == effect && s.CurrentLevel > 0 {
			m *= 1 + s.Rate*float64(s.CurrentLevel)
		}
	}
	return m
}

// Multipliers is the composed multiplier set for one snapshot.
type Multipliers struct {
	Prestige float64 `json:"prestige"`
	XP       float64 `json:"xp"`
	Click    float64 `json:"click"`
	Auto     float64 `json:"auto"`
	Synergy  float64 `json:"synergy"`
	Event    float64 `json:"event"` // OVERLOAD multiplier, 1 when no event runs
}

// MultipliersFor reads every multiplier that applies to st.
func MultipliersFor(st state.GameState) Multipliers {
	event := 1.0
	if st.OverloadActive() {
		event = st.ActiveEvent.Multiplier
	}
	return Multipliers{
		Prestige: st.PrestigeMultiplier,
		XP:       SkillMultiplier(st.Skills, state.EffectXP),
		Click:    SkillMultiplier(st.Skills, state.EffectClick),
		Auto:     SkillMultiplier(st.Skills, state.EffectAuto),
		Synergy:  SkillMultiplier(st.Skills, state.EffectUpgrade),
		Event:    event,
	}
}

// Gain is the point and XP delta a caller dispatches for one tick or click.
type Gain struct {
	Points float64
	XP     float64
}

// PassiveGain is the once-per-second production. Prestige and skills boost
// points; XP only sees the xp skill.
func PassiveGain(st state.GameState) Gain {
	pps := PointsPerSecond(st.Upgrades)
	m := MultipliersFor(st)
	return Gain{
		Points: pps * m.Prestige * m.Auto * m.Synergy,
		XP:     pps * m.XP,
	}
}

// BaseClickPower is base click yield plus click upgrades, before any multiplier.
func BaseClickPower(st state.GameState) float64 {
	return st.PointsPerClick + PointsPerClick(st.Upgrades)
}

// ClickGain is the yield of one manual click. The OVERLOAD multiplier boosts
// points only; XP is computed from the un-boosted click power.
func ClickGain(st state.GameState) Gain {
	base := BaseClickPower(st)
	m := MultipliersFor(st)
	return Gain{
		Points: base * m.Event * m.Prestige * m.Click * m.Synergy,
		XP:     base * m.XP,
	}
}

// Stats are the HUD figures shown next to the point counter.
type Stats struct {
	PointsPerSecond float64     `json:"points_per_second"`
	PointsPerClick  float64     `json:"points_per_click"`
	PrestigeBonus   float64     `json:"prestige_bonus_pct"`
	Multipliers     Multipliers `json:"multipliers"`
}

// StatsFor computes the final production figures, the same values the
// pps-* and ppc-* achievements are measured against.
func StatsFor(st state.GameState) Stats {
	m := MultipliersFor(st)
	return Stats{
		PointsPerSecond: PointsPerSecond(st.Upgrades) * m.Auto * m.Prestige * m.Synergy,
		PointsPerClick:  BaseClickPower(st) * m.Click * m.Prestige * m.Synergy,
		PrestigeBonus:   (st.PrestigeMultiplier - 1) * 100,
		Multipliers:     m,
	}
}
