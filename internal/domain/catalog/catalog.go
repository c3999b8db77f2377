// Package catalog loads the fixed upgrade, skill and achievement definitions.
// The default catalogue ships embedded in the binary as catalog.yaml.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Catalog is the static definition set a GameState is built from.
type Catalog struct {
	Upgrades     []state.Upgrade     `yaml:"upgrades"`
	Skills       []state.Skill       `yaml:"skills"`
	Achievements []state.Achievement `yaml:"achievements"`
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Default returns the embedded catalogue. It panics if the embedded data is
// invalid, which can only happen through a broken build.
func Default() Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalog: embedded catalog.yaml is invalid: " + err.Error())
	}
	return c
}

// InitialState builds a fresh GameState from the catalogue.
func (c Catalog) InitialState() state.GameState {
	return state.Initial(c.Upgrades, c.Skills, c.Achievements)
}

// Validate reports every structural problem found in the catalogue.
func (c Catalog) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for _, u := range c.Upgrades {
		if u.ID == "" {
			errs = append(errs, errors.New("upgrade with empty id"))
			continue
		}
		if seen[u.ID] {
			errs = append(errs, fmt.Errorf("duplicate upgrade id %q", u.ID))
		}
		seen[u.ID] = true
		if u.Type != state.UpgradeClick && u.Type != state.UpgradeAuto {
			errs = append(errs, fmt.Errorf("upgrade %q: unknown type %q", u.ID, u.Type))
		}
		if u.Cost <= 0 {
			errs = append(errs, fmt.Errorf("upgrade %q: cost must be positive", u.ID))
		}
	}

	skills := make(map[string]bool)
	for _, s := range c.Skills {
		if s.ID == "" {
			errs = append(errs, errors.New("skill with empty id"))
			continue
		}
		if skills[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate skill id %q", s.ID))
		}
		skills[s.ID] = true
		switch s.Effect {
		case state.EffectXP, state.EffectClick, state.EffectAuto, state.EffectUpgrade, state.EffectMultiplier:
		default:
			errs = append(errs, fmt.Errorf("skill %q: unknown effect %q", s.ID, s.Effect))
		}
		if s.MaxLevel <= 0 {
			errs = append(errs, fmt.Errorf("skill %q: max_level must be positive", s.ID))
		}
	}
	for _, s := range c.Skills {
		if s.Prerequisite != "" && !skills[s.Prerequisite] {
			errs = append(errs, fmt.Errorf("skill %q: unknown prerequisite %q", s.ID, s.Prerequisite))
		}
		if s.Prerequisite == s.ID && s.ID != "" {
			errs = append(errs, fmt.Errorf("skill %q: requires itself", s.ID))
		}
	}

	achievements := make(map[string]bool)
	for _, a := range c.Achievements {
		if a.ID == "" {
			errs = append(errs, errors.New("achievement with empty id"))
			continue
		}
		if achievements[a.ID] {
			errs = append(errs, fmt.Errorf("duplicate achievement id %q", a.ID))
		}
		achievements[a.ID] = true
		if !knownMetric(a.Metric) {
			errs = append(errs, fmt.Errorf("achievement %q: unknown metric %q", a.ID, a.Metric))
		}
	}

	return errors.Join(errs...)
}

func knownMetric(m state.Metric) bool {
	switch m {
	case state.MetricPoints, state.MetricTotalClicks, state.MetricTotalUpgrades,
		state.MetricGatedUpgradeOwned, state.MetricLevel, state.MetricMaxCombo,
		state.MetricFinalPPS, state.MetricFinalPPC, state.MetricEventActive,
		state.MetricSkillLevels:
		return true
	}
	return false
}
