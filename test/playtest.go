// Package test - playtest.go
// Headless playtests: a greedy bot plays the full engine against a fake
// clock while every snapshot is checked against the game's invariants.
package test

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/catalog"
	"github.com/MRamiBalles/brainclicker/internal/domain/rules"
	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/engine"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/clock"
	"github.com/MRamiBalles/brainclicker/internal/platform/config"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// step is one bot decision. Ten clicks per simulated second.
const step = 100 * time.Millisecond

// TestResult captures the outcome of each scenario.
type TestResult struct {
	ScenarioName string
	Steps        int
	Final        state.GameState
	Cues         map[engine.CueKind]int
	Passed       bool
	Reason       string
}

// Scenario describes one playthrough.
type Scenario struct {
	Name     string
	Seed     int64
	Duration time.Duration // Simulated time
	Initial  state.GameState
	Rebirth  bool // Let the bot rebirth when allowed

	// Check runs against the final state after the invariants held throughout.
	Check func(st state.GameState) error
}

// Playtest runs scenarios and collects their results.
type Playtest struct {
	logger  *logger.Logger
	verbose bool
	results []TestResult
}

// NewPlaytest creates the harness. verbose prints progress like a CLI tool.
func NewPlaytest(log *logger.Logger, verbose bool) *Playtest {
	return &Playtest{logger: log, verbose: verbose}
}

// DefaultScenarios is the suite the test runner executes.
func DefaultScenarios() []Scenario {
	fresh := catalog.Default().InitialState()

	veteran := catalog.Default().InitialState()
	veteran.Level = 40
	veteran.Points = 5000

	return []Scenario{
		{
			Name:     "greedy climb",
			Seed:     1,
			Duration: 10 * time.Minute,
			Initial:  fresh,
			Check: func(st state.GameState) error {
				if st.Level < 5 {
					return fmt.Errorf("bot only reached level %d", st.Level)
				}
				if st.TotalUpgrades() == 0 {
					return fmt.Errorf("bot never bought an upgrade")
				}
				return nil
			},
		},
		{
			Name:     "rebirth and spend insight",
			Seed:     2,
			Duration: time.Minute,
			Initial:  veteran,
			Rebirth:  true,
			Check: func(st state.GameState) error {
				if st.Rebirths < 1 {
					return fmt.Errorf("bot never rebirthed")
				}
				if st.TotalSkillLevels() == 0 {
					return fmt.Errorf("bot never bought a skill with %d insight", st.Insight)
				}
				return nil
			},
		},
	}
}

// Run plays one scenario to completion.
func (p *Playtest) Run(sc Scenario) TestResult {
	if p.verbose {
		fmt.Println("\n" + strings.Repeat("=", 60))
		fmt.Printf("PLAYTEST: %s (%v simulated)\n", sc.Name, sc.Duration)
		fmt.Println(strings.Repeat("=", 60))
	}

	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := engine.NewStore(sc.Initial, engine.WithHooks(engine.DefaultHooks(p.logger)...))
	sched := engine.NewScheduler(clk, 0, p.logger)
	eng := engine.NewEngine(config.Default(), store, sched, clk, rand.New(rand.NewSource(sc.Seed)), p.logger)
	defer eng.Close()

	result := TestResult{ScenarioName: sc.Name, Cues: make(map[engine.CueKind]int)}
	cancelCues := eng.SubscribeCues(func(c engine.Cue) { result.Cues[c.Kind]++ })
	defer cancelCues()

	var violation error
	prev := store.GetState()
	cancelWatch := store.Subscribe(func(c engine.Change) {
		if violation == nil {
			violation = checkInvariants(prev, c.State, c.Action)
		}
		prev = c.State
	})
	defer cancelWatch()

	eng.Start()
	steps := int(sc.Duration / step)
	for i := 0; i < steps && violation == nil; i++ {
		clk.Advance(step)
		sched.RunDue(clk.Now())
		p.act(eng, sc.Rebirth)
		result.Steps++
	}

	result.Final = store.GetState()
	switch {
	case violation != nil:
		result.Reason = violation.Error()
	case sc.Check != nil:
		if err := sc.Check(result.Final); err != nil {
			result.Reason = err.Error()
		} else {
			result.Passed = true
		}
	default:
		result.Passed = true
	}
	if result.Passed {
		result.Reason = fmt.Sprintf("level %d, %d upgrades, %d rebirths after %d steps",
			result.Final.Level, result.Final.TotalUpgrades(), result.Final.Rebirths, result.Steps)
	}

	if p.verbose {
		printResult(result)
	}
	p.results = append(p.results, result)
	return result
}

// act is the bot: click, grab the pickup, then spend greedily.
func (p *Playtest) act(eng *engine.Engine, allowRebirth bool) {
	eng.Click()

	view := eng.View()
	if view.Pickup != nil {
		eng.ClaimEureka(view.Pickup.ID)
	}

	st := eng.View().State
	if allowRebirth && rules.CanRebirth(st.Level) {
		eng.Rebirth()
		st = eng.View().State
	}

	for _, sk := range st.Skills {
		if sk.CurrentLevel < sk.MaxLevel && st.Insight >= sk.Cost {
			if eng.BuySkill(sk.ID) {
				st = eng.View().State
			}
		}
	}

	if id := cheapestAffordable(st); id != "" {
		eng.BuyUpgrade(id)
	}
}

func cheapestAffordable(st state.GameState) string {
	best, cost := "", math.Inf(1)
	for _, u := range st.Upgrades {
		if u.Locked(st.Level) || u.Cost > st.Points {
			continue
		}
		if u.Cost < cost {
			best, cost = u.ID, u.Cost
		}
	}
	return best
}

// checkInvariants validates one transition.
func checkInvariants(prev, next state.GameState, a events.Action) error {
	if next.Points < 0 || next.XP < 0 || next.Insight < 0 {
		return fmt.Errorf("%s: negative currency (points %v, xp %v, insight %d)", a.Type, next.Points, next.XP, next.Insight)
	}
	if next.Level < 1 || next.XPToNextLevel <= 0 {
		return fmt.Errorf("%s: level %d with threshold %v", a.Type, next.Level, next.XPToNextLevel)
	}
	if want := rules.PrestigeMultiplier(next.Rebirths); math.Abs(next.PrestigeMultiplier-want) > 1e-9 {
		return fmt.Errorf("%s: prestige %v, want %v for %d rebirths", a.Type, next.PrestigeMultiplier, want, next.Rebirths)
	}
	if next.Rebirths < prev.Rebirths || next.TotalClicks < 0 {
		return fmt.Errorf("%s: counters went backwards", a.Type)
	}
	if a.Type != events.ActionRebirth && next.Level < prev.Level {
		return fmt.Errorf("%s: level dropped from %d to %d", a.Type, prev.Level, next.Level)
	}
	for _, u := range next.Upgrades {
		if u.Count < 0 || u.Cost < u.BaseCost {
			return fmt.Errorf("%s: upgrade %s count %d cost %v below base %v", a.Type, u.ID, u.Count, u.Cost, u.BaseCost)
		}
	}
	for _, sk := range next.Skills {
		if sk.CurrentLevel < 0 || sk.CurrentLevel > sk.MaxLevel {
			return fmt.Errorf("%s: skill %s at level %d of %d", a.Type, sk.ID, sk.CurrentLevel, sk.MaxLevel)
		}
		if sk.CurrentLevel > 0 && sk.Prerequisite != "" && next.SkillLevel(sk.Prerequisite) == 0 {
			return fmt.Errorf("%s: skill %s owned without %s", a.Type, sk.ID, sk.Prerequisite)
		}
	}
	for i, ach := range prev.Achievements {
		if ach.Unlocked && !next.Achievements[i].Unlocked {
			return fmt.Errorf("%s: achievement %s re-locked", a.Type, ach.ID)
		}
	}
	if ev := next.ActiveEvent; ev != nil && ev.TimeLeft < 0 {
		return fmt.Errorf("%s: event countdown below zero", a.Type)
	}
	return nil
}

func printResult(r TestResult) {
	st := r.Final
	fmt.Println("\nFINAL STATE:")
	fmt.Printf("   Level: %d (xp %.0f / %.0f)\n", st.Level, st.XP, st.XPToNextLevel)
	fmt.Printf("   Points: %.0f, clicks: %d, max combo: %d\n", st.Points, st.TotalClicks, st.MaxCombo)
	fmt.Printf("   Rebirths: %d, insight: %d, skill levels: %d\n", st.Rebirths, st.Insight, st.TotalSkillLevels())
	unlocked := 0
	for _, a := range st.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	fmt.Printf("   Achievements: %d/%d\n", unlocked, len(st.Achievements))
	fmt.Printf("   Cues: %v\n", r.Cues)

	if r.Passed {
		fmt.Println("PASSED: " + r.Reason)
	} else {
		fmt.Println("FAILED: " + r.Reason)
	}
}

// GetResults returns every result collected so far.
func (p *Playtest) GetResults() []TestResult {
	return p.results
}
