package test

import (
	"strings"
	"testing"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/engine"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

func TestDefaultScenariosPass(t *testing.T) {
	if testing.Short() {
		t.Skip("playtests simulate minutes of play")
	}
	p := NewPlaytest(logger.Nop(), false)
	for _, sc := range DefaultScenarios() {
		res := p.Run(sc)
		if !res.Passed {
			t.Errorf("%s: %s", sc.Name, res.Reason)
		}
	}
	if got := len(p.GetResults()); got != len(DefaultScenarios()) {
		t.Errorf("results = %d", got)
	}
}

func TestShortPlaytestProducesCues(t *testing.T) {
	p := NewPlaytest(logger.Nop(), false)
	sc := DefaultScenarios()[0]
	sc.Duration = 5 * time.Second
	sc.Check = nil

	res := p.Run(sc)
	if !res.Passed {
		t.Fatalf("playtest failed: %s", res.Reason)
	}
	if res.Steps != 50 || res.Final.TotalClicks != 50 {
		t.Errorf("steps=%d clicks=%d, want 50 each", res.Steps, res.Final.TotalClicks)
	}
	if res.Cues[engine.CueClick] != 50 {
		t.Errorf("click cues = %d", res.Cues[engine.CueClick])
	}
	if res.Cues[engine.CueAchievement] == 0 {
		t.Error("first click should unlock an achievement")
	}
}

func TestCheckInvariantsCatchesViolations(t *testing.T) {
	base := state.GameState{Level: 3, XPToNextLevel: 100, PrestigeMultiplier: 1}

	bad := base
	bad.Points = -1
	if err := checkInvariants(base, bad, events.GeneratePoints(-1)); err == nil || !strings.Contains(err.Error(), "negative") {
		t.Errorf("negative points not caught: %v", err)
	}

	bad = base
	bad.Level = 2
	if err := checkInvariants(base, bad, events.AddXP(1)); err == nil {
		t.Error("level drop outside rebirth not caught")
	}

	bad = base
	bad.PrestigeMultiplier = 2
	if err := checkInvariants(base, bad, events.GeneratePoints(1)); err == nil {
		t.Error("prestige drift not caught")
	}

	if err := checkInvariants(base, base, events.GeneratePoints(0)); err != nil {
		t.Errorf("valid transition rejected: %v", err)
	}
}
