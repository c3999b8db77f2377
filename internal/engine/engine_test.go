package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/clock"
	"github.com/MRamiBalles/brainclicker/internal/platform/config"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// stubRoller always rolls the same value.
type stubRoller struct{ value float64 }

func (r stubRoller) Float64() float64 { return r.value }

type cueLog struct {
	mu   sync.Mutex
	cues []Cue
}

func (l *cueLog) add(c Cue) {
	l.mu.Lock()
	l.cues = append(l.cues, c)
	l.mu.Unlock()
}

func (l *cueLog) has(kind CueKind, id string, value int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.cues {
		if c.Kind == kind && c.ID == id && c.Value == value {
			return true
		}
	}
	return false
}

func (l *cueLog) count(kind CueKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.cues {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

type harness struct {
	engine *Engine
	store  *Store
	sched  *Scheduler
	clock  *clock.FakeClock
	cues   *cueLog
}

func newHarness(t *testing.T, roll float64, initial state.GameState) *harness {
	t.Helper()
	clk := clock.NewFakeClock(epoch)
	sched := NewScheduler(clk, 0, logger.Nop())
	store := NewStore(initial, WithHooks(DefaultHooks(logger.Nop())...))
	eng := NewEngine(config.Default(), store, sched, clk, stubRoller{value: roll}, logger.Nop())
	t.Cleanup(eng.Close)

	h := &harness{engine: eng, store: store, sched: sched, clock: clk, cues: &cueLog{}}
	eng.SubscribeCues(h.cues.add)
	eng.Start()
	return h
}

// step advances the clock in one-second increments, firing due tasks each time.
func (h *harness) step(seconds int) {
	for i := 0; i < seconds; i++ {
		h.clock.Advance(time.Second)
		h.sched.RunDue(h.clock.Now())
	}
}

func (h *harness) stepBy(d time.Duration) {
	h.clock.Advance(d)
	h.sched.RunDue(h.clock.Now())
}

const noRoll = 0.99

func TestClickYieldsPointsXPAndCues(t *testing.T) {
	h := newHarness(t, noRoll, freshState())

	res := h.engine.Click()
	if res.Points != 1 || res.XP != 1 || res.Combo != 1 {
		t.Fatalf("first click = %+v", res)
	}
	st := h.store.GetState()
	if st.Points != 1 || st.XP != 1 || st.TotalClicks != 1 || st.MaxCombo != 1 {
		t.Errorf("unexpected state after click: %+v", st)
	}
	if h.cues.count(CueClick) != 1 {
		t.Errorf("click cue not emitted")
	}
	if h.cues.count(CueCombo) != 0 {
		t.Errorf("combo cue emitted for a single click")
	}
}

func TestClickDuringOverloadBoostsPointsNotXP(t *testing.T) {
	h := newHarness(t, noRoll, freshState())
	h.store.Dispatch(events.StartEvent(state.ActiveEvent{Type: state.EventOverload, Multiplier: 5, TimeLeft: 5}))

	res := h.engine.Click()
	if res.Points != 5 || res.XP != 1 {
		t.Errorf("overload click = %+v, want 5 points and 1 xp", res)
	}
}

func TestComboExtendsWithinWindowAndDecays(t *testing.T) {
	h := newHarness(t, noRoll, freshState())

	for i := 1; i <= 3; i++ {
		if got := h.engine.Click().Combo; got != i {
			t.Fatalf("click %d combo = %d", i, got)
		}
		h.stepBy(200 * time.Millisecond)
	}
	if h.store.GetState().MaxCombo != 3 {
		t.Errorf("MaxCombo = %d, want 3", h.store.GetState().MaxCombo)
	}
	if !h.cues.has(CueCombo, "", 3) {
		t.Errorf("combo cue for 3 not emitted")
	}

	// Last click was 200ms ago; the reset lands 1s after it.
	h.stepBy(700 * time.Millisecond)
	if h.engine.View().Combo != 3 {
		t.Fatalf("combo reset early")
	}
	h.stepBy(100 * time.Millisecond)
	if h.engine.View().Combo != 0 {
		t.Fatalf("combo did not decay")
	}
	if h.engine.Click().Combo != 1 {
		t.Errorf("combo should restart at 1 after decay")
	}
	if h.store.GetState().MaxCombo != 3 {
		t.Errorf("MaxCombo must not drop when the combo decays")
	}
}

func TestComboResetIsDebounced(t *testing.T) {
	h := newHarness(t, noRoll, freshState())

	h.engine.Click()
	h.stepBy(900 * time.Millisecond)
	if h.engine.Click().Combo != 2 {
		t.Fatalf("second click within the window should extend the combo")
	}
	h.stepBy(900 * time.Millisecond)
	if h.engine.View().Combo != 2 {
		t.Fatalf("first pending reset was not cancelled")
	}
	h.stepBy(100 * time.Millisecond)
	if h.engine.View().Combo != 0 {
		t.Errorf("combo should reset 1s after the last click")
	}
}

func TestPassiveProduction(t *testing.T) {
	h := newHarness(t, noRoll, freshState())

	h.step(3)
	if st := h.store.GetState(); st.Points != 0 || st.XP != 0 {
		t.Fatalf("no production expected without auto upgrades: %+v", st)
	}

	h.store.Dispatch(events.GeneratePoints(20))
	if !h.engine.BuyUpgrade("auto-1") {
		t.Fatalf("auto-1 purchase refused")
	}
	h.step(2)
	st := h.store.GetState()
	if st.Points != 2 || st.XP != 2 {
		t.Errorf("after 2s at 1 pps: points=%v xp=%v, want 2 and 2", st.Points, st.XP)
	}
}

func TestPassiveProductionAppliesPrestige(t *testing.T) {
	initial := freshState()
	initial.Rebirths = 2
	initial.PrestigeMultiplier = 2
	initial.Upgrades[initial.FindUpgrade("auto-2")].Count = 1 // 5 pps
	h := newHarness(t, noRoll, initial)

	h.step(1)
	st := h.store.GetState()
	if st.Points != 10 || st.XP != 5 {
		t.Errorf("points=%v xp=%v, want 10 and 5", st.Points, st.XP)
	}
}

func TestOverloadEventLifecycle(t *testing.T) {
	h := newHarness(t, 0.1, freshState())

	h.step(14)
	if h.store.GetState().ActiveEvent != nil {
		t.Fatalf("event started before the first roll")
	}
	h.step(1)
	ev := h.store.GetState().ActiveEvent
	if ev == nil || ev.Type != state.EventOverload || ev.Multiplier != 5 || ev.TimeLeft != 5 {
		t.Fatalf("unexpected event after roll: %+v", ev)
	}
	if !achievementUnlocked(h.store.GetState(), "event-1") {
		t.Errorf("event-1 should unlock while an event is active")
	}

	h.step(5)
	ev = h.store.GetState().ActiveEvent
	if ev == nil || ev.TimeLeft != 0 {
		t.Fatalf("after 5 ticks event = %+v, want TimeLeft 0", ev)
	}
	h.step(1)
	if h.store.GetState().ActiveEvent != nil {
		t.Fatalf("event did not end")
	}
	if h.sched.Pending(overloadCountdownTask) {
		t.Errorf("countdown task outlived the event")
	}
	if h.cues.count(CueEventStart) != 1 || h.cues.count(CueEventEnd) != 1 {
		t.Errorf("event cues: start=%d end=%d", h.cues.count(CueEventStart), h.cues.count(CueEventEnd))
	}
}

func TestOverloadRollCanMiss(t *testing.T) {
	h := newHarness(t, 0.5, freshState())
	h.step(60)
	if h.store.GetState().ActiveEvent != nil {
		t.Errorf("event started although every roll missed")
	}
}

func TestEurekaSpawnClaim(t *testing.T) {
	h := newHarness(t, 0.1, freshState())

	h.step(20)
	p := h.engine.View().Pickup
	if p == nil {
		t.Fatalf("pickup should spawn on a winning roll")
	}
	if p.Top != 25 || p.Left != 18 {
		t.Errorf("pickup position = %v,%v", p.Top, p.Left)
	}
	if !h.cues.has(CuePickupSpawned, p.ID, 0) {
		t.Errorf("spawn cue missing")
	}

	if h.engine.ClaimEureka("stale-id") {
		t.Fatalf("claim with a wrong id succeeded")
	}
	if !h.engine.ClaimEureka(p.ID) {
		t.Fatalf("claim failed")
	}
	if h.engine.ClaimEureka(p.ID) {
		t.Errorf("pickup claimed twice")
	}
	if got := h.store.GetState().Insight; got != 1 {
		t.Errorf("Insight = %d, want 1", got)
	}
	if h.engine.View().Pickup != nil {
		t.Errorf("pickup still visible after claim")
	}
	if h.cues.count(CuePickupClaimed) != 1 {
		t.Errorf("claim cue missing")
	}
}

func TestEurekaExpires(t *testing.T) {
	h := newHarness(t, 0.1, freshState())

	h.step(20)
	p := h.engine.View().Pickup
	if p == nil {
		t.Fatalf("pickup should spawn")
	}
	h.step(5)
	if h.engine.View().Pickup != nil {
		t.Fatalf("pickup did not expire")
	}
	if !h.cues.has(CuePickupExpired, p.ID, 0) {
		t.Errorf("expiry cue missing")
	}
	if h.engine.ClaimEureka(p.ID) {
		t.Errorf("expired pickup was claimable")
	}
	if h.store.GetState().Insight != 0 {
		t.Errorf("expired pickup paid insight")
	}
}

func TestBuyUpgradeRespectsLevelGate(t *testing.T) {
	h := newHarness(t, noRoll, freshState())
	h.store.Dispatch(events.GeneratePoints(1e6))

	if h.engine.BuyUpgrade("click-4") {
		t.Fatalf("level-gated upgrade bought at level 1")
	}
	if !h.engine.BuyUpgrade("click-1") {
		t.Fatalf("ungated upgrade refused")
	}
	if !h.cues.has(CuePurchase, "click-1", 0) {
		t.Errorf("purchase cue missing")
	}
	if h.engine.BuyUpgrade("no-such-upgrade") {
		t.Errorf("unknown upgrade reported as bought")
	}
}

func TestBuySkillEmitsAchievementCue(t *testing.T) {
	h := newHarness(t, noRoll, freshState())
	if h.engine.BuySkill("skill-1") {
		t.Fatalf("skill bought without insight")
	}
	h.store.Dispatch(events.GrantEurekaReward())
	for i := 0; i < 4; i++ {
		h.store.Dispatch(events.GrantEurekaReward())
	}
	if !h.engine.BuySkill("skill-1") {
		t.Fatalf("skill purchase refused")
	}
	if !h.cues.has(CueAchievement, "skill-1", 0) {
		t.Errorf("latched skill-1 achievement produced no cue")
	}
}

func TestLevelUpAndAchievementCues(t *testing.T) {
	h := newHarness(t, noRoll, freshState())
	h.store.Dispatch(events.AddXP(100))

	if !h.cues.has(CueLevelUp, "", 2) {
		t.Errorf("level-up cue missing")
	}
	if !h.cues.has(CueAchievement, "points-1", 0) {
		t.Errorf("achievement cue missing")
	}
	h.store.Dispatch(events.GeneratePoints(1))
	if h.cues.count(CueAchievement) != 1 {
		t.Errorf("achievement cue repeated")
	}
}

func TestRebirthThroughEngine(t *testing.T) {
	h := newHarness(t, noRoll, freshState())
	if h.engine.Rebirth() {
		t.Fatalf("rebirth allowed at level 1")
	}

	initial := freshState()
	initial.Level = 40
	h = newHarness(t, noRoll, initial)
	if !h.engine.Rebirth() {
		t.Fatalf("rebirth refused at level 40")
	}
	st := h.store.GetState()
	if st.Rebirths != 1 || st.Insight != 8 || st.Level != 1 {
		t.Errorf("unexpected post-rebirth state: rebirths=%d insight=%d level=%d", st.Rebirths, st.Insight, st.Level)
	}
	if !h.cues.has(CueRebirth, "", 1) {
		t.Errorf("rebirth cue missing")
	}
}

func TestViewCarriesDerivedStats(t *testing.T) {
	initial := freshState()
	initial.Upgrades[initial.FindUpgrade("click-2")].Count = 2 // +10 ppc
	initial.Upgrades[initial.FindUpgrade("auto-3")].Count = 1  // 10 pps
	h := newHarness(t, noRoll, initial)

	v := h.engine.View()
	if v.Stats.PointsPerClick != 11 || v.Stats.PointsPerSecond != 10 {
		t.Errorf("stats = %+v", v.Stats)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	clk := clock.NewFakeClock(epoch)
	sched := NewScheduler(clk, time.Millisecond, logger.Nop())
	store := NewStore(freshState())
	eng := NewEngine(config.Default(), store, sched, clk, stubRoller{value: noRoll}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	if sched.Len() != 0 {
		t.Errorf("tasks left after shutdown: %d", sched.Len())
	}
}
