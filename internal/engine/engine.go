package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/MRamiBalles/brainclicker/internal/domain/rules"
	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/clock"
	"github.com/MRamiBalles/brainclicker/internal/platform/config"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// Scheduler task names.
const (
	passiveTask      = "passive"
	overloadRollTask = "overload.roll"
	eurekaRollTask   = "eureka.roll"
)

// Engine is the central orchestrator that wires the Store to the timed
// systems and exposes the player's intents.
type Engine struct {
	store     *Store
	scheduler *Scheduler
	clock     clock.Clock
	cfg       config.Config
	logger    *logger.Logger
	cues      *cueBus

	// Sub-systems
	passiveSystem  *PassiveSystem
	overloadSystem *OverloadSystem
	eurekaSystem   *EurekaSystem
	comboSystem    *ComboSystem

	startOnce   sync.Once
	unsubscribe func()
	unlocked    map[string]bool // Only touched from the store subscription
}

// NewEngine initializes the game systems around an existing store.
func NewEngine(cfg config.Config, store *Store, sched *Scheduler, clk clock.Clock, roller Roller, log *logger.Logger) *Engine {
	cues := newCueBus()
	e := &Engine{
		store:     store,
		scheduler: sched,
		clock:     clk,
		cfg:       cfg,
		logger:    log,
		cues:      cues,

		passiveSystem: NewPassiveSystem(store, log),
		overloadSystem: NewOverloadSystem(store, sched, roller, OverloadSettings{
			Chance:       cfg.OverloadChance,
			Multiplier:   cfg.OverloadMultiplier,
			Duration:     cfg.OverloadDuration,
			TickInterval: cfg.EventTickInterval,
		}, log),
		eurekaSystem: NewEurekaSystem(store, sched, roller, EurekaSettings{
			Chance:   cfg.EurekaChance,
			Lifetime: cfg.EurekaLifetime,
		}, cues, log),
		comboSystem: NewComboSystem(store, sched, cfg.ComboWindow),

		unlocked: make(map[string]bool),
	}

	for _, a := range store.GetState().Achievements {
		if a.Unlocked {
			e.unlocked[a.ID] = true
		}
	}
	e.unsubscribe = store.Subscribe(e.onChange)
	return e
}

// Start registers the periodic systems with the scheduler. Safe to call twice.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.scheduler.Every(passiveTask, e.cfg.PassiveInterval, e.passiveSystem.OnTick)
		e.scheduler.Every(overloadRollTask, e.cfg.OverloadRollInterval, e.overloadSystem.OnRoll)
		e.scheduler.Every(eurekaRollTask, e.cfg.EurekaRollInterval, e.eurekaSystem.OnRoll)
		e.logger.Info("engine systems registered", "tasks", e.scheduler.Len())
	})
}

// Run starts the systems and drives the scheduler until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.Start()
	defer e.Close()
	return e.scheduler.Run(ctx)
}

// Close detaches the engine from the store.
func (e *Engine) Close() {
	e.unsubscribe()
}

// Store exposes the state store.
func (e *Engine) Store() *Store {
	return e.store
}

// ClickResult reports what one click produced.
type ClickResult struct {
	Points float64 `json:"points"`
	XP     float64 `json:"xp"`
	Combo  int     `json:"combo"`
}

// Click performs one manual click against the latest snapshot.
func (e *Engine) Click() ClickResult {
	gain := rules.ClickGain(e.store.GetState())

	e.store.Dispatch(events.IncrementClicks())
	e.store.Dispatch(events.GeneratePoints(gain.Points))
	e.store.Dispatch(events.AddXP(gain.XP))

	combo := e.comboSystem.OnClick(e.clock.Now())
	if combo > 1 {
		e.cues.emit(Cue{Kind: CueCombo, Value: combo})
	}
	return ClickResult{Points: gain.Points, XP: gain.XP, Combo: combo}
}

// BuyUpgrade attempts a purchase and reports whether it went through.
// Upgrades still gated behind a level are refused before reaching the store.
func (e *Engine) BuyUpgrade(id string) bool {
	st := e.store.GetState()
	if i := st.FindUpgrade(id); i >= 0 && st.Upgrades[i].Locked(st.Level) {
		return false
	}
	return e.store.TryDispatch(events.BuyUpgrade(id))
}

// BuySkill attempts to buy one level of a skill.
func (e *Engine) BuySkill(id string) bool {
	return e.store.TryDispatch(events.BuySkill(id))
}

// Rebirth attempts a prestige reset.
func (e *Engine) Rebirth() bool {
	ok := e.store.TryDispatch(events.Rebirth())
	if ok {
		st := e.store.GetState()
		e.logger.Event("REBIRTH", "player", "rebirth #"+strconv.Itoa(st.Rebirths)+
			", prestige x"+strconv.FormatFloat(st.PrestigeMultiplier, 'f', -1, 64))
	}
	return ok
}

// ClaimEureka claims the visible pickup with the given id.
func (e *Engine) ClaimEureka(id string) bool {
	return e.eurekaSystem.Claim(id)
}

// View is everything a client needs to render one frame.
type View struct {
	State  state.GameState `json:"state"`
	Stats  rules.Stats     `json:"stats"`
	Combo  int             `json:"combo"`
	Pickup *Pickup         `json:"pickup,omitempty"`
}

// View returns the latest snapshot with its derived figures.
func (e *Engine) View() View {
	st := e.store.GetState()
	return View{
		State:  st,
		Stats:  rules.StatsFor(st),
		Combo:  e.comboSystem.Current(),
		Pickup: e.eurekaSystem.Current(),
	}
}

// SubscribeCues registers fn for presentation cues and returns a cancel func.
func (e *Engine) SubscribeCues(fn func(Cue)) (cancel func()) {
	return e.cues.subscribe(fn)
}

// onChange translates applied actions into cues.
func (e *Engine) onChange(c Change) {
	switch c.Action.Type {
	case events.ActionIncrementClicks:
		e.cues.emit(Cue{Kind: CueClick})
	case events.ActionBuyUpgrade, events.ActionBuySkill:
		e.cues.emit(Cue{Kind: CuePurchase, ID: c.Action.ID})
	case events.ActionAddXP:
		if c.State.JustLeveledUp {
			e.cues.emit(Cue{Kind: CueLevelUp, Value: c.State.Level})
		}
	case events.ActionStartEvent:
		e.cues.emit(Cue{Kind: CueEventStart})
	case events.ActionEndEvent:
		e.cues.emit(Cue{Kind: CueEventEnd})
	case events.ActionGrantEurekaReward:
		e.cues.emit(Cue{Kind: CuePickupClaimed})
	case events.ActionRebirth:
		e.cues.emit(Cue{Kind: CueRebirth, Value: c.State.Rebirths})
	}

	// BUY_SKILL latches skill achievements without an UNLOCK action, so diff.
	for _, a := range c.State.Achievements {
		if a.Unlocked && !e.unlocked[a.ID] {
			e.unlocked[a.ID] = true
			e.cues.emit(Cue{Kind: CueAchievement, ID: a.ID})
		}
	}
}
