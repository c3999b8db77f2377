package engine

import (
	"strconv"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// Roller yields uniform values in [0,1). *rand.Rand satisfies it.
type Roller interface {
	Float64() float64
}

const overloadCountdownTask = "overload.countdown"

// OverloadSettings shapes the random OVERLOAD window.
type OverloadSettings struct {
	Chance       float64
	Multiplier   float64
	Duration     int // Seconds
	TickInterval time.Duration
}

// OverloadSystem rolls for OVERLOAD events and counts them down.
type OverloadSystem struct {
	store     *Store
	scheduler *Scheduler
	roller    Roller
	settings  OverloadSettings
	logger    *logger.Logger
}

// NewOverloadSystem creates the overload driver.
func NewOverloadSystem(store *Store, sched *Scheduler, roller Roller, settings OverloadSettings, log *logger.Logger) *OverloadSystem {
	return &OverloadSystem{
		store:     store,
		scheduler: sched,
		roller:    roller,
		settings:  settings,
		logger:    log,
	}
}

// OnRoll starts an event with the configured probability when none is running.
// The countdown task only exists while an event is active.
func (o *OverloadSystem) OnRoll(_ time.Time) {
	if o.store.GetState().ActiveEvent != nil {
		return
	}
	if o.roller.Float64() >= o.settings.Chance {
		return
	}

	o.store.Dispatch(events.StartEvent(state.ActiveEvent{
		Type:       state.EventOverload,
		Multiplier: o.settings.Multiplier,
		TimeLeft:   o.settings.Duration,
	}))
	o.scheduler.Every(overloadCountdownTask, o.settings.TickInterval, o.OnCountdown)
	o.logger.Event("OVERLOAD_START", "overload",
		"x"+strconv.FormatFloat(o.settings.Multiplier, 'f', -1, 64)+" for "+strconv.Itoa(o.settings.Duration)+"s")
}

// OnCountdown ticks the running event, ending it once time has run out.
func (o *OverloadSystem) OnCountdown(_ time.Time) {
	ev := o.store.GetState().ActiveEvent
	if ev == nil {
		o.scheduler.Cancel(overloadCountdownTask)
		return
	}
	if ev.TimeLeft > 0 {
		o.store.Dispatch(events.TickEvent())
		return
	}
	o.store.Dispatch(events.EndEvent())
	o.scheduler.Cancel(overloadCountdownTask)
	o.logger.Event("OVERLOAD_END", "overload", "event window closed")
}
