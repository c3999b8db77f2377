package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

const eurekaExpireTask = "eureka.expire"

// Pickup is a clickable bonus visible on screen. Position is in percent of
// the play area.
type Pickup struct {
	ID        string    `json:"id"`
	Top       float64   `json:"top"`
	Left      float64   `json:"left"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EurekaSettings shapes pickup spawning.
type EurekaSettings struct {
	Chance   float64
	Lifetime time.Duration
}

// EurekaSystem spawns at most one pickup at a time and pays insight when a
// live pickup is claimed. Pickups are presentation state, not GameState.
type EurekaSystem struct {
	mu      sync.Mutex
	current *Pickup

	store     *Store
	scheduler *Scheduler
	roller    Roller
	settings  EurekaSettings
	cues      *cueBus
	logger    *logger.Logger
}

// NewEurekaSystem creates the pickup driver.
func NewEurekaSystem(store *Store, sched *Scheduler, roller Roller, settings EurekaSettings, cues *cueBus, log *logger.Logger) *EurekaSystem {
	return &EurekaSystem{
		store:     store,
		scheduler: sched,
		roller:    roller,
		settings:  settings,
		cues:      cues,
		logger:    log,
	}
}

// OnRoll spawns a pickup with the configured probability unless one is visible.
func (e *EurekaSystem) OnRoll(now time.Time) {
	e.mu.Lock()
	if e.current != nil || e.roller.Float64() >= e.settings.Chance {
		e.mu.Unlock()
		return
	}
	p := Pickup{
		ID:        uuid.NewString(),
		Top:       e.roller.Float64()*50 + 20,
		Left:      e.roller.Float64()*80 + 10,
		ExpiresAt: now.Add(e.settings.Lifetime),
	}
	e.current = &p
	e.mu.Unlock()

	e.scheduler.After(eurekaExpireTask, e.settings.Lifetime, func(time.Time) { e.expire(p.ID) })
	e.cues.emit(Cue{Kind: CuePickupSpawned, ID: p.ID})
}

func (e *EurekaSystem) expire(id string) {
	e.mu.Lock()
	if e.current == nil || e.current.ID != id {
		e.mu.Unlock()
		return
	}
	e.current = nil
	e.mu.Unlock()

	e.cues.emit(Cue{Kind: CuePickupExpired, ID: id})
}

// Claim grants the reward if id names the visible pickup. Stale or unknown
// ids are ignored.
func (e *EurekaSystem) Claim(id string) bool {
	e.mu.Lock()
	if e.current == nil || e.current.ID != id {
		e.mu.Unlock()
		return false
	}
	e.current = nil
	e.mu.Unlock()

	e.scheduler.Cancel(eurekaExpireTask)
	e.store.Dispatch(events.GrantEurekaReward())
	e.logger.Event("EUREKA", "eureka", "pickup "+id+" claimed")
	return true
}

// Current returns the visible pickup, if any.
func (e *EurekaSystem) Current() *Pickup {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	p := *e.current
	return &p
}
