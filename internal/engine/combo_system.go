package engine

import (
	"sync"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/events"
)

const comboDecayTask = "combo.decay"

// ComboSystem tracks the current click streak. A click within the window of
// the previous one extends it; a debounced one-shot resets it after the
// window passes without clicks.
type ComboSystem struct {
	mu        sync.Mutex
	combo     int
	lastClick time.Time

	window    time.Duration
	store     *Store
	scheduler *Scheduler
}

// NewComboSystem creates the combo tracker.
func NewComboSystem(store *Store, sched *Scheduler, window time.Duration) *ComboSystem {
	return &ComboSystem{window: window, store: store, scheduler: sched}
}

// OnClick registers a click at now and returns the new combo size.
// A combo above the recorded maximum is dispatched as UPDATE_MAX_COMBO.
func (c *ComboSystem) OnClick(now time.Time) int {
	c.mu.Lock()
	if !c.lastClick.IsZero() && now.Sub(c.lastClick) < c.window {
		c.combo++
	} else {
		c.combo = 1
	}
	c.lastClick = now
	n := c.combo
	c.mu.Unlock()

	// Replacing the pending task cancels the previous reset.
	c.scheduler.After(comboDecayTask, c.window, c.decay)

	if n > c.store.GetState().MaxCombo {
		c.store.Dispatch(events.UpdateMaxCombo(n))
	}
	return n
}

func (c *ComboSystem) decay(_ time.Time) {
	c.mu.Lock()
	c.combo = 0
	c.mu.Unlock()
}

// Current returns the live combo size.
func (c *ComboSystem) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.combo
}
