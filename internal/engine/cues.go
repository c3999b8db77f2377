package engine

import "sync"

// CueKind names a presentation cue (sound, flash, toast).
type CueKind string

const (
	CueClick         CueKind = "click"
	CueCombo         CueKind = "combo"
	CuePurchase      CueKind = "purchase"
	CueAchievement   CueKind = "achievement"
	CueLevelUp       CueKind = "level_up"
	CueEventStart    CueKind = "event_start"
	CueEventEnd      CueKind = "event_end"
	CuePickupSpawned CueKind = "pickup_spawned"
	CuePickupExpired CueKind = "pickup_expired"
	CuePickupClaimed CueKind = "pickup_claimed"
	CueRebirth       CueKind = "rebirth"
)

// Cue tells consumers something audible or visible just happened.
type Cue struct {
	Kind  CueKind `json:"kind"`
	ID    string  `json:"id,omitempty"`    // Achievement, upgrade, skill or pickup id
	Value int     `json:"value,omitempty"` // Combo size or level reached
}

type cueBus struct {
	mu   sync.RWMutex
	subs map[int]func(Cue)
	next int
}

func newCueBus() *cueBus {
	return &cueBus{subs: make(map[int]func(Cue))}
}

func (b *cueBus) subscribe(fn func(Cue)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *cueBus) emit(c Cue) {
	b.mu.RLock()
	subs := make([]func(Cue), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}
