package engine

import (
	"sync"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// MaxFollowUpDepth bounds how many generations of hook follow-ups one
// Dispatch may apply. Deeper follow-ups are dropped with a warning.
const MaxFollowUpDepth = 8

// Hook runs after every applied action, inside the store's critical section,
// and returns follow-up actions to fold into the same dispatch.
// Hooks must not call back into the store.
type Hook func(prev, next state.GameState, action events.Action) []events.Action

// Change is delivered to subscribers once per applied action, follow-ups
// included. State is a private deep copy.
type Change struct {
	Action events.Action
	State  state.GameState
}

// Recorder receives dispatch timings. Satisfied by *metrics.Collector.
type Recorder interface {
	RecordDispatch(action string, applied bool, latency time.Duration)
}

// Store is the single mutex-guarded state cell. Every mutation goes through
// Dispatch, so there is never more than one writer.
type Store struct {
	mu    sync.Mutex
	state state.GameState
	hooks []Hook

	// notifyMu keeps subscriber delivery in dispatch order without holding mu.
	notifyMu sync.Mutex
	subsMu   sync.RWMutex
	subs     map[int]func(Change)
	nextSub  int

	journal  *events.Journal
	recorder Recorder
	logger   *logger.Logger
}

// StoreOption configures optional collaborators.
type StoreOption func(*Store)

// WithJournal records every applied action in j.
func WithJournal(j *events.Journal) StoreOption {
	return func(s *Store) { s.journal = j }
}

// WithRecorder reports dispatch timings to r.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) { s.recorder = r }
}

// WithLogger sets the store logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithHooks appends post-reduction hooks, run in the order given.
func WithHooks(hooks ...Hook) StoreOption {
	return func(s *Store) { s.hooks = append(s.hooks, hooks...) }
}

// NewStore creates a store holding a private copy of initial.
func NewStore(initial state.GameState, opts ...StoreOption) *Store {
	s := &Store{
		state:  initial.Clone(),
		subs:   make(map[int]func(Change)),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch reduces one action against the latest state. It never fails;
// rejected actions leave the state untouched and notify nobody.
func (s *Store) Dispatch(a events.Action) {
	s.TryDispatch(a)
}

// TryDispatch is Dispatch that reports whether the action itself was applied.
func (s *Store) TryDispatch(a events.Action) bool {
	start := time.Now()

	s.mu.Lock()
	changes, applied := s.apply(a)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.notify(changes)
	s.notifyMu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordDispatch(string(a.Type), applied, time.Since(start))
	}
	return applied
}

type pending struct {
	action events.Action
	depth  int
}

// apply runs a and its follow-ups breadth first. Caller holds mu.
func (s *Store) apply(root events.Action) ([]Change, bool) {
	var changes []Change
	rootApplied := false

	queue := []pending{{action: root}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		prev := s.state
		next, applied := reduce(prev, p.action)
		if !applied {
			continue
		}
		if p.depth == 0 {
			rootApplied = true
		}
		s.state = next
		if s.journal != nil {
			s.journal.Record(p.action, next)
		}
		changes = append(changes, Change{Action: p.action, State: next.Clone()})

		for _, hook := range s.hooks {
			for _, follow := range hook(prev, next, p.action) {
				if p.depth+1 > MaxFollowUpDepth {
					s.logger.Warn("dropping follow-up action beyond depth cap",
						"action", follow.Type, "cause", p.action.Type)
					continue
				}
				queue = append(queue, pending{action: follow, depth: p.depth + 1})
			}
		}
	}
	return changes, rootApplied
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.subsMu.RLock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

// GetState returns a deep copy of the current snapshot.
func (s *Store) GetState() state.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn for every subsequent Change and returns a function
// that removes it. fn runs on the dispatching goroutine and must not Dispatch.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}
