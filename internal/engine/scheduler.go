package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/platform/clock"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// DefaultResolution is how often Run polls the clock for due tasks.
const DefaultResolution = 50 * time.Millisecond

// TaskFunc is invoked with the scheduler's notion of now.
type TaskFunc func(now time.Time)

// TaskRecorder receives per-task run timings. Satisfied by *metrics.Collector.
type TaskRecorder interface {
	RecordTaskRun(name string, latency time.Duration)
}

type task struct {
	name  string
	every time.Duration // zero for one-shot tasks
	next  time.Time
	fn    TaskFunc
}

// Scheduler owns every timer of the game: named periodic and one-shot tasks
// fired from a single driver loop. It knows nothing about game state.
type Scheduler struct {
	mu         sync.Mutex
	tasks      map[string]*task
	clock      clock.Clock
	resolution time.Duration
	recorder   TaskRecorder
	logger     *logger.Logger
}

// NewScheduler creates a scheduler reading time from clk.
func NewScheduler(clk clock.Clock, resolution time.Duration, log *logger.Logger) *Scheduler {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Scheduler{
		tasks:      make(map[string]*task),
		clock:      clk,
		resolution: resolution,
		logger:     log,
	}
}

// SetRecorder attaches a metrics sink for task runs.
func (s *Scheduler) SetRecorder(r TaskRecorder) {
	s.recorder = r
}

// Every registers fn to run every interval, first one interval from now.
// A task already registered under name is replaced.
func (s *Scheduler) Every(name string, interval time.Duration, fn TaskFunc) {
	s.schedule(name, interval, interval, fn)
}

// After registers fn to run once, delay from now. Calling After again with
// the same name before it fires replaces it, which debounces. This holds
// within one RunDue batch too: re-arming a task that is already due from an
// earlier callback supersedes the due run.
func (s *Scheduler) After(name string, delay time.Duration, fn TaskFunc) {
	s.schedule(name, delay, 0, fn)
}

func (s *Scheduler) schedule(name string, delay, every time.Duration, fn TaskFunc) {
	now := s.clock.Now()
	s.mu.Lock()
	s.tasks[name] = &task{name: name, every: every, next: now.Add(delay), fn: fn}
	s.mu.Unlock()
}

// Cancel removes the named task. Unknown names are ignored.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	delete(s.tasks, name)
	s.mu.Unlock()
}

// Pending reports whether a task is registered under name.
func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// RunDue fires every task due at now, earliest first, and returns how many ran.
// A periodic task fires at most once per call; if it fell more than one
// interval behind it is rescheduled from now instead of catching up.
func (s *Scheduler) RunDue(now time.Time) int {
	type dueTask struct {
		t  *task
		at time.Time
	}
	s.mu.Lock()
	var due []dueTask
	for _, t := range s.tasks {
		if !t.next.After(now) {
			due = append(due, dueTask{t: t, at: t.next})
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].t.name < due[j].t.name
		}
		return due[i].at.Before(due[j].at)
	})

	ran := 0
	for _, d := range due {
		t := d.t
		// A task fired earlier in this batch may have cancelled or replaced t.
		s.mu.Lock()
		if s.tasks[t.name] != t {
			s.mu.Unlock()
			continue
		}
		if t.every == 0 {
			delete(s.tasks, t.name)
		} else {
			t.next = t.next.Add(t.every)
			if !t.next.After(now) {
				t.next = now.Add(t.every)
			}
		}
		s.mu.Unlock()

		start := time.Now()
		t.fn(now)
		if s.recorder != nil {
			s.recorder.RecordTaskRun(t.name, time.Since(start))
		}
		ran++
	}
	return ran
}

// Run drives the scheduler until ctx is done. On return every task is
// dropped, so nothing fires into a torn-down engine.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "resolution", s.resolution)

	ticker := time.NewTicker(s.resolution)
	defer ticker.Stop()
	defer s.reset()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped by context")
			return nil
		case <-ticker.C:
			s.RunDue(s.clock.Now())
		}
	}
}

func (s *Scheduler) reset() {
	s.mu.Lock()
	s.tasks = make(map[string]*task)
	s.mu.Unlock()
}
