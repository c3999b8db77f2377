// Package metrics provides observability for the game server.
// One Collector is constructed in main and handed to every component.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// actionStats aggregates dispatches of one action type.
type actionStats struct {
	Applied    int64
	Rejected   int64
	LatencySum int64 // nanoseconds
	LatencyMax int64
}

// Collector gathers performance metrics.
type Collector struct {
	// Dispatch metrics, keyed by action type
	DispatchCount int64
	actions       map[string]*actionStats

	// Scheduler metrics, keyed by task name
	TaskRuns    int64
	tasks       map[string]int64
	LastRunTime time.Time

	// Journal metrics
	JournalWrites     int64
	JournalWriteLat   int64
	JournalWriteMax   int64
	JournalWriteError int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		actions:   make(map[string]*actionStats),
		tasks:     make(map[string]int64),
		StartTime: time.Now(),
	}
}

// RecordDispatch records one Dispatch of the given action type.
func (c *Collector) RecordDispatch(action string, applied bool, latency time.Duration) {
	atomic.AddInt64(&c.DispatchCount, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.actions[action]
	if !ok {
		s = &actionStats{}
		c.actions[action] = s
	}
	if applied {
		s.Applied++
	} else {
		s.Rejected++
	}
	s.LatencySum += int64(latency)
	if int64(latency) > s.LatencyMax {
		s.LatencyMax = int64(latency)
	}
}

// RecordTaskRun records a scheduler task firing.
func (c *Collector) RecordTaskRun(name string, _ time.Duration) {
	atomic.AddInt64(&c.TaskRuns, 1)

	c.mu.Lock()
	c.tasks[name]++
	c.LastRunTime = time.Now()
	c.mu.Unlock()
}

// RecordJournalWrite records a journal entry persisted to storage.
func (c *Collector) RecordJournalWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.JournalWrites, 1)
	atomic.AddInt64(&c.JournalWriteLat, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.JournalWriteMax) {
		atomic.StoreInt64(&c.JournalWriteMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.JournalWriteError, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	actions := make(map[string]interface{}, len(c.actions))
	for name, s := range c.actions {
		var avg float64
		if n := s.Applied + s.Rejected; n > 0 {
			avg = float64(s.LatencySum) / float64(n) / 1e3 // µs
		}
		actions[name] = map[string]interface{}{
			"applied":        s.Applied,
			"rejected":       s.Rejected,
			"avg_latency_us": avg,
			"max_latency_us": float64(s.LatencyMax) / 1e3,
		}
	}

	tasks := make(map[string]int64, len(c.tasks))
	for name, n := range c.tasks {
		tasks[name] = n
	}

	writes := atomic.LoadInt64(&c.JournalWrites)
	var writeAvg float64
	if writes > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.JournalWriteLat)) / float64(writes) / 1e6 // ms
	}

	lastRun := ""
	if !c.LastRunTime.IsZero() {
		lastRun = c.LastRunTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"dispatch": map[string]interface{}{
			"count":   atomic.LoadInt64(&c.DispatchCount),
			"actions": actions,
		},

		"scheduler": map[string]interface{}{
			"runs":     atomic.LoadInt64(&c.TaskRuns),
			"tasks":    tasks,
			"last_run": lastRun,
		},

		"journal": map[string]interface{}{
			"written":          writes,
			"avg_write_lat_ms": writeAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.JournalWriteMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.JournalWriteError),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the JSON metrics endpoint.
func Handler(c *Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func PrometheusHandler(c *Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "# HELP brainclicker_dispatch_total Dispatched actions\n")
		fmt.Fprintf(w, "# TYPE brainclicker_dispatch_total counter\n")
		c.mu.RLock()
		names := make([]string, 0, len(c.actions))
		for name := range c.actions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := c.actions[name]
			fmt.Fprintf(w, "brainclicker_dispatch_total{action=%q,result=\"applied\"} %d\n", name, s.Applied)
			fmt.Fprintf(w, "brainclicker_dispatch_total{action=%q,result=\"rejected\"} %d\n", name, s.Rejected)
		}
		c.mu.RUnlock()
		fmt.Fprintln(w)

		fmt.Fprintf(w, "# HELP brainclicker_task_runs_total Scheduler task runs\n")
		fmt.Fprintf(w, "# TYPE brainclicker_task_runs_total counter\n")
		fmt.Fprintf(w, "brainclicker_task_runs_total %d\n\n", atomic.LoadInt64(&c.TaskRuns))

		fmt.Fprintf(w, "# HELP brainclicker_journal_writes_total Journal entries persisted\n")
		fmt.Fprintf(w, "# TYPE brainclicker_journal_writes_total counter\n")
		fmt.Fprintf(w, "brainclicker_journal_writes_total %d\n\n", atomic.LoadInt64(&c.JournalWrites))

		fmt.Fprintf(w, "# HELP brainclicker_journal_write_errors_total Journal write errors\n")
		fmt.Fprintf(w, "# TYPE brainclicker_journal_write_errors_total counter\n")
		fmt.Fprintf(w, "brainclicker_journal_write_errors_total %d\n\n", atomic.LoadInt64(&c.JournalWriteError))

		fmt.Fprintf(w, "# HELP brainclicker_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE brainclicker_ws_connections gauge\n")
		fmt.Fprintf(w, "brainclicker_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP brainclicker_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE brainclicker_ws_messages_total counter\n")
		fmt.Fprintf(w, "brainclicker_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "brainclicker_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
