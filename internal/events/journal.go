package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// ErrJournalClosed is returned by Run once the journal has been drained and closed.
var ErrJournalClosed = errors.New("journal closed")

// Entry is an immutable record of one applied action and the headline
// numbers of the snapshot it produced.
type Entry struct {
	ID        string     `json:"id"`
	Seq       uint64     `json:"seq"`
	Timestamp time.Time  `json:"timestamp"`
	Type      ActionType `json:"type"`
	Action    Action     `json:"action"`
	Points    float64    `json:"points"`
	Level     int        `json:"level"`
	Insight   int        `json:"insight"`
}

// Persister durably stores journal entries. The journal is an audit trail:
// nothing reads it back into game state.
type Persister interface {
	Append(ctx context.Context, entry Entry) error
}

// WriteRecorder receives the outcome of every persisted write.
type WriteRecorder interface {
	RecordJournalWrite(latency time.Duration, err error)
}

// Journal is the bounded in-memory, append-only log of applied actions.
// Entries beyond capacity are dropped oldest first; the persister, when set,
// still sees every entry in order.
type Journal struct {
	mu       sync.RWMutex
	entries  []Entry // Ring once full; head is the oldest entry
	head     int
	capacity int
	seq      uint64
	now      func() time.Time

	persister Persister
	queue     chan Entry
	closed    bool
	recorder  WriteRecorder
	logger    *logger.Logger
}

// NewJournal creates a journal keeping at most capacity entries in memory.
// persister may be nil.
func NewJournal(capacity int, persister Persister, log *logger.Logger) *Journal {
	if capacity <= 0 {
		capacity = 1
	}
	j := &Journal{
		entries:   make([]Entry, 0, min(capacity, 1024)),
		capacity:  capacity,
		now:       time.Now,
		persister: persister,
		logger:    log,
	}
	if persister != nil {
		j.queue = make(chan Entry, 1024)
	}
	return j
}

// SetRecorder attaches a metrics sink for persisted writes.
func (j *Journal) SetRecorder(r WriteRecorder) {
	j.recorder = r
}

// Record appends the action applied to produce st.
func (j *Journal) Record(action Action, st state.GameState) Entry {
	j.mu.Lock()
	j.seq++
	entry := Entry{
		ID:        uuid.NewString(),
		Seq:       j.seq,
		Timestamp: j.now(),
		Type:      action.Type,
		Action:    action,
		Points:    st.Points,
		Level:     st.Level,
		Insight:   st.Insight,
	}
	if len(j.entries) < j.capacity {
		j.entries = append(j.entries, entry)
	} else {
		j.entries[j.head] = entry
		j.head = (j.head + 1) % j.capacity
	}

	if j.queue != nil && !j.closed {
		select {
		case j.queue <- entry:
		default:
			j.logger.Warn("journal write queue full, dropping entry", "id", entry.ID)
			j.record(0, errors.New("journal queue full"))
		}
	}
	j.mu.Unlock()
	return entry
}

// Run writes queued entries to the persister until ctx is done, then drains
// what is left with a fresh context. Without a persister it just waits.
func (j *Journal) Run(ctx context.Context) error {
	if j.queue == nil {
		<-ctx.Done()
		return nil
	}
	for {
		// Once cancelled, remaining entries go through drain's fresh context.
		if ctx.Err() != nil {
			j.drain()
			return nil
		}
		select {
		case <-ctx.Done():
			j.drain()
			return nil
		case entry, ok := <-j.queue:
			if !ok {
				return ErrJournalClosed
			}
			j.write(ctx, entry)
		}
	}
}

// Close stops accepting persisted writes. In-memory recording continues.
func (j *Journal) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.queue != nil && !j.closed {
		j.closed = true
		close(j.queue)
	}
}

func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case entry, ok := <-j.queue:
			if !ok {
				return
			}
			j.write(ctx, entry)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, entry Entry) {
	start := time.Now()
	err := j.persister.Append(ctx, entry)
	j.record(time.Since(start), err)
	if err != nil {
		j.logger.Error("failed to persist journal entry", "id", entry.ID, "error", err)
	}
}

func (j *Journal) record(latency time.Duration, err error) {
	if j.recorder != nil {
		j.recorder.RecordJournalWrite(latency, err)
	}
}

// Len returns the number of entries held in memory.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Recent returns up to limit newest entries, oldest first. limit <= 0 means all.
func (j *Journal) Recent(limit int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	n := len(j.entries)
	start := 0
	if limit > 0 && n > limit {
		start = n - limit
	}
	result := make([]Entry, 0, n-start)
	for i := start; i < n; i++ {
		result = append(result, j.at(i))
	}
	return result
}

// at returns the i-th oldest retained entry. Caller holds mu.
func (j *Journal) at(i int) Entry {
	return j.entries[(j.head+i)%len(j.entries)]
}

// ByType returns up to limit newest entries of the given type, oldest first.
func (j *Journal) ByType(t ActionType, limit int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []Entry
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.at(i)
		if e.Type != t {
			continue
		}
		result = append(result, e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	for l, r := 0, len(result)-1; l < r; l, r = l+1, r-1 {
		result[l], result[r] = result[r], result[l]
	}
	return result
}
