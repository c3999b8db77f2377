package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/state"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

type memPersister struct {
	mu      sync.Mutex
	entries []Entry
	fail    bool
	written chan struct{}
}

func (m *memPersister) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if m.written != nil {
			m.written <- struct{}{}
		}
	}()
	if m.fail {
		return errors.New("disk full")
	}
	m.entries = append(m.entries, e)
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	writes int
	errors int
}

func (c *countingRecorder) RecordJournalWrite(_ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if err != nil {
		c.errors++
	}
}

func TestJournalRecordsSnapshotHeadlines(t *testing.T) {
	j := NewJournal(10, nil, logger.Nop())
	st := state.GameState{Points: 42, Level: 3, Insight: 2}

	e := j.Record(GeneratePoints(42), st)

	if e.ID == "" || e.Seq != 1 {
		t.Fatalf("entry not stamped: %+v", e)
	}
	if e.Type != ActionGeneratePoints || e.Action.Amount != 42 {
		t.Errorf("action not captured: %+v", e)
	}
	if e.Points != 42 || e.Level != 3 || e.Insight != 2 {
		t.Errorf("snapshot headlines not captured: %+v", e)
	}
}

func TestJournalDropsOldestBeyondCapacity(t *testing.T) {
	j := NewJournal(3, nil, logger.Nop())
	for i := 1; i <= 5; i++ {
		j.Record(GeneratePoints(float64(i)), state.GameState{})
	}

	if j.Len() != 3 {
		t.Fatalf("Len = %d, want 3", j.Len())
	}
	got := j.Recent(0)
	for i, want := range []uint64{3, 4, 5} {
		if got[i].Seq != want {
			t.Fatalf("Recent seqs = %v, want 3,4,5", got)
		}
	}

	last := j.Recent(2)
	if len(last) != 2 || last[0].Seq != 4 || last[1].Seq != 5 {
		t.Errorf("Recent(2) = %+v", last)
	}
}

func TestJournalByType(t *testing.T) {
	j := NewJournal(100, nil, logger.Nop())
	j.Record(IncrementClicks(), state.GameState{})
	j.Record(BuyUpgrade("click-1"), state.GameState{})
	j.Record(IncrementClicks(), state.GameState{})
	j.Record(BuyUpgrade("auto-1"), state.GameState{})
	j.Record(BuyUpgrade("auto-2"), state.GameState{})

	buys := j.ByType(ActionBuyUpgrade, 2)
	if len(buys) != 2 || buys[0].Action.ID != "auto-1" || buys[1].Action.ID != "auto-2" {
		t.Errorf("ByType(limit 2) = %+v", buys)
	}
	if all := j.ByType(ActionBuyUpgrade, 0); len(all) != 3 {
		t.Errorf("ByType(unlimited) returned %d entries, want 3", len(all))
	}
	if none := j.ByType(ActionRebirth, 0); len(none) != 0 {
		t.Errorf("expected no rebirth entries, got %d", len(none))
	}
}

func TestJournalWritesThroughPersister(t *testing.T) {
	p := &memPersister{written: make(chan struct{}, 8)}
	rec := &countingRecorder{}
	j := NewJournal(1, p, logger.Nop())
	j.SetRecorder(rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	j.Record(IncrementClicks(), state.GameState{})
	j.Record(AddXP(5), state.GameState{})
	for i := 0; i < 2; i++ {
		select {
		case <-p.written:
		case <-time.After(2 * time.Second):
			t.Fatal("persister was not called")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) != 2 || p.entries[0].Type != ActionIncrementClicks || p.entries[1].Type != ActionAddXP {
		t.Errorf("persisted entries out of order or missing: %+v", p.entries)
	}
	if j.Len() != 1 {
		t.Errorf("in-memory ring should still be bounded, Len = %d", j.Len())
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.writes != 2 || rec.errors != 0 {
		t.Errorf("recorder saw %d writes %d errors", rec.writes, rec.errors)
	}
}

func TestJournalPersistErrorsAreCounted(t *testing.T) {
	p := &memPersister{fail: true, written: make(chan struct{}, 1)}
	rec := &countingRecorder{}
	j := NewJournal(10, p, logger.Nop())
	j.SetRecorder(rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go j.Run(ctx)

	j.Record(Rebirth(), state.GameState{})
	select {
	case <-p.written:
	case <-time.After(2 * time.Second):
		t.Fatal("persister was not called")
	}

	// The recorder is updated right after Append returns.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec.mu.Lock()
		n := rec.errors
		rec.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("write error was not recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if j.Len() != 1 {
		t.Errorf("failed persistence must not drop the in-memory entry")
	}
}

func TestJournalCloseEndsRun(t *testing.T) {
	j := NewJournal(10, &memPersister{}, logger.Nop())
	done := make(chan error, 1)
	go func() { done <- j.Run(context.Background()) }()

	j.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrJournalClosed) {
			t.Errorf("Run after Close = %v, want ErrJournalClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	// Recording after Close keeps the in-memory copy.
	j.Record(IncrementClicks(), state.GameState{})
	if j.Len() != 1 {
		t.Errorf("Len = %d, want 1", j.Len())
	}
}

// ctxPersister fails writes made with a cancelled context, like a database driver.
type ctxPersister struct {
	mu      sync.Mutex
	entries []Entry
}

func (c *ctxPersister) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func TestJournalPersistsEveryEntryAfterCancel(t *testing.T) {
	p := &ctxPersister{}
	rec := &countingRecorder{}
	j := NewJournal(10, p, logger.Nop())
	j.SetRecorder(rec)

	const n = 200
	for i := 0; i < n; i++ {
		j.Record(GeneratePoints(float64(i)), state.GameState{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) != n {
		t.Fatalf("persisted %d of %d entries", len(p.entries), n)
	}
	for i, e := range p.entries {
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d has seq %d, want in-order", i, e.Seq)
		}
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.errors != 0 {
		t.Errorf("recorder saw %d write errors", rec.errors)
	}
}

func TestJournalRingKeepsOrderAcrossWraps(t *testing.T) {
	j := NewJournal(4, nil, logger.Nop())
	for i := 1; i <= 11; i++ {
		a := IncrementClicks()
		if i%2 == 0 {
			a = BuyUpgrade("click-1")
		}
		j.Record(a, state.GameState{})
	}

	if j.Len() != 4 {
		t.Fatalf("Len = %d, want 4", j.Len())
	}
	got := j.Recent(0)
	for i, want := range []uint64{8, 9, 10, 11} {
		if got[i].Seq != want {
			t.Fatalf("Recent seqs = %+v, want 8..11", got)
		}
	}
	if last := j.Recent(3); len(last) != 3 || last[0].Seq != 9 || last[2].Seq != 11 {
		t.Errorf("Recent(3) = %+v", last)
	}
	buys := j.ByType(ActionBuyUpgrade, 0)
	if len(buys) != 2 || buys[0].Seq != 8 || buys[1].Seq != 10 {
		t.Errorf("ByType after wrap = %+v", buys)
	}
}
