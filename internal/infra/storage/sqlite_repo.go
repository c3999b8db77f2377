package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MRamiBalles/brainclicker/internal/events"
)

var (
	_ JournalRepository = (*SQLiteJournalRepository)(nil)
	_ events.Persister  = (*SQLiteJournalRepository)(nil)
)

// journalRow is the table layout of one journal entry.
type journalRow struct {
	ID         string  `db:"id"`
	Seq        int64   `db:"seq"`
	TsUnixNano int64   `db:"ts_unix_nano"`
	ActionType string  `db:"action_type"`
	ActionJSON string  `db:"action_json"`
	Points     float64 `db:"points"`
	Level      int     `db:"level"`
	Insight    int     `db:"insight"`
}

func (r journalRow) entry() (events.Entry, error) {
	var a events.Action
	if err := json.Unmarshal([]byte(r.ActionJSON), &a); err != nil {
		return events.Entry{}, fmt.Errorf("decode action %s: %w", r.ID, err)
	}
	return events.Entry{
		ID:        r.ID,
		Seq:       uint64(r.Seq),
		Timestamp: time.Unix(0, r.TsUnixNano).UTC(),
		Type:      events.ActionType(r.ActionType),
		Action:    a,
		Points:    r.Points,
		Level:     r.Level,
		Insight:   r.Insight,
	}, nil
}

// SQLiteJournalRepository implements JournalRepository for SQLite.
type SQLiteJournalRepository struct {
	db *sqlx.DB
}

func NewSQLiteJournalRepository(db *sqlx.DB) *SQLiteJournalRepository {
	return &SQLiteJournalRepository{db: db}
}

func (r *SQLiteJournalRepository) Append(ctx context.Context, entry events.Entry) error {
	actionBytes, err := json.Marshal(entry.Action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	query := `
		INSERT INTO journal (id, seq, ts_unix_nano, action_type, action_json, points, level, insight)
		VALUES (:id, :seq, :ts_unix_nano, :action_type, :action_json, :points, :level, :insight)
	`
	_, err = r.db.NamedExecContext(ctx, query, journalRow{
		ID:         entry.ID,
		Seq:        int64(entry.Seq),
		TsUnixNano: entry.Timestamp.UnixNano(),
		ActionType: string(entry.Type),
		ActionJSON: string(actionBytes),
		Points:     entry.Points,
		Level:      entry.Level,
		Insight:    entry.Insight,
	})
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// getMany runs a newest-first query and returns the rows oldest first.
func (r *SQLiteJournalRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]events.Entry, error) {
	var rows []journalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	slices.Reverse(rows)

	entries := make([]events.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

const selectJournal = `SELECT id, seq, ts_unix_nano, action_type, action_json, points, level, insight FROM journal`

func (r *SQLiteJournalRepository) Recent(ctx context.Context, limit int) ([]events.Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return r.getMany(ctx, selectJournal+` ORDER BY row_id DESC LIMIT ?`, limit)
}

func (r *SQLiteJournalRepository) ByType(ctx context.Context, t events.ActionType, limit int) ([]events.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.getMany(ctx, selectJournal+` WHERE action_type = ? ORDER BY row_id DESC LIMIT ?`, string(t), limit)
}

func (r *SQLiteJournalRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM journal`)
	return n, err
}
