package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/marat/lexdrill/internal/memory"
)

// ProgressRepo persists per-(student, item) memory states. It implements
// the engine's ProgressStore interface.
type ProgressRepo struct {
	db *sqlx.DB
}

type stateRow struct {
	StudentID    string         `db:"student_id"`
	ItemID       string         `db:"item_id"`
	Stability    float64        `db:"stability"`
	Difficulty   float64        `db:"difficulty"`
	Due          string         `db:"due"`
	Reps         int            `db:"reps"`
	Lapses       int            `db:"lapses"`
	LastReviewed sql.NullString `db:"last_reviewed"`
	UpdatedAt    string         `db:"updated_at"`
}

func (r stateRow) toState() (memory.State, error) {
	due, err := time.Parse(time.RFC3339Nano, r.Due)
	if err != nil {
		return memory.State{}, fmt.Errorf("parse due for %s: %w", r.ItemID, err)
	}
	st := memory.State{
		ItemID:     r.ItemID,
		Stability:  r.Stability,
		Difficulty: r.Difficulty,
		Due:        due,
		Reps:       r.Reps,
		Lapses:     r.Lapses,
	}
	if r.LastReviewed.Valid {
		lr, err := time.Parse(time.RFC3339Nano, r.LastReviewed.String)
		if err != nil {
			return memory.State{}, fmt.Errorf("parse last_reviewed for %s: %w", r.ItemID, err)
		}
		st.LastReviewed = &lr
	}
	return st, nil
}

// timeLayout is fixed-width: RFC3339Nano trims trailing fraction zeros,
// which breaks lexicographic ordering for times within the same second
// ("...00Z" sorts after "...00.5Z"). The last-write-wins upsert compares
// these strings as text, so every digit must always be present.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// LoadState returns one student's state for an item, or nil when the item
// has never been reviewed.
func (r *ProgressRepo) LoadState(ctx context.Context, studentID, itemID string) (*memory.State, error) {
	var row stateRow
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM memory_states WHERE student_id = ? AND item_id = ?`, studentID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	st, err := row.toState()
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// LoadStates bulk-loads states for a set of items. Items without a record
// are simply absent from the result.
func (r *ProgressRepo) LoadStates(ctx context.Context, studentID string, itemIDs []string) (map[string]memory.State, error) {
	states := make(map[string]memory.State, len(itemIDs))
	if len(itemIDs) == 0 {
		return states, nil
	}

	query, args, err := sqlx.In(
		`SELECT * FROM memory_states WHERE student_id = ? AND item_id IN (?)`, studentID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []stateRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load states: %w", err)
	}
	for _, row := range rows {
		st, err := row.toState()
		if err != nil {
			return nil, err
		}
		states[st.ItemID] = st
	}
	return states, nil
}

// SaveState upserts a memory state with last-write-wins on recency: a
// record older (by last_reviewed) than the stored one is dropped, so a
// stale state from another device can never re-expose an item that was
// already reinforced.
func (r *ProgressRepo) SaveState(ctx context.Context, studentID string, st memory.State) error {
	var lastReviewed any
	if st.LastReviewed != nil {
		lastReviewed = formatTime(*st.LastReviewed)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memory_states
			(student_id, item_id, stability, difficulty, due, reps, lapses, last_reviewed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, item_id) DO UPDATE SET
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			due = excluded.due,
			reps = excluded.reps,
			lapses = excluded.lapses,
			last_reviewed = excluded.last_reviewed,
			updated_at = excluded.updated_at
		WHERE memory_states.last_reviewed IS NULL
			OR (excluded.last_reviewed IS NOT NULL
				AND excluded.last_reviewed >= memory_states.last_reviewed)`,
		studentID, st.ItemID, st.Stability, st.Difficulty, formatTime(st.Due),
		st.Reps, st.Lapses, lastReviewed, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save state for %s: %w", st.ItemID, err)
	}
	return nil
}

// CountDue returns how many of a student's reviewed items are due.
func (r *ProgressRepo) CountDue(ctx context.Context, studentID string, now time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM memory_states WHERE student_id = ? AND due <= ?`,
		studentID, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("count due: %w", err)
	}
	return n, nil
}

// CountReviewed returns how many items a student has reviewed at least once.
func (r *ProgressRepo) CountReviewed(ctx context.Context, studentID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM memory_states WHERE student_id = ? AND last_reviewed IS NOT NULL`,
		studentID)
	if err != nil {
		return 0, fmt.Errorf("count reviewed: %w", err)
	}
	return n, nil
}

// DeleteStudent wipes all of a student's progress records.
func (r *ProgressRepo) DeleteStudent(ctx context.Context, studentID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM memory_states WHERE student_id = ?`, studentID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM session_summaries WHERE student_id = ?`, studentID); err != nil {
		return fmt.Errorf("delete summaries: %w", err)
	}
	return nil
}
