package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/marat/lexdrill/internal/session"
)

// SummaryRepo records completed sessions. It implements the engine's
// SummaryStore interface.
type SummaryRepo struct {
	db *sqlx.DB
}

type summaryRow struct {
	ID         string  `db:"id"`
	StudentID  string  `db:"student_id"`
	UnitID     string  `db:"unit_id"`
	StartedAt  string  `db:"started_at"`
	DurationMs int64   `db:"duration_ms"`
	Total      int     `db:"total"`
	Correct    int     `db:"correct"`
	Incorrect  int     `db:"incorrect"`
	Skipped    int     `db:"skipped"`
	HintsUsed  int     `db:"hints_used"`
	Accuracy   float64 `db:"accuracy"`
	Difficulty float64 `db:"difficulty"`
}

// SaveSummary stores one completed session.
func (r *SummaryRepo) SaveSummary(ctx context.Context, sum *session.Summary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_summaries
			(id, student_id, unit_id, started_at, duration_ms, total, correct,
			 incorrect, skipped, hints_used, accuracy, difficulty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		sum.SessionID, sum.StudentID, sum.UnitID, formatTime(sum.StartedAt),
		sum.Duration.Milliseconds(), sum.Total, sum.Correct, sum.Incorrect,
		sum.Skipped, sum.HintsUsed, sum.Accuracy, sum.Difficulty)
	if err != nil {
		return fmt.Errorf("save summary %s: %w", sum.SessionID, err)
	}
	return nil
}

// LastDifficulty returns the adaptive difficulty of the student's most
// recent session. The second return is false when no session exists yet.
func (r *SummaryRepo) LastDifficulty(ctx context.Context, studentID string) (float64, bool, error) {
	var d float64
	err := r.db.GetContext(ctx, &d, `
		SELECT difficulty FROM session_summaries
		WHERE student_id = ?
		ORDER BY started_at DESC LIMIT 1`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("last difficulty: %w", err)
	}
	return d, true, nil
}

// Recent returns the student's latest sessions, newest first.
func (r *SummaryRepo) Recent(ctx context.Context, studentID string, limit int) ([]session.Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []summaryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM session_summaries
		WHERE student_id = ?
		ORDER BY started_at DESC LIMIT ?`, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent summaries: %w", err)
	}

	out := make([]session.Summary, 0, len(rows))
	for _, row := range rows {
		startedAt, err := time.Parse(time.RFC3339Nano, row.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for %s: %w", row.ID, err)
		}
		out = append(out, session.Summary{
			SessionID:  row.ID,
			StudentID:  row.StudentID,
			UnitID:     row.UnitID,
			StartedAt:  startedAt,
			Duration:   time.Duration(row.DurationMs) * time.Millisecond,
			Total:      row.Total,
			Correct:    row.Correct,
			Incorrect:  row.Incorrect,
			Skipped:    row.Skipped,
			HintsUsed:  row.HintsUsed,
			Accuracy:   row.Accuracy,
			Difficulty: row.Difficulty,
		})
	}
	return out, nil
}
