// Package session owns the practice-session state machine. A Session is
// an explicit value held by the caller and passed into every engine call;
// there is no module-level mutable state.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/marat/lexdrill/internal/quiz"
)

// Sentinel errors for the session package.
var (
	ErrAlreadyAnswered = errors.New("session: question already finalized")
	ErrCompleted       = errors.New("session: session already completed")
	ErrNotStarted      = errors.New("session: session not started")
	ErrNoSuchQuestion  = errors.New("session: question index out of range")
)

// Status is the session lifecycle state.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Completed
)

var statusNames = [...]string{NotStarted: "not_started", InProgress: "in_progress", Completed: "completed"}

// String returns the snake_case status name.
func (s Status) String() string {
	if s >= NotStarted && s <= Completed {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Session is one practice run: an ordered question queue, a cursor, and
// running counters. It lives only for the duration of the run; only the
// derived memory-state updates and a summary outlive it.
type Session struct {
	ID        string
	StudentID string
	UnitID    string
	Questions []quiz.Question
	Pos       int
	Status    Status

	Correct     int
	Incorrect   int
	Skipped     int
	HintsUsed   int
	TotalTimeMs int64

	// Difficulty is the session's live adaptive-difficulty value.
	Difficulty float64

	StartedAt time.Time
}

// New creates a session over a prepared question queue.
func New(id, studentID, unitID string, questions []quiz.Question, difficulty float64, startedAt time.Time) *Session {
	return &Session{
		ID:         id,
		StudentID:  studentID,
		UnitID:     unitID,
		Questions:  questions,
		Status:     InProgress,
		Difficulty: difficulty,
		StartedAt:  startedAt,
	}
}

// Current returns the active question, or nil once the session completed.
func (s *Session) Current() *quiz.Question {
	if s.Status != InProgress || s.Pos >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Pos]
}

// Remaining returns the number of unfinalized questions.
func (s *Session) Remaining() int {
	if s.Pos >= len(s.Questions) {
		return 0
	}
	return len(s.Questions) - s.Pos
}

// Finalize writes the outcome of one question. It is idempotent-guarded:
// a second submission for the same index is rejected so duplicate calls
// can never double-count.
func (s *Session) Finalize(idx int, userAnswer string, correct bool, timeSpentMs int64, hintUsed bool) error {
	if err := s.checkIndex(idx); err != nil {
		return err
	}
	q := &s.Questions[idx]

	q.Answered = true
	q.UserAnswer = userAnswer
	q.Correct = correct
	q.TimeSpentMs = timeSpentMs
	if hintUsed {
		q.HintsUsed++
		s.HintsUsed++
	}

	if correct {
		s.Correct++
	} else {
		s.Incorrect++
	}
	s.TotalTimeMs += timeSpentMs

	s.advance(idx)
	return nil
}

// SkipCurrent marks the active question as skipped without validation.
// Skipping defers the item; it never touches its schedule.
func (s *Session) SkipCurrent() error {
	idx := s.Pos
	if err := s.checkIndex(idx); err != nil {
		return err
	}
	q := &s.Questions[idx]
	q.Answered = true
	q.Skipped = true
	s.Skipped++
	s.advance(idx)
	return nil
}

func (s *Session) checkIndex(idx int) error {
	switch s.Status {
	case NotStarted:
		return ErrNotStarted
	case Completed:
		return ErrCompleted
	}
	if idx < 0 || idx >= len(s.Questions) {
		return fmt.Errorf("%w: %d of %d", ErrNoSuchQuestion, idx, len(s.Questions))
	}
	if s.Questions[idx].Answered {
		return fmt.Errorf("%w: index %d", ErrAlreadyAnswered, idx)
	}
	return nil
}

// advance moves the cursor past finalized questions and completes the
// session when the queue is exhausted.
func (s *Session) advance(idx int) {
	if idx == s.Pos {
		for s.Pos < len(s.Questions) && s.Questions[s.Pos].Answered {
			s.Pos++
		}
	}
	if s.Pos == len(s.Questions) {
		s.Status = Completed
	}
}
