package session

import (
	"time"

	"github.com/samber/lo"

	"github.com/marat/lexdrill/internal/quiz"
)

// Summary holds the data reported when a session completes. The final
// difficulty informs the opening value of the student's next session.
type Summary struct {
	SessionID  string
	StudentID  string
	UnitID     string
	StartedAt  time.Time
	Duration   time.Duration
	Total      int
	Correct    int
	Incorrect  int
	Skipped    int
	HintsUsed  int
	Accuracy   float64
	Difficulty float64

	// ByCategory breaks correct/attempted down per item category.
	ByCategory map[string]CategoryResult
}

// CategoryResult is the per-category slice of a summary.
type CategoryResult struct {
	Attempted int
	Correct   int
}

// BuildSummary derives the summary from a session. Skipped questions do
// not count toward accuracy.
func BuildSummary(s *Session, now time.Time) *Summary {
	answered := s.Correct + s.Incorrect
	var accuracy float64
	if answered > 0 {
		accuracy = float64(s.Correct) / float64(answered)
	}

	byCategory := make(map[string]CategoryResult)
	for _, cat := range lo.Uniq(lo.Map(s.Questions, func(q quiz.Question, _ int) string { return q.Item.Category })) {
		byCategory[cat] = CategoryResult{}
	}
	for _, q := range s.Questions {
		if !q.Answered || q.Skipped {
			continue
		}
		cr := byCategory[q.Item.Category]
		cr.Attempted++
		if q.Correct {
			cr.Correct++
		}
		byCategory[q.Item.Category] = cr
	}

	return &Summary{
		SessionID:  s.ID,
		StudentID:  s.StudentID,
		UnitID:     s.UnitID,
		StartedAt:  s.StartedAt,
		Duration:   now.Sub(s.StartedAt),
		Total:      len(s.Questions),
		Correct:    s.Correct,
		Incorrect:  s.Incorrect,
		Skipped:    s.Skipped,
		HintsUsed:  s.HintsUsed,
		Accuracy:   accuracy,
		Difficulty: s.Difficulty,
		ByCategory: byCategory,
	}
}
