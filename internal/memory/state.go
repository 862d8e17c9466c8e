package memory

import "time"

// State holds the per-item memory record for one student.
// It is mutated exclusively by Model.Advance; retrievability is derived,
// never stored. The field set is the round-trip contract for any storage
// adapter.
type State struct {
	ItemID       string     `json:"item_id"`
	Stability    float64    `json:"stability"`  // estimated days until recall decays to the target
	Difficulty   float64    `json:"difficulty"` // intrinsic hardness, [1, 10]
	Due          time.Time  `json:"due"`
	Reps         int        `json:"reps"`
	Lapses       int        `json:"lapses"`
	LastReviewed *time.Time `json:"last_reviewed"` // nil before first review
}

// NewState creates the record for an item the student has never seen.
// Due is set to now so the item is immediately eligible.
func NewState(itemID string, now time.Time) State {
	return State{
		ItemID: itemID,
		Due:    now,
	}
}

// IsNew reports whether the item has never been reviewed.
func (s State) IsNew() bool {
	return s.LastReviewed == nil
}

// IsDue reports whether the item is at or past its due date.
func (s State) IsDue(now time.Time) bool {
	return !now.Before(s.Due)
}

// ElapsedDays returns fractional days since the last review, or 0 for a
// never-reviewed item.
func (s State) ElapsedDays(now time.Time) float64 {
	if s.LastReviewed == nil {
		return 0
	}
	d := now.Sub(*s.LastReviewed).Hours() / 24.0
	if d < 0 {
		return 0
	}
	return d
}
