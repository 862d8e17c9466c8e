package memory

import (
	"fmt"
	"math"
	"time"
)

const hoursPerDay = 24.0

// Model converts (state, grade) pairs into new memory states. It is pure:
// the clock is always passed in, and a fixed input always yields the same
// output.
type Model struct {
	p      Params
	factor float64 // derived so that Interval(S, TargetRetention) == S days
}

// NewModel validates the parameter set and precomputes the curve factor.
func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	factor := math.Pow(p.TargetRetention, -1.0/p.Decay) - 1.0
	return &Model{p: p, factor: factor}, nil
}

// Retrievability computes R(t, S) = (1 + factor*t/S)^(-decay) for t elapsed
// days against stability S.
func (m *Model) Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+m.factor*elapsedDays/stability, -m.p.Decay)
}

// RetrievabilityAt returns the modeled recall probability for a state at
// the given moment. Never-reviewed items report 0 (nothing to retain yet).
func (m *Model) RetrievabilityAt(st State, now time.Time) float64 {
	if st.IsNew() {
		return 0
	}
	return m.Retrievability(st.ElapsedDays(now), st.Stability)
}

// Interval returns the delay after which predicted retrievability drops to
// the configured target, capped at MaxIntervalDays. The result is
// continuous, not rounded to whole days, so grade ordering carries through
// to due dates.
func (m *Model) Interval(stability float64) time.Duration {
	days := stability
	if days > m.p.MaxIntervalDays {
		days = m.p.MaxIntervalDays
	}
	return time.Duration(days * hoursPerDay * float64(time.Hour))
}

// Advance applies one graded answer to a memory state and returns the
// successor state. category selects first-review seeds (empty for the
// defaults). Skip returns the state unchanged: skipping defers an item
// within the session but never advances its schedule.
//
// A previously-reviewed state with stability <= 0 or difficulty outside
// its bounds is rejected with ErrInvalidState; callers recover by
// re-seeding from first-review defaults.
func (m *Model) Advance(st State, grade Grade, category string, now time.Time) (State, error) {
	if !grade.IsValid() {
		return State{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}
	if grade == Skip {
		return st, nil
	}
	if st.IsNew() {
		return m.firstReview(st, grade, category, now), nil
	}
	if st.Stability <= 0 {
		return State{}, fmt.Errorf("%w: stability %f", ErrInvalidState, st.Stability)
	}
	if st.Difficulty < MinDifficulty || st.Difficulty > MaxDifficulty {
		return State{}, fmt.Errorf("%w: difficulty %f", ErrInvalidState, st.Difficulty)
	}

	next := st
	next.Reps++
	next.LastReviewed = &now

	if grade == Again {
		next.Lapses++
		next.Stability = clampStability(st.Stability * m.p.Multiplier[Again])
		next.Difficulty = m.nextDifficulty(st.Difficulty, Again)
		next.Due = now.Add(m.p.RelearnInterval)
		return next, nil
	}

	next.Stability = clampStability(st.Stability * m.growth(grade, st.Difficulty))
	next.Difficulty = m.nextDifficulty(st.Difficulty, grade)
	next.Due = now.Add(m.Interval(next.Stability))
	return next, nil
}

// firstReview seeds stability and difficulty from the grade and category
// constants. The relearn interval applies when the very first exposure
// already failed.
func (m *Model) firstReview(st State, grade Grade, category string, now time.Time) State {
	init := m.p.initial(category)

	next := st
	next.Reps = 1
	next.LastReviewed = &now
	next.Stability = clampStability(init.Stability[grade])
	// Easier first impressions seed a lower difficulty estimate.
	next.Difficulty = clampDifficulty(init.Difficulty + m.p.DifficultyStep*float64(Good-grade))

	if grade == Again {
		next.Lapses = st.Lapses + 1
		next.Due = now.Add(m.p.RelearnInterval)
		return next
	}
	next.Due = now.Add(m.Interval(next.Stability))
	return next
}

// growth returns the stability multiplier for a successful grade,
// modulated by item difficulty: hard items gain less per success.
// At neutral difficulty the configured multiplier applies exactly.
func (m *Model) growth(grade Grade, difficulty float64) float64 {
	gain := (m.p.Multiplier[grade] - 1) * (MaxDifficulty + 1 - difficulty) / (MaxDifficulty + 1 - m.p.NeutralDifficulty)
	return 1 + gain
}

// nextDifficulty drifts the difficulty estimate per grade: Again steps
// toward the upper bound (damped so it cannot overshoot), Hard steps up
// slightly, Good mean-reverts toward neutral, Easy steps down.
func (m *Model) nextDifficulty(d float64, grade Grade) float64 {
	step := m.p.DifficultyStep
	switch grade {
	case Again:
		d += (MaxDifficulty - d) * step / (MaxDifficulty - MinDifficulty)
	case Hard:
		d += step / 2
	case Good:
		d += (m.p.NeutralDifficulty - d) * m.p.MeanReversion
	case Easy:
		d -= step
	}
	return clampDifficulty(d)
}

func clampStability(s float64) float64 {
	return math.Max(s, minStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, MinDifficulty), MaxDifficulty)
}
