// Package adaptive maintains a rolling estimate of learner performance,
// exposed as a scalar in [0, 1] that biases future question selection
// toward recall-heavy or recognition-heavy types.
package adaptive

import "github.com/marat/lexdrill/internal/memory"

// Config holds adaptor tuning.
type Config struct {
	// Step is the exponential moving weight applied per answer. Large
	// enough that 2-3 consecutive strong answers visibly move the value;
	// small enough that one bad answer never resets it.
	Step float64 `mapstructure:"step"`

	// FastResponseMs is the latency under which a correct answer earns its
	// full upward pull; slower correct answers pull up proportionally less.
	FastResponseMs int64 `mapstructure:"fast_response_ms"`

	// Default is the opening value for a student with no history.
	Default float64 `mapstructure:"default"`
}

// DefaultConfig returns the adaptor defaults.
func DefaultConfig() Config {
	return Config{
		Step:           0.3,
		FastResponseMs: 8000,
		Default:        0.5,
	}
}

// Next folds one answer into the rolling estimate and returns the new
// value, clamped to [0, 1]. Skip leaves the estimate untouched. The update
// is an exponential move toward a per-answer target, so the estimate can
// approach but never lock onto either bound.
func Next(prev float64, grade memory.Grade, timeSpentMs int64, hintUsed bool, cfg Config) float64 {
	if grade == memory.Skip {
		return clamp(prev)
	}

	target := targetSignal(grade, timeSpentMs, cfg)
	if hintUsed && target > 0.3 {
		target = 0.3
	}

	next := prev + cfg.Step*(target-prev)
	return clamp(next)
}

// targetSignal maps one graded answer to a point estimate of performance.
// Latency matters independently of correctness: a correct-but-slow answer
// pulls up less than a correct-and-fast one.
func targetSignal(grade memory.Grade, timeSpentMs int64, cfg Config) float64 {
	switch grade {
	case memory.Easy:
		return 1.0
	case memory.Good:
		return 0.5 + 0.4*speedScore(timeSpentMs, cfg.FastResponseMs)
	case memory.Hard:
		return 0.35
	default: // Again
		return 0.0
	}
}

// speedScore maps latency to [0, 1]: full credit inside half the budget,
// linear falloff to zero at twice the budget.
func speedScore(timeSpentMs, budgetMs int64) float64 {
	if budgetMs <= 0 || timeSpentMs <= 0 {
		return 0.5
	}
	ratio := float64(timeSpentMs) / float64(budgetMs)
	switch {
	case ratio <= 0.5:
		return 1.0
	case ratio >= 2.0:
		return 0.0
	default:
		return 1.0 - (ratio-0.5)/1.5
	}
}

// Tracker carries the session-scoped estimate.
type Tracker struct {
	value float64
	cfg   Config
}

// NewTracker starts a tracker at the given opening value.
func NewTracker(opening float64, cfg Config) *Tracker {
	if cfg.Step <= 0 || cfg.Step >= 1 {
		cfg.Step = DefaultConfig().Step
	}
	return &Tracker{value: clamp(opening), cfg: cfg}
}

// Update folds one answer in and returns the new value.
func (t *Tracker) Update(grade memory.Grade, timeSpentMs int64, hintUsed bool) float64 {
	t.value = Next(t.value, grade, timeSpentMs, hintUsed, t.cfg)
	return t.value
}

// Value returns the current estimate.
func (t *Tracker) Value() float64 {
	return t.value
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
