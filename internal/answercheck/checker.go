package answercheck

import (
	"strconv"
	"strings"

	"github.com/marat/lexdrill/internal/memory"
	"github.com/marat/lexdrill/internal/quiz"
)

// Config holds validator tuning.
type Config struct {
	// TypoTolerance enables fuzzy matching for typed answers (e.g. for a
	// younger learner profile).
	TypoTolerance bool `mapstructure:"typo_tolerance"`

	// ToleranceRatio scales the accepted edit distance: a typed answer is
	// accepted when distance <= floor(ratio * len(correct)).
	ToleranceRatio float64 `mapstructure:"tolerance_ratio"`

	// MinFuzzyLen is the minimum answer length for fuzzy matching;
	// short words must match exactly.
	MinFuzzyLen int `mapstructure:"min_fuzzy_len"`

	// FastResponseMs is the latency budget under which a perfect typed
	// answer earns Easy.
	FastResponseMs int64 `mapstructure:"fast_response_ms"`
}

// DefaultConfig returns the validator defaults.
func DefaultConfig() Config {
	return Config{
		TypoTolerance:  true,
		ToleranceRatio: 0.2,
		MinFuzzyLen:    4,
		FastResponseMs: 8000,
	}
}

// Input carries one raw answer plus the context needed to derive a grade.
type Input struct {
	Raw         string
	TimeSpentMs int64
	HintUsed    bool
}

// Verdict is the validation result: the correctness signal and the grade
// hint handed to the memory model.
type Verdict struct {
	Correct  bool
	Grade    memory.Grade
	Distance int // edit distance for typed answers, 0 otherwise
}

// Evaluate turns a raw response into a correctness signal and a derived
// grade according to the question type's matching rules.
func Evaluate(q *quiz.Question, in Input, cfg Config) Verdict {
	var v Verdict
	switch q.Type {
	case quiz.MultipleChoice:
		v = checkChoice(q, in.Raw)
	case quiz.Typing, quiz.FillBlank:
		v = checkTyped(q, in, cfg)
	case quiz.AudioRecognition:
		v = checkAudio(q, in.Raw)
	default:
		return Verdict{Correct: false, Grade: memory.Again}
	}

	if v.Correct && in.HintUsed {
		v.Grade = downgrade(v.Grade)
	}
	return v
}

// checkChoice matches a selected option exactly (case-insensitive,
// trimmed). A 1-based option index is accepted in place of the text.
func checkChoice(q *quiz.Question, raw string) Verdict {
	raw = strings.TrimSpace(raw)
	correct := strings.TrimSpace(q.Answer)

	if idx, err := strconv.Atoi(raw); err == nil && idx >= 1 && idx <= len(q.Options) {
		raw = q.Options[idx-1]
	}
	if strings.EqualFold(strings.TrimSpace(raw), correct) {
		return Verdict{Correct: true, Grade: memory.Good}
	}
	return Verdict{Correct: false, Grade: memory.Again}
}

// checkTyped matches a typed answer, tolerating small typos on longer
// words when enabled.
func checkTyped(q *quiz.Question, in Input, cfg Config) Verdict {
	got := normalize(in.Raw)
	want := normalize(q.Answer)

	if got == want {
		grade := memory.Good
		if in.TimeSpentMs > 0 && in.TimeSpentMs <= cfg.FastResponseMs {
			grade = memory.Easy
		}
		return Verdict{Correct: true, Grade: grade}
	}

	wantLen := len([]rune(want))
	if !cfg.TypoTolerance || wantLen < cfg.MinFuzzyLen || len([]rune(got)) < cfg.MinFuzzyLen {
		return Verdict{Correct: false, Grade: memory.Again}
	}

	dist := Levenshtein(got, want)
	if dist <= int(cfg.ToleranceRatio*float64(wantLen)) {
		// Matched with tolerated edits: correct, but not effortless.
		return Verdict{Correct: true, Grade: memory.Good, Distance: dist}
	}
	return Verdict{Correct: false, Grade: memory.Again, Distance: dist}
}

// checkAudio accepts when either normalized string contains the other.
// Deliberately lenient: transcribing audio is noisy.
func checkAudio(q *quiz.Question, raw string) Verdict {
	got := normalize(raw)
	want := normalize(q.Answer)
	if got == "" || want == "" {
		return Verdict{Correct: false, Grade: memory.Again}
	}
	if strings.Contains(got, want) || strings.Contains(want, got) {
		return Verdict{Correct: true, Grade: memory.Good}
	}
	return Verdict{Correct: false, Grade: memory.Again}
}

// downgrade steps a grade down one level for hint usage, never below Hard
// while the raw match was still correct.
func downgrade(g memory.Grade) memory.Grade {
	switch g {
	case memory.Easy:
		return memory.Good
	case memory.Good:
		return memory.Hard
	default:
		return memory.Hard
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
