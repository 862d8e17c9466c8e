package answercheck

import (
	"testing"

	"github.com/marat/lexdrill/internal/memory"
	"github.com/marat/lexdrill/internal/quiz"
)

func typingQuestion(answer string) *quiz.Question {
	return &quiz.Question{Type: quiz.Typing, Answer: answer}
}

func TestEvaluate_TypedExact(t *testing.T) {
	cfg := DefaultConfig()
	q := typingQuestion("mosque")

	v := Evaluate(q, Input{Raw: "mosque", TimeSpentMs: 3000}, cfg)
	if !v.Correct || v.Grade != memory.Easy {
		t.Errorf("fast exact answer = (%v, %v), want (true, Easy)", v.Correct, v.Grade)
	}

	v = Evaluate(q, Input{Raw: "Mosque ", TimeSpentMs: 20000}, cfg)
	if !v.Correct || v.Grade != memory.Good {
		t.Errorf("slow exact answer = (%v, %v), want (true, Good)", v.Correct, v.Grade)
	}
}

func TestEvaluate_TypedFuzzy(t *testing.T) {
	cfg := DefaultConfig()
	q := typingQuestion("mosque")

	// One edit within floor(0.2 * 6) = 1 is tolerated.
	v := Evaluate(q, Input{Raw: "mosqe", TimeSpentMs: 3000}, cfg)
	if !v.Correct {
		t.Fatal("mosqe should be accepted for mosque")
	}
	if v.Grade != memory.Good {
		t.Errorf("fuzzy match grade = %v, want Good", v.Grade)
	}
	if v.Distance != 1 {
		t.Errorf("fuzzy match distance = %d, want 1", v.Distance)
	}

	v = Evaluate(q, Input{Raw: "moon"}, cfg)
	if v.Correct {
		t.Error("moon should be rejected for mosque")
	}
	if v.Grade != memory.Again {
		t.Errorf("wrong answer grade = %v, want Again", v.Grade)
	}
}

func TestEvaluate_FuzzyDisabledAndShortWords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TypoTolerance = false
	if v := Evaluate(typingQuestion("mosque"), Input{Raw: "mosqe"}, cfg); v.Correct {
		t.Error("fuzzy match should be rejected when tolerance is off")
	}

	// Short words must match exactly even with tolerance on.
	cfg = DefaultConfig()
	if v := Evaluate(typingQuestion("cat"), Input{Raw: "cot"}, cfg); v.Correct {
		t.Error("short word with a typo should be rejected")
	}
	if v := Evaluate(typingQuestion("cat"), Input{Raw: "cat"}, cfg); !v.Correct {
		t.Error("short word exact match should pass")
	}
}

func TestEvaluate_MultipleChoice(t *testing.T) {
	cfg := DefaultConfig()
	q := &quiz.Question{
		Type:    quiz.MultipleChoice,
		Answer:  "der Hund",
		Options: []string{"die Katze", "der Hund", "das Pferd", "die Maus"},
	}

	tests := []struct {
		raw  string
		want bool
	}{
		{"der Hund", true},
		{"DER HUND", true},
		{" der hund ", true},
		{"2", true}, // 1-based option index
		{"1", false},
		{"die Katze", false},
		{"5", false}, // out of range, treated as text
	}
	for _, tt := range tests {
		v := Evaluate(q, Input{Raw: tt.raw}, cfg)
		if v.Correct != tt.want {
			t.Errorf("choice %q correct = %v, want %v", tt.raw, v.Correct, tt.want)
		}
	}
}

func TestEvaluate_AudioSubstring(t *testing.T) {
	cfg := DefaultConfig()
	q := &quiz.Question{Type: quiz.AudioRecognition, Answer: "butterfly"}

	if v := Evaluate(q, Input{Raw: "the butterfly"}, cfg); !v.Correct {
		t.Error("answer containing the word should pass")
	}
	if v := Evaluate(q, Input{Raw: "butter"}, cfg); !v.Correct {
		t.Error("partial transcription contained in the word should pass")
	}
	if v := Evaluate(q, Input{Raw: "dragonfly"}, cfg); v.Correct {
		t.Error("unrelated word should fail")
	}
	if v := Evaluate(q, Input{Raw: "   "}, cfg); v.Correct {
		t.Error("blank answer should fail")
	}
}

func TestEvaluate_HintDowngradesGrade(t *testing.T) {
	cfg := DefaultConfig()
	q := typingQuestion("mosque")

	v := Evaluate(q, Input{Raw: "mosque", TimeSpentMs: 2000, HintUsed: true}, cfg)
	if !v.Correct || v.Grade != memory.Good {
		t.Errorf("hinted fast exact = (%v, %v), want (true, Good)", v.Correct, v.Grade)
	}

	v = Evaluate(q, Input{Raw: "mosque", TimeSpentMs: 20000, HintUsed: true}, cfg)
	if !v.Correct || v.Grade != memory.Hard {
		t.Errorf("hinted slow exact = (%v, %v), want (true, Hard)", v.Correct, v.Grade)
	}

	// A wrong answer is not downgraded further.
	v = Evaluate(q, Input{Raw: "moon", HintUsed: true}, cfg)
	if v.Correct || v.Grade != memory.Again {
		t.Errorf("hinted wrong answer = (%v, %v), want (false, Again)", v.Correct, v.Grade)
	}
}

func TestEvaluate_FillBlankUsesTypedRules(t *testing.T) {
	cfg := DefaultConfig()
	q := &quiz.Question{Type: quiz.FillBlank, Answer: "elephant"}

	if v := Evaluate(q, Input{Raw: "elephant", TimeSpentMs: 1000}, cfg); !v.Correct || v.Grade != memory.Easy {
		t.Errorf("fill blank exact = (%v, %v), want (true, Easy)", v.Correct, v.Grade)
	}
	if v := Evaluate(q, Input{Raw: "elephent"}, cfg); !v.Correct {
		t.Error("elephent should be within tolerance for elephant")
	}
}
