package quiz

import (
	"encoding"
	"fmt"
)

// QuestionType describes how the learner answers a question.
type QuestionType int

const (
	MultipleChoice   QuestionType = iota + 1 // pick one of four options
	Typing                                   // type the translation
	FillBlank                                // complete the masked word
	AudioRecognition                         // type what was heard
)

var (
	questionTypeNames = [...]string{
		MultipleChoice:   "multiple_choice",
		Typing:           "typing",
		FillBlank:        "fill_blank",
		AudioRecognition: "audio_recognition",
	}

	questionTypeByName = map[string]QuestionType{
		"multiple_choice":   MultipleChoice,
		"typing":            Typing,
		"fill_blank":        FillBlank,
		"audio_recognition": AudioRecognition,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = QuestionType(0)
	_ encoding.TextMarshaler   = QuestionType(0)
	_ encoding.TextUnmarshaler = (*QuestionType)(nil)
)

func (qt QuestionType) isValid() bool {
	return qt >= MultipleChoice && qt <= AudioRecognition
}

// String returns the snake_case name of the question type.
func (qt QuestionType) String() string {
	if qt.isValid() {
		return questionTypeNames[qt]
	}
	return fmt.Sprintf("QuestionType(%d)", int(qt))
}

// MarshalText implements encoding.TextMarshaler.
func (qt QuestionType) MarshalText() ([]byte, error) {
	if !qt.isValid() {
		return nil, fmt.Errorf("quiz: invalid question type: %d", int(qt))
	}
	return []byte(questionTypeNames[qt]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (qt *QuestionType) UnmarshalText(text []byte) error {
	v, ok := questionTypeByName[string(text)]
	if !ok {
		return fmt.Errorf("quiz: invalid question type: %q", text)
	}
	*qt = v
	return nil
}

// Question is a transient practice question. The generator fills the
// pre-answer fields; the session orchestrator finalizes the rest.
type Question struct {
	Item   Item
	Type   QuestionType
	Prompt string
	// Options holds the shuffled choice texts for multiple choice,
	// nil for other types.
	Options []string
	// Answer is the canonical correct answer.
	Answer string

	// Post-answer fields, written once when the question is finalized.
	UserAnswer  string
	Correct     bool
	TimeSpentMs int64
	HintsUsed   int
	Answered    bool
	Skipped     bool
}
