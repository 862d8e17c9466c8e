package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/marat/lexdrill/internal/memory"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, seed int64) *Generator {
	t.Helper()
	model, err := memory.NewModel(memory.DefaultParams())
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return NewGenerator(model, DefaultConfig(), seed)
}

func testPool() []Item {
	return []Item{
		{ID: "w1", Word: "Hund", Translations: []string{"dog"}, Category: "animals", AudioRef: "hund.mp3"},
		{ID: "w2", Word: "Katze", Translations: []string{"cat"}, Category: "animals"},
		{ID: "w3", Word: "Pferd", Translations: []string{"horse"}, Category: "animals"},
		{ID: "w4", Word: "Maus", Translations: []string{"mouse"}, Category: "animals"},
		{ID: "w5", Word: "Vogel", Translations: []string{"bird"}, Category: "animals"},
		{ID: "w6", Word: "laufen", Translations: []string{"to run"}, Category: "verbs"},
		{ID: "w7", Word: "essen", Translations: []string{"to eat"}, Category: "verbs"},
		{ID: "w8", Word: "rot", Translations: []string{"red"}, Category: "colors"},
	}
}

// reviewedDue builds a state that is past due with the given stability.
func reviewedDue(itemID string, stability float64, reviewedDaysAgo float64) memory.State {
	reviewed := testNow.Add(-time.Duration(reviewedDaysAgo * 24 * float64(time.Hour)))
	return memory.State{
		ItemID:       itemID,
		Stability:    stability,
		Difficulty:   5,
		Due:          testNow.Add(-time.Hour),
		Reps:         3,
		LastReviewed: &reviewed,
	}
}

func TestBuildSession_DueItemsComeFirstLeastRememberedFirst(t *testing.T) {
	g := newTestGenerator(t, 1)
	pool := testPool()

	// w2 is nearly forgotten, w3 moderately, w4 still strong. All due.
	states := map[string]memory.State{
		"w2": reviewedDue("w2", 0.5, 10),
		"w3": reviewedDue("w3", 5, 10),
		"w4": reviewedDue("w4", 200, 10),
	}

	qs, err := g.BuildSession(pool, states, 5, 0.5, ModeMixed, testNow)
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("got %d questions, want 5", len(qs))
	}

	wantOrder := []string{"w2", "w3", "w4"}
	for i, id := range wantOrder {
		if qs[i].Item.ID != id {
			t.Errorf("position %d = %s, want %s (ascending retrievability)", i, qs[i].Item.ID, id)
		}
	}

	// The remainder is padded with never-reviewed items.
	for _, q := range qs[3:] {
		if _, reviewed := states[q.Item.ID]; reviewed {
			t.Errorf("padding slot filled with reviewed item %s", q.Item.ID)
		}
	}
}

func TestBuildSession_TiesBreakOnItemID(t *testing.T) {
	g := newTestGenerator(t, 7)
	pool := testPool()
	states := map[string]memory.State{
		"w4": reviewedDue("w4", 3, 6),
		"w2": reviewedDue("w2", 3, 6),
		"w3": reviewedDue("w3", 3, 6),
	}

	qs, err := g.BuildSession(pool, states, 3, 0.5, ModeMixed, testNow)
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}
	for i, want := range []string{"w2", "w3", "w4"} {
		if qs[i].Item.ID != want {
			t.Errorf("position %d = %s, want %s", i, qs[i].Item.ID, want)
		}
	}
}

func TestBuildSession_EmptyQueue(t *testing.T) {
	g := newTestGenerator(t, 1)

	if _, err := g.BuildSession(nil, nil, 10, 0.5, ModeMixed, testNow); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("empty pool error = %v, want ErrEmptyQueue", err)
	}
	if _, err := g.BuildSession(testPool(), nil, 0, 0.5, ModeMixed, testNow); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("zero size error = %v, want ErrEmptyQueue", err)
	}

	// Everything reviewed, nothing due yet.
	states := make(map[string]memory.State)
	for _, it := range testPool() {
		st := reviewedDue(it.ID, 10, 1)
		st.Due = testNow.Add(48 * time.Hour)
		states[it.ID] = st
	}
	if _, err := g.BuildSession(testPool(), states, 10, 0.5, ModeMixed, testNow); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("nothing-due error = %v, want ErrEmptyQueue", err)
	}
}

func TestBuildSession_SmallerPoolThanSize(t *testing.T) {
	g := newTestGenerator(t, 1)
	pool := testPool()[:3]

	qs, err := g.BuildSession(pool, nil, 10, 0.5, ModeMixed, testNow)
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}
	if len(qs) != 3 {
		t.Errorf("got %d questions, want all 3 available", len(qs))
	}
}

func TestBuildSession_MultipleChoiceShape(t *testing.T) {
	g := newTestGenerator(t, 3)
	pool := testPool()

	// Difficulty 0 with recognition mode makes multiple choice overwhelming.
	qs, err := g.BuildSession(pool, nil, 8, 0, ModeRecognition, testNow)
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}

	checked := 0
	for _, q := range qs {
		if q.Type != MultipleChoice {
			continue
		}
		checked++
		if len(q.Options) != g.cfg.DistractorCount+1 {
			t.Errorf("%s: %d options, want %d", q.Item.ID, len(q.Options), g.cfg.DistractorCount+1)
		}
		found := false
		seen := map[string]bool{}
		for _, opt := range q.Options {
			if seen[opt] {
				t.Errorf("%s: duplicate option %q", q.Item.ID, opt)
			}
			seen[opt] = true
			if opt == q.Answer {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: correct answer %q missing from options", q.Item.ID, q.Answer)
		}
	}
	if checked == 0 {
		t.Fatal("no multiple-choice questions generated in recognition mode")
	}
}

func TestDistractors_PreferSameCategory(t *testing.T) {
	g := newTestGenerator(t, 11)
	pool := testPool()
	correct := pool[0] // animals, 4 other animal items available

	for i := 0; i < 20; i++ {
		opts := g.distractors(correct, pool)
		if len(opts) != g.cfg.DistractorCount {
			t.Fatalf("got %d distractors, want %d", len(opts), g.cfg.DistractorCount)
		}
		animalTexts := map[string]bool{"cat": true, "horse": true, "mouse": true, "bird": true}
		for _, o := range opts {
			if !animalTexts[o] {
				t.Errorf("distractor %q is not from the item's category", o)
			}
			if o == correct.Translation() {
				t.Errorf("correct answer leaked into distractors")
			}
		}
	}
}

func TestDistractors_FallBackToFullPool(t *testing.T) {
	g := newTestGenerator(t, 11)
	pool := testPool()
	correct := pool[7] // colors, no other color items

	opts := g.distractors(correct, pool)
	if len(opts) != g.cfg.DistractorCount {
		t.Fatalf("got %d distractors, want %d", len(opts), g.cfg.DistractorCount)
	}
	for _, o := range opts {
		if o == "red" {
			t.Error("correct answer appeared as a distractor")
		}
	}
}

func TestDrawType_AudioRequiresAudioRef(t *testing.T) {
	g := newTestGenerator(t, 5)
	noAudio := Item{ID: "x", Word: "Wort", Translations: []string{"word"}}

	for i := 0; i < 500; i++ {
		if qt := g.drawType(noAudio, 0.9, ModeRecall); qt == AudioRecognition {
			t.Fatal("audio question drawn for an item without audio")
		}
	}
}

func TestDrawType_DifficultyShiftsMix(t *testing.T) {
	g := newTestGenerator(t, 9)
	it := testPool()[0]

	count := func(difficulty float64) map[QuestionType]int {
		c := make(map[QuestionType]int)
		for i := 0; i < 1000; i++ {
			c[g.drawType(it, difficulty, ModeMixed)]++
		}
		return c
	}

	weak := count(0.0)
	strong := count(1.0)

	if weak[MultipleChoice] <= strong[MultipleChoice] {
		t.Errorf("multiple choice share should shrink with difficulty: weak %d, strong %d",
			weak[MultipleChoice], strong[MultipleChoice])
	}
	if weak[Typing] >= strong[Typing] {
		t.Errorf("typing share should grow with difficulty: weak %d, strong %d",
			weak[Typing], strong[Typing])
	}
}

func TestBuildSession_DeterministicUnderSeed(t *testing.T) {
	pool := testPool()
	run := func() []Question {
		g := newTestGenerator(t, 42)
		qs, err := g.BuildSession(pool, nil, 8, 0.5, ModeMixed, testNow)
		if err != nil {
			t.Fatalf("BuildSession: %v", err)
		}
		return qs
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Item.ID != b[i].Item.ID || a[i].Type != b[i].Type {
			t.Errorf("question %d differs: (%s, %v) vs (%s, %v)",
				i, a[i].Item.ID, a[i].Type, b[i].Item.ID, b[i].Type)
		}
		if len(a[i].Options) != len(b[i].Options) {
			t.Errorf("question %d option counts differ", i)
			continue
		}
		for j := range a[i].Options {
			if a[i].Options[j] != b[i].Options[j] {
				t.Errorf("question %d option %d differs: %q vs %q",
					i, j, a[i].Options[j], b[i].Options[j])
			}
		}
	}
}

func TestMaskWord(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cat", "c_t"},
		{"mosque", "m____e"},
		{"is", "is"},
		{"a", "a"},
		{"", ""},
		{"schön", "s___n"},
	}
	for _, tt := range tests {
		if got := maskWord(tt.in); got != tt.want {
			t.Errorf("maskWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
