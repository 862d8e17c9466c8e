package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/marat/lexdrill/internal/memory"
)

// ErrEmptyQueue reports that no eligible items were available for a session.
var ErrEmptyQueue = errors.New("quiz: no eligible items")

// Mode biases question-type selection for a whole session.
type Mode string

const (
	ModeMixed       Mode = "mixed"
	ModeRecognition Mode = "recognition" // favor multiple choice
	ModeRecall      Mode = "recall"      // favor typing and audio
)

// typeWeight interpolates a selection weight from the adaptive difficulty:
// weight = base + slope*difficulty. Negative slopes fade a type out as the
// learner gets stronger.
type typeWeight struct {
	base  float64
	slope float64
}

// Config holds generator tuning.
type Config struct {
	// DistractorCount is the number of wrong options per multiple-choice
	// question (total options = DistractorCount + 1).
	DistractorCount int `mapstructure:"distractor_count"`
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{DistractorCount: 3}
}

// Generator builds session question queues from an item pool. The RNG is
// injected so sessions are reproducible under a fixed seed.
type Generator struct {
	model *memory.Model
	cfg   Config
	rng   *rand.Rand
}

// NewGenerator creates a generator around a memory model.
func NewGenerator(model *memory.Model, cfg Config, seed int64) *Generator {
	if cfg.DistractorCount <= 0 {
		cfg.DistractorCount = DefaultConfig().DistractorCount
	}
	return &Generator{
		model: model,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// BuildSession selects up to size items and renders one question each.
// Due items come first, least-remembered first (ascending retrievability),
// then never-reviewed items pad the remainder. Question types are a
// weighted draw biased by adaptiveDifficulty and mode.
func (g *Generator) BuildSession(pool []Item, states map[string]memory.State, size int, adaptiveDifficulty float64, mode Mode, now time.Time) ([]Question, error) {
	if len(pool) == 0 || size <= 0 {
		return nil, ErrEmptyQueue
	}

	selected := g.selectItems(pool, states, size, now)
	if len(selected) == 0 {
		return nil, ErrEmptyQueue
	}

	questions := make([]Question, 0, len(selected))
	for _, it := range selected {
		questions = append(questions, g.buildQuestion(it, pool, adaptiveDifficulty, mode))
	}
	return questions, nil
}

// selectItems orders the pool per the scheduling policy and truncates to size.
func (g *Generator) selectItems(pool []Item, states map[string]memory.State, size int, now time.Time) []Item {
	type rankedItem struct {
		item Item
		r    float64
	}
	var due []rankedItem
	var fresh []Item

	for _, it := range pool {
		st, ok := states[it.ID]
		if !ok || st.IsNew() {
			fresh = append(fresh, it)
			continue
		}
		if st.IsDue(now) {
			due = append(due, rankedItem{item: it, r: g.model.RetrievabilityAt(st, now)})
		}
	}

	// Most at-risk first; item ID breaks ties deterministically.
	sort.Slice(due, func(i, j int) bool {
		if due[i].r != due[j].r {
			return due[i].r < due[j].r
		}
		return due[i].item.ID < due[j].item.ID
	})

	selected := make([]Item, 0, size)
	for _, d := range due {
		if len(selected) == size {
			return selected
		}
		selected = append(selected, d.item)
	}

	g.rng.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	for _, it := range fresh {
		if len(selected) == size {
			break
		}
		selected = append(selected, it)
	}
	return selected
}

// buildQuestion renders one question for an item, drawing its type.
func (g *Generator) buildQuestion(it Item, pool []Item, difficulty float64, mode Mode) Question {
	switch g.drawType(it, difficulty, mode) {
	case Typing:
		return Question{
			Item:   it,
			Type:   Typing,
			Prompt: fmt.Sprintf("Translate %q", it.Word),
			Answer: it.Translation(),
		}
	case FillBlank:
		return Question{
			Item:   it,
			Type:   FillBlank,
			Prompt: fmt.Sprintf("Complete the word: %s (%s)", maskWord(it.Word), it.Definition),
			Answer: it.Word,
		}
	case AudioRecognition:
		return Question{
			Item:   it,
			Type:   AudioRecognition,
			Prompt: "Listen and type the word you hear",
			Answer: it.Word,
		}
	default:
		answer := it.Translation()
		options := append(g.distractors(it, pool), answer)
		g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		return Question{
			Item:    it,
			Type:    MultipleChoice,
			Prompt:  fmt.Sprintf("What does %q mean?", it.Word),
			Options: options,
			Answer:  answer,
		}
	}
}

// typeWeights holds the per-type interpolation anchors. Recognition-heavy
// types fade as adaptive difficulty rises; recall-heavy types grow.
var typeWeights = map[QuestionType]typeWeight{
	MultipleChoice:   {base: 1.0, slope: -0.8},
	Typing:           {base: 0.3, slope: 0.9},
	FillBlank:        {base: 0.3, slope: 0.4},
	AudioRecognition: {base: 0.1, slope: 0.7},
}

// modeScale multiplies type weights per session mode.
var modeScale = map[Mode]map[QuestionType]float64{
	ModeRecognition: {MultipleChoice: 2.0, Typing: 0.5, FillBlank: 0.8, AudioRecognition: 0.5},
	ModeRecall:      {MultipleChoice: 0.4, Typing: 1.8, FillBlank: 1.2, AudioRecognition: 1.5},
}

// drawType makes a weighted random choice over the question types.
// The weighting is continuous in difficulty so consecutive sessions never
// snap between modes.
func (g *Generator) drawType(it Item, difficulty float64, mode Mode) QuestionType {
	types := []QuestionType{MultipleChoice, Typing, FillBlank, AudioRecognition}
	weights := make([]float64, len(types))
	total := 0.0
	for i, qt := range types {
		if qt == AudioRecognition && !it.HasAudio() {
			continue
		}
		tw := typeWeights[qt]
		w := tw.base + tw.slope*difficulty
		if scale, ok := modeScale[mode]; ok {
			w *= scale[qt]
		}
		if w < 0.05 {
			w = 0.05 // every type keeps a residual chance
		}
		weights[i] = w
		total += w
	}

	roll := g.rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 && w > 0 {
			return types[i]
		}
	}
	return MultipleChoice
}

// distractors picks wrong options for a multiple-choice question, preferring
// translations from the item's own category and falling back to the full
// pool when the category is too small.
func (g *Generator) distractors(correct Item, pool []Item) []string {
	sameCategory := lo.Filter(pool, func(it Item, _ int) bool {
		return it.Category == correct.Category && it.ID != correct.ID
	})

	candidates := g.candidateTexts(sameCategory, correct)
	if len(candidates) < g.cfg.DistractorCount {
		rest := lo.Filter(pool, func(it Item, _ int) bool {
			return it.Category != correct.Category && it.ID != correct.ID
		})
		candidates = append(candidates, g.candidateTexts(rest, correct)...)
		candidates = lo.Uniq(candidates)
	}

	g.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > g.cfg.DistractorCount {
		candidates = candidates[:g.cfg.DistractorCount]
	}
	return candidates
}

// candidateTexts collects distinct translations that do not collide with
// the correct answer.
func (g *Generator) candidateTexts(items []Item, correct Item) []string {
	answer := strings.ToLower(strings.TrimSpace(correct.Translation()))
	texts := lo.FilterMap(items, func(it Item, _ int) (string, bool) {
		tr := it.Translation()
		if tr == "" || strings.ToLower(strings.TrimSpace(tr)) == answer {
			return "", false
		}
		return tr, true
	})
	return lo.Uniq(texts)
}

// maskWord blanks the interior of a word, keeping the first and last rune.
// Works on runes so non-Latin scripts mask cleanly.
func maskWord(w string) string {
	runes := []rune(w)
	if len(runes) <= 2 {
		return w
	}
	for i := 1; i < len(runes)-1; i++ {
		runes[i] = '_'
	}
	return string(runes)
}
