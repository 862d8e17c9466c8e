// Package engine exposes the practice engine's public surface: session
// generation, answer submission, skipping, and summaries. The core is
// single-threaded and synchronous; the only asynchronous boundary is
// persistence of memory-state updates, which never blocks the learner.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marat/lexdrill/internal/adaptive"
	"github.com/marat/lexdrill/internal/answercheck"
	"github.com/marat/lexdrill/internal/memory"
	"github.com/marat/lexdrill/internal/quiz"
	"github.com/marat/lexdrill/internal/session"
)

// Sentinel errors for the engine package.
var (
	ErrUnknownSession = errors.New("engine: unknown session handle")
	ErrNotCompleted   = errors.New("engine: session not completed")
)

// Catalog is the read-only item source.
type Catalog interface {
	FetchPool(ctx context.Context, unitID string) ([]quiz.Item, error)
}

// ProgressStore persists per-(student, item) memory states. Absence of a
// record means "never reviewed". Only bulk reads are needed: sessions load
// their whole pool up front.
type ProgressStore interface {
	LoadStates(ctx context.Context, studentID string, itemIDs []string) (map[string]memory.State, error)
	SaveState(ctx context.Context, studentID string, st memory.State) error
}

// SummaryStore records completed sessions; the stored difficulty seeds the
// student's next session.
type SummaryStore interface {
	SaveSummary(ctx context.Context, sum *session.Summary) error
	LastDifficulty(ctx context.Context, studentID string) (float64, bool, error)
}

// Config gathers the tunables of every engine component.
type Config struct {
	Memory    memory.Params      `mapstructure:"memory"`
	Checker   answercheck.Config `mapstructure:"checker"`
	Adaptive  adaptive.Config    `mapstructure:"adaptive"`
	Generator quiz.Config        `mapstructure:"generator"`

	// SessionSize is the default question-queue length.
	SessionSize int `mapstructure:"session_size"`

	Saver SaverConfig `mapstructure:"saver"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Memory:      memory.DefaultParams(),
		Checker:     answercheck.DefaultConfig(),
		Adaptive:    adaptive.DefaultConfig(),
		Generator:   quiz.DefaultConfig(),
		SessionSize: 10,
		Saver:       DefaultSaverConfig(),
	}
}

// AnswerOutcome reports the result of one submitted answer.
type AnswerOutcome struct {
	Correct bool
	Grade   memory.Grade
	State   memory.State
	NextDue time.Time
}

// sessionCtx is the engine-side state behind one session handle. It lives
// from GenerateSession until the session is summarized.
type sessionCtx struct {
	tracker *adaptive.Tracker
	states  map[string]memory.State
}

// Engine drives practice sessions over the external catalog and stores.
type Engine struct {
	catalog   Catalog
	progress  ProgressStore
	summaries SummaryStore
	cfg       Config
	model     *memory.Model
	gen       *quiz.Generator
	log       *logrus.Logger
	now       func() time.Time
	saver     *saver

	mu       sync.Mutex
	sessions map[string]*sessionCtx
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	now  func() time.Time
	log  *logrus.Logger
	seed int64
}

// WithClock injects the time source (tests pass a fixed clock).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger injects the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithSeed fixes the generator RNG seed for reproducible sessions.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// New wires an engine over its collaborators and starts the async saver.
func New(catalog Catalog, progress ProgressStore, summaries SummaryStore, cfg Config, opts ...Option) (*Engine, error) {
	o := options{
		now:  time.Now,
		log:  logrus.New(),
		seed: time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	model, err := memory.NewModel(cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("engine: memory params: %w", err)
	}
	if cfg.SessionSize <= 0 {
		cfg.SessionSize = DefaultConfig().SessionSize
	}

	e := &Engine{
		catalog:   catalog,
		progress:  progress,
		summaries: summaries,
		cfg:       cfg,
		model:     model,
		gen:       quiz.NewGenerator(model, cfg.Generator, o.seed),
		log:       o.log,
		now:       o.now,
		sessions:  make(map[string]*sessionCtx),
	}
	e.saver = newSaver(progress, cfg.Saver, o.log)
	return e, nil
}

// GenerateSession builds a session for a student over one unit's pool.
// size <= 0 uses the configured default. The opening adaptive difficulty
// comes from the student's last recorded session.
func (e *Engine) GenerateSession(ctx context.Context, studentID, unitID string, size int, mode quiz.Mode) (*session.Session, error) {
	if size <= 0 {
		size = e.cfg.SessionSize
	}
	if mode == "" {
		mode = quiz.ModeMixed
	}

	pool, err := e.catalog.FetchPool(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, quiz.ErrEmptyQueue
	}

	itemIDs := make([]string, len(pool))
	for i, it := range pool {
		itemIDs[i] = it.ID
	}
	states, err := e.progress.LoadStates(ctx, studentID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("engine: load states: %w", err)
	}

	opening := e.openingDifficulty(ctx, studentID)
	now := e.now()

	questions, err := e.gen.BuildSession(pool, states, size, opening, mode, now)
	if err != nil {
		return nil, err
	}

	sess := session.New(uuid.NewString(), studentID, unitID, questions, opening, now)

	e.mu.Lock()
	e.sessions[sess.ID] = &sessionCtx{
		tracker: adaptive.NewTracker(opening, e.cfg.Adaptive),
		states:  states,
	}
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"student": studentID,
		"unit":    unitID,
		"size":    len(questions),
	}).Debug("session generated")
	return sess, nil
}

// SubmitAnswer validates one answer, advances the item's memory state,
// queues the persistence write, and folds the outcome into the adaptive
// difficulty. A duplicate submission for an already-finalized index
// returns session.ErrAlreadyAnswered and changes nothing.
func (e *Engine) SubmitAnswer(ctx context.Context, sess *session.Session, idx int, rawAnswer string, timeSpentMs int64, hintUsed bool) (AnswerOutcome, error) {
	sc, err := e.lookup(sess)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if idx < 0 || idx >= len(sess.Questions) {
		return AnswerOutcome{}, fmt.Errorf("%w: %d of %d", session.ErrNoSuchQuestion, idx, len(sess.Questions))
	}
	q := &sess.Questions[idx]

	verdict := answercheck.Evaluate(q, answercheck.Input{
		Raw:         rawAnswer,
		TimeSpentMs: timeSpentMs,
		HintUsed:    hintUsed,
	}, e.cfg.Checker)

	// The finalize guard runs before any state mutation so duplicate calls
	// can never double-update the memory model.
	if err := sess.Finalize(idx, rawAnswer, verdict.Correct, timeSpentMs, hintUsed); err != nil {
		return AnswerOutcome{}, err
	}

	now := e.now()
	next := e.advanceMemory(sc, q.Item, verdict.Grade, now)
	e.saver.enqueue(sess.StudentID, next)

	sess.Difficulty = sc.tracker.Update(verdict.Grade, timeSpentMs, hintUsed)

	return AnswerOutcome{
		Correct: verdict.Correct,
		Grade:   verdict.Grade,
		State:   next,
		NextDue: next.Due,
	}, nil
}

// SkipCurrent gives the active question a terminal skipped outcome. The
// item's schedule is untouched; it simply stays due.
func (e *Engine) SkipCurrent(sess *session.Session) error {
	if _, err := e.lookup(sess); err != nil {
		return err
	}
	return sess.SkipCurrent()
}

// Abandon ends a session early. Already-finalized answers stay committed;
// the rest of the queue is discarded with no scheduling side effects.
func (e *Engine) Abandon(sess *session.Session) error {
	if _, err := e.lookup(sess); err != nil {
		return err
	}
	sess.Status = session.Completed
	return nil
}

// Summary reports a completed session. The first call records it (so the
// final difficulty seeds the next session) and releases the engine-side
// handle; the sessions map never grows with finished runs. Later calls
// rebuild the summary from the session value alone without re-recording.
func (e *Engine) Summary(ctx context.Context, sess *session.Session) (*session.Summary, error) {
	if sess == nil {
		return nil, ErrUnknownSession
	}

	completed := sess.Status == session.Completed
	e.mu.Lock()
	_, known := e.sessions[sess.ID]
	if known && completed {
		delete(e.sessions, sess.ID)
	}
	e.mu.Unlock()

	if !completed {
		if !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sess.ID)
		}
		return nil, ErrNotCompleted
	}

	sum := session.BuildSummary(sess, e.now())
	if known && e.summaries != nil {
		if err := e.summaries.SaveSummary(ctx, sum); err != nil {
			// Summaries are advisory; the session result stands.
			e.log.WithError(err).WithField("session", sess.ID).Warn("failed to record session summary")
		}
	}
	return sum, nil
}

// Failures exposes persistence writes that exhausted their retries, so a
// caller can warn the user that progress may not be saved.
func (e *Engine) Failures() <-chan SaveFailure {
	return e.saver.failures
}

// Close drains pending persistence writes and stops the saver.
func (e *Engine) Close() {
	e.saver.close()
}

// advanceMemory runs the memory model for one graded answer. A corrupted
// stored state is re-seeded from first-review defaults rather than
// refusing to schedule (a lost record is worse for the learner).
func (e *Engine) advanceMemory(sc *sessionCtx, item quiz.Item, grade memory.Grade, now time.Time) memory.State {
	e.mu.Lock()
	st, ok := sc.states[item.ID]
	e.mu.Unlock()
	if !ok {
		st = memory.NewState(item.ID, now)
	}

	next, err := e.model.Advance(st, grade, item.Category, now)
	if errors.Is(err, memory.ErrInvalidState) {
		e.log.WithFields(logrus.Fields{
			"item":       item.ID,
			"stability":  st.Stability,
			"difficulty": st.Difficulty,
		}).Warn("corrupted memory state, re-seeding from first review")
		next, err = e.model.Advance(memory.NewState(item.ID, now), grade, item.Category, now)
	}
	if err != nil {
		// Only invalid grades reach here, and grades come from the
		// validator's closed set.
		e.log.WithError(err).WithField("item", item.ID).Error("memory advance failed")
		return st
	}

	e.mu.Lock()
	sc.states[item.ID] = next
	e.mu.Unlock()
	return next
}

// openingDifficulty resolves the starting adaptive difficulty for a student.
func (e *Engine) openingDifficulty(ctx context.Context, studentID string) float64 {
	if e.summaries == nil {
		return e.cfg.Adaptive.Default
	}
	last, ok, err := e.summaries.LastDifficulty(ctx, studentID)
	if err != nil {
		e.log.WithError(err).WithField("student", studentID).Warn("failed to load last difficulty")
		return e.cfg.Adaptive.Default
	}
	if !ok {
		return e.cfg.Adaptive.Default
	}
	return last
}

func (e *Engine) lookup(sess *session.Session) (*sessionCtx, error) {
	if sess == nil {
		return nil, ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sc, ok := e.sessions[sess.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sess.ID)
	}
	return sc, nil
}
