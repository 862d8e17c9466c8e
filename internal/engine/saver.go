package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/marat/lexdrill/internal/memory"
)

// SaverConfig tunes the asynchronous persistence boundary.
type SaverConfig struct {
	// QueueSize is the buffered write queue length. A full queue falls
	// back to a synchronous write rather than dropping the update.
	QueueSize int `mapstructure:"queue_size"`

	// Retries is the number of attempts per write.
	Retries int `mapstructure:"retries"`

	// Backoff is the initial retry delay; it doubles per attempt.
	Backoff time.Duration `mapstructure:"backoff"`

	// WriteTimeout bounds a single store call.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// BreakerFailures is the consecutive-failure count that trips the
	// circuit breaker on the progress store.
	BreakerFailures uint32 `mapstructure:"breaker_failures"`
}

// DefaultSaverConfig returns the saver defaults.
func DefaultSaverConfig() SaverConfig {
	return SaverConfig{
		QueueSize:       64,
		Retries:         3,
		Backoff:         100 * time.Millisecond,
		WriteTimeout:    5 * time.Second,
		BreakerFailures: 5,
	}
}

// SaveFailure reports a memory-state write that exhausted its retries.
// The in-memory session has already moved on; the caller can only warn
// the user that this item's progress may not be saved.
type SaveFailure struct {
	StudentID string
	ItemID    string
	Err       error
}

type saveRequest struct {
	studentID string
	state     memory.State
}

// saver is the fire-and-forget-with-retry writer behind SubmitAnswer.
// Each write is scoped to a single item id, so writes are independent and
// need no ordering between items.
type saver struct {
	store    ProgressStore
	cfg      SaverConfig
	cb       *gobreaker.CircuitBreaker
	log      *logrus.Logger
	ch       chan saveRequest
	failures chan SaveFailure
	done     chan struct{}
	stop     sync.Once
}

func newSaver(store ProgressStore, cfg SaverConfig, log *logrus.Logger) *saver {
	if cfg.QueueSize <= 0 {
		cfg = DefaultSaverConfig()
	}
	s := &saver{
		store: store,
		cfg:   cfg,
		log:   log,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "progress-store",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
		}),
		ch:       make(chan saveRequest, cfg.QueueSize),
		failures: make(chan SaveFailure, cfg.QueueSize),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// enqueue hands a state update to the background writer. The session is
// never blocked on storage latency unless the queue itself is full.
func (s *saver) enqueue(studentID string, st memory.State) {
	select {
	case s.ch <- saveRequest{studentID: studentID, state: st}:
	default:
		s.write(saveRequest{studentID: studentID, state: st})
	}
}

func (s *saver) run() {
	defer close(s.done)
	for req := range s.ch {
		s.write(req)
	}
}

// write attempts a store call with exponential backoff; the breaker short-
// circuits attempts while the store is known bad.
func (s *saver) write(req saveRequest) {
	backoff := s.cfg.Backoff
	var lastErr error
	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		_, lastErr = s.cb.Execute(func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
			defer cancel()
			return nil, s.store.SaveState(ctx, req.studentID, req.state)
		})
		if lastErr == nil {
			return
		}
	}

	s.log.WithError(lastErr).WithFields(logrus.Fields{
		"student": req.studentID,
		"item":    req.state.ItemID,
	}).Warn("memory state write failed after retries")

	select {
	case s.failures <- SaveFailure{StudentID: req.studentID, ItemID: req.state.ItemID, Err: lastErr}:
	default:
		// Nobody is draining failures; the log line above stands.
	}
}

// close drains the queue and stops the worker. Safe to call twice.
func (s *saver) close() {
	s.stop.Do(func() {
		close(s.ch)
		<-s.done
		close(s.failures)
	})
}
