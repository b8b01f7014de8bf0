package storex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/storex/internal/telemetry"
)

// ActionCreator produces the Result of one dispatch from the caller's arguments.
type ActionCreator func(args ...any) (Result, error)

// Creators maps action names to their creators. It is read once by CreateStore.
type Creators map[string]ActionCreator

// Subscriber is called after every commit with the committed state and the
// name of the action that produced it.
type Subscriber func(state State, action string)

// Store owns a single State value, the bound actions derived from its
// creators, and the ordered subscriber registry.
//
// GetState and Subscribe are safe from any goroutine. Dispatch is re-entrant:
// creators, transforms, effects and subscribers may dispatch again, and the
// nested dispatch completes before the outer one resumes. The store lock is
// never held while caller code runs. Dispatch from one goroutine at a time
// (for example through a loop.Loop); see WithMaxDepth.
type Store struct {
	id    string
	mu    sync.RWMutex
	state State

	actions  *Actions
	registry registry

	depth    atomic.Int32
	maxDepth int

	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *telemetry.Metrics
	metricsReg prometheus.Registerer
	metricsOn  bool
}

// CreateStore builds a store holding a copy of initial, with one bound action
// per entry in creators. Any creator map, including an empty one, is accepted.
func CreateStore(creators Creators, initial State, opts ...Option) *Store {
	s := &Store{
		id:       uuid.NewString(),
		state:    initial.Clone(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   telemetry.NoopTracer(),
	}

	// Apply functional options
	for _, opt := range opts {
		opt(s)
	}
	s.initMetrics()

	s.actions = newActions(s, creators)
	s.metrics.SetSubscribers(s.id, 0)
	return s
}

// ID returns the store identifier used in logs, spans and metrics.
func (s *Store) ID() string {
	return s.id
}

// GetState returns a snapshot of the most recently committed state.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Actions returns the bound-actions surface.
func (s *Store) Actions() *Actions {
	return s.actions
}

// Dispatch is shorthand for s.Actions().Dispatch.
func (s *Store) Dispatch(name string, args ...any) error {
	return s.actions.Dispatch(name, args...)
}

// dispatch runs one full cycle: invoke the creator, classify the result,
// commit the fragment if there is one, then notify subscribers.
func (s *Store) dispatch(name string, creator ActionCreator, args []any) (err error) {
	depth := s.depth.Add(1)
	defer s.depth.Add(-1)
	if s.maxDepth > 0 && int(depth) > s.maxDepth {
		return fmt.Errorf("%w: action %q at depth %d (max %d)", ErrDepthExceeded, name, depth, s.maxDepth)
	}

	start := time.Now()
	_, span := telemetry.StartDispatch(context.Background(), s.tracer, s.id, name)

	kind := KindNone
	committed := false
	defer func() {
		outcome := telemetry.OutcomeSkipped
		switch {
		case err != nil:
			outcome = telemetry.OutcomeError
		case committed:
			outcome = telemetry.OutcomeCommitted
		}
		span.End(string(kind), committed, err)
		s.metrics.ObserveDispatch(name, string(kind), outcome, time.Since(start))
		s.logger.Debug("dispatch",
			"store", s.id,
			"action", name,
			"kind", kind,
			"committed", committed,
			"depth", depth,
			"error", err,
		)
	}()

	result, err := creator(args...)
	if err != nil {
		return &ActionError{Action: name, Err: err}
	}
	kind = KindOf(result)

	fragment := resolve(result, s.GetState(), s.actions)
	if fragment == nil {
		return nil
	}

	next := s.commit(fragment)
	committed = true
	s.notify(next, name)
	return nil
}

// commit merges fragment into the current state and replaces it. The merge
// sees whatever nested dispatches committed while the fragment was computed.
// The returned map is never written again; notify copies it per subscriber.
func (s *Store) commit(fragment Patch) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Merge(fragment)
	return s.state
}
