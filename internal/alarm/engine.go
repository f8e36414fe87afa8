// Package alarm is an in-process exact one-shot alarm facility. Each
// registration is keyed by an integer identity; registering an identity that is
// already pending replaces it, so at most one alarm per identity is ever pending.
// Registrations live in memory only: after a restart the recovery coordinator
// re-registers whatever the durable store says should be active.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/dhima/version-watch/pkg/clock"
	"go.uber.org/zap"
)

// ErrNoHandler is returned by Run when no dispatch handler has been installed.
var ErrNoHandler = errors.New("alarm: no dispatch handler")

// Handler receives a fired registration.
type Handler func(ctx context.Context, d models.Dispatch)

type registration struct {
	id       int
	at       time.Time
	dispatch models.Dispatch
}

// Engine periodically scans for registrations that are due and dispatches them.
type Engine struct {
	tick   time.Duration
	clock  clock.Clock
	logger logging.Logger

	mu      sync.Mutex
	pending map[int]registration
	handler Handler

	inflight sync.WaitGroup
}

// NewEngine constructs an alarm engine with the provided polling cadence.
func NewEngine(tick time.Duration, logger logging.Logger) *Engine {
	return NewEngineWithClock(tick, clock.RealClock{}, logger)
}

// NewEngineWithClock allows injecting a clock for deterministic tests.
func NewEngineWithClock(tick time.Duration, c clock.Clock, logger logging.Logger) *Engine {
	if tick <= 0 {
		tick = time.Second
	}
	return &Engine{
		tick:    tick,
		clock:   c,
		logger:  logger.With(zap.String("component", "alarm")),
		pending: make(map[int]registration),
	}
}

// SetHandler installs the dispatch callback. It is separate from construction
// because the dispatcher itself depends on a scheduler built on this engine.
func (e *Engine) SetHandler(h Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// SetExact registers a one-shot alarm for id at the given instant, replacing
// any pending alarm with the same id.
func (e *Engine) SetExact(_ context.Context, id int, at time.Time, d models.Dispatch) error {
	if at.IsZero() {
		return fmt.Errorf("alarm %d: zero fire time", id)
	}
	d.ScheduledAt = at

	e.mu.Lock()
	_, replaced := e.pending[id]
	e.pending[id] = registration{id: id, at: at, dispatch: d}
	e.mu.Unlock()

	e.logger.Debug("alarm registered",
		zap.Int("alarm_id", id),
		zap.Time("fire_at", at),
		zap.Bool("replaced", replaced))
	return nil
}

// Cancel removes a pending alarm. Cancelling an unknown id is not an error.
// A dispatch that was already handed to the handler is not recalled.
func (e *Engine) Cancel(_ context.Context, id int) error {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
	return nil
}

// Pending reports the fire time of a registered alarm.
func (e *Engine) Pending(id int) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.pending[id]
	return r.at, ok
}

// IDs returns the registered identities in ascending order.
func (e *Engine) IDs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]int, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Run begins the polling loop and blocks until ctx is cancelled. In-flight
// dispatches are awaited before returning.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	hasHandler := e.handler != nil
	e.mu.Unlock()
	if !hasHandler {
		return ErrNoHandler
	}

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	e.logger.Info("alarm engine started", zap.Duration("tick", e.tick))
	for {
		select {
		case <-ticker.C:
			e.FireDue(ctx)
		case <-ctx.Done():
			e.Wait()
			e.logger.Info("alarm engine stopped")
			return ctx.Err()
		}
	}
}

// FireDue removes every registration whose instant has been reached and hands
// each to the handler on its own goroutine. It returns how many fired.
// Without a handler nothing fires and registrations stay pending.
func (e *Engine) FireDue(ctx context.Context) int {
	now := e.clock.Now()

	e.mu.Lock()
	handler := e.handler
	if handler == nil {
		e.mu.Unlock()
		return 0
	}
	var due []registration
	for id, r := range e.pending {
		if !r.at.After(now) {
			due = append(due, r)
			delete(e.pending, id)
		}
	}
	e.mu.Unlock()

	if len(due) == 0 {
		return 0
	}

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, r := range due {
		e.inflight.Add(1)
		go e.dispatch(ctx, handler, r)
	}
	return len(due)
}

// Wait blocks until all dispatched handlers have returned.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) dispatch(ctx context.Context, handler Handler, r registration) {
	defer e.inflight.Done()
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("alarm handler panicked",
				zap.Int("alarm_id", r.id),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	e.logger.Debug("alarm fired",
		zap.Int("alarm_id", r.id),
		zap.Time("scheduled_at", r.at),
		zap.Duration("lateness", e.clock.Now().Sub(r.at)))
	handler(ctx, r.dispatch)
}
