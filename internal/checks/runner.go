package checks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const checkKey = "version_check"

// ErrRunnerClosed is returned when a check is requested after Shutdown.
var ErrRunnerClosed = errors.New("check runner closed")

// RunnerConfig tunes the runner.
type RunnerConfig struct {
	// Timeout bounds one check once the network is reachable.
	Timeout time.Duration
	// PollInterval is how often reachability is re-probed while deferred.
	PollInterval time.Duration
	// PublishTimeout bounds one result publication.
	PublishTimeout time.Duration
}

// RunnerStats counts check activity since start.
type RunnerStats struct {
	Requests        int64 `json:"requests"`
	Executions      int64 `json:"executions"`
	Joined          int64 `json:"joined"`
	Deferred        int64 `json:"deferred"`
	Succeeded       int64 `json:"succeeded"`
	Failed          int64 `json:"failed"`
	UpdatesFound    int64 `json:"updates_found"`
	PublishFailures int64 `json:"publish_failures"`
}

// Runner is the execution environment for checks. Concurrent requests share
// a single in-flight execution and all observe its result.
type Runner struct {
	executor  *Executor
	reach     Reachability
	publisher ResultPublisher
	cfg       RunnerConfig
	logger    logging.Logger

	group  singleflight.Group
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	running *models.CheckResult
	latest  *models.CheckResult

	requests        atomic.Int64
	executions      atomic.Int64
	deferred        atomic.Int64
	succeeded       atomic.Int64
	failed          atomic.Int64
	updatesFound    atomic.Int64
	publishFailures atomic.Int64
}

// NewRunner creates a runner. reach and publisher may be nil.
func NewRunner(executor *Executor, reach Reachability, publisher ResultPublisher, cfg RunnerConfig, logger logging.Logger) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		executor:  executor,
		reach:     reach,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "check_runner")),
		base:      base,
		cancel:    cancel,
	}
}

// Enqueue starts a check in the background, or joins the one in flight. It
// never blocks on the check and reports false only after Shutdown.
func (r *Runner) Enqueue(source models.CheckSource) bool {
	_, err := r.submit(source)
	return err == nil
}

// RunNow runs a check, or joins the one in flight, and waits for its result.
// The check keeps running if ctx ends first.
func (r *Runner) RunNow(ctx context.Context, source models.CheckSource) (models.CheckResult, error) {
	ch, err := r.submit(source)
	if err != nil {
		return models.CheckResult{}, err
	}
	select {
	case res := <-ch:
		return res.Val.(models.CheckResult), nil
	case <-ctx.Done():
		return models.CheckResult{}, ctx.Err()
	}
}

// Latest returns the in-flight check as a running result if there is one,
// otherwise the last terminal result. ok is false before the first check.
func (r *Runner) Latest() (models.CheckResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.running != nil {
		return *r.running, true
	}
	if r.latest != nil {
		return *r.latest, true
	}
	return models.CheckResult{}, false
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() RunnerStats {
	requests := r.requests.Load()
	executions := r.executions.Load()
	return RunnerStats{
		Requests:        requests,
		Executions:      executions,
		Joined:          requests - executions,
		Deferred:        r.deferred.Load(),
		Succeeded:       r.succeeded.Load(),
		Failed:          r.failed.Load(),
		UpdatesFound:    r.updatesFound.Load(),
		PublishFailures: r.publishFailures.Load(),
	}
}

// Shutdown stops accepting checks, cancels the in-flight one and waits for
// background work to finish or ctx to end.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) submit(source models.CheckSource) (<-chan singleflight.Result, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRunnerClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	r.requests.Add(1)
	ch := r.group.DoChan(checkKey, func() (interface{}, error) {
		return r.execute(source), nil
	})

	out := make(chan singleflight.Result, 1)
	go func() {
		defer r.wg.Done()
		out <- <-ch
	}()
	return out, nil
}

func (r *Runner) execute(source models.CheckSource) models.CheckResult {
	r.executions.Add(1)
	id := uuid.New().String()
	started := r.executor.clock.Now()

	r.mu.Lock()
	r.running = &models.CheckResult{ID: id, Status: models.CheckStatusRunning, Source: source, StartedAt: started}
	r.mu.Unlock()

	var result models.CheckResult
	if err := r.awaitReachable(r.base); err != nil {
		result = r.executor.unreachable(id, source, started, err)
	} else {
		ctx, cancel := context.WithTimeout(r.base, r.cfg.Timeout)
		result = r.executor.run(ctx, id, source, started)
		cancel()
	}

	switch result.Status {
	case models.CheckStatusSucceeded:
		r.succeeded.Add(1)
		if result.UpdateAvailable {
			r.updatesFound.Add(1)
		}
	default:
		r.failed.Add(1)
	}

	r.mu.Lock()
	r.running = nil
	r.latest = &result
	r.mu.Unlock()

	r.publish(result)
	return result
}

// awaitReachable blocks until the probe reports the network usable or ctx ends.
func (r *Runner) awaitReachable(ctx context.Context) error {
	if r.reach == nil || r.reach.Reachable(ctx) {
		return nil
	}
	r.deferred.Add(1)
	r.logger.Info("network unreachable; deferring check", zap.Duration("poll_interval", r.cfg.PollInterval))

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.reach.Reachable(ctx) {
				return nil
			}
		}
	}
}

func (r *Runner) publish(result models.CheckResult) {
	if r.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.PublishTimeout)
	defer cancel()
	if err := r.publisher.Publish(ctx, result); err != nil {
		r.publishFailures.Add(1)
		r.logger.Warn("failed to publish check result", zap.String("check_id", result.ID), zap.Error(err))
	}
}
