package checks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/dhima/version-watch/pkg/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Executor performs one version check: installed lookup, remote fetch and
// comparison. It is stateless apart from recording the last check time.
type Executor struct {
	installed InstalledLookup
	remote    RemoteSource
	recorder  LastCheckRecorder
	targets   []string
	clock     clock.Clock
	logger    logging.Logger
}

// NewExecutor creates an executor that looks up targets in order.
func NewExecutor(installed InstalledLookup, remote RemoteSource, recorder LastCheckRecorder, targets []string, c clock.Clock, logger logging.Logger) *Executor {
	if c == nil {
		c = clock.RealClock{}
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Executor{
		installed: installed,
		remote:    remote,
		recorder:  recorder,
		targets:   append([]string(nil), targets...),
		clock:     c,
		logger:    logger,
	}
}

// RunCheck executes a check and returns its terminal result. Failures are
// reported in the result, never as an error.
func (e *Executor) RunCheck(ctx context.Context, source models.CheckSource) models.CheckResult {
	return e.run(ctx, uuid.New().String(), source, e.clock.Now())
}

func (e *Executor) run(ctx context.Context, id string, source models.CheckSource, started time.Time) models.CheckResult {
	result := models.CheckResult{
		ID:        id,
		Status:    models.CheckStatusRunning,
		Source:    source,
		StartedAt: started,
	}

	identifier, installed, err := e.installed.LookupInstalledVersion(ctx, e.targets)
	if err == nil && identifier == "" {
		err = ErrTargetNotInstalled
	}
	if err != nil {
		return e.fail(result, err)
	}
	result.InstalledIdentifier = identifier
	result.InstalledVersion = installed

	latest, err := e.remote.FetchLatestVersion(ctx)
	if err != nil {
		return e.fail(result, err)
	}
	result.LatestVersion = latest
	result.UpdateAvailable = installed != latest

	completed := e.clock.Now()
	result.Status = models.CheckStatusSucceeded
	result.CompletedAt = &completed

	if e.recorder != nil {
		if _, err := e.recorder.Update(ctx, func(st *models.ScheduleState) error {
			st.LastCheckTime = completed.UnixMilli()
			return nil
		}); err != nil {
			e.logger.Warn("failed to record last check time", zap.String("check_id", id), zap.Error(err))
		}
	}

	e.logger.Info("version check succeeded",
		zap.String("check_id", id),
		zap.String("source", string(source)),
		zap.String("installed", installed),
		zap.String("latest", latest),
		zap.Bool("update_available", result.UpdateAvailable))
	return result
}

func (e *Executor) fail(result models.CheckResult, err error) models.CheckResult {
	completed := e.clock.Now()
	result.Status = models.CheckStatusFailed
	result.Reason = Classify(err)
	result.Message = err.Error()
	result.CompletedAt = &completed

	level := e.logger.Warn
	if errors.Is(err, ErrTargetNotInstalled) {
		level = e.logger.Info
	}
	level("version check failed",
		zap.String("check_id", result.ID),
		zap.String("reason", string(result.Reason)),
		zap.Error(err))
	return result
}

// unreachable builds the failure result for a check that never got network.
func (e *Executor) unreachable(id string, source models.CheckSource, started time.Time, cause error) models.CheckResult {
	return e.fail(models.CheckResult{
		ID:        id,
		Source:    source,
		StartedAt: started,
	}, fmt.Errorf("%w: network unreachable: %v", ErrNetwork, cause))
}
