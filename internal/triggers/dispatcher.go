package triggers

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dhima/version-watch/internal/models"
	"go.uber.org/zap"
)

// DispatchStats counts alarm deliveries handled by the dispatcher.
type DispatchStats struct {
	Dispatched int64 `json:"dispatched"`
	Enqueued   int64 `json:"enqueued"`
	Rearmed    int64 `json:"rearmed"`
	Dropped    int64 `json:"dropped"`
	Failed     int64 `json:"failed"`
}

// Dispatcher handles a fired alarm: it hands a check to the runner, records
// the dispatch time, and re-registers the trigger if it is still persisted.
type Dispatcher struct {
	service *Service
	checks  CheckEnqueuer

	dispatched atomic.Int64
	enqueued   atomic.Int64
	rearmed    atomic.Int64
	dropped    atomic.Int64
	failed     atomic.Int64
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(service *Service, checks CheckEnqueuer) *Dispatcher {
	return &Dispatcher{service: service, checks: checks}
}

// OnAlarm adapts Handle to the alarm engine's handler signature.
func (d *Dispatcher) OnAlarm(ctx context.Context, dispatch models.Dispatch) {
	if err := d.Handle(ctx, dispatch); err != nil {
		d.service.logger.Error("alarm dispatch failed",
			zap.Bool("periodic", dispatch.Periodic),
			zap.String("time", dispatch.FixedTime().String()),
			zap.Error(err))
	}
}

// Handle processes one dispatch. The check is enqueued first and never waited
// on. The trigger is re-armed only when the persisted state still holds it,
// so a removal that raced the delivery is not undone.
func (d *Dispatcher) Handle(ctx context.Context, dispatch models.Dispatch) error {
	s := d.service
	d.dispatched.Add(1)

	source := models.CheckSourcePeriodic
	if !dispatch.Periodic {
		source = models.CheckSourceFixedTime
	}
	if d.checks.Enqueue(source) {
		d.enqueued.Add(1)
	}

	now := s.clock.Now()
	rearmed := false
	var armErr error
	_, err := s.store.Update(ctx, func(st *models.ScheduleState) error {
		st.LastCheckTime = now.UnixMilli()

		if dispatch.Periodic {
			if !st.PeriodicEnabled {
				return nil
			}
			_, armErr = s.armPeriodic(ctx, now)
			rearmed = armErr == nil
			return nil
		}

		ft := dispatch.FixedTime()
		if !ft.Valid() || !st.HasFixedTime(ft) {
			return nil
		}
		fired := dispatch.ScheduledAt
		if fired.IsZero() {
			fired = now
		}
		_, armErr = s.rearmFixedTime(ctx, ft, fired, now)
		rearmed = armErr == nil
		return nil
	})
	if err != nil {
		d.failed.Add(1)
		return fmt.Errorf("record dispatch: %w", err)
	}
	if armErr != nil {
		d.failed.Add(1)
		return fmt.Errorf("re-arm trigger: %w", armErr)
	}

	if rearmed {
		d.rearmed.Add(1)
	} else {
		d.dropped.Add(1)
		s.logger.Info("fired trigger no longer persisted; not re-armed",
			zap.Bool("periodic", dispatch.Periodic),
			zap.String("time", dispatch.FixedTime().String()))
	}
	return nil
}

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Dispatched: d.dispatched.Load(),
		Enqueued:   d.enqueued.Load(),
		Rearmed:    d.rearmed.Load(),
		Dropped:    d.dropped.Load(),
		Failed:     d.failed.Load(),
	}
}
