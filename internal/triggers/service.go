package triggers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/dhima/version-watch/pkg/clock"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

const (
	// PeriodicInterval is the delay between periodic checks.
	PeriodicInterval = 12 * time.Hour
	// MaxFixedTimes caps the number of concurrently active fixed-time triggers.
	MaxFixedTimes = 4
)

// Service encapsulates trigger business logic. Every mutation registers or
// cancels the alarm first and persists inside the same store update, so a
// failed alarm call leaves the persisted state untouched.
type Service struct {
	store      StateStore
	alarms     AlarmFacility
	permission ExactAlarmPermission
	clock      clock.Clock
	logger     logging.Logger
}

// NewService creates a trigger service.
func NewService(store StateStore, alarms AlarmFacility, permission ExactAlarmPermission, logger logging.Logger) *Service {
	return NewServiceWithClock(store, alarms, permission, clock.RealClock{}, logger)
}

// NewServiceWithClock creates a trigger service with a custom clock.
func NewServiceWithClock(store StateStore, alarms AlarmFacility, permission ExactAlarmPermission, c clock.Clock, logger logging.Logger) *Service {
	if permission == nil {
		permission = AlwaysPermitted
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Service{
		store:      store,
		alarms:     alarms,
		permission: permission,
		clock:      c,
		logger:     logger,
	}
}

// EnablePeriodic registers the periodic check for now+12h and marks it enabled.
// Enabling twice re-registers the same identity.
func (s *Service) EnablePeriodic(ctx context.Context) error {
	if !s.permission() {
		return ErrPermissionDenied
	}

	var at time.Time
	_, err := s.store.Update(ctx, func(st *models.ScheduleState) error {
		var armErr error
		if at, armErr = s.armPeriodic(ctx, s.clock.Now()); armErr != nil {
			return armErr
		}
		st.PeriodicEnabled = true
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("periodic trigger enabled", zap.Time("next_fire_at", at))
	return nil
}

// DisablePeriodic cancels the periodic alarm and marks it disabled.
func (s *Service) DisablePeriodic(ctx context.Context) error {
	_, err := s.store.Update(ctx, func(st *models.ScheduleState) error {
		if err := s.alarms.Cancel(ctx, PeriodicIdentity); err != nil {
			return fmt.Errorf("cancel periodic alarm: %w", err)
		}
		st.PeriodicEnabled = false
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("periodic trigger disabled")
	return nil
}

// AddFixedTime registers a daily check at hour:minute. Adding a time that is
// already active re-registers it without counting against the cap.
func (s *Service) AddFixedTime(ctx context.Context, hour, minute int) error {
	ft := models.FixedTime{Hour: hour, Minute: minute}
	if !ft.Valid() {
		return NewValidationError("hour must be in [0,23] and minute in [0,59], got %d:%d", hour, minute)
	}
	if !s.permission() {
		return ErrPermissionDenied
	}

	var at time.Time
	_, err := s.store.Update(ctx, func(st *models.ScheduleState) error {
		exists := st.HasFixedTime(ft)
		if !exists && len(st.FixedTimes) >= MaxFixedTimes {
			return fmt.Errorf("%w: %d of %d fixed times in use", ErrCapacityExceeded, len(st.FixedTimes), MaxFixedTimes)
		}

		var armErr error
		if at, armErr = s.armFixedTime(ctx, ft, s.clock.Now()); armErr != nil {
			return armErr
		}
		if !exists {
			st.FixedTimes = append(st.FixedTimes, ft)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("fixed-time trigger added", zap.String("time", ft.String()), zap.Time("next_fire_at", at))
	return nil
}

// RemoveFixedTime cancels the alarm for hour:minute and drops it from the set.
// Removing a time that is not active is a no-op success.
func (s *Service) RemoveFixedTime(ctx context.Context, hour, minute int) error {
	ft := models.FixedTime{Hour: hour, Minute: minute}
	if !ft.Valid() {
		return NewValidationError("hour must be in [0,23] and minute in [0,59], got %d:%d", hour, minute)
	}

	_, err := s.store.Update(ctx, func(st *models.ScheduleState) error {
		if err := s.alarms.Cancel(ctx, FixedTimeIdentity(ft)); err != nil {
			return fmt.Errorf("cancel fixed-time alarm %s: %w", ft, err)
		}
		kept := st.FixedTimes[:0]
		for _, existing := range st.FixedTimes {
			if existing != ft {
				kept = append(kept, existing)
			}
		}
		st.FixedTimes = kept
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("fixed-time trigger removed", zap.String("time", ft.String()))
	return nil
}

// RemoveAllFixedTime cancels every identity in the fixed-time range, whether or
// not it is persisted, then clears the set. Leftover alarms from a corrupted
// record are swept too. The set is cleared even when some cancels fail, since
// an unpersisted alarm only fires once before being dropped.
func (s *Service) RemoveAllFixedTime(ctx context.Context) error {
	var cancelErr *multierror.Error
	_, err := s.store.Update(ctx, func(st *models.ScheduleState) error {
		for i := 0; i < FixedTimeIdentityCount; i++ {
			if err := s.alarms.Cancel(ctx, FixedTimeIdentityBase+i); err != nil {
				cancelErr = multierror.Append(cancelErr, fmt.Errorf("cancel alarm %d: %w", FixedTimeIdentityBase+i, err))
			}
		}
		st.FixedTimes = []models.FixedTime{}
		return nil
	})
	if err != nil {
		return err
	}
	if err := cancelErr.ErrorOrNil(); err != nil {
		s.logger.Warn("fixed-time sweep left alarms behind", zap.Error(err))
		return err
	}

	s.logger.Info("all fixed-time triggers removed")
	return nil
}

// List returns the persisted schedule state.
func (s *Service) List(ctx context.Context) (models.ScheduleState, error) {
	return s.store.Load(ctx)
}

// Triggers returns every persisted trigger along with its pending fire time.
func (s *Service) Triggers(ctx context.Context) (models.TriggerListResponse, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return models.TriggerListResponse{}, err
	}

	views := make([]models.TriggerView, 0, len(state.FixedTimes)+1)
	if state.PeriodicEnabled {
		views = append(views, s.view(models.PeriodicTrigger(), ""))
	}
	for _, ft := range state.FixedTimes {
		views = append(views, s.view(models.FixedTimeTrigger(ft), ft.String()))
	}

	return models.TriggerListResponse{State: state, Triggers: views}, nil
}

// Reset cancels every alarm and clears the persisted state, including the
// last check time.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.DisablePeriodic(ctx); err != nil {
		return err
	}
	if err := s.RemoveAllFixedTime(ctx); err != nil && !isCancelOnly(err) {
		return err
	}
	return s.store.Reset(ctx)
}

func (s *Service) view(t models.Trigger, label string) models.TriggerView {
	id := Identity(t)
	v := models.TriggerView{Trigger: t, Identity: id, Time: label}
	if at, ok := s.alarms.Pending(id); ok {
		v.NextFireAt = &at
	}
	return v
}

func (s *Service) armPeriodic(ctx context.Context, from time.Time) (time.Time, error) {
	if !s.permission() {
		return time.Time{}, ErrPermissionDenied
	}
	at := from.Add(PeriodicInterval)
	if err := s.alarms.SetExact(ctx, PeriodicIdentity, at, models.Dispatch{Periodic: true}); err != nil {
		return time.Time{}, fmt.Errorf("register periodic alarm: %w", err)
	}
	return at, nil
}

func (s *Service) armFixedTime(ctx context.Context, ft models.FixedTime, from time.Time) (time.Time, error) {
	if !s.permission() {
		return time.Time{}, ErrPermissionDenied
	}
	at, err := NextOccurrence(ft, from)
	if err != nil {
		return time.Time{}, err
	}
	return s.registerFixedTime(ctx, ft, at)
}

// rearmFixedTime registers the occurrence following a fire at fired.
func (s *Service) rearmFixedTime(ctx context.Context, ft models.FixedTime, fired, now time.Time) (time.Time, error) {
	if !s.permission() {
		return time.Time{}, ErrPermissionDenied
	}
	at, err := NextDailyOccurrence(ft, fired, now)
	if err != nil {
		return time.Time{}, err
	}
	return s.registerFixedTime(ctx, ft, at)
}

func (s *Service) registerFixedTime(ctx context.Context, ft models.FixedTime, at time.Time) (time.Time, error) {
	d := models.Dispatch{Hour: ft.Hour, Minute: ft.Minute}
	if err := s.alarms.SetExact(ctx, FixedTimeIdentity(ft), at, d); err != nil {
		return time.Time{}, fmt.Errorf("register fixed-time alarm %s: %w", ft, err)
	}
	return at, nil
}

// isCancelOnly reports whether err came from the sweep rather than the store.
func isCancelOnly(err error) bool {
	var merr *multierror.Error
	return errors.As(err, &merr)
}
