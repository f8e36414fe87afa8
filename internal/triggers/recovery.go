package triggers

import (
	"context"
	"fmt"

	"github.com/dhima/version-watch/internal/models"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// RecoveryReport summarizes one recovery pass.
type RecoveryReport struct {
	Periodic   bool
	FixedTimes []models.FixedTime
}

// Recoverer re-registers persisted triggers after a restart, when the
// platform has discarded every pending alarm.
type Recoverer struct {
	service *Service
}

// NewRecoverer creates a recoverer that arms alarms through service.
func NewRecoverer(service *Service) *Recoverer {
	return &Recoverer{service: service}
}

// Recover reads the persisted state and registers one alarm per trigger,
// using now as the reference. It never writes to the store. Failures for
// individual triggers are aggregated and do not stop the remaining ones.
func (r *Recoverer) Recover(ctx context.Context) (RecoveryReport, error) {
	s := r.service
	var report RecoveryReport
	var result *multierror.Error

	err := s.store.View(ctx, func(st models.ScheduleState) error {
		now := s.clock.Now()
		if st.PeriodicEnabled {
			if _, err := s.armPeriodic(ctx, now); err != nil {
				result = multierror.Append(result, fmt.Errorf("periodic: %w", err))
			} else {
				report.Periodic = true
			}
		}
		for _, ft := range st.FixedTimes {
			if _, err := s.armFixedTime(ctx, ft, now); err != nil {
				result = multierror.Append(result, fmt.Errorf("fixed time %s: %w", ft, err))
				continue
			}
			report.FixedTimes = append(report.FixedTimes, ft)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("load schedule state: %w", err)
	}

	s.logger.Info("triggers recovered",
		zap.Bool("periodic", report.Periodic),
		zap.Int("fixed_times", len(report.FixedTimes)))

	if err := result.ErrorOrNil(); err != nil {
		s.logger.Warn("some triggers could not be recovered", zap.Error(err))
		return report, err
	}
	return report, nil
}
