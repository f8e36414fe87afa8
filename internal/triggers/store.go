package triggers

import (
	"context"
	"time"

	"github.com/dhima/version-watch/internal/models"
)

// StateStore defines the durable state operations required by the trigger service.
type StateStore interface {
	Load(ctx context.Context) (models.ScheduleState, error)
	View(ctx context.Context, fn func(models.ScheduleState) error) error
	Update(ctx context.Context, fn func(*models.ScheduleState) error) (models.ScheduleState, error)
	Reset(ctx context.Context) error
}

// AlarmFacility registers and cancels exact one-shot alarms keyed by identity.
type AlarmFacility interface {
	SetExact(ctx context.Context, id int, at time.Time, d models.Dispatch) error
	Cancel(ctx context.Context, id int) error
	Pending(id int) (time.Time, bool)
}

// ExactAlarmPermission reports whether the platform currently allows precise
// timers. It is consulted on every registration, not cached.
type ExactAlarmPermission func() bool

// AlwaysPermitted is the permission provider for platforms without consent gating.
func AlwaysPermitted() bool { return true }

// CheckEnqueuer hands a check task to the execution environment without waiting.
type CheckEnqueuer interface {
	Enqueue(source models.CheckSource) bool
}
