package triggers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/dhima/version-watch/internal/testutil/fakes"
	"github.com/dhima/version-watch/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)

type serviceFixture struct {
	svc     *Service
	store   *fakes.FakeStateStore
	alarms  *fakes.FakeAlarms
	clock   *clock.ManualClock
	allowed *permissionSwitch
}

type permissionSwitch struct {
	mu      sync.Mutex
	allowed bool
}

func (p *permissionSwitch) check() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allowed
}

func (p *permissionSwitch) set(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowed = v
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:   fakes.NewFakeStateStore(),
		alarms:  fakes.NewFakeAlarms(),
		clock:   clock.NewManual(testNow),
		allowed: &permissionSwitch{allowed: true},
	}
	f.svc = NewServiceWithClock(f.store, f.alarms, f.allowed.check, f.clock, logging.NewNoOpLogger())
	return f
}

func TestEnablePeriodic_RegistersTwelveHoursOut(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	err := f.svc.EnablePeriodic(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, f.store.Snapshot().PeriodicEnabled)
	call, ok := f.alarms.Call(PeriodicIdentity)
	require.True(t, ok)
	assert.Equal(t, testNow.Add(12*time.Hour), call.At)
	assert.True(t, call.Dispatch.Periodic)
}

func TestEnablePeriodic_TwiceKeepsSingleRegistration(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EnablePeriodic(ctx))
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.EnablePeriodic(ctx))

	assert.Equal(t, []int{PeriodicIdentity}, f.alarms.IDs())
	at, _ := f.alarms.Pending(PeriodicIdentity)
	assert.Equal(t, testNow.Add(13*time.Hour), at)
}

func TestEnablePeriodic_PermissionDenied_NoChange(t *testing.T) {
	f := newServiceFixture(t)
	f.allowed.set(false)

	err := f.svc.EnablePeriodic(context.Background())

	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.False(t, f.store.Snapshot().PeriodicEnabled)
	assert.Empty(t, f.alarms.IDs())
}

func TestEnablePeriodic_AlarmFailure_NotPersisted(t *testing.T) {
	f := newServiceFixture(t)
	f.alarms.FailSet[PeriodicIdentity] = true

	err := f.svc.EnablePeriodic(context.Background())

	assert.True(t, errors.Is(err, fakes.ErrAlarmRejected))
	assert.False(t, f.store.Snapshot().PeriodicEnabled)
}

func TestDisablePeriodic_CancelsAndPersists(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.EnablePeriodic(ctx))

	require.NoError(t, f.svc.DisablePeriodic(ctx))

	assert.False(t, f.store.Snapshot().PeriodicEnabled)
	_, ok := f.alarms.Pending(PeriodicIdentity)
	assert.False(t, ok)
}

func TestDisablePeriodic_CancelFailure_StaysEnabled(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.EnablePeriodic(ctx))
	f.alarms.FailCancel[PeriodicIdentity] = true

	err := f.svc.DisablePeriodic(ctx)

	assert.Error(t, err)
	assert.True(t, f.store.Snapshot().PeriodicEnabled)
}

func TestAddFixedTime_LaterToday(t *testing.T) {
	f := newServiceFixture(t)

	require.NoError(t, f.svc.AddFixedTime(context.Background(), 14, 0))

	assert.Equal(t, []models.FixedTime{{Hour: 14, Minute: 0}}, f.store.Snapshot().FixedTimes)
	call, ok := f.alarms.Call(2000 + 14*60)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), call.At)
	assert.False(t, call.Dispatch.Periodic)
	assert.Equal(t, 14, call.Dispatch.Hour)
	assert.Equal(t, 0, call.Dispatch.Minute)
}

func TestAddFixedTime_EqualOrEarlierGoesToTomorrow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddFixedTime(ctx, 13, 0))
	require.NoError(t, f.svc.AddFixedTime(ctx, 12, 59))

	at, _ := f.alarms.Pending(FixedTimeIdentity(models.FixedTime{Hour: 13, Minute: 0}))
	assert.Equal(t, time.Date(2025, 3, 11, 13, 0, 0, 0, time.UTC), at)
	at, _ = f.alarms.Pending(FixedTimeIdentity(models.FixedTime{Hour: 12, Minute: 59}))
	assert.Equal(t, time.Date(2025, 3, 11, 12, 59, 0, 0, time.UTC), at)
}

func TestAddFixedTime_FifthRejected(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	for h := 1; h <= 4; h++ {
		require.NoError(t, f.svc.AddFixedTime(ctx, h, 0))
	}
	setsBefore := f.alarms.SetCount()

	err := f.svc.AddFixedTime(ctx, 5, 0)

	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Len(t, f.store.Snapshot().FixedTimes, 4)
	assert.Equal(t, setsBefore, f.alarms.SetCount())
}

func TestAddFixedTime_ExistingAtCapacityReRegisters(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	for h := 1; h <= 4; h++ {
		require.NoError(t, f.svc.AddFixedTime(ctx, h, 0))
	}

	err := f.svc.AddFixedTime(ctx, 2, 0)

	require.NoError(t, err)
	assert.Len(t, f.store.Snapshot().FixedTimes, 4)
	assert.Len(t, f.alarms.IDs(), 4)
}

func TestAddFixedTime_InvalidArguments(t *testing.T) {
	f := newServiceFixture(t)

	for _, hm := range [][2]int{{24, 0}, {-1, 0}, {0, 60}, {0, -1}} {
		err := f.svc.AddFixedTime(context.Background(), hm[0], hm[1])
		assert.True(t, errors.Is(err, ErrInvalidArgument), "%v", hm)
		var verr ValidationError
		assert.True(t, errors.As(err, &verr))
	}
	assert.Empty(t, f.store.Snapshot().FixedTimes)
	assert.Zero(t, f.alarms.SetCount())
}

func TestAddFixedTime_PermissionDenied(t *testing.T) {
	f := newServiceFixture(t)
	f.allowed.set(false)

	err := f.svc.AddFixedTime(context.Background(), 9, 30)

	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Empty(t, f.store.Snapshot().FixedTimes)
	assert.Empty(t, f.alarms.IDs())
}

func TestAddFixedTime_AlarmFailure_NotPersisted(t *testing.T) {
	f := newServiceFixture(t)
	f.alarms.FailSet[FixedTimeIdentity(models.FixedTime{Hour: 9, Minute: 30})] = true

	err := f.svc.AddFixedTime(context.Background(), 9, 30)

	assert.Error(t, err)
	assert.Empty(t, f.store.Snapshot().FixedTimes)
}

func TestAddFixedTime_StoredSorted(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddFixedTime(ctx, 18, 45))
	require.NoError(t, f.svc.AddFixedTime(ctx, 7, 5))

	assert.Equal(t, []models.FixedTime{{Hour: 7, Minute: 5}, {Hour: 18, Minute: 45}}, f.store.Snapshot().FixedTimes)
}

func TestRemoveFixedTime(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddFixedTime(ctx, 9, 30))
	require.NoError(t, f.svc.AddFixedTime(ctx, 18, 0))

	require.NoError(t, f.svc.RemoveFixedTime(ctx, 9, 30))

	assert.Equal(t, []models.FixedTime{{Hour: 18, Minute: 0}}, f.store.Snapshot().FixedTimes)
	assert.Equal(t, []int{FixedTimeIdentity(models.FixedTime{Hour: 18, Minute: 0})}, f.alarms.IDs())
}

func TestRemoveFixedTime_AbsentIsNoOp(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.RemoveFixedTime(context.Background(), 6, 15)

	require.NoError(t, err)
	assert.Empty(t, f.store.Snapshot().FixedTimes)
}

func TestRemoveFixedTime_Invalid(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.RemoveFixedTime(context.Background(), 25, 0)

	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRemoveAllFixedTime_SweepsUnpersistedAlarms(t *testing.T) {
	// Arrange: a stray alarm survives from a corrupted record.
	f := newServiceFixture(t)
	ctx := context.Background()
	f.alarms.Plant(2000+22*60+15, testNow.Add(time.Hour))
	require.NoError(t, f.svc.AddFixedTime(ctx, 9, 30))
	require.NoError(t, f.svc.EnablePeriodic(ctx))

	// Act
	err := f.svc.RemoveAllFixedTime(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{PeriodicIdentity}, f.alarms.IDs())
	assert.Empty(t, f.store.Snapshot().FixedTimes)
	assert.Equal(t, FixedTimeIdentityCount, f.alarms.CancelCount())
}

func TestRemoveAllFixedTime_CancelFailureStillClears(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddFixedTime(ctx, 9, 30))
	f.alarms.FailCancel[2100] = true

	err := f.svc.RemoveAllFixedTime(ctx)

	assert.True(t, errors.Is(err, fakes.ErrAlarmRejected))
	assert.Empty(t, f.store.Snapshot().FixedTimes)
}

func TestTriggers_ListsPendingFireTimes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.EnablePeriodic(ctx))
	require.NoError(t, f.svc.AddFixedTime(ctx, 9, 30))

	resp, err := f.svc.Triggers(ctx)

	require.NoError(t, err)
	require.Len(t, resp.Triggers, 2)
	assert.Equal(t, models.TriggerKindPeriodic, resp.Triggers[0].Kind)
	require.NotNil(t, resp.Triggers[0].NextFireAt)
	assert.Equal(t, testNow.Add(12*time.Hour), *resp.Triggers[0].NextFireAt)
	assert.Equal(t, "09:30", resp.Triggers[1].Time)
	assert.Equal(t, 2570, resp.Triggers[1].Identity)
	assert.True(t, resp.State.PeriodicEnabled)
}

func TestList_ReturnsState(t *testing.T) {
	f := newServiceFixture(t)
	f.store.Seed(models.ScheduleState{PeriodicEnabled: true, FixedTimes: []models.FixedTime{{Hour: 1, Minute: 2}}, LastCheckTime: 42})

	st, err := f.svc.List(context.Background())

	require.NoError(t, err)
	assert.True(t, st.PeriodicEnabled)
	assert.Equal(t, int64(42), st.LastCheckTime)
}

func TestReset_ClearsEverything(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.EnablePeriodic(ctx))
	require.NoError(t, f.svc.AddFixedTime(ctx, 9, 30))

	require.NoError(t, f.svc.Reset(ctx))

	st := f.store.Snapshot()
	assert.False(t, st.PeriodicEnabled)
	assert.Empty(t, st.FixedTimes)
	assert.Zero(t, st.LastCheckTime)
	assert.Empty(t, f.alarms.IDs())
	assert.Equal(t, 1, f.store.Resets)
}

func TestService_StoreFailureSurfaces(t *testing.T) {
	f := newServiceFixture(t)
	f.store.FailNext = true

	err := f.svc.AddFixedTime(context.Background(), 9, 30)

	assert.True(t, errors.Is(err, fakes.ErrStoreUnavailable))
}

func TestService_ConcurrentAddsRespectCapacity(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(h int) {
			defer wg.Done()
			errs <- f.svc.AddFixedTime(ctx, h, 0)
		}(i)
	}
	wg.Wait()
	close(errs)

	ok, full := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
			full++
		}
	}
	assert.Equal(t, 4, ok)
	assert.Equal(t, 6, full)
	assert.Len(t, f.store.Snapshot().FixedTimes, 4)
	assert.Len(t, f.alarms.IDs(), 4)
}
