package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/dhima/version-watch/internal/models"
)

// ErrStoreUnavailable is returned by FakeStateStore when FailNext is set.
var ErrStoreUnavailable = errors.New("store unavailable")

// FakeStateStore is an in-memory, single-writer schedule state store.
type FakeStateStore struct {
	mu       sync.Mutex
	state    models.ScheduleState
	Updates  int
	Resets   int
	FailNext bool
}

func NewFakeStateStore() *FakeStateStore {
	return &FakeStateStore{state: models.ScheduleState{FixedTimes: []models.FixedTime{}}}
}

// Seed replaces the stored state without normalization, so tests can plant
// records the real store would never write.
func (f *FakeStateStore) Seed(st models.ScheduleState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = st.Clone()
}

// Snapshot returns the current state without going through Load.
func (f *FakeStateStore) Snapshot() models.ScheduleState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

func (f *FakeStateStore) Load(_ context.Context) (models.ScheduleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return models.ScheduleState{}, err
	}
	return f.state.Clone(), nil
}

func (f *FakeStateStore) View(_ context.Context, fn func(models.ScheduleState) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	return fn(f.state.Clone())
}

func (f *FakeStateStore) Update(_ context.Context, fn func(*models.ScheduleState) error) (models.ScheduleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return models.ScheduleState{}, err
	}
	next := f.state.Clone()
	if err := fn(&next); err != nil {
		return models.ScheduleState{}, err
	}
	next.FixedTimes = models.NormalizeFixedTimes(next.FixedTimes)
	f.state = next
	f.Updates++
	return next.Clone(), nil
}

func (f *FakeStateStore) Reset(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.state = models.ScheduleState{FixedTimes: []models.FixedTime{}}
	f.Resets++
	return nil
}

func (f *FakeStateStore) fail() error {
	if f.FailNext {
		f.FailNext = false
		return ErrStoreUnavailable
	}
	return nil
}
