package fakes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dhima/version-watch/internal/models"
)

// ErrAlarmRejected is returned by FakeAlarms when a failure is injected.
var ErrAlarmRejected = errors.New("alarm rejected")

// AlarmCall records one SetExact invocation.
type AlarmCall struct {
	ID       int
	At       time.Time
	Dispatch models.Dispatch
}

// FakeAlarms is an in-memory alarm facility that records every call.
type FakeAlarms struct {
	mu         sync.Mutex
	pending    map[int]AlarmCall
	SetCalls   []AlarmCall
	Cancels    []int
	FailSet    map[int]bool
	FailCancel map[int]bool
}

func NewFakeAlarms() *FakeAlarms {
	return &FakeAlarms{
		pending:    make(map[int]AlarmCall),
		FailSet:    make(map[int]bool),
		FailCancel: make(map[int]bool),
	}
}

func (f *FakeAlarms) SetExact(_ context.Context, id int, at time.Time, d models.Dispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSet[id] {
		return ErrAlarmRejected
	}
	d.ScheduledAt = at
	call := AlarmCall{ID: id, At: at, Dispatch: d}
	f.pending[id] = call
	f.SetCalls = append(f.SetCalls, call)
	return nil
}

func (f *FakeAlarms) Cancel(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCancel[id] {
		return ErrAlarmRejected
	}
	delete(f.pending, id)
	f.Cancels = append(f.Cancels, id)
	return nil
}

func (f *FakeAlarms) Pending(id int) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.pending[id]
	return call.At, ok
}

// Plant registers an alarm directly, bypassing SetCalls.
func (f *FakeAlarms) Plant(id int, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[id] = AlarmCall{ID: id, At: at}
}

// Call returns the pending registration for id.
func (f *FakeAlarms) Call(id int) (AlarmCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.pending[id]
	return call, ok
}

// IDs returns the pending identities in ascending order.
func (f *FakeAlarms) IDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetCount returns the number of SetExact calls seen so far.
func (f *FakeAlarms) SetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SetCalls)
}

// CancelCount returns the number of successful Cancel calls.
func (f *FakeAlarms) CancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Cancels)
}
