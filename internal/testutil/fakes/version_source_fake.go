package fakes

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dhima/version-watch/internal/models"
)

// FakeInstalled answers installed-version lookups from a map.
type FakeInstalled struct {
	mu       sync.Mutex
	Versions map[string]string
	Err      error
}

func NewFakeInstalled(versions map[string]string) *FakeInstalled {
	return &FakeInstalled{Versions: versions}
}

func (f *FakeInstalled) LookupInstalledVersion(_ context.Context, candidates []string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", "", f.Err
	}
	for _, id := range candidates {
		if v, ok := f.Versions[id]; ok {
			return id, v, nil
		}
	}
	return "", "", nil
}

// FakeRemote returns a configured latest version. When Gate is non-nil each
// call blocks until the gate is closed.
type FakeRemote struct {
	Version string
	Err     error
	Gate    chan struct{}
	Started chan struct{}
	calls   atomic.Int32
}

func (f *FakeRemote) FetchLatestVersion(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.Started != nil {
		select {
		case f.Started <- struct{}{}:
		default:
		}
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Version, nil
}

// Calls returns how many times FetchLatestVersion ran.
func (f *FakeRemote) Calls() int {
	return int(f.calls.Load())
}

// FakeReachability reports a toggleable connectivity state.
type FakeReachability struct {
	up atomic.Bool
}

func NewFakeReachability(up bool) *FakeReachability {
	r := &FakeReachability{}
	r.up.Store(up)
	return r
}

func (f *FakeReachability) Reachable(_ context.Context) bool {
	return f.up.Load()
}

// Set changes the reported state.
func (f *FakeReachability) Set(up bool) {
	f.up.Store(up)
}

// FakeEnqueuer records enqueued check sources.
type FakeEnqueuer struct {
	mu      sync.Mutex
	Sources []models.CheckSource
	Reject  bool
}

func (f *FakeEnqueuer) Enqueue(source models.CheckSource) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sources = append(f.Sources, source)
	return !f.Reject
}

// Count returns the number of Enqueue calls.
func (f *FakeEnqueuer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sources)
}
